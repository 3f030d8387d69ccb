package providers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/examwatch/proctor-admin/internal/auth"
	"github.com/examwatch/proctor-admin/internal/backend"
)

type loginClient interface {
	Login(ctx context.Context, email, password string) (backend.LoginResult, error)
}

// BackendProvider signs administrators in through the exam backend's teacher login.
type BackendProvider struct {
	Client   loginClient
	Lifetime time.Duration
	Now      func() time.Time
}

func NewBackendProvider(client *backend.Client, lifetime time.Duration) *BackendProvider {
	return &BackendProvider{Client: client, Lifetime: lifetime, Now: time.Now}
}

func (p *BackendProvider) Name() string {
	return auth.MethodBackend
}

func (p *BackendProvider) Authenticate(ctx context.Context, email, password string) (auth.Credentials, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return auth.Credentials{}, auth.ErrInvalidCredentials
	}

	res, err := p.Client.Login(ctx, email, password)
	if err != nil {
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) && apiErr.Status >= http.StatusBadRequest && apiErr.Status < http.StatusInternalServerError {
			return auth.Credentials{}, auth.ErrInvalidCredentials
		}
		return auth.Credentials{}, err
	}
	if res.User.UserType != auth.AdminUserType {
		return auth.Credentials{}, auth.ErrNotAdmin
	}

	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	principal := auth.Principal{
		UserID: res.User.ID,
		Name:   strings.TrimSpace(res.User.FirstName + " " + res.User.LastName),
		Email:  email,
		Method: auth.MethodBackend,
	}
	return auth.NewCredentials(res.Token, principal, now(), p.Lifetime), nil
}
