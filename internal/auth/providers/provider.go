package providers

import (
	"context"

	"github.com/examwatch/proctor-admin/internal/auth"
)

type Provider interface {
	Name() string
	Authenticate(ctx context.Context, email, password string) (auth.Credentials, error)
}
