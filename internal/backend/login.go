package backend

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type LoginUser struct {
	ID        string `json:"_id"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	UserType  int    `json:"usertype"`
}

type LoginResult struct {
	Token string    `json:"token"`
	User  LoginUser `json:"user"`
}

// Login exchanges email and password for a bearer token. It is the only unauthenticated call.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	body, err := jsonBody(map[string]string{
		"email":    strings.TrimSpace(email),
		"password": password,
	})
	if err != nil {
		return LoginResult{}, err
	}
	var out LoginResult
	err = c.do(ctx, request{
		operation:   "login",
		method:      http.MethodPost,
		path:        "/teacher/login",
		body:        body,
		contentType: "application/json",
	}, &out)
	if err != nil {
		return LoginResult{}, err
	}
	if strings.TrimSpace(out.Token) == "" {
		return LoginResult{}, errors.New("backend login returned no token")
	}
	return out, nil
}
