package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/fanscosa/cosa-web/internal/platform/apiclient"
)

// ErrLoginRejected wraps a refused login. The message is the backend's.
var ErrLoginRejected = errors.New("login rejected")

type Repository interface {
	Login(ctx context.Context, email, password string) (string, error)
	VerifyToken(ctx context.Context) (*apiclient.Identity, error)
}

type apiRepo struct {
	client *apiclient.Client
}

func NewAPIRepo(client *apiclient.Client) Repository {
	return &apiRepo{client: client}
}

// RejectedError carries the backend's reason for a refused login.
type RejectedError struct {
	Message string
	Err     error
}

func (e *RejectedError) Error() string { return "login rejected: " + e.Message }

func (e *RejectedError) Unwrap() []error { return []error{ErrLoginRejected, e.Err} }

func (r *apiRepo) Login(ctx context.Context, email, password string) (string, error) {
	body := map[string]string{"email": email, "password": password}
	var data struct {
		Token string `json:"token"`
	}
	env, err := r.client.Do(ctx, http.MethodPost, "/auth/login", nil, body, &data)
	if err != nil {
		var apiErr *apiclient.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode != 0 {
			msg := "Login Failed"
			if env != nil && env.Message != "" {
				msg = env.Message
			}
			return "", &RejectedError{Message: msg, Err: err}
		}
		return "", fmt.Errorf("login: %w", err)
	}
	if data.Token == "" {
		return "", &RejectedError{Message: "Login Failed", Err: errors.New("no token in response")}
	}
	return data.Token, nil
}

func (r *apiRepo) VerifyToken(ctx context.Context) (*apiclient.Identity, error) {
	id, err := r.client.VerifyToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	return id, nil
}
