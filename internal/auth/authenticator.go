// Package auth verifies credentials and gates routes by session and role.
package auth

import (
	"context"
	"strings"

	"github.com/danesh-portal/danesh/internal/metrics"
	"github.com/danesh-portal/danesh/storage/model"
)

// Authenticator checks credentials against the credential store
type Authenticator struct {
	users model.UsersStore
}

// NewAuthenticator creates a new Authenticator
func NewAuthenticator(users model.UsersStore) *Authenticator {
	return &Authenticator{users: users}
}

// Authenticate returns the identity for valid credentials. Unknown users,
// wrong passwords and disabled accounts all yield (nil, nil) so callers cannot
// tell them apart; an error means the credential store failed.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (*model.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, nil
	}
	u, err := a.users.Authenticate(username, password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if u == nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, nil
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	identity := u.Identity()
	return &identity, nil
}
