// Package auth resolves the current user of a request.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dvloznov/family-finance/internal/domain"
	"github.com/dvloznov/family-finance/internal/store"
)

// Headers set by the authenticating gateway in front of the API.
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"
	HeaderUserName  = "X-User-Name"
)

// ErrNoUser means the request carries no usable identity.
var ErrNoUser = errors.New("auth: no authenticated user")

// Provider resolves the user behind a request.
type Provider interface {
	CurrentUser(r *http.Request) (*domain.User, error)
}

// HeaderProvider trusts identity headers set by an upstream gateway. With a
// user store it loads the stored account and rejects unknown IDs; without
// one the headers are taken as-is.
type HeaderProvider struct {
	users store.UserStore
}

// NewHeaderProvider creates a HeaderProvider. users may be nil.
func NewHeaderProvider(users store.UserStore) *HeaderProvider {
	return &HeaderProvider{users: users}
}

// CurrentUser implements Provider.
func (p *HeaderProvider) CurrentUser(r *http.Request) (*domain.User, error) {
	id := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if id == "" {
		return nil, ErrNoUser
	}

	if p.users == nil {
		return &domain.User{
			ID:    id,
			Email: strings.TrimSpace(r.Header.Get(HeaderUserEmail)),
			Name:  strings.TrimSpace(r.Header.Get(HeaderUserName)),
		}, nil
	}

	user, err := p.users.GetUser(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoUser
	}
	if err != nil {
		return nil, fmt.Errorf("CurrentUser: loading user %s: %w", id, err)
	}
	return user, nil
}

type contextKey struct{}

// WithUser stores the user in the context.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// UserFromContext returns the user stored by WithUser, or nil.
func UserFromContext(ctx context.Context) *domain.User {
	user, _ := ctx.Value(contextKey{}).(*domain.User)
	return user
}

var _ Provider = (*HeaderProvider)(nil)
