package auth

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/dvloznov/family-finance/internal/domain"
	"github.com/dvloznov/family-finance/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderProvider_WithoutStore(t *testing.T) {
	p := NewHeaderProvider(nil)

	r := httptest.NewRequest("GET", "/api/goals", nil)
	r.Header.Set(HeaderUserID, " u1 ")
	r.Header.Set(HeaderUserEmail, "ana@example.com")
	r.Header.Set(HeaderUserName, "Ana")

	user, err := p.CurrentUser(r)
	require.NoError(t, err)
	assert.Equal(t, &domain.User{ID: "u1", Email: "ana@example.com", Name: "Ana"}, user)
}

func TestHeaderProvider_WithStore(t *testing.T) {
	st := memory.New()
	st.AddUser(&domain.User{ID: "u1", Email: "ana@example.com", Name: "Ana Silva"})
	p := NewHeaderProvider(st)

	tests := []struct {
		name    string
		userID  string
		want    *domain.User
		wantErr error
	}{
		{"known user", "u1", &domain.User{ID: "u1", Email: "ana@example.com", Name: "Ana Silva"}, nil},
		{"unknown user", "u9", nil, ErrNoUser},
		{"missing header", "", nil, ErrNoUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/goals", nil)
			if tt.userID != "" {
				r.Header.Set(HeaderUserID, tt.userID)
			}
			// The stored account wins over header values.
			r.Header.Set(HeaderUserEmail, "spoof@example.com")

			user, err := p.CurrentUser(r)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, user)
		})
	}
}

func TestUserContext(t *testing.T) {
	assert.Nil(t, UserFromContext(context.Background()))

	user := &domain.User{ID: "u1"}
	ctx := WithUser(context.Background(), user)
	assert.Same(t, user, UserFromContext(ctx))
}
