package bootstrap

import (
	"context"
	"testing"

	"github.com/dvloznov/family-finance/internal/config"
	"github.com/dvloznov/family-finance/internal/notify"
	"github.com/dvloznov/family-finance/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStore_Memory(t *testing.T) {
	ctx := context.Background()

	st, err := OpenStore(ctx, config.StoreConfig{Driver: config.DriverMemory}, "")
	require.NoError(t, err)
	defer st.Close()

	user, err := st.GetUser(ctx, memory.DemoUserID)
	require.NoError(t, err)
	assert.Equal(t, defaultDemoEmail, user.Email)

	familyID, err := st.FamilyIDForUser(ctx, memory.DemoUserID)
	require.NoError(t, err)
	assert.Equal(t, memory.DemoFamilyID, familyID)

	cats, err := st.ListCategories(ctx, familyID)
	require.NoError(t, err)
	assert.Len(t, cats, len(memory.DefaultCategories()))
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	_, err := OpenStore(context.Background(), config.StoreConfig{Driver: "sqlite"}, "")
	assert.ErrorContains(t, err, `unknown store driver "sqlite"`)
}

func TestNewTransport(t *testing.T) {
	tr, err := NewTransport(config.EmailConfig{Driver: config.EmailLog})
	require.NoError(t, err)
	assert.IsType(t, notify.LogTransport{}, tr)

	tr, err = NewTransport(config.EmailConfig{Driver: config.EmailSMTP, Host: "smtp.example.com", Port: 587})
	require.NoError(t, err)
	assert.IsType(t, &notify.SMTPTransport{}, tr)
}
