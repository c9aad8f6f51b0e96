package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

type mockSender struct {
	DialAndSendWithContextFunc func(ctx context.Context, messages ...*mail.Msg) error
	sent                       []*mail.Msg
}

func (m *mockSender) DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error {
	m.sent = append(m.sent, messages...)
	if m.DialAndSendWithContextFunc != nil {
		return m.DialAndSendWithContextFunc(ctx, messages...)
	}
	return nil
}

func TestSMTPTransport_Deliver(t *testing.T) {
	sender := &mockSender{}
	tr := &SMTPTransport{client: sender, from: "Finanças <noreply@financas.app>"}

	err := tr.Deliver(context.Background(), Email{To: "ana@example.com", Subject: "Nova meta criada", HTML: "<p>oi</p>"})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, []string{"<ana@example.com>"}, msg.GetToString())
	assert.Equal(t, []string{"Nova meta criada"}, msg.GetGenHeader(mail.HeaderSubject))
}

func TestSMTPTransport_Errors(t *testing.T) {
	sender := &mockSender{DialAndSendWithContextFunc: func(context.Context, ...*mail.Msg) error {
		return errors.New("535 authentication failed")
	}}
	tr := &SMTPTransport{client: sender, from: "noreply@financas.app"}

	err := tr.Deliver(context.Background(), Email{To: "ana@example.com", Subject: "x"})
	assert.ErrorContains(t, err, "535")

	err = tr.Deliver(context.Background(), Email{To: "", Subject: "x"})
	assert.Error(t, err)

	bad := &SMTPTransport{client: &mockSender{}, from: "not an address"}
	assert.Error(t, bad.Deliver(context.Background(), Email{To: "ana@example.com"}))
}

func TestNewSMTPTransport(t *testing.T) {
	tr, err := NewSMTPTransport(SMTPConfig{Host: "smtp.example.com", Port: 587, Username: "u", Password: "p", From: "noreply@financas.app"})
	require.NoError(t, err)
	assert.NotNil(t, tr.client)

	_, err = NewSMTPTransport(SMTPConfig{Port: 587})
	assert.Error(t, err, "host is required")
}
