// Package notify delivers user-facing alerts by email and as in-app
// notifications.
package notify

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
)

// Email kinds. Each kind has a template under templates/.
const (
	KindTransactionAlert = "transaction_alert"
	KindBudgetAlert      = "budget_alert"
	KindGoalAlert        = "goal_alert"
	KindFamilyAlert      = "family_alert"
	KindInvite           = "invite"
	KindPasswordChange   = "password_change"
	KindWaitlist         = "waitlist"
	KindAdminNewUser     = "admin_new_user"
)

// Result reports the outcome of one send. Senders never return Go errors.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func failed(err error) Result { return Result{Success: false, Error: err.Error()} }

// Mailer is the email gateway.
type Mailer interface {
	SendTransactionAlert(ctx context.Context, to string, data TransactionAlert) Result
	SendBudgetAlert(ctx context.Context, to string, data BudgetAlert) Result
	SendGoalAlert(ctx context.Context, to string, data GoalAlert) Result
	SendFamilyAlert(ctx context.Context, to string, data FamilyAlert) Result
	SendInvite(ctx context.Context, to string, data Invite) Result
	SendPasswordChange(ctx context.Context, to string, data PasswordChange) Result
	SendWaitlistNotification(ctx context.Context, to string, data Waitlist) Result
	SendAdminNewUser(ctx context.Context, to string, data AdminNewUser) Result
}

// Email is a rendered message ready for a transport.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// Transport puts a rendered email on the wire.
type Transport interface {
	Deliver(ctx context.Context, email Email) error
}

// Service renders templates and hands the result to a Transport.
type Service struct {
	transport Transport
	appURL    string
}

// NewService creates a Mailer. appURL is linked from every email.
func NewService(transport Transport, appURL string) *Service {
	return &Service{transport: transport, appURL: strings.TrimRight(appURL, "/")}
}

func (s *Service) send(ctx context.Context, kind, to string, data any) Result {
	if _, err := mail.ParseAddress(to); err != nil {
		return failed(fmt.Errorf("invalid recipient %q: %w", to, err))
	}
	subject, body, err := render(kind, templateData{AppURL: s.appURL, Data: data})
	if err != nil {
		return failed(err)
	}
	if err := s.transport.Deliver(ctx, Email{To: to, Subject: subject, HTML: body}); err != nil {
		return failed(fmt.Errorf("sending %s email: %w", kind, err))
	}
	return Result{Success: true}
}

func (s *Service) SendTransactionAlert(ctx context.Context, to string, data TransactionAlert) Result {
	return s.send(ctx, KindTransactionAlert, to, data)
}

func (s *Service) SendBudgetAlert(ctx context.Context, to string, data BudgetAlert) Result {
	return s.send(ctx, KindBudgetAlert, to, data)
}

func (s *Service) SendGoalAlert(ctx context.Context, to string, data GoalAlert) Result {
	return s.send(ctx, KindGoalAlert, to, data)
}

func (s *Service) SendFamilyAlert(ctx context.Context, to string, data FamilyAlert) Result {
	return s.send(ctx, KindFamilyAlert, to, data)
}

func (s *Service) SendInvite(ctx context.Context, to string, data Invite) Result {
	return s.send(ctx, KindInvite, to, data)
}

func (s *Service) SendPasswordChange(ctx context.Context, to string, data PasswordChange) Result {
	return s.send(ctx, KindPasswordChange, to, data)
}

func (s *Service) SendWaitlistNotification(ctx context.Context, to string, data Waitlist) Result {
	return s.send(ctx, KindWaitlist, to, data)
}

func (s *Service) SendAdminNewUser(ctx context.Context, to string, data AdminNewUser) Result {
	return s.send(ctx, KindAdminNewUser, to, data)
}

var _ Mailer = (*Service)(nil)
