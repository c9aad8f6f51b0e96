package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/family-finance/internal/domain"
	"github.com/dvloznov/family-finance/internal/jobs"
	"github.com/dvloznov/family-finance/internal/logger"
	"github.com/dvloznov/family-finance/internal/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Notification types shown in the app.
const (
	NotificationTransaction = "transaction"
	NotificationBudget      = "budget"
	NotificationGoal        = "goal"
	NotificationFamily      = "family"
)

// DispatchStore is what the dispatcher reads and writes.
type DispatchStore interface {
	store.UserStore
	store.NotificationStore
}

// Dispatcher turns domain events into in-app notifications and queued
// emails. Emails are sent by Handle, running on the job queue.
type Dispatcher struct {
	store     DispatchStore
	publisher jobs.Publisher
	mailer    Mailer
	now       func() time.Time
	newID     func() string
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(st DispatchStore, publisher jobs.Publisher, mailer Mailer) *Dispatcher {
	return &Dispatcher{
		store:     st,
		publisher: publisher,
		mailer:    mailer,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// NewInlineDispatcher creates a Dispatcher that sends each email before the
// triggering call returns, with no retries.
func NewInlineDispatcher(st DispatchStore, mailer Mailer) *Dispatcher {
	d := NewDispatcher(st, nil, mailer)
	d.publisher = inlinePublisher{d: d}
	return d
}

type inlinePublisher struct {
	d *Dispatcher
}

func (p inlinePublisher) PublishNotification(ctx context.Context, job *jobs.NotificationJob) error {
	if job.JobID == "" {
		job.JobID = p.d.newID()
	}
	return p.d.Handle(ctx, job)
}

func (inlinePublisher) Close() error { return nil }

type envelope struct {
	To   string          `json:"to"`
	Data json.RawMessage `json:"data"`
}

// TransactionCreated notifies the user about a registered transaction.
func (d *Dispatcher) TransactionCreated(ctx context.Context, userID string, tx *domain.Transaction, categoryName string) error {
	user, err := d.store.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("TransactionCreated: loading user: %w", err)
	}
	label := "Despesa"
	if tx.Type == domain.TransactionIncome {
		label = "Receita"
	}
	d.notify(ctx, &domain.Notification{
		UserID:   userID,
		FamilyID: tx.FamilyID,
		Type:     NotificationTransaction,
		Title:    "Nova transação registrada",
		Message:  fmt.Sprintf("%s de %s em %s: %s", label, FormatBRL(tx.Amount), categoryName, tx.Description),
	})
	return d.enqueue(ctx, KindTransactionAlert, userID, user.Email, TransactionAlert{
		Name:        user.Name,
		Type:        string(tx.Type),
		Description: tx.Description,
		Amount:      tx.Amount,
		Category:    categoryName,
		Date:        tx.Date.String(),
	})
}

// BudgetExceeded notifies the user that a category went over its limit.
func (d *Dispatcher) BudgetExceeded(ctx context.Context, userID, familyID, categoryName string, spent, limit decimal.Decimal) error {
	user, err := d.store.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("BudgetExceeded: loading user: %w", err)
	}
	d.notify(ctx, &domain.Notification{
		UserID:   userID,
		FamilyID: familyID,
		Type:     NotificationBudget,
		Title:    "Orçamento ultrapassado",
		Message:  fmt.Sprintf("%s: %s gastos de um limite de %s", categoryName, FormatBRL(spent), FormatBRL(limit)),
	})
	return d.enqueue(ctx, KindBudgetAlert, userID, user.Email, BudgetAlert{
		Name:     user.Name,
		Category: categoryName,
		Spent:    spent,
		Limit:    limit,
	})
}

// GoalCreated notifies the user about a new goal.
func (d *Dispatcher) GoalCreated(ctx context.Context, userID string, goal *domain.Goal) error {
	user, err := d.store.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("GoalCreated: loading user: %w", err)
	}
	alert := GoalAlert{Name: user.Name, Goal: goal.Name, Target: goal.TargetAmount}
	if goal.Deadline != nil {
		alert.Deadline = goal.Deadline.String()
	}
	d.notify(ctx, &domain.Notification{
		UserID:   userID,
		FamilyID: goal.FamilyID,
		Type:     NotificationGoal,
		Title:    "Nova meta criada",
		Message:  fmt.Sprintf("%s: alvo de %s", goal.Name, FormatBRL(goal.TargetAmount)),
	})
	return d.enqueue(ctx, KindGoalAlert, userID, user.Email, alert)
}

// FamilyEvent notifies every member of the family except skipUserID. All of
// them get an in-app notification; those with family alerts on also get an
// email.
func (d *Dispatcher) FamilyEvent(ctx context.Context, familyID, skipUserID, message string) error {
	family, err := d.store.GetFamily(ctx, familyID)
	if err != nil {
		return fmt.Errorf("FamilyEvent: loading family: %w", err)
	}
	members, err := d.store.ListFamilyMembers(ctx, familyID)
	if err != nil {
		return fmt.Errorf("FamilyEvent: listing members: %w", err)
	}

	var errs []error
	for _, m := range members {
		if m.UserID == skipUserID {
			continue
		}
		d.notify(ctx, &domain.Notification{
			UserID:   m.UserID,
			FamilyID: familyID,
			Type:     NotificationFamily,
			Title:    "Novidades na família " + family.Name,
			Message:  message,
		})

		settings, err := d.store.GetUserSettings(ctx, m.UserID)
		if errors.Is(err, store.ErrNotFound) {
			settings, err = domain.DefaultUserSettings(m.UserID), nil
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("settings of %s: %w", m.UserID, err))
			continue
		}
		if !settings.FamilyAlerts {
			continue
		}
		user, err := d.store.GetUser(ctx, m.UserID)
		if err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", m.UserID, err))
			continue
		}
		if err := d.enqueue(ctx, KindFamilyAlert, m.UserID, user.Email, FamilyAlert{
			Name:       user.Name,
			FamilyName: family.Name,
			Message:    message,
		}); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Invite queues an invitation email.
func (d *Dispatcher) Invite(ctx context.Context, to string, data Invite) error {
	return d.enqueue(ctx, KindInvite, "", to, data)
}

// notify writes an in-app notification; failures are only logged.
func (d *Dispatcher) notify(ctx context.Context, n *domain.Notification) {
	n.ID = d.newID()
	n.CreatedAt = d.now()
	if err := d.store.InsertNotification(ctx, n); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).
			Str("user_id", n.UserID).
			Str("type", n.Type).
			Msg("Failed to store notification")
	}
}

func (d *Dispatcher) enqueue(ctx context.Context, kind, userID, to string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding %s payload: %w", kind, err)
	}
	payload, err := json.Marshal(envelope{To: to, Data: raw})
	if err != nil {
		return fmt.Errorf("encoding %s envelope: %w", kind, err)
	}
	job := &jobs.NotificationJob{Kind: kind, UserID: userID, Payload: payload}
	if err := d.publisher.PublishNotification(ctx, job); err != nil {
		return fmt.Errorf("queueing %s email: %w", kind, err)
	}
	return nil
}

// Handle sends the email of a queued job. It is a jobs.JobHandler; a failed
// send returns an error so the queue retries it.
func (d *Dispatcher) Handle(ctx context.Context, job jobs.Job) error {
	nj, ok := job.(*jobs.NotificationJob)
	if !ok {
		return fmt.Errorf("unexpected job type %s", job.GetType())
	}
	var env envelope
	if err := json.Unmarshal(nj.Payload, &env); err != nil {
		return fmt.Errorf("decoding job %s: %w", nj.JobID, err)
	}

	res, err := d.send(ctx, nj.Kind, env)
	if err != nil {
		return err
	}
	if !res.Success {
		return errors.New(res.Error)
	}
	log := logger.FromContext(ctx)
	log.Info().
		Str("job_id", nj.JobID).
		Str("kind", nj.Kind).
		Msg("Email sent")
	return nil
}

func (d *Dispatcher) send(ctx context.Context, kind string, env envelope) (Result, error) {
	switch kind {
	case KindTransactionAlert:
		return sendAs(ctx, env, d.mailer.SendTransactionAlert)
	case KindBudgetAlert:
		return sendAs(ctx, env, d.mailer.SendBudgetAlert)
	case KindGoalAlert:
		return sendAs(ctx, env, d.mailer.SendGoalAlert)
	case KindFamilyAlert:
		return sendAs(ctx, env, d.mailer.SendFamilyAlert)
	case KindInvite:
		return sendAs(ctx, env, d.mailer.SendInvite)
	case KindPasswordChange:
		return sendAs(ctx, env, d.mailer.SendPasswordChange)
	case KindWaitlist:
		return sendAs(ctx, env, d.mailer.SendWaitlistNotification)
	case KindAdminNewUser:
		return sendAs(ctx, env, d.mailer.SendAdminNewUser)
	default:
		return Result{}, fmt.Errorf("unknown email kind %q", kind)
	}
}

func sendAs[T any](ctx context.Context, env envelope, fn func(context.Context, string, T) Result) (Result, error) {
	var data T
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return Result{}, fmt.Errorf("decoding %T: %w", data, err)
	}
	return fn(ctx, env.To, data), nil
}
