// Package family manages family membership through email invitations.
package family

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/dvloznov/family-finance/internal/domain"
	"github.com/dvloznov/family-finance/internal/logger"
	"github.com/dvloznov/family-finance/internal/notify"
	"github.com/dvloznov/family-finance/internal/store"
	"github.com/google/uuid"
)

const defaultInvitationTTL = 7 * 24 * time.Hour

var (
	ErrInvalidInvitation  = errors.New("convite inválido")
	ErrForbidden          = errors.New("operação não permitida")
	ErrAlreadyMember      = errors.New("usuário já pertence a uma família")
	ErrDuplicateInvite    = errors.New("já existe um convite pendente para este email")
	ErrInvitationNotFound = errors.New("convite não encontrado")
	ErrInvitationClosed   = errors.New("convite já utilizado")
	ErrInvitationExpired  = errors.New("convite expirado")
)

// Store is the persistence the invitation workflow needs.
type Store interface {
	store.UserStore
	store.InvitationStore
}

// Notifier sends invitation emails and family announcements.
type Notifier interface {
	Invite(ctx context.Context, to string, data notify.Invite) error
	FamilyEvent(ctx context.Context, familyID, skipUserID, message string) error
}

// Service runs the invitation workflow.
type Service struct {
	store    Store
	notifier Notifier
	appURL   string
	ttl      time.Duration
	now      func() time.Time
	newToken func() string
}

// NewService creates a Service. notifier may be nil.
func NewService(st Store, notifier Notifier, appURL string) *Service {
	return &Service{
		store:    st,
		notifier: notifier,
		appURL:   strings.TrimRight(appURL, "/"),
		ttl:      defaultInvitationTTL,
		now:      time.Now,
		newToken: func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
	}
}

// Invite creates a pending invitation and queues its email. Only owners and
// adult members may invite, and an email can hold one pending invitation
// per family.
func (s *Service) Invite(ctx context.Context, inviter *domain.User, familyID, email string, role domain.MemberRole) (*domain.Invitation, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("%w: email %q", ErrInvalidInvitation, email)
	}
	email = strings.ToLower(addr.Address)
	if role == "" {
		role = domain.MemberAdult
	}
	if role != domain.MemberAdult && role != domain.MemberViewer {
		return nil, fmt.Errorf("%w: papel %q", ErrInvalidInvitation, role)
	}

	members, err := s.store.ListFamilyMembers(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("Invite: listing members: %w", err)
	}
	if r, ok := roleOf(members, inviter.ID); !ok || r == domain.MemberViewer {
		return nil, ErrForbidden
	}
	for _, m := range members {
		u, err := s.store.GetUser(ctx, m.UserID)
		if err != nil {
			continue
		}
		if strings.EqualFold(u.Email, email) {
			return nil, ErrAlreadyMember
		}
	}

	pending, err := s.store.ListPendingInvitations(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("Invite: listing invitations: %w", err)
	}
	now := s.now()
	for _, p := range pending {
		if strings.EqualFold(p.Email, email) && now.Before(p.ExpiresAt) {
			return nil, ErrDuplicateInvite
		}
	}

	family, err := s.store.GetFamily(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("Invite: loading family: %w", err)
	}

	inv := &domain.Invitation{
		ID:        uuid.NewString(),
		FamilyID:  familyID,
		InvitedBy: inviter.ID,
		Email:     email,
		Role:      role,
		Token:     s.newToken(),
		Status:    domain.InvitationPending,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.store.InsertInvitation(ctx, inv); err != nil {
		return nil, fmt.Errorf("Invite: %w", err)
	}

	if s.notifier != nil {
		err := s.notifier.Invite(ctx, email, notify.Invite{
			FamilyName:  family.Name,
			InviterName: displayName(inviter),
			AcceptURL:   s.appURL + "/convite?token=" + url.QueryEscape(inv.Token),
			ExpiresAt:   inv.ExpiresAt.Format("02/01/2006"),
		})
		if err != nil {
			log := logger.FromContext(ctx)
			log.Warn().Err(err).Str("invitation_id", inv.ID).Msg("Failed to queue invitation email")
		}
	}
	return inv, nil
}

// Accept joins user to the family of the invitation identified by token.
func (s *Service) Accept(ctx context.Context, user *domain.User, token string) (*domain.FamilyMember, error) {
	inv, err := s.store.GetInvitationByToken(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvitationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Accept: %w", err)
	}
	if inv.Status != domain.InvitationPending {
		return nil, ErrInvitationClosed
	}
	if !s.now().Before(inv.ExpiresAt) {
		if err := s.store.UpdateInvitationStatus(ctx, inv.ID, domain.InvitationExpired); err != nil {
			log := logger.FromContext(ctx)
			log.Warn().Err(err).Str("invitation_id", inv.ID).Msg("Failed to expire invitation")
		}
		return nil, ErrInvitationExpired
	}
	if !strings.EqualFold(inv.Email, user.Email) {
		return nil, ErrForbidden
	}

	_, err = s.store.FamilyIDForUser(ctx, user.ID)
	switch {
	case err == nil:
		return nil, ErrAlreadyMember
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("Accept: checking membership: %w", err)
	}

	member := &domain.FamilyMember{
		FamilyID: inv.FamilyID,
		UserID:   user.ID,
		Role:     inv.Role,
		JoinedAt: s.now(),
	}
	if err := s.store.AddFamilyMember(ctx, member); err != nil {
		return nil, fmt.Errorf("Accept: %w", err)
	}
	if err := s.store.UpdateInvitationStatus(ctx, inv.ID, domain.InvitationAccepted); err != nil {
		return nil, fmt.Errorf("Accept: marking invitation: %w", err)
	}

	if s.notifier != nil {
		msg := fmt.Sprintf("%s entrou na família.", displayName(user))
		if err := s.notifier.FamilyEvent(ctx, inv.FamilyID, user.ID, msg); err != nil {
			log := logger.FromContext(ctx)
			log.Warn().Err(err).Str("family_id", inv.FamilyID).Msg("Failed to announce new member")
		}
	}
	return member, nil
}

// Pending lists the family's open invitations. Only members may list them.
func (s *Service) Pending(ctx context.Context, user *domain.User, familyID string) ([]*domain.Invitation, error) {
	members, err := s.store.ListFamilyMembers(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("Pending: %w", err)
	}
	if _, ok := roleOf(members, user.ID); !ok {
		return nil, ErrForbidden
	}
	invs, err := s.store.ListPendingInvitations(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("Pending: %w", err)
	}
	now := s.now()
	out := invs[:0]
	for _, inv := range invs {
		if now.Before(inv.ExpiresAt) {
			out = append(out, inv)
		}
	}
	return out, nil
}

func roleOf(members []*domain.FamilyMember, userID string) (domain.MemberRole, bool) {
	for _, m := range members {
		if m.UserID == userID {
			return m.Role, true
		}
	}
	return "", false
}

func displayName(u *domain.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
