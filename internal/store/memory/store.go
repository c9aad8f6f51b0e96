package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dvloznov/family-finance/internal/domain"
	"github.com/dvloznov/family-finance/internal/store"
	"github.com/google/uuid"
)

// Store is an in-memory implementation of store.Store.
// It is safe for concurrent use. Data is lost on restart; it backs local
// development and tests.
type Store struct {
	mu sync.RWMutex

	users         map[string]*domain.User
	families      map[string]*domain.Family
	members       []*domain.FamilyMember
	settings      map[string]*domain.UserSettings
	categories    []*domain.Category
	subcategories []*domain.Subcategory
	chat          []*domain.ChatMessage
	transactions  map[string]*domain.Transaction
	budgets       map[string]*domain.Budget
	goals         map[string]*domain.Goal
	audit         []*domain.AuditLogEntry
	metrics       []*domain.UsageMetric
	notifications map[string]*domain.Notification
	invitations   map[string]*domain.Invitation

	// seq orders rows that share a timestamp.
	seq   int64
	order map[string]int64

	// Hooks let tests inject infrastructure failures.
	AuditHook  func(entry *domain.AuditLogEntry) error
	DeleteHook func(transactionID string) error
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		users:         make(map[string]*domain.User),
		families:      make(map[string]*domain.Family),
		settings:      make(map[string]*domain.UserSettings),
		transactions:  make(map[string]*domain.Transaction),
		budgets:       make(map[string]*domain.Budget),
		goals:         make(map[string]*domain.Goal),
		notifications: make(map[string]*domain.Notification),
		invitations:   make(map[string]*domain.Invitation),
		order:         make(map[string]int64),
	}
}

// Close implements store.Store.
func (s *Store) Close() error {
	return nil
}

func (s *Store) next(id string) {
	s.seq++
	s.order[id] = s.seq
}

// AddUser seeds a user.
func (s *Store) AddUser(u *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *u
	s.users[u.ID] = &c
}

// AddFamily seeds a family and makes its owner a member.
func (s *Store) AddFamily(f *domain.Family) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *f
	s.families[f.ID] = &c
	if f.OwnerID != "" {
		s.members = append(s.members, &domain.FamilyMember{
			FamilyID: f.ID,
			UserID:   f.OwnerID,
			Role:     domain.MemberOwner,
			JoinedAt: f.CreatedAt,
		})
	}
}

// PutUserSettings seeds or replaces a user's settings.
func (s *Store) PutUserSettings(us *domain.UserSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *us
	s.settings[us.UserID] = &c
}

// AddCategory seeds a category.
func (s *Store) AddCategory(c *domain.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	s.categories = append(s.categories, &cp)
}

// AddSubcategory seeds a subcategory.
func (s *Store) AddSubcategory(sc *domain.Subcategory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sc
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	s.subcategories = append(s.subcategories, &cp)
}

// AuditLogs returns a copy of all audit entries.
func (s *Store) AuditLogs() []*domain.AuditLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.AuditLogEntry, len(s.audit))
	copy(out, s.audit)
	return out
}

// UsageMetrics returns a copy of all recorded metrics.
func (s *Store) UsageMetrics() []*domain.UsageMetric {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.UsageMetric, len(s.metrics))
	copy(out, s.metrics)
	return out
}

// CountTransactions returns the number of transactions of a family.
func (s *Store) CountTransactions(familyID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, tx := range s.transactions {
		if tx.FamilyID == familyID {
			n++
		}
	}
	return n
}

// GetUser implements store.UserStore.
func (s *Store) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *u
	return &c, nil
}

// FamilyIDForUser implements store.UserStore.
func (s *Store) FamilyIDForUser(ctx context.Context, userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.members {
		if m.UserID == userID {
			return m.FamilyID, nil
		}
	}
	return "", store.ErrNotFound
}

// GetFamily implements store.UserStore.
func (s *Store) GetFamily(ctx context.Context, familyID string) (*domain.Family, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.families[familyID]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *f
	return &c, nil
}

// ListFamilyMembers implements store.UserStore.
func (s *Store) ListFamilyMembers(ctx context.Context, familyID string) ([]*domain.FamilyMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.FamilyMember
	for _, m := range s.members {
		if m.FamilyID == familyID {
			c := *m
			out = append(out, &c)
		}
	}
	return out, nil
}

// AddFamilyMember implements store.UserStore.
func (s *Store) AddFamilyMember(ctx context.Context, member *domain.FamilyMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		if m.FamilyID == member.FamilyID && m.UserID == member.UserID {
			return fmt.Errorf("AddFamilyMember: user %s already in family %s", member.UserID, member.FamilyID)
		}
	}
	c := *member
	s.members = append(s.members, &c)
	return nil
}

// GetUserSettings implements store.UserStore.
func (s *Store) GetUserSettings(ctx context.Context, userID string) (*domain.UserSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	us, ok := s.settings[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *us
	return &c, nil
}

// ListCategories implements store.CategoryStore.
func (s *Store) ListCategories(ctx context.Context, familyID string) ([]*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Category
	for _, c := range s.categories {
		if c.FamilyID == "" || c.FamilyID == familyID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ListSubcategories implements store.CategoryStore.
func (s *Store) ListSubcategories(ctx context.Context, familyID string) ([]*domain.Subcategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Subcategory
	for _, sc := range s.subcategories {
		if sc.FamilyID == "" || sc.FamilyID == familyID {
			cp := *sc
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ListChatMessages implements store.ChatStore.
func (s *Store) ListChatMessages(ctx context.Context, filter store.ChatFilter) ([]*domain.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.ChatMessage
	for _, m := range s.chat {
		if filter.FamilyID != "" && m.FamilyID != filter.FamilyID {
			continue
		}
		switch {
		case filter.ConversationID != "":
			if m.ConversationID != filter.ConversationID {
				continue
			}
		case filter.ThreadID != "":
			if m.ThreadID != filter.ThreadID {
				continue
			}
		}
		c := *m
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return s.order[out[i].ID] > s.order[out[j].ID]
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// InsertChatMessages implements store.ChatStore.
func (s *Store) InsertChatMessages(ctx context.Context, msgs ...*domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range msgs {
		c := *m
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = time.Now()
		}
		s.next(c.ID)
		s.chat = append(s.chat, &c)
	}
	return nil
}

// InsertTransaction implements store.TransactionStore.
func (s *Store) InsertTransaction(ctx context.Context, tx *domain.Transaction) error {
	if tx.ID == "" {
		return fmt.Errorf("InsertTransaction: transaction ID is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.transactions[tx.ID]; exists {
		return fmt.Errorf("InsertTransaction: duplicate ID %s", tx.ID)
	}
	c := *tx
	s.transactions[tx.ID] = &c
	s.next(tx.ID)
	return nil
}

// SearchTransactions implements store.TransactionStore.
func (s *Store) SearchTransactions(ctx context.Context, f store.TransactionFilter) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cats map[string]bool
	if len(f.CategoryIDs) > 0 {
		cats = make(map[string]bool, len(f.CategoryIDs))
		for _, id := range f.CategoryIDs {
			cats[id] = true
		}
	}
	needle := strings.ToLower(f.DescriptionContains)

	var out []*domain.Transaction
	for _, tx := range s.transactions {
		if f.FamilyID != "" && tx.FamilyID != f.FamilyID {
			continue
		}
		if f.Type != "" && tx.Type != f.Type {
			continue
		}
		if cats != nil && !cats[tx.CategoryID] {
			continue
		}
		if f.StartDate != nil && tx.Date.Before(*f.StartDate) {
			continue
		}
		if f.EndDate != nil && tx.Date.After(*f.EndDate) {
			continue
		}
		if f.Date != nil && tx.Date != *f.Date {
			continue
		}
		if f.Amount != nil && !tx.Amount.Equal(*f.Amount) {
			continue
		}
		if f.Description != "" && tx.Description != f.Description {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(tx.Description), needle) {
			continue
		}
		if f.Source != "" && tx.Source != f.Source {
			continue
		}
		if f.CreatedSince != nil && tx.CreatedAt.Before(*f.CreatedSince) {
			continue
		}
		c := *tx
		out = append(out, &c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.After(out[j].Date)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return s.order[out[i].ID] > s.order[out[j].ID]
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// DeleteTransaction implements store.TransactionStore.
func (s *Store) DeleteTransaction(ctx context.Context, familyID, transactionID string) error {
	if s.DeleteHook != nil {
		if err := s.DeleteHook(transactionID); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[transactionID]
	if !ok || tx.FamilyID != familyID {
		return store.ErrNotFound
	}
	delete(s.transactions, transactionID)
	return nil
}

func budgetKey(b *domain.Budget) string {
	return b.FamilyID + "|" + b.CategoryID + "|" + string(b.Period) + "|" + b.StartDate.String()
}

// UpsertBudget implements store.BudgetStore.
func (s *Store) UpsertBudget(ctx context.Context, b *domain.Budget) (*domain.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := budgetKey(b)
	now := time.Now()
	if existing, ok := s.budgets[key]; ok {
		existing.LimitAmount = b.LimitAmount
		existing.EndDate = b.EndDate
		existing.UpdatedAt = now
		c := *existing
		return &c, nil
	}
	c := *b
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	s.budgets[key] = &c
	s.next(c.ID)
	out := c
	return &out, nil
}

// FindBudgetForCategory implements store.BudgetStore.
func (s *Store) FindBudgetForCategory(ctx context.Context, familyID, categoryID string) (*domain.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *domain.Budget
	for _, b := range s.budgets {
		if b.FamilyID != familyID || b.CategoryID != categoryID {
			continue
		}
		if found == nil || b.StartDate.After(found.StartDate) {
			found = b
		}
	}
	if found == nil {
		return nil, store.ErrNotFound
	}
	c := *found
	return &c, nil
}

// ListBudgets implements store.BudgetStore.
func (s *Store) ListBudgets(ctx context.Context, familyID string) ([]*domain.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Budget
	for _, b := range s.budgets {
		if b.FamilyID == familyID {
			c := *b
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

// InsertGoal implements store.GoalStore.
func (s *Store) InsertGoal(ctx context.Context, g *domain.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *g
	s.goals[g.ID] = &c
	s.next(g.ID)
	return nil
}

// ListGoals implements store.GoalStore.
func (s *Store) ListGoals(ctx context.Context, familyID string) ([]*domain.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Goal
	for _, g := range s.goals {
		if g.FamilyID == familyID {
			c := *g
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return s.order[out[i].ID] > s.order[out[j].ID] })
	return out, nil
}

// InsertAuditLog implements store.AuditStore.
func (s *Store) InsertAuditLog(ctx context.Context, entry *domain.AuditLogEntry) error {
	if s.AuditHook != nil {
		if err := s.AuditHook(entry); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *entry
	s.audit = append(s.audit, &c)
	return nil
}

// InsertUsageMetric implements store.MetricStore.
func (s *Store) InsertUsageMetric(ctx context.Context, m *domain.UsageMetric) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *m
	s.metrics = append(s.metrics, &c)
	return nil
}

// InsertNotification implements store.NotificationStore.
func (s *Store) InsertNotification(ctx context.Context, n *domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *n
	s.notifications[n.ID] = &c
	s.next(n.ID)
	return nil
}

// ListNotifications implements store.NotificationStore.
func (s *Store) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]*domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Notification
	for _, n := range s.notifications {
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		c := *n
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool { return s.order[out[i].ID] > s.order[out[j].ID] })
	return out, nil
}

// MarkNotificationRead implements store.NotificationStore.
func (s *Store) MarkNotificationRead(ctx context.Context, userID, notificationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[notificationID]
	if !ok || n.UserID != userID {
		return store.ErrNotFound
	}
	n.Read = true
	return nil
}

// InsertInvitation implements store.InvitationStore.
func (s *Store) InsertInvitation(ctx context.Context, inv *domain.Invitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *inv
	s.invitations[inv.ID] = &c
	return nil
}

// GetInvitationByToken implements store.InvitationStore.
func (s *Store) GetInvitationByToken(ctx context.Context, token string) (*domain.Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, inv := range s.invitations {
		if inv.Token == token {
			c := *inv
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

// ListPendingInvitations implements store.InvitationStore.
func (s *Store) ListPendingInvitations(ctx context.Context, familyID string) ([]*domain.Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Invitation
	for _, inv := range s.invitations {
		if inv.FamilyID == familyID && inv.Status == domain.InvitationPending {
			c := *inv
			out = append(out, &c)
		}
	}
	return out, nil
}

// UpdateInvitationStatus implements store.InvitationStore.
func (s *Store) UpdateInvitationStatus(ctx context.Context, invitationID string, status domain.InvitationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invitations[invitationID]
	if !ok {
		return store.ErrNotFound
	}
	inv.Status = status
	return nil
}

// Ensure Store implements store.Store.
var _ store.Store = (*Store)(nil)
