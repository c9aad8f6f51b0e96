package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/family-finance/internal/domain"
	"github.com/jackc/pgx/v5"
)

func (r *Repository) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	var u domain.User
	var name *string
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, email, name FROM users WHERE user_id = $1`, userID,
	).Scan(&u.ID, &u.Email, &name)
	if err != nil {
		return nil, notFound("GetUser", err)
	}
	u.Name = deref(name)
	return &u, nil
}

// FamilyIDForUser returns the family the user joined first.
func (r *Repository) FamilyIDForUser(ctx context.Context, userID string) (string, error) {
	var familyID string
	err := r.pool.QueryRow(ctx, `
		SELECT family_id FROM family_members
		WHERE user_id = $1
		ORDER BY joined_ts ASC
		LIMIT 1`, userID,
	).Scan(&familyID)
	if err != nil {
		return "", notFound("FamilyIDForUser", err)
	}
	return familyID, nil
}

func (r *Repository) GetFamily(ctx context.Context, familyID string) (*domain.Family, error) {
	var f domain.Family
	err := r.pool.QueryRow(ctx,
		`SELECT family_id, name, owner_id, created_ts FROM families WHERE family_id = $1`, familyID,
	).Scan(&f.ID, &f.Name, &f.OwnerID, &f.CreatedAt)
	if err != nil {
		return nil, notFound("GetFamily", err)
	}
	return &f, nil
}

func (r *Repository) ListFamilyMembers(ctx context.Context, familyID string) ([]*domain.FamilyMember, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT family_id, user_id, role, joined_ts
		FROM family_members
		WHERE family_id = $1
		ORDER BY joined_ts ASC`, familyID)
	if err != nil {
		return nil, fmt.Errorf("ListFamilyMembers: query: %w", err)
	}
	defer rows.Close()

	var out []*domain.FamilyMember
	for rows.Next() {
		var m domain.FamilyMember
		var role string
		if err := rows.Scan(&m.FamilyID, &m.UserID, &role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("ListFamilyMembers: scan: %w", err)
		}
		m.Role = domain.MemberRole(role)
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (r *Repository) AddFamilyMember(ctx context.Context, m *domain.FamilyMember) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO family_members (family_id, user_id, role, joined_ts)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (family_id, user_id) DO UPDATE SET role = EXCLUDED.role`,
		m.FamilyID, m.UserID, string(m.Role), m.JoinedAt)
	if err != nil {
		return fmt.Errorf("AddFamilyMember: %w", err)
	}
	return nil
}

// GetUserSettings returns stored settings, or the defaults when none exist.
func (r *Repository) GetUserSettings(ctx context.Context, userID string) (*domain.UserSettings, error) {
	s := domain.UserSettings{UserID: userID}
	err := r.pool.QueryRow(ctx, `
		SELECT assistant_personality, transaction_alerts, budget_alerts, goal_alerts, family_alerts
		FROM user_settings WHERE user_id = $1`, userID,
	).Scan(&s.AssistantPersonality, &s.TransactionAlerts, &s.BudgetAlerts, &s.GoalAlerts, &s.FamilyAlerts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.DefaultUserSettings(userID), nil
		}
		return nil, fmt.Errorf("GetUserSettings: %w", err)
	}
	return &s, nil
}

// ListCategories returns the global defaults plus the family's own categories.
func (r *Repository) ListCategories(ctx context.Context, familyID string) ([]*domain.Category, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT category_id, name, type, family_id, icon
		FROM categories
		WHERE family_id IS NULL OR family_id = $1
		ORDER BY name`, familyID)
	if err != nil {
		return nil, fmt.Errorf("ListCategories: query: %w", err)
	}
	defer rows.Close()

	var out []*domain.Category
	for rows.Next() {
		var c domain.Category
		var typ string
		var fam, icon *string
		if err := rows.Scan(&c.ID, &c.Name, &typ, &fam, &icon); err != nil {
			return nil, fmt.Errorf("ListCategories: scan: %w", err)
		}
		c.Type = domain.TransactionType(typ)
		c.FamilyID = deref(fam)
		c.Icon = deref(icon)
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r *Repository) ListSubcategories(ctx context.Context, familyID string) ([]*domain.Subcategory, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT subcategory_id, category_id, name, family_id
		FROM subcategories
		WHERE family_id IS NULL OR family_id = $1
		ORDER BY name`, familyID)
	if err != nil {
		return nil, fmt.Errorf("ListSubcategories: query: %w", err)
	}
	defer rows.Close()

	var out []*domain.Subcategory
	for rows.Next() {
		var s domain.Subcategory
		var fam *string
		if err := rows.Scan(&s.ID, &s.CategoryID, &s.Name, &fam); err != nil {
			return nil, fmt.Errorf("ListSubcategories: scan: %w", err)
		}
		s.FamilyID = deref(fam)
		out = append(out, &s)
	}
	return out, rows.Err()
}
