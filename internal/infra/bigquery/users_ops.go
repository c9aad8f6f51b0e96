package bigquery

import (
	"context"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/family-finance/internal/domain"
)

type userRow struct {
	UserID string              `bigquery:"user_id"`
	Email  string              `bigquery:"email"`
	Name   bigquery.NullString `bigquery:"name"`
}

type familyRow struct {
	FamilyID  string    `bigquery:"family_id"`
	Name      string    `bigquery:"name"`
	OwnerID   string    `bigquery:"owner_id"`
	CreatedTS time.Time `bigquery:"created_ts"`
}

type memberRow struct {
	FamilyID string    `bigquery:"family_id"`
	UserID   string    `bigquery:"user_id"`
	Role     string    `bigquery:"role"`
	JoinedTS time.Time `bigquery:"joined_ts"`
}

type settingsRow struct {
	UserID               string              `bigquery:"user_id"`
	AssistantPersonality bigquery.NullString `bigquery:"assistant_personality"`
	TransactionAlerts    bool                `bigquery:"transaction_alerts"`
	BudgetAlerts         bool                `bigquery:"budget_alerts"`
	GoalAlerts           bool                `bigquery:"goal_alerts"`
	FamilyAlerts         bool                `bigquery:"family_alerts"`
}

// GetUser retrieves a user by ID.
func (r *Repository) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	q := r.query(`
		SELECT user_id, email, name
		FROM `+r.table(usersTable)+`
		WHERE user_id = @user_id
		LIMIT 1
	`, bigquery.QueryParameter{Name: "user_id", Value: userID})

	row, err := readOne[userRow](ctx, "GetUser", q)
	if err != nil {
		return nil, err
	}
	return &domain.User{ID: row.UserID, Email: row.Email, Name: row.Name.StringVal}, nil
}

// FamilyIDForUser returns the family the user belongs to.
func (r *Repository) FamilyIDForUser(ctx context.Context, userID string) (string, error) {
	q := r.query(`
		SELECT family_id, user_id, role, joined_ts
		FROM `+r.table(membersTable)+`
		WHERE user_id = @user_id
		ORDER BY joined_ts
		LIMIT 1
	`, bigquery.QueryParameter{Name: "user_id", Value: userID})

	row, err := readOne[memberRow](ctx, "FamilyIDForUser", q)
	if err != nil {
		return "", err
	}
	return row.FamilyID, nil
}

// GetFamily retrieves a family by ID.
func (r *Repository) GetFamily(ctx context.Context, familyID string) (*domain.Family, error) {
	q := r.query(`
		SELECT family_id, name, owner_id, created_ts
		FROM `+r.table(familiesTable)+`
		WHERE family_id = @family_id
		LIMIT 1
	`, bigquery.QueryParameter{Name: "family_id", Value: familyID})

	row, err := readOne[familyRow](ctx, "GetFamily", q)
	if err != nil {
		return nil, err
	}
	return &domain.Family{ID: row.FamilyID, Name: row.Name, OwnerID: row.OwnerID, CreatedAt: row.CreatedTS}, nil
}

// ListFamilyMembers lists the members of a family.
func (r *Repository) ListFamilyMembers(ctx context.Context, familyID string) ([]*domain.FamilyMember, error) {
	q := r.query(`
		SELECT family_id, user_id, role, joined_ts
		FROM `+r.table(membersTable)+`
		WHERE family_id = @family_id
		ORDER BY joined_ts
	`, bigquery.QueryParameter{Name: "family_id", Value: familyID})

	rows, err := readRows[memberRow](ctx, "ListFamilyMembers", q)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.FamilyMember, 0, len(rows))
	for _, row := range rows {
		out = append(out, &domain.FamilyMember{
			FamilyID: row.FamilyID,
			UserID:   row.UserID,
			Role:     domain.MemberRole(row.Role),
			JoinedAt: row.JoinedTS,
		})
	}
	return out, nil
}

// AddFamilyMember links a user to a family.
func (r *Repository) AddFamilyMember(ctx context.Context, member *domain.FamilyMember) error {
	q := r.query(`
		INSERT INTO `+r.table(membersTable)+` (family_id, user_id, role, joined_ts)
		VALUES (@family_id, @user_id, @role, @joined_ts)
	`,
		bigquery.QueryParameter{Name: "family_id", Value: member.FamilyID},
		bigquery.QueryParameter{Name: "user_id", Value: member.UserID},
		bigquery.QueryParameter{Name: "role", Value: string(member.Role)},
		bigquery.QueryParameter{Name: "joined_ts", Value: member.JoinedAt},
	)

	if _, err := r.exec(ctx, "AddFamilyMember", q); err != nil {
		return err
	}
	return nil
}

// GetUserSettings returns the user's settings.
func (r *Repository) GetUserSettings(ctx context.Context, userID string) (*domain.UserSettings, error) {
	q := r.query(`
		SELECT user_id, assistant_personality, transaction_alerts, budget_alerts, goal_alerts, family_alerts
		FROM `+r.table(settingsTable)+`
		WHERE user_id = @user_id
		LIMIT 1
	`, bigquery.QueryParameter{Name: "user_id", Value: userID})

	row, err := readOne[settingsRow](ctx, "GetUserSettings", q)
	if err != nil {
		return nil, err
	}
	return &domain.UserSettings{
		UserID:               row.UserID,
		AssistantPersonality: row.AssistantPersonality.StringVal,
		TransactionAlerts:    row.TransactionAlerts,
		BudgetAlerts:         row.BudgetAlerts,
		GoalAlerts:           row.GoalAlerts,
		FamilyAlerts:         row.FamilyAlerts,
	}, nil
}

// ListCategories returns the global default categories plus the family's own.
func (r *Repository) ListCategories(ctx context.Context, familyID string) ([]*domain.Category, error) {
	q := r.query(`
		SELECT category_id, name, type, family_id, icon
		FROM `+r.table(categoriesTable)+`
		WHERE family_id IS NULL OR family_id = @family_id
		ORDER BY name
	`, bigquery.QueryParameter{Name: "family_id", Value: familyID})

	rows, err := readRows[CategoryRow](ctx, "ListCategories", q)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// ListSubcategories returns the subcategories visible to the family.
func (r *Repository) ListSubcategories(ctx context.Context, familyID string) ([]*domain.Subcategory, error) {
	q := r.query(`
		SELECT subcategory_id, category_id, name, family_id
		FROM `+r.table(subcategoriesTable)+`
		WHERE family_id IS NULL OR family_id = @family_id
		ORDER BY name
	`, bigquery.QueryParameter{Name: "family_id", Value: familyID})

	rows, err := readRows[SubcategoryRow](ctx, "ListSubcategories", q)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Subcategory, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
