package domain

// Category groups transactions of one type. A category without a family ID is a
// global default visible to every family.
type Category struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Type     TransactionType `json:"type"`
	FamilyID string          `json:"family_id,omitempty"`
	Icon     string          `json:"icon,omitempty"`
}

// IsDefault reports whether the category is shared by all families.
func (c *Category) IsDefault() bool {
	return c.FamilyID == ""
}

// Subcategory refines a category.
type Subcategory struct {
	ID         string `json:"id"`
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
	FamilyID   string `json:"family_id,omitempty"`
}
