package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/family-finance/internal/domain"
	"github.com/dvloznov/family-finance/internal/llm"
	"github.com/dvloznov/family-finance/internal/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Result is what a tool returns to the model. Business failures are results
// with Success false; only infrastructure failures are returned as errors.
type Result struct {
	Success      bool
	Error        string
	WasDuplicate bool
	Fields       map[string]any
}

func ok(fields map[string]any) Result { return Result{Success: true, Fields: fields} }

func fail(format string, args ...any) Result {
	return Result{Success: false, Error: fmt.Sprintf(format, args...)}
}

// MarshalJSON flattens Fields next to success/error/wasDuplicate.
func (r Result) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(r.Fields)+3)
	maps.Copy(m, r.Fields)
	m["success"] = r.Success
	if r.Error != "" {
		m["error"] = r.Error
	}
	if r.WasDuplicate {
		m["wasDuplicate"] = true
	}
	return json.Marshal(m)
}

// ToolContext identifies who a tool runs for.
type ToolContext struct {
	FamilyID string
	UserID   string
	Settings *domain.UserSettings
}

// Alerter delivers best-effort alerts. Implementations must not block on
// delivery.
type Alerter interface {
	TransactionCreated(ctx context.Context, userID string, tx *domain.Transaction, categoryName string) error
	BudgetExceeded(ctx context.Context, userID, familyID, categoryName string, spent, limit decimal.Decimal) error
	GoalCreated(ctx context.Context, userID string, goal *domain.Goal) error
}

type executorFunc func(ctx context.Context, tc ToolContext, args json.RawMessage) (Result, error)

// Executors runs tool calls against the store.
type Executors struct {
	store       store.Store
	alerts      Alerter
	effects     *sideEffects
	now         func() time.Time
	newID       func() string
	dedupWindow time.Duration
	handlers    map[string]executorFunc
}

// ExecutorOption customises Executors.
type ExecutorOption func(*Executors)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) ExecutorOption {
	return func(e *Executors) { e.now = now }
}

// WithDedupWindow sets how far back registrar_transacao looks for duplicates.
func WithDedupWindow(d time.Duration) ExecutorOption {
	return func(e *Executors) { e.dedupWindow = d }
}

// NewExecutors builds the executor table and checks it matches the tool
// registry one to one.
func NewExecutors(st store.Store, alerts Alerter, opts ...ExecutorOption) (*Executors, error) {
	e := &Executors{
		store:       st,
		alerts:      alerts,
		effects:     &sideEffects{},
		now:         time.Now,
		newID:       uuid.NewString,
		dedupWindow: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.handlers = map[string]executorFunc{
		ToolRegisterTransaction: e.registerTransaction,
		ToolSearchTransactions:  e.searchTransactions,
		ToolCreateBudget:        e.createBudget,
		ToolCreateGoal:          e.createGoal,
		ToolFinancialSummary:    e.financialSummary,
		ToolExplainFeature:      e.explainFeature,
		ToolDeleteTransaction:   e.deleteTransaction,
	}
	if err := checkCoverage(e.handlers); err != nil {
		return nil, fmt.Errorf("NewExecutors: %w", err)
	}
	return e, nil
}

func checkCoverage(handlers map[string]executorFunc) error {
	declared := make(map[string]bool)
	for _, name := range ToolNames() {
		declared[name] = true
		if _, ok := handlers[name]; !ok {
			return fmt.Errorf("tool %q has no executor", name)
		}
	}
	for name := range handlers {
		if !declared[name] {
			return fmt.Errorf("executor %q is not a registered tool", name)
		}
	}
	return nil
}

// Execute runs one tool call. Unknown tools and malformed arguments are
// business failures so the model can recover.
func (e *Executors) Execute(ctx context.Context, tc ToolContext, call llm.ToolCall) (Result, error) {
	h, ok := e.handlers[call.Name]
	if !ok {
		return fail("Ferramenta desconhecida: %s", call.Name), nil
	}
	args := json.RawMessage(call.Arguments)
	if strings.TrimSpace(call.Arguments) == "" {
		args = json.RawMessage("{}")
	}
	if !json.Valid(args) {
		return fail("Argumentos inválidos para %s", call.Name), nil
	}
	if tc.Settings == nil {
		tc.Settings = domain.DefaultUserSettings(tc.UserID)
	}
	return h(ctx, tc, args)
}

func decodeArgs(raw json.RawMessage, dst any) error {
	return json.Unmarshal(raw, dst)
}

func (e *Executors) today() civil.Date {
	return civil.DateOf(e.now())
}

// parseOptionalDate parses YYYY-MM-DD; empty yields nil.
func parseOptionalDate(s string) (*civil.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// categoryIndex resolves names case-insensitively within a type.
type categoryIndex struct {
	byID       map[string]*domain.Category
	categories []*domain.Category
	subs       []*domain.Subcategory
}

func (e *Executors) loadCategories(ctx context.Context, familyID string) (*categoryIndex, error) {
	cats, err := e.store.ListCategories(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("loading categories: %w", err)
	}
	subs, err := e.store.ListSubcategories(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("loading subcategories: %w", err)
	}
	idx := &categoryIndex{byID: make(map[string]*domain.Category, len(cats)), categories: cats, subs: subs}
	for _, c := range cats {
		idx.byID[c.ID] = c
	}
	return idx, nil
}

func normalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// find returns the category of the given type whose name matches. Family
// categories win over global defaults with the same name.
func (idx *categoryIndex) find(name string, typ domain.TransactionType) *domain.Category {
	want := normalizeName(name)
	var match *domain.Category
	for _, c := range idx.categories {
		if c.Type != typ || normalizeName(c.Name) != want {
			continue
		}
		if match == nil || !c.IsDefault() {
			match = c
		}
	}
	return match
}

// findAny matches a name under any type.
func (idx *categoryIndex) findAny(name string) []*domain.Category {
	want := normalizeName(name)
	var out []*domain.Category
	for _, c := range idx.categories {
		if normalizeName(c.Name) == want {
			out = append(out, c)
		}
	}
	return out
}

func (idx *categoryIndex) names(typ domain.TransactionType) string {
	var names []string
	for _, c := range idx.categories {
		if typ == "" || c.Type == typ {
			names = append(names, c.Name)
		}
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func (idx *categoryIndex) subcategory(categoryID, name string) *domain.Subcategory {
	for _, s := range idx.subs {
		if s.CategoryID == categoryID && s.Name == strings.TrimSpace(name) {
			return s
		}
	}
	return nil
}

func (idx *categoryIndex) categoryName(id string) string {
	if c, ok := idx.byID[id]; ok {
		return c.Name
	}
	return ""
}

// transactionView is the shape of a transaction shown to the model.
type transactionView struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category,omitempty"`
	Date        string          `json:"date"`
	Source      string          `json:"source"`
}

func viewOf(tx *domain.Transaction, idx *categoryIndex) transactionView {
	v := transactionView{
		ID:          tx.ID,
		Type:        string(tx.Type),
		Amount:      tx.Amount,
		Description: tx.Description,
		Date:        tx.Date.String(),
		Source:      string(tx.Source),
	}
	if idx != nil {
		v.Category = idx.categoryName(tx.CategoryID)
	}
	return v
}
