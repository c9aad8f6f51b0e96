package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dvloznov/family-finance/internal/domain"
	"github.com/dvloznov/family-finance/internal/logger"
	"github.com/dvloznov/family-finance/internal/store"
	"github.com/shopspring/decimal"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

type registerArgs struct {
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Subcategory string          `json:"subcategory"`
	Date        string          `json:"date"`
}

func (e *Executors) registerTransaction(ctx context.Context, tc ToolContext, raw json.RawMessage) (Result, error) {
	var args registerArgs
	if err := decodeArgs(raw, &args); err != nil {
		return fail("Argumentos inválidos: %v", err), nil
	}

	typ := domain.TransactionType(args.Type)
	if !typ.Valid() {
		return fail("Tipo inválido %q. Use expense ou income.", args.Type), nil
	}
	amount := args.Amount.Abs()
	if !amount.IsPositive() {
		return fail("O valor da transação deve ser maior que zero."), nil
	}
	description := strings.TrimSpace(args.Description)
	if description == "" {
		return fail("A descrição da transação é obrigatória."), nil
	}
	date, err := parseOptionalDate(args.Date)
	if err != nil {
		return fail("Data inválida %q. Use o formato AAAA-MM-DD.", args.Date), nil
	}

	idx, err := e.loadCategories(ctx, tc.FamilyID)
	if err != nil {
		return Result{}, fmt.Errorf("registrar_transacao: %w", err)
	}
	category := idx.find(args.Category, typ)
	if category == nil {
		return fail("Categoria %q não encontrada. Disponíveis: %s", args.Category, idx.names(typ)), nil
	}

	// Identical chat submissions inside the window are the same transaction.
	since := e.now().Add(-e.dedupWindow)
	existing, err := e.store.SearchTransactions(ctx, store.TransactionFilter{
		FamilyID:     tc.FamilyID,
		Amount:       &amount,
		Description:  description,
		Source:       domain.SourceChat,
		CreatedSince: &since,
		Limit:        1,
	})
	if err != nil {
		return Result{}, fmt.Errorf("registrar_transacao: dedup lookup: %w", err)
	}
	if len(existing) > 0 {
		log := logger.FromContext(ctx)
		log.Info().
			Str("transaction_id", existing[0].ID).
			Msg("Duplicate chat transaction, skipping insert")
		return Result{
			Success:      true,
			WasDuplicate: true,
			Fields:       map[string]any{"transaction": viewOf(existing[0], idx)},
		}, nil
	}

	tx := &domain.Transaction{
		ID:          e.newID(),
		FamilyID:    tc.FamilyID,
		UserID:      tc.UserID,
		Type:        typ,
		Amount:      amount,
		Description: description,
		CategoryID:  category.ID,
		Date:        e.today(),
		Source:      domain.SourceChat,
		CreatedAt:   e.now(),
	}
	if date != nil {
		tx.Date = *date
	}
	if args.Subcategory != "" {
		if sub := idx.subcategory(category.ID, args.Subcategory); sub != nil {
			tx.SubcategoryID = sub.ID
		}
	}

	if err := e.store.InsertTransaction(ctx, tx); err != nil {
		return Result{}, fmt.Errorf("registrar_transacao: insert: %w", err)
	}

	e.alertOnTransaction(ctx, tc, tx, category)

	return ok(map[string]any{"transaction": viewOf(tx, idx)}), nil
}

// alertOnTransaction sends the alerts enabled in the user's settings.
func (e *Executors) alertOnTransaction(ctx context.Context, tc ToolContext, tx *domain.Transaction, category *domain.Category) {
	if e.alerts == nil {
		return
	}
	if tc.Settings.TransactionAlerts {
		e.effects.Do(ctx, "transaction alert", func(ctx context.Context) error {
			return e.alerts.TransactionCreated(ctx, tc.UserID, tx, category.Name)
		})
	}
	if tc.Settings.BudgetAlerts && tx.Type == domain.TransactionExpense {
		e.effects.Do(ctx, "budget alert", func(ctx context.Context) error {
			return e.checkBudget(ctx, tc, category)
		})
	}
}

func (e *Executors) checkBudget(ctx context.Context, tc ToolContext, category *domain.Category) error {
	budget, err := e.store.FindBudgetForCategory(ctx, tc.FamilyID, category.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("finding budget: %w", err)
	}

	start, end := budget.StartDate, budget.EndDate
	spent, err := e.store.SearchTransactions(ctx, store.TransactionFilter{
		FamilyID:    tc.FamilyID,
		Type:        domain.TransactionExpense,
		CategoryIDs: []string{category.ID},
		StartDate:   &start,
		EndDate:     &end,
	})
	if err != nil {
		return fmt.Errorf("summing budget window: %w", err)
	}

	total := decimal.Zero
	for _, t := range spent {
		total = total.Add(t.Amount)
	}
	if total.GreaterThan(budget.LimitAmount) {
		return e.alerts.BudgetExceeded(ctx, tc.UserID, tc.FamilyID, category.Name, total, budget.LimitAmount)
	}
	return nil
}

type searchArgs struct {
	Type      string `json:"type"`
	Category  string `json:"category"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Limit     int    `json:"limit"`
}

func (e *Executors) searchTransactions(ctx context.Context, tc ToolContext, raw json.RawMessage) (Result, error) {
	var args searchArgs
	if err := decodeArgs(raw, &args); err != nil {
		return fail("Argumentos inválidos: %v", err), nil
	}

	filter := store.TransactionFilter{FamilyID: tc.FamilyID, Limit: args.Limit}
	if filter.Limit <= 0 {
		filter.Limit = defaultSearchLimit
	}
	if filter.Limit > maxSearchLimit {
		filter.Limit = maxSearchLimit
	}
	if args.Type != "" {
		typ := domain.TransactionType(args.Type)
		if !typ.Valid() {
			return fail("Tipo inválido %q. Use expense ou income.", args.Type), nil
		}
		filter.Type = typ
	}

	var err error
	if filter.StartDate, err = parseOptionalDate(args.StartDate); err != nil {
		return fail("Data inicial inválida %q.", args.StartDate), nil
	}
	if filter.EndDate, err = parseOptionalDate(args.EndDate); err != nil {
		return fail("Data final inválida %q.", args.EndDate), nil
	}

	idx, err := e.loadCategories(ctx, tc.FamilyID)
	if err != nil {
		return Result{}, fmt.Errorf("buscar_transacoes: %w", err)
	}
	if args.Category != "" {
		var matches []*domain.Category
		if filter.Type != "" {
			if c := idx.find(args.Category, filter.Type); c != nil {
				matches = append(matches, c)
			}
		} else {
			matches = idx.findAny(args.Category)
		}
		if len(matches) == 0 {
			return fail("Categoria %q não encontrada. Disponíveis: %s", args.Category, idx.names(filter.Type)), nil
		}
		for _, c := range matches {
			filter.CategoryIDs = append(filter.CategoryIDs, c.ID)
		}
	}

	txs, err := e.store.SearchTransactions(ctx, filter)
	if err != nil {
		return Result{}, fmt.Errorf("buscar_transacoes: %w", err)
	}
	views := make([]transactionView, 0, len(txs))
	for _, tx := range txs {
		views = append(views, viewOf(tx, idx))
	}
	return ok(map[string]any{"transactions": views}), nil
}

type deleteArgs struct {
	Description string           `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
	Date        string           `json:"date"`
}

// deleteTransaction walks SEARCHING -> FOUND -> AUDIT_WRITE -> DELETE. The
// audit row must be written before anything is removed.
func (e *Executors) deleteTransaction(ctx context.Context, tc ToolContext, raw json.RawMessage) (Result, error) {
	var args deleteArgs
	if err := decodeArgs(raw, &args); err != nil {
		return fail("Argumentos inválidos: %v", err), nil
	}
	description := strings.TrimSpace(args.Description)
	if description == "" {
		return fail("Informe a descrição da transação a excluir."), nil
	}

	filter := store.TransactionFilter{
		FamilyID:            tc.FamilyID,
		DescriptionContains: description,
		Limit:               1,
	}
	if args.Amount != nil {
		amount := args.Amount.Abs()
		filter.Amount = &amount
	}
	date, err := parseOptionalDate(args.Date)
	if err != nil {
		return fail("Data inválida %q.", args.Date), nil
	}
	filter.Date = date

	found, err := e.store.SearchTransactions(ctx, filter)
	if err != nil {
		return Result{}, fmt.Errorf("deletar_transacao: search: %w", err)
	}
	if len(found) == 0 {
		return fail("Transação não encontrada com os critérios informados."), nil
	}
	tx := found[0]

	snapshot, err := json.Marshal(tx)
	if err != nil {
		return Result{}, fmt.Errorf("deletar_transacao: snapshot: %w", err)
	}
	entry := &domain.AuditLogEntry{
		ID:         e.newID(),
		UserID:     tc.UserID,
		Action:     domain.AuditDelete,
		EntityType: "transaction",
		EntityID:   tx.ID,
		OldData:    snapshot,
		CreatedAt:  e.now(),
	}

	log := logger.FromContext(ctx)
	if err := e.store.InsertAuditLog(ctx, entry); err != nil {
		log.Error().Err(err).Str("transaction_id", tx.ID).Msg("Audit log write failed, delete aborted")
		return fail("Não foi possível registrar o log de auditoria. A exclusão foi cancelada por segurança."), nil
	}
	log.Info().
		Str("audit_id", entry.ID).
		Str("transaction_id", tx.ID).
		RawJSON("old_data", snapshot).
		Msg("Transaction delete audited")

	if err := e.store.DeleteTransaction(ctx, tc.FamilyID, tx.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail("Transação não encontrada com os critérios informados."), nil
		}
		return Result{}, fmt.Errorf("deletar_transacao: delete: %w", err)
	}

	return ok(map[string]any{
		"message":             fmt.Sprintf("Transação %q de %s excluída.", tx.Description, tx.Amount.StringFixed(2)),
		"deleted_transaction": viewOf(tx, nil),
	}), nil
}
