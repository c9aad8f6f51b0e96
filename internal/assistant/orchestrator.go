package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/family-finance/internal/domain"
	"github.com/dvloznov/family-finance/internal/llm"
	"github.com/dvloznov/family-finance/internal/logger"
	"github.com/dvloznov/family-finance/internal/store"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Phase is a step of the two-round chat protocol.
type Phase string

const (
	PhaseAwaitingFirst  Phase = "awaiting_first_response"
	PhaseDispatching    Phase = "dispatching_tools"
	PhaseAwaitingSecond Phase = "awaiting_second_response"
	PhasePersisting     Phase = "persisting"
	PhaseDone           Phase = "done"
)

// Metric events recorded per turn.
const (
	EventChatCompletion = "ai_chat_completion"
	EventToolCall       = "ai_tool_call"
)

const fallbackReply = "Desculpe, não consegui gerar uma resposta. Pode reformular?"

// MetricsTracker records usage events. Calls are made off the request path.
type MetricsTracker interface {
	Track(ctx context.Context, userID, familyID, event string, payload map[string]any) error
}

// TurnRequest is one user message.
type TurnRequest struct {
	Message        string `json:"message"`
	FamilyID       string `json:"familyId,omitempty"`
	ThreadID       string `json:"threadId,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
}

// ActionResult reports one executed tool call to the UI.
type ActionResult struct {
	Type         string         `json:"type"`
	Parameters   map[string]any `json:"parameters"`
	Success      bool           `json:"success"`
	WasDuplicate bool           `json:"wasDuplicate"`
	Result       Result         `json:"result"`
}

// TurnResponse is the assistant's reply. Actions is empty when no tool ran.
type TurnResponse struct {
	Message string         `json:"message"`
	Actions []ActionResult `json:"actions,omitempty"`
}

// Options tunes the orchestrator. Zero values take the defaults.
type Options struct {
	Temperature  float64
	MaxTokens    int
	HistoryLimit int
	// LLMTimeout bounds each model round separately.
	LLMTimeout time.Duration
	Now        func() time.Time
	NewID      func() string
}

// Orchestrator runs chat turns.
type Orchestrator struct {
	store   store.Store
	client  llm.Client
	exec    *Executors
	metrics MetricsTracker
	loader  *contextLoader
	opts    Options
	effects *sideEffects
}

// NewOrchestrator wires an orchestrator. metrics may be nil.
func NewOrchestrator(st store.Store, client llm.Client, exec *Executors, metrics MetricsTracker, opts Options) *Orchestrator {
	if opts.Temperature == 0 {
		opts.Temperature = 0.7
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 800
	}
	if opts.HistoryLimit == 0 {
		opts.HistoryLimit = defaultHistoryLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Orchestrator{
		store:   st,
		client:  client,
		exec:    exec,
		metrics: metrics,
		loader:  &contextLoader{store: st, historyLimit: opts.HistoryLimit},
		opts:    opts,
		effects: &sideEffects{timeout: 10 * time.Second},
	}
}

// Wait blocks until background metric writes finish.
func (o *Orchestrator) Wait() { o.effects.Wait() }

type turn struct {
	phase    Phase
	userID   string
	familyID string
	tools    ToolContext
	request  TurnRequest
	messages []llm.Message
	first    *llm.Response
	results  []llm.Message
	actions  []ActionResult
	reply    string
}

// HandleTurn answers one chat message. Business failures of tools come back
// inside Actions; returned errors are ErrUnauthenticated, ErrValidation or a
// *TurnError.
func (o *Orchestrator) HandleTurn(ctx context.Context, user *domain.User, req TurnRequest) (*TurnResponse, error) {
	if user == nil || user.ID == "" {
		return nil, ErrUnauthenticated
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		return nil, validationError("mensagem é obrigatória")
	}

	familyID, err := o.loader.resolveFamily(ctx, user.ID, req.FamilyID)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			return nil, err
		}
		return nil, &TurnError{Phase: PhaseAwaitingFirst, Err: err}
	}

	log := logger.FromContext(ctx).With().Str("user_id", user.ID).Str("family_id", familyID).Logger()
	ctx = logger.WithContext(ctx, log)

	t, err := o.prepare(ctx, user.ID, familyID, req)
	if err != nil {
		return nil, &TurnError{Phase: PhaseAwaitingFirst, Err: err}
	}

	for t.phase != PhaseDone {
		var err error
		switch t.phase {
		case PhaseAwaitingFirst:
			err = o.awaitFirst(ctx, t)
		case PhaseDispatching:
			err = o.dispatch(ctx, t)
		case PhaseAwaitingSecond:
			err = o.awaitSecond(ctx, t)
		case PhasePersisting:
			err = o.persist(ctx, t)
		default:
			err = fmt.Errorf("unknown phase %q", t.phase)
		}
		if err != nil {
			log.Error().Err(err).Str("phase", string(t.phase)).Msg("Chat turn failed")
			return nil, &TurnError{Phase: t.phase, Err: err}
		}
	}

	log.Info().Int("actions", len(t.actions)).Msg("Chat turn completed")
	return &TurnResponse{Message: t.reply, Actions: t.actions}, nil
}

// prepare loads settings, history and categories and builds the prompt.
func (o *Orchestrator) prepare(ctx context.Context, userID, familyID string, req TurnRequest) (*turn, error) {
	settings, err := o.store.GetUserSettings(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		settings, err = domain.DefaultUserSettings(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading user settings: %w", err)
	}

	history, err := o.loader.history(ctx, familyID, req.ConversationID, req.ThreadID)
	if err != nil {
		return nil, err
	}
	categories, err := o.loader.categoryBlock(ctx, familyID)
	if err != nil {
		return nil, err
	}

	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.SystemMessage(o.systemPrompt(settings.AssistantPersonality, categories)))
	msgs = append(msgs, history...)
	msgs = append(msgs, llm.UserMessage(req.Message))

	return &turn{
		phase:    PhaseAwaitingFirst,
		userID:   userID,
		familyID: familyID,
		tools:    ToolContext{FamilyID: familyID, UserID: userID, Settings: settings},
		request:  req,
		messages: msgs,
	}, nil
}

func (o *Orchestrator) systemPrompt(personality, categories string) string {
	now := o.opts.Now()
	var b strings.Builder
	b.WriteString(PersonalityPrompt(personality))
	b.WriteString("\n\nINSTRUÇÕES:\n")
	b.WriteString("- Use as ferramentas disponíveis para registrar, buscar e excluir transações, criar orçamentos e metas, gerar resumos e explicar funcionalidades.\n")
	b.WriteString("- Ao registrar uma transação, use exatamente um dos nomes de categoria abaixo. Se o usuário não informar a categoria, pergunte antes de registrar.\n")
	b.WriteString("- Valores são sempre positivos: use type \"expense\" para gastos e \"income\" para receitas.\n")
	b.WriteString("- Confirme com o usuário antes de excluir uma transação.\n")
	b.WriteString("- Datas devem ser enviadas no formato AAAA-MM-DD.\n\n")
	b.WriteString(categories)
	b.WriteString("\nData de hoje: " + now.Format("2006-01-02") + " (" + now.Format("02/01/2006") + ").")
	return b.String()
}

func (o *Orchestrator) complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if o.opts.LLMTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.LLMTimeout)
		defer cancel()
	}
	return o.client.Complete(ctx, req)
}

func (o *Orchestrator) awaitFirst(ctx context.Context, t *turn) error {
	resp, err := o.complete(ctx, llm.Request{
		Messages:    t.messages,
		Tools:       ToolDefinitions(),
		Temperature: o.opts.Temperature,
		MaxTokens:   o.opts.MaxTokens,
	})
	if err != nil {
		return fmt.Errorf("first completion: %w", err)
	}
	t.first = resp
	o.trackCompletion(ctx, t, resp, "first", len(resp.ToolCalls) > 0)

	if len(resp.ToolCalls) == 0 {
		t.reply = replyText(resp.Content)
		t.phase = PhasePersisting
		return nil
	}
	t.phase = PhaseDispatching
	return nil
}

// dispatch runs every tool call concurrently. Results keep the order of the
// calls.
func (o *Orchestrator) dispatch(ctx context.Context, t *turn) error {
	calls := t.first.ToolCalls
	results := make([]Result, len(calls))

	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		g.Go(func() error {
			res, err := o.exec.Execute(gctx, t.tools, call)
			if err != nil {
				return fmt.Errorf("%s: %w", call.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	t.results = make([]llm.Message, 0, len(calls))
	t.actions = make([]ActionResult, 0, len(calls))
	for i, call := range calls {
		content, err := json.Marshal(results[i])
		if err != nil {
			return fmt.Errorf("encoding %s result: %w", call.Name, err)
		}
		t.results = append(t.results, llm.ToolResultMessage(call, string(content)))
		t.actions = append(t.actions, ActionResult{
			Type:         call.Name,
			Parameters:   decodeParameters(call.Arguments),
			Success:      results[i].Success,
			WasDuplicate: results[i].WasDuplicate,
			Result:       results[i],
		})
		o.trackTool(ctx, t, call.Name, results[i])
	}

	t.phase = PhaseAwaitingSecond
	return nil
}

// awaitSecond asks for a natural-language synthesis. No tools are offered so
// the model cannot call again.
func (o *Orchestrator) awaitSecond(ctx context.Context, t *turn) error {
	msgs := make([]llm.Message, 0, len(t.messages)+1+len(t.results))
	msgs = append(msgs, t.messages...)
	msgs = append(msgs, llm.Message{
		Role:      llm.RoleAssistant,
		Content:   t.first.Content,
		ToolCalls: t.first.ToolCalls,
	})
	msgs = append(msgs, t.results...)

	resp, err := o.complete(ctx, llm.Request{
		Messages:    msgs,
		Temperature: o.opts.Temperature,
		MaxTokens:   o.opts.MaxTokens,
	})
	if err != nil {
		return fmt.Errorf("second completion: %w", err)
	}
	o.trackCompletion(ctx, t, resp, "second", false)

	t.reply = replyText(resp.Content)
	t.phase = PhasePersisting
	return nil
}

// persist writes the user message and the reply, user first.
func (o *Orchestrator) persist(ctx context.Context, t *turn) error {
	now := o.opts.Now()
	base := domain.ChatMessage{
		FamilyID:       t.familyID,
		UserID:         t.userID,
		ConversationID: t.request.ConversationID,
		ThreadID:       t.request.ThreadID,
	}
	userMsg, reply := base, base
	userMsg.ID, userMsg.Role, userMsg.Content, userMsg.CreatedAt = o.opts.NewID(), domain.RoleUser, t.request.Message, now
	reply.ID, reply.Role, reply.Content, reply.CreatedAt = o.opts.NewID(), domain.RoleAssistant, t.reply, now.Add(time.Microsecond)

	if err := o.store.InsertChatMessages(ctx, &userMsg, &reply); err != nil {
		return fmt.Errorf("saving chat messages: %w", err)
	}
	t.phase = PhaseDone
	return nil
}

func (o *Orchestrator) trackCompletion(ctx context.Context, t *turn, resp *llm.Response, round string, usedTools bool) {
	if o.metrics == nil {
		return
	}
	payload := map[string]any{
		"model":             resp.Model,
		"round":             round,
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
		"total_tokens":      resp.Usage.TotalTokens,
		"used_tools":        usedTools,
		"tool_calls":        len(resp.ToolCalls),
	}
	o.effects.Go(ctx, "usage metric", func(ctx context.Context) error {
		return o.metrics.Track(ctx, t.userID, t.familyID, EventChatCompletion, payload)
	})
}

func (o *Orchestrator) trackTool(ctx context.Context, t *turn, name string, res Result) {
	if o.metrics == nil {
		return
	}
	payload := map[string]any{
		"tool":          name,
		"success":       res.Success,
		"was_duplicate": res.WasDuplicate,
	}
	o.effects.Go(ctx, "tool metric", func(ctx context.Context) error {
		return o.metrics.Track(ctx, t.userID, t.familyID, EventToolCall, payload)
	})
}

func replyText(content string) string {
	if s := strings.TrimSpace(content); s != "" {
		return s
	}
	return fallbackReply
}

func decodeParameters(raw string) map[string]any {
	params := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return map[string]any{"raw": raw}
	}
	return params
}
