// Package metrics records assistant usage as Prometheus series and as
// usage_metrics rows.
package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/dvloznov/family-finance/internal/domain"
	"github.com/dvloznov/family-finance/internal/store"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Events understood by Track. Other events are stored but not counted.
const (
	EventChatCompletion = "ai_chat_completion"
	EventToolCall       = "ai_tool_call"
)

// Tracker implements the assistant's metrics sink.
//
// Metrics:
//   - assistant_llm_calls_total{model, round}
//   - assistant_tokens_total{model, kind} - kind is prompt or completion
//   - assistant_tool_calls_total{tool, success, duplicate}
//   - assistant_events_total{event}
type Tracker struct {
	store store.MetricStore
	now   func() time.Time
	newID func() string

	llmCalls  *prometheus.CounterVec
	tokens    *prometheus.CounterVec
	toolCalls *prometheus.CounterVec
	events    *prometheus.CounterVec
}

// NewTracker registers the assistant counters on reg. st may be nil to skip
// the usage_metrics rows.
func NewTracker(st store.MetricStore, reg prometheus.Registerer) *Tracker {
	f := promauto.With(reg)
	return &Tracker{
		store: st,
		now:   time.Now,
		newID: uuid.NewString,
		llmCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "assistant_llm_calls_total",
			Help: "Total number of LLM completions made by the chat assistant",
		}, []string{"model", "round"}),
		tokens: f.NewCounterVec(prometheus.CounterOpts{
			Name: "assistant_tokens_total",
			Help: "Total number of LLM tokens consumed by the chat assistant",
		}, []string{"model", "kind"}),
		toolCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "assistant_tool_calls_total",
			Help: "Total number of tool calls executed by the chat assistant",
		}, []string{"tool", "success", "duplicate"}),
		events: f.NewCounterVec(prometheus.CounterOpts{
			Name: "assistant_events_total",
			Help: "Total number of tracked assistant events",
		}, []string{"event"}),
	}
}

// Track counts the event and stores it as a usage metric.
func (t *Tracker) Track(ctx context.Context, userID, familyID, event string, payload map[string]any) error {
	t.events.WithLabelValues(event).Inc()
	switch event {
	case EventChatCompletion:
		model := stringField(payload, "model")
		t.llmCalls.WithLabelValues(model, stringField(payload, "round")).Inc()
		t.tokens.WithLabelValues(model, "prompt").Add(numberField(payload, "prompt_tokens"))
		t.tokens.WithLabelValues(model, "completion").Add(numberField(payload, "completion_tokens"))
	case EventToolCall:
		t.toolCalls.WithLabelValues(
			stringField(payload, "tool"),
			strconv.FormatBool(boolField(payload, "success")),
			strconv.FormatBool(boolField(payload, "was_duplicate")),
		).Inc()
	}

	if t.store == nil {
		return nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("Track: encoding payload: %w", err)
	}
	if err := t.store.InsertUsageMetric(ctx, &domain.UsageMetric{
		ID:        t.newID(),
		UserID:    userID,
		FamilyID:  familyID,
		Event:     event,
		Payload:   raw,
		CreatedAt: t.now(),
	}); err != nil {
		return fmt.Errorf("Track: %w", err)
	}
	return nil
}

func stringField(payload map[string]any, key string) string {
	if s, ok := payload[key].(string); ok && s != "" {
		return s
	}
	return "unknown"
}

func boolField(payload map[string]any, key string) bool {
	b, _ := payload[key].(bool)
	return b
}

func numberField(payload map[string]any, key string) float64 {
	switch v := payload[key].(type) {
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case float64:
		return v
	}
	return 0
}
