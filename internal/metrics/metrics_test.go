package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dvloznov/family-finance/internal/domain"
	"github.com/dvloznov/family-finance/internal/store/memory"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_ChatCompletion(t *testing.T) {
	st := memory.New()
	tr := NewTracker(st, prometheus.NewRegistry())

	err := tr.Track(context.Background(), "u1", "f1", EventChatCompletion, map[string]any{
		"model":             "gpt-4o-mini",
		"round":             "first",
		"prompt_tokens":     120,
		"completion_tokens": 30,
		"total_tokens":      150,
	})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(tr.llmCalls.WithLabelValues("gpt-4o-mini", "first")))
	assert.Equal(t, 120.0, testutil.ToFloat64(tr.tokens.WithLabelValues("gpt-4o-mini", "prompt")))
	assert.Equal(t, 30.0, testutil.ToFloat64(tr.tokens.WithLabelValues("gpt-4o-mini", "completion")))

	rows := st.UsageMetrics()
	require.Len(t, rows, 1)
	assert.Equal(t, EventChatCompletion, rows[0].Event)
	assert.Equal(t, "u1", rows[0].UserID)
	assert.Equal(t, "f1", rows[0].FamilyID)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rows[0].Payload, &payload))
	assert.Equal(t, float64(150), payload["total_tokens"])
}

func TestTracker_ToolCall(t *testing.T) {
	tr := NewTracker(nil, prometheus.NewRegistry())
	ctx := context.Background()

	require.NoError(t, tr.Track(ctx, "u1", "f1", EventToolCall, map[string]any{"tool": "registrar_transacao", "success": true, "was_duplicate": true}))
	require.NoError(t, tr.Track(ctx, "u1", "f1", EventToolCall, map[string]any{"tool": "registrar_transacao", "success": false}))
	require.NoError(t, tr.Track(ctx, "u1", "f1", "login", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(tr.toolCalls.WithLabelValues("registrar_transacao", "true", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(tr.toolCalls.WithLabelValues("registrar_transacao", "false", "false")))
	assert.Equal(t, 2.0, testutil.ToFloat64(tr.events.WithLabelValues(EventToolCall)))
	assert.Equal(t, 1.0, testutil.ToFloat64(tr.events.WithLabelValues("login")))
}

type failingStore struct{}

func (failingStore) InsertUsageMetric(context.Context, *domain.UsageMetric) error {
	return errors.New("insert failed")
}

func TestTracker_StoreFailure(t *testing.T) {
	tr := NewTracker(failingStore{}, prometheus.NewRegistry())
	err := tr.Track(context.Background(), "u1", "f1", EventToolCall, map[string]any{"tool": "criar_meta"})
	assert.ErrorContains(t, err, "insert failed")
	assert.Equal(t, 1.0, testutil.ToFloat64(tr.toolCalls.WithLabelValues("criar_meta", "false", "false")), "counted before the write")
}

func TestHTTP_Wrap(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := NewHTTP(reg)
	handler := h.Wrap("/api/chat", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("fail") != "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))

	for _, target := range []string{"/api/chat", "/api/chat", "/api/chat?fail=1"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, target, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(h.requests.WithLabelValues("/api/chat", "POST", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.requests.WithLabelValues("/api/chat", "POST", "400")))

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "http_requests_total"))
}
