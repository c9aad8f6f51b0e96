package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"google.golang.org/genai"
)

type mockModel struct {
	GenerateContentFunc func(ctx context.Context, msgs []llms.MessageContent, opts llms.CallOptions) (*llms.ContentResponse, error)
}

func (m *mockModel) GenerateContent(ctx context.Context, msgs []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var opts llms.CallOptions
	for _, o := range options {
		o(&opts)
	}
	return m.GenerateContentFunc(ctx, msgs, opts)
}

func (m *mockModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", errors.New("not implemented")
}

func TestOpenAI_Complete(t *testing.T) {
	var gotMsgs []llms.MessageContent
	var gotOpts llms.CallOptions
	model := &mockModel{
		GenerateContentFunc: func(ctx context.Context, msgs []llms.MessageContent, opts llms.CallOptions) (*llms.ContentResponse, error) {
			gotMsgs, gotOpts = msgs, opts
			return &llms.ContentResponse{Choices: []*llms.ContentChoice{{
				Content: "",
				ToolCalls: []llms.ToolCall{{
					ID:           "call_1",
					Type:         "function",
					FunctionCall: &llms.FunctionCall{Name: "registrar_transacao", Arguments: `{"amount":50}`},
				}},
				GenerationInfo: map[string]any{"PromptTokens": 100, "CompletionTokens": 20, "TotalTokens": 120},
			}}}, nil
		},
	}

	c := NewOpenAIWithModel(model, "gpt-4o-mini")
	resp, err := c.Complete(context.Background(), Request{
		Messages:    []Message{SystemMessage("sys"), UserMessage("Gastei 50")},
		Tools:       []ToolDefinition{{Name: "registrar_transacao", Parameters: map[string]any{"type": "object"}}},
		Temperature: 0.7,
		MaxTokens:   800,
	})
	require.NoError(t, err)

	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, ToolCall{ID: "call_1", Name: "registrar_transacao", Arguments: `{"amount":50}`}, resp.ToolCalls[0])
	assert.Equal(t, 120, resp.Usage.TotalTokens)
	assert.Equal(t, 100, resp.Usage.PromptTokens)

	require.Len(t, gotMsgs, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, gotMsgs[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, gotMsgs[1].Role)
	assert.InDelta(t, 0.7, gotOpts.Temperature, 1e-9)
	assert.Equal(t, 800, gotOpts.MaxTokens)
	require.Len(t, gotOpts.Tools, 1)
	assert.Equal(t, "registrar_transacao", gotOpts.Tools[0].Function.Name)
	assert.Equal(t, "auto", gotOpts.ToolChoice)
}

func TestOpenAI_CompleteWithoutTools(t *testing.T) {
	model := &mockModel{
		GenerateContentFunc: func(ctx context.Context, msgs []llms.MessageContent, opts llms.CallOptions) (*llms.ContentResponse, error) {
			assert.Empty(t, opts.Tools)
			assert.Nil(t, opts.ToolChoice)
			return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "Olá!"}}}, nil
		},
	}
	resp, err := NewOpenAIWithModel(model, "m").Complete(context.Background(), Request{Messages: []Message{UserMessage("oi")}})
	require.NoError(t, err)
	assert.Equal(t, "Olá!", resp.Content)
	assert.Empty(t, resp.ToolCalls)
}

func TestOpenAI_CompleteErrors(t *testing.T) {
	t.Run("provider error", func(t *testing.T) {
		model := &mockModel{GenerateContentFunc: func(context.Context, []llms.MessageContent, llms.CallOptions) (*llms.ContentResponse, error) {
			return nil, errors.New("boom")
		}}
		_, err := NewOpenAIWithModel(model, "m").Complete(context.Background(), Request{})
		assert.ErrorContains(t, err, "boom")
	})
	t.Run("no choices", func(t *testing.T) {
		model := &mockModel{GenerateContentFunc: func(context.Context, []llms.MessageContent, llms.CallOptions) (*llms.ContentResponse, error) {
			return &llms.ContentResponse{}, nil
		}}
		_, err := NewOpenAIWithModel(model, "m").Complete(context.Background(), Request{})
		assert.Error(t, err)
	})
}

func TestToLangchainMessages_ToolRoundTrip(t *testing.T) {
	call := ToolCall{ID: "c1", Name: "buscar_transacoes", Arguments: `{}`}
	msgs := toLangchainMessages([]Message{
		{Role: RoleAssistant, ToolCalls: []ToolCall{call}},
		ToolResultMessage(call, `{"transactions":[]}`),
	})
	require.Len(t, msgs, 2)

	assert.Equal(t, llms.ChatMessageTypeAI, msgs[0].Role)
	require.Len(t, msgs[0].Parts, 1, "empty assistant text is not sent")
	tc, ok := msgs[0].Parts[0].(llms.ToolCall)
	require.True(t, ok)
	assert.Equal(t, "c1", tc.ID)

	assert.Equal(t, llms.ChatMessageTypeTool, msgs[1].Role)
	resp, ok := msgs[1].Parts[0].(llms.ToolCallResponse)
	require.True(t, ok)
	assert.Equal(t, "c1", resp.ToolCallID)
	assert.Equal(t, "buscar_transacoes", resp.Name)
}

func TestToGenaiContents(t *testing.T) {
	a := ToolCall{ID: "a", Name: "criar_meta", Arguments: `{"name":"Viagem"}`}
	b := ToolCall{ID: "b", Name: "resumo_financeiro", Arguments: `{}`}

	system, contents := toGenaiContents([]Message{
		SystemMessage("persona"),
		SystemMessage("rules"),
		UserMessage("oi"),
		{Role: RoleAssistant, ToolCalls: []ToolCall{a, b}},
		ToolResultMessage(a, `{"success":true}`),
		ToolResultMessage(b, `[1,2]`),
	})

	assert.Equal(t, "persona\n\nrules", system)
	require.Len(t, contents, 3)
	assert.Equal(t, string(genai.RoleUser), contents[0].Role)
	assert.Equal(t, string(genai.RoleModel), contents[1].Role)
	require.Len(t, contents[1].Parts, 2)
	assert.Equal(t, "Viagem", contents[1].Parts[0].FunctionCall.Args["name"])

	require.Len(t, contents[2].Parts, 2, "consecutive tool results share one turn")
	assert.Equal(t, true, contents[2].Parts[0].FunctionResponse.Response["success"])
	assert.Equal(t, []any{float64(1), float64(2)}, contents[2].Parts[1].FunctionResponse.Response["result"])
}

func TestDecodeObject(t *testing.T) {
	assert.Equal(t, map[string]any{"a": float64(1)}, decodeObject(`{"a":1}`))
	assert.Equal(t, map[string]any{"result": "x"}, decodeObject(`"x"`))
	assert.Equal(t, map[string]any{"result": "not json"}, decodeObject(`not json`))
}

type countingClient struct{ calls int }

func (c *countingClient) Complete(context.Context, Request) (*Response, error) {
	c.calls++
	return &Response{Content: "ok"}, nil
}

func TestWithRateLimit(t *testing.T) {
	t.Run("disabled returns the same client", func(t *testing.T) {
		inner := &countingClient{}
		assert.Same(t, Client(inner), WithRateLimit(inner, 0, 0))
	})

	t.Run("burst passes then waits", func(t *testing.T) {
		inner := &countingClient{}
		c := WithRateLimit(inner, 1, 2)

		ctx := context.Background()
		_, err := c.Complete(ctx, Request{})
		require.NoError(t, err)
		_, err = c.Complete(ctx, Request{})
		require.NoError(t, err)

		short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
		defer cancel()
		_, err = c.Complete(short, Request{})
		assert.Error(t, err)
		assert.Equal(t, 2, inner.calls)
	})
}
