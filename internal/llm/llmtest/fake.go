// Package llmtest provides a scripted llm.Client for tests.
package llmtest

import (
	"context"
	"errors"
	"sync"

	"github.com/dvloznov/family-finance/internal/llm"
)

// Fake replays Responses in order and records every request. When
// CompleteFunc is set it is used instead of the script.
type Fake struct {
	CompleteFunc func(ctx context.Context, req llm.Request) (*llm.Response, error)
	Responses    []*llm.Response

	mu       sync.Mutex
	requests []llm.Request
}

// ErrScriptExhausted is returned once every scripted response was consumed.
var ErrScriptExhausted = errors.New("llmtest: no scripted response left")

func (f *Fake) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	f.mu.Lock()
	idx := len(f.requests)
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.CompleteFunc != nil {
		return f.CompleteFunc(ctx, req)
	}
	if idx >= len(f.Responses) {
		return nil, ErrScriptExhausted
	}
	return f.Responses[idx], nil
}

// Requests returns a copy of the recorded requests.
func (f *Fake) Requests() []llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]llm.Request, len(f.requests))
	copy(out, f.requests)
	return out
}

// Text returns a plain reply.
func Text(content string) *llm.Response {
	return &llm.Response{Content: content, Usage: llm.Usage{TotalTokens: 10}}
}

// Calls returns a reply that requests the given tool calls.
func Calls(calls ...llm.ToolCall) *llm.Response {
	return &llm.Response{ToolCalls: calls, Usage: llm.Usage{TotalTokens: 20}}
}
