package adapter

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// MockReply is one scripted reply. A non-nil Err makes the call fail.
type MockReply struct {
	Text string
	Err  error
}

// MockAdapter returns deterministic responses for local runs and tests.
// Scripted replies are consumed in order first; after that the last user
// message is matched against the keyed responses (longest key wins), and
// finally the default response is echoed back.
type MockAdapter struct {
	responses       map[string]string
	defaultResponse string
	script          []MockReply
	requests        []Request
	Usage           *Usage
}

// NewMockAdapter creates a mock adapter with a default response.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{
		responses:       make(map[string]string),
		defaultResponse: "mock response:",
	}
}

// NewMockAdapterWithResponses creates a mock adapter with predefined responses.
func NewMockAdapterWithResponses(responses map[string]string, defaultResponse string) *MockAdapter {
	if defaultResponse == "" {
		defaultResponse = "mock response:"
	}
	return &MockAdapter{responses: responses, defaultResponse: defaultResponse}
}

// NewScriptedAdapter creates a mock adapter that replays replies in order.
func NewScriptedAdapter(replies ...MockReply) *MockAdapter {
	a := NewMockAdapter()
	a.script = append(a.script, replies...)
	return a
}

// Reply queues a successful scripted reply.
func (a *MockAdapter) Reply(text string) *MockAdapter {
	a.script = append(a.script, MockReply{Text: text})
	return a
}

// Fail queues a failing scripted reply.
func (a *MockAdapter) Fail(err error) *MockAdapter {
	a.script = append(a.script, MockReply{Err: err})
	return a
}

// Name returns the adapter identifier.
func (a *MockAdapter) Name() string {
	return "mock"
}

// Models returns the list of supported mock models.
func (a *MockAdapter) Models() []string {
	return []string{"mock-1"}
}

// Requests returns every request the adapter has received.
func (a *MockAdapter) Requests() []Request {
	return append([]Request(nil), a.requests...)
}

// Remaining reports how many scripted replies have not been consumed.
func (a *MockAdapter) Remaining() int {
	return len(a.script)
}

// Complete returns the next scripted reply or a keyed/default response.
func (a *MockAdapter) Complete(_ context.Context, req *Request) (*Response, error) {
	cp := *req
	cp.Messages = append([]Message(nil), req.Messages...)
	a.requests = append(a.requests, cp)

	if len(a.script) > 0 {
		next := a.script[0]
		a.script = a.script[1:]
		if next.Err != nil {
			return nil, next.Err
		}
		return &Response{Text: next.Text, FinishReason: "stop", Usage: a.Usage}, nil
	}

	prompt := lastUserContent(req.Messages)
	if response, ok := a.match(prompt); ok {
		return &Response{Text: response, FinishReason: "stop", Usage: a.Usage}, nil
	}
	content := fmt.Sprintf("%s\n%s", a.defaultResponse, prompt)
	return &Response{Text: content, FinishReason: "stop", Usage: a.Usage}, nil
}

func (a *MockAdapter) match(prompt string) (string, bool) {
	keys := make([]string, 0, len(a.responses))
	for k := range a.responses {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) == len(keys[j]) {
			return keys[i] < keys[j]
		}
		return len(keys[i]) > len(keys[j])
	})
	for _, k := range keys {
		if strings.Contains(prompt, k) {
			return a.responses[k], true
		}
	}
	return "", false
}

func lastUserContent(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return messages[i].Content
		}
	}
	return ""
}
