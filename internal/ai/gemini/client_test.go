package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

type fakeCaller struct {
	mu        sync.Mutex
	responses []fakeResponse
	calls     int
	prompts   []string
}

type fakeResponse struct {
	output string
	err    error
}

func (f *fakeCaller) generateContent(_ context.Context, _ string, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if len(f.responses) == 0 {
		return "", errors.New("unexpected call")
	}
	res := f.responses[0]
	f.responses = f.responses[1:]
	return res.output, res.err
}

func newGenerator(c caller, maxRetries int) *Generator {
	return &Generator{
		caller:     c,
		model:      "gemini-pro",
		maxRetries: maxRetries,
		backoff:    time.Millisecond,
		logger:     zap.NewNop(),
	}
}

func TestCompleteReturnsResponse(t *testing.T) {
	t.Parallel()

	fake := &fakeCaller{responses: []fakeResponse{{output: `{"overallScore": 75}`}}}
	g := newGenerator(fake, 0)

	out, err := g.Complete(context.Background(), "analyze this candidate")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"overallScore": 75}` {
		t.Fatalf("unexpected output: %s", out)
	}
	if fake.prompts[0] != "analyze this candidate" {
		t.Fatalf("unexpected prompt: %s", fake.prompts[0])
	}
}

func TestCompleteRejectsEmptyPrompt(t *testing.T) {
	t.Parallel()

	g := newGenerator(&fakeCaller{}, 0)
	if _, err := g.Complete(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty prompt")
	}
}

func TestCompleteRetriesOnServerError(t *testing.T) {
	t.Parallel()

	serverErr := genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}
	fake := &fakeCaller{responses: []fakeResponse{
		{err: serverErr},
		{output: "recovered"},
	}}

	g := newGenerator(fake, 2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out, err := g.Complete(ctx, "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "recovered" {
		t.Fatalf("unexpected output: %s", out)
	}
	if fake.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", fake.calls)
	}
}

func TestCompleteStopsAfterMaxRetries(t *testing.T) {
	t.Parallel()

	serverErr := genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"}
	fake := &fakeCaller{responses: []fakeResponse{
		{err: serverErr},
		{err: serverErr},
		{err: serverErr},
	}}

	g := newGenerator(fake, 2)

	if _, err := g.Complete(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error after retries exhausted")
	}
	if fake.calls != 3 {
		t.Fatalf("expected 3 calls, got %d", fake.calls)
	}
}

func TestCompleteDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	badRequest := genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"}
	fake := &fakeCaller{responses: []fakeResponse{{err: badRequest}}}

	g := newGenerator(fake, 3)

	if _, err := g.Complete(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error")
	}
	if fake.calls != 1 {
		t.Fatalf("expected single call, got %d", fake.calls)
	}
}
