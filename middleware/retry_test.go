package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-kratos/aikit"
	"github.com/go-kratos/kit/retry"
)

// flakyModel fails the first failures calls, optionally after yielding a chunk.
type flakyModel struct {
	failures int
	partial  bool
	calls    int
}

func (m *flakyModel) Name() string { return "flaky" }

func (m *flakyModel) Generate(ctx context.Context, req *aikit.ModelRequest) (*aikit.ModelResponse, error) {
	m.calls++
	if m.calls <= m.failures {
		return nil, errors.New("temporary failure")
	}
	return &aikit.ModelResponse{Message: aikit.AssistantMessage("success")}, nil
}

func (m *flakyModel) NewStream(ctx context.Context, req *aikit.ModelRequest) aikit.Generator[*aikit.ModelResponse, error] {
	return func(yield func(*aikit.ModelResponse, error) bool) {
		m.calls++
		if m.calls <= m.failures {
			if m.partial && !yield(&aikit.ModelResponse{Message: aikit.AssistantMessage("par")}, nil) {
				return
			}
			yield(nil, errors.New("temporary failure"))
			return
		}
		for _, chunk := range []string{"suc", "cess"} {
			if !yield(&aikit.ModelResponse{Message: aikit.AssistantMessage(chunk)}, nil) {
				return
			}
		}
	}
}

func collect(model aikit.ModelProvider) (string, error) {
	var text string
	for res, err := range model.NewStream(context.Background(), &aikit.ModelRequest{}) {
		if err != nil {
			return text, err
		}
		text += res.Message.Text()
	}
	return text, nil
}

func TestRetry_GenerateRetryThenSuccess(t *testing.T) {
	next := &flakyModel{failures: 1}
	model := Retry(next, 3)

	if model.Name() != "flaky" {
		t.Errorf("expected name 'flaky', got %q", model.Name())
	}
	res, err := model.Generate(context.Background(), &aikit.ModelRequest{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.Message.Text() != "success" {
		t.Errorf("expected 'success', got %q", res.Message.Text())
	}
	if next.calls != 2 {
		t.Errorf("expected 2 calls, got %d", next.calls)
	}
}

func TestRetry_GenerateAllAttemptsFail(t *testing.T) {
	next := &flakyModel{failures: 5}
	_, err := Retry(next, 2).Generate(context.Background(), &aikit.ModelRequest{})
	if err == nil || err.Error() != "temporary failure" {
		t.Errorf("expected 'temporary failure', got %v", err)
	}
	if next.calls != 2 {
		t.Errorf("expected 2 calls, got %d", next.calls)
	}
}

func TestRetry_WithCustomRetryable(t *testing.T) {
	next := &flakyModel{failures: 5}
	model := Retry(next, 3, retry.WithRetryable(func(err error) bool {
		return err.Error() == "retryable error"
	}))
	if _, err := model.Generate(context.Background(), &aikit.ModelRequest{}); err == nil {
		t.Errorf("expected error, got none")
	}
	if next.calls != 1 {
		t.Errorf("expected a single call for non-retryable error, got %d", next.calls)
	}
}

func TestRetry_StreamRetriesBeforeFirstChunk(t *testing.T) {
	next := &flakyModel{failures: 1}
	text, err := collect(Retry(next, 3))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if text != "success" {
		t.Errorf("expected 'success', got %q", text)
	}
	if next.calls != 2 {
		t.Errorf("expected 2 calls, got %d", next.calls)
	}
}

func TestRetry_StreamDoesNotReplayPartialOutput(t *testing.T) {
	next := &flakyModel{failures: 1, partial: true}
	text, err := collect(Retry(next, 3))
	if err == nil {
		t.Fatalf("expected error, got none")
	}
	if text != "par" {
		t.Errorf("expected partial text 'par', got %q", text)
	}
	if next.calls != 1 {
		t.Errorf("expected 1 call, got %d", next.calls)
	}
}

func TestRetry_StreamReceiverStops(t *testing.T) {
	next := &flakyModel{}
	var chunks int
	for _, err := range Retry(next, 3).NewStream(context.Background(), &aikit.ModelRequest{}) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		chunks++
		break
	}
	if chunks != 1 || next.calls != 1 {
		t.Errorf("expected 1 chunk and 1 call, got %d and %d", chunks, next.calls)
	}
}

func TestRetry_WithContextCancellation(t *testing.T) {
	next := &flakyModel{failures: 100}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := Retry(next, 5).Generate(ctx, &aikit.ModelRequest{})
	if elapsed := time.Since(start); elapsed >= 400*time.Millisecond {
		t.Errorf("context cancellation not respected, took %v", elapsed)
	}
	if err == nil {
		t.Errorf("expected error, got none")
	}
}
