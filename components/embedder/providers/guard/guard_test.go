package guard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bububa/colbert-go/components/embedder"
)

type flakyEmbedder struct {
	calls int
	err   error
}

func (f *flakyEmbedder) EmbedTokens(ctx context.Context, text string, mode embedder.Mode) ([][]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return [][]float64{{1}, {2}}, nil
}

func TestGuardOpensBreaker(t *testing.T) {
	te := &flakyEmbedder{err: errors.New("503 service unavailable")}
	g := New(WithName("test"), WithBreaker(1, time.Minute, time.Minute), WithTripRatio(3, 0.5))
	e := Wrap(te, g)
	for i := 0; i < 3; i++ {
		if _, err := e.EmbedTokens(context.Background(), "text", embedder.ModeDocument); err == nil {
			t.Fatal("want provider error")
		}
	}
	_, err := e.EmbedTokens(context.Background(), "text", embedder.ModeDocument)
	if !errors.Is(err, ErrOpen) {
		t.Fatalf("want open breaker, got %v", err)
	}
	if te.calls != 3 {
		t.Errorf("open breaker should not call the provider, got %d calls", te.calls)
	}
	if g.State() != "open" {
		t.Errorf("want open state, got %s", g.State())
	}
}

func TestGuardIgnoresCallerErrors(t *testing.T) {
	te := &flakyEmbedder{err: &embedder.ValidationError{Field: "text", Reason: "is empty"}}
	g := New(WithTripRatio(1, 0.1))
	e := Wrap(te, g)
	for i := 0; i < 5; i++ {
		if _, err := e.EmbedTokens(context.Background(), "", embedder.ModeDocument); !errors.Is(err, embedder.ErrValidation) {
			t.Fatalf("want validation error, got %v", err)
		}
	}
	if g.State() != "closed" {
		t.Errorf("validation errors should not open the breaker, state %s", g.State())
	}
}

func TestGuardBatch(t *testing.T) {
	te := new(flakyEmbedder)
	e := Wrap(te, New(WithRateLimit(1000, 10)))
	ret, err := e.BatchEmbedTokens(context.Background(), []string{"a", "b", "c"}, embedder.ModeQuery)
	if err != nil {
		t.Fatal(err)
	}
	if len(ret) != 3 || te.calls != 3 {
		t.Errorf("want 3 results from 3 calls, got %d from %d", len(ret), te.calls)
	}
}

func TestGuardRateLimitCanceled(t *testing.T) {
	e := Wrap(new(flakyEmbedder), New(WithRateLimit(0.001, 1)))
	if _, err := e.EmbedTokens(context.Background(), "a", embedder.ModeDocument); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := e.EmbedTokens(ctx, "b", embedder.ModeDocument); err == nil {
		t.Fatal("want rate limiter error")
	}
}
