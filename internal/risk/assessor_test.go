package risk

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/copperline/dealwatch/internal/features"
)

type fakeCompleter struct {
	calls      int
	responses  []string
	err        error
	lastPrompt string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp, nil
}

type mapCache map[string]Verdict

func (m mapCache) Get(k string) (Verdict, bool) { v, ok := m[k]; return v, ok }
func (m mapCache) Put(k string, v Verdict)      { m[k] = v }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleFeatures() features.DealFeatures {
	return features.DealFeatures{
		DealID:          "31337",
		ClientName:      "Acme Corp",
		Stage:           "142",
		LastContactDays: 3,
		StageAgeDays:    2,
		DealValue:       42000,
		LastMessageText: "looks good, waiting for the proposal",
	}
}

func TestAssessIdempotentViaCache(t *testing.T) {
	llm := &fakeCompleter{responses: []string{`{"score": 0.4, "level": "green", "reason": "active dialog", "action": "send proposal"}`}}
	a := NewAssessor(llm, mapCache{}, discard())

	first, err := a.Assess(context.Background(), sampleFeatures())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := a.Assess(context.Background(), sampleFeatures())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if llm.calls != 1 {
		t.Errorf("expected exactly 1 model call, got %d", llm.calls)
	}
	if first != second {
		t.Errorf("cached verdict differs: %+v vs %+v", first, second)
	}
}

func TestAssessTransportErrorPropagates(t *testing.T) {
	llm := &fakeCompleter{err: errors.New("connection refused")}
	a := NewAssessor(llm, mapCache{}, discard())

	if _, err := a.Assess(context.Background(), sampleFeatures()); err == nil {
		t.Fatal("expected transport error to propagate")
	}
}

func TestAssessFallbackOnGarbageResponse(t *testing.T) {
	llm := &fakeCompleter{responses: []string{"I cannot help with that."}}
	a := NewAssessor(llm, mapCache{}, discard())

	v, err := a.Assess(context.Background(), sampleFeatures())
	if err != nil {
		t.Fatalf("parse failure must not raise: %v", err)
	}
	if v.Score != 1.0 || v.Level != LevelYellow {
		t.Errorf("expected fallback verdict, got %+v", v)
	}
}

func TestAssessPostponeOverridesModelGreen(t *testing.T) {
	llm := &fakeCompleter{responses: []string{`{"score": 0.5, "level": "green", "reason": "sounds friendly", "action": "wait"}`}}
	a := NewAssessor(llm, mapCache{}, discard())

	f := sampleFeatures()
	f.LastContactDays = 20
	f.StageAgeDays = 3
	f.DealValue = 100000
	f.LastMessageText = "let's talk next week"

	v, err := a.Assess(context.Background(), f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Level == LevelGreen {
		t.Error("postpone trigger must forbid green")
	}
	if v.Score < 0.9 {
		t.Errorf("expected score raised to at least 0.9, got %v", v.Score)
	}

	// The prompt must carry the recomputed trigger sets as the factual basis.
	if !strings.Contains(llm.lastPrompt, `"no_reply_high"`) {
		t.Error("prompt missing active trigger no_reply_high")
	}
	if !strings.Contains(llm.lastPrompt, `"postpone"`) {
		t.Error("prompt missing semantic trigger postpone")
	}
}

func TestAssessTriggerChangeBustsCache(t *testing.T) {
	llm := &fakeCompleter{responses: []string{
		`{"score": 0.2, "level": "green", "reason": "fresh", "action": "send proposal"}`,
		`{"score": 1.2, "level": "yellow", "reason": "gone quiet", "action": "call"}`,
	}}
	a := NewAssessor(llm, mapCache{}, discard())

	f := sampleFeatures()
	if _, err := a.Assess(context.Background(), f); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.LastContactDays = 20
	if _, err := a.Assess(context.Background(), f); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if llm.calls != 2 {
		t.Errorf("distinct feature snapshots must each hit the model, got %d calls", llm.calls)
	}
}

func TestAssessCachesFallbackVerdict(t *testing.T) {
	llm := &fakeCompleter{responses: []string{"no json here"}}
	cache := mapCache{}
	a := NewAssessor(llm, cache, discard())

	if _, err := a.Assess(context.Background(), sampleFeatures()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cache) != 1 {
		t.Errorf("fallback verdict should be cached, cache size %d", len(cache))
	}
	if _, err := a.Assess(context.Background(), sampleFeatures()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if llm.calls != 1 {
		t.Errorf("second call should be served from cache, got %d calls", llm.calls)
	}
}
