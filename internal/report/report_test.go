package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/copperline/dealwatch/internal/processor"
	"github.com/copperline/dealwatch/internal/risk"
)

func sampleRun() *processor.RunResult {
	finished := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	return &processor.RunResult{
		RunID:      "7e6cf1f2-0000-4000-8000-000000000000",
		StartedAt:  finished.Add(-time.Minute),
		FinishedAt: finished,
		Deals: []processor.DealResult{
			{
				DealID:          "1",
				ClientName:      "Acme Corp",
				Stage:           "142",
				DealValue:       50000,
				LastContactDays: 20,
				Verdict:         &risk.Verdict{Score: 2.0, Level: risk.LevelRed, Reason: "customer refused", Action: "escalate to the owner"},
			},
			{
				DealID:          "2",
				ClientName:      "Globex with a very long international trading name",
				Stage:           "143",
				DealValue:       1200,
				LastContactDays: 1,
				Verdict:         &risk.Verdict{Score: 0.1, Level: risk.LevelGreen, Reason: "fresh dialog", Action: "send the proposal"},
			},
			{
				DealID:          "3",
				ClientName:      "Initech",
				LastContactDays: 9999,
				Error:           "completion endpoint unreachable",
			},
		},
		Red: 1, Green: 1, Failures: 1,
	}
}

func TestRenderProducesPDF(t *testing.T) {
	out, err := Render(sampleRun())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("expected non-empty PDF")
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Errorf("output does not start with PDF header: %q", out[:8])
	}
}

func TestRenderEmptyRun(t *testing.T) {
	run := &processor.RunResult{RunID: "empty", FinishedAt: time.Now()}
	out, err := Render(run)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Error("empty run should still render a valid PDF")
	}
}

func TestClip(t *testing.T) {
	if got := clip("short", 10); got != "short" {
		t.Errorf("clip should pass short strings, got %q", got)
	}
	if got := clip("abcdefghij", 5); got != "abcd..." {
		t.Errorf("unexpected clip result %q", got)
	}
}
