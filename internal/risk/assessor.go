// Package risk classifies deals via an external completion model, with a
// deterministic cache, a repairing response parser and guard rules that can
// override the model's answer.
package risk

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/copperline/dealwatch/internal/features"
	"github.com/copperline/dealwatch/internal/triggers"
)

// Completer is the completion-endpoint dependency.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Cache maps a feature fingerprint to its verdict. Implementations must be
// safe for concurrent use if the assessor is driven concurrently.
type Cache interface {
	Get(fingerprint string) (Verdict, bool)
	Put(fingerprint string, v Verdict)
}

// Assessor runs the classification pipeline for one deal at a time.
type Assessor struct {
	llm    Completer
	cache  Cache
	logger *slog.Logger
}

func NewAssessor(llm Completer, cache Cache, logger *slog.Logger) *Assessor {
	return &Assessor{llm: llm, cache: cache, logger: logger}
}

// Assess classifies a single deal. Both trigger sets are recomputed from
// the snapshot before fingerprinting, so two calls with identical features
// share one cache entry and at most one model call in sequential use.
// Transport failures propagate; unparseable model output never does.
func (a *Assessor) Assess(ctx context.Context, f features.DealFeatures) (Verdict, error) {
	f.ActiveTriggers = features.ActiveTriggers(f.LastContactDays, f.StageAgeDays)
	f.SemanticTriggers = triggers.Detect(f.LastMessageText)

	key := f.Fingerprint()
	if v, ok := a.cache.Get(key); ok {
		a.logger.Debug("verdict cache hit", "deal_id", f.DealID)
		return v, nil
	}

	payload, err := json.Marshal(f)
	if err != nil {
		return Verdict{}, fmt.Errorf("marshal features: %w", err)
	}

	raw, err := a.llm.Complete(ctx, fmt.Sprintf(assessPrompt, payload))
	if err != nil {
		return Verdict{}, fmt.Errorf("assess deal %s: %w", f.DealID, err)
	}

	v, parsed := parseVerdict(raw)
	if !parsed {
		a.logger.Warn("unparseable model response, using fallback verdict",
			"deal_id", f.DealID,
			"raw_len", len(raw),
		)
	}
	v = applyGuards(v, f.SemanticTriggers)

	a.cache.Put(key, v)
	a.logger.Info("deal assessed",
		"deal_id", f.DealID,
		"level", v.Level,
		"score", v.Score,
		"semantic_triggers", f.SemanticTriggers,
	)
	return v, nil
}
