package risk

import (
	"math"
	"strings"
)

// applyGuards is a pure post-processing transform over a validated verdict.
// It runs unconditionally after parsing, regardless of what the model
// returned: a deal the customer deferred can never be green.
func applyGuards(v Verdict, semanticTriggers []string) Verdict {
	if containsLabel(semanticTriggers, "postpone") && v.Level == LevelGreen {
		v.Level = LevelYellow
		if v.Score < yellowFloor {
			v.Score = yellowFloor
		}
		if !mentionsDeferral(v.Reason) {
			v.Reason = strings.Trim(strings.TrimSpace(v.Reason)+"; conversation deferred by the customer", "; ")
		}
		if v.Action == "" || strings.HasPrefix(strings.ToLower(v.Action), "contact") {
			v.Action = "Book a slot for next week and confirm the agenda by email."
		}
	}
	v.Score = round2(v.Score)
	return v
}

func containsLabel(labels []string, want string) bool {
	for _, l := range labels {
		if l == want {
			return true
		}
	}
	return false
}

func mentionsDeferral(reason string) bool {
	r := strings.ToLower(reason)
	return strings.Contains(r, "defer") || strings.Contains(r, "postpone") || strings.Contains(r, "later")
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
