package risk

// Risk levels, ordered green < yellow < red.
const (
	LevelGreen  = "green"
	LevelYellow = "yellow"
	LevelRed    = "red"
)

// Score bounds and the band floor enforced by the postpone guard.
const (
	ScoreMin          = 0.0
	ScoreMax          = 2.0
	yellowFloor       = 0.9
	fallbackReason    = "fallback: response could not be parsed"
	fallbackAction    = "contact the customer"
	missingReason     = "no reason given"
	defaultNextAction = "contact the customer today"
)

// Verdict is the classification result for one deal. Immutable once cached.
type Verdict struct {
	Score  float64 `json:"score"`
	Level  string  `json:"level"`
	Reason string  `json:"reason"`
	Action string  `json:"action"`
}

// fallbackVerdict is the terminal recovery for unparseable model output.
func fallbackVerdict() Verdict {
	return Verdict{
		Score:  1.0,
		Level:  LevelYellow,
		Reason: fallbackReason,
		Action: fallbackAction,
	}
}

// clampScore bounds a score to [ScoreMin, ScoreMax].
func clampScore(s float64) float64 {
	if s < ScoreMin {
		return ScoreMin
	}
	if s > ScoreMax {
		return ScoreMax
	}
	return s
}

// validLevel reports whether l is one of the three bands.
func validLevel(l string) bool {
	return l == LevelGreen || l == LevelYellow || l == LevelRed
}
