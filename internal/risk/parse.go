package risk

import (
	"encoding/json"
	"fmt"
	"strings"
)

// rawVerdict is the wire shape expected back from the model.
type rawVerdict struct {
	Score  *float64 `json:"score"`
	Level  string   `json:"level"`
	Reason string   `json:"reason"`
	Action string   `json:"action"`
}

// parseVerdict turns model output into a validated Verdict. The degrade
// chain is: strict parse of the whole text, then the first balanced-brace
// span (models prepend commentary despite instructions), then the fixed
// fallback. It never returns an error to the caller's caller: a false
// second return means the fallback was used.
func parseVerdict(text string) (Verdict, bool) {
	raw, err := decodeRaw(text)
	if err != nil {
		return fallbackVerdict(), false
	}
	return sanitize(raw), true
}

func decodeRaw(text string) (rawVerdict, error) {
	var raw rawVerdict
	trimmed := strings.TrimSpace(text)
	if err := json.Unmarshal([]byte(trimmed), &raw); err == nil {
		return raw, nil
	}
	span, err := firstJSONObject(trimmed)
	if err != nil {
		return rawVerdict{}, err
	}
	if err := json.Unmarshal([]byte(span), &raw); err != nil {
		return rawVerdict{}, fmt.Errorf("parse extracted object: %w", err)
	}
	return raw, nil
}

// firstJSONObject finds the first balanced-brace span in text, honoring
// string literals and escapes.
func firstJSONObject(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", fmt.Errorf("no JSON object found in response")
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unbalanced JSON object in response")
}

// sanitize clamps and defaults a parsed verdict into a valid one.
func sanitize(raw rawVerdict) Verdict {
	v := Verdict{
		Level:  strings.ToLower(strings.TrimSpace(raw.Level)),
		Reason: strings.TrimSpace(raw.Reason),
		Action: strings.TrimSpace(raw.Action),
	}
	if !validLevel(v.Level) {
		v.Level = LevelYellow
	}
	score := 1.0
	if raw.Score != nil {
		score = *raw.Score
	}
	v.Score = clampScore(score)
	if v.Reason == "" {
		v.Reason = missingReason
	}
	if v.Action == "" {
		v.Action = defaultNextAction
	}
	return v
}
