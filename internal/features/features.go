package features

import (
	"time"

	"github.com/copperline/dealwatch/internal/kommo"
)

// UnknownContactDays is the sentinel for an absent or unparseable last
// contact date. It is large enough to trip every recency threshold, which
// is the safe direction for a deal nobody has touched.
const UnknownContactDays = 9999

// Recency and stage-age thresholds, in days.
const (
	ThresholdHigh   = 14
	ThresholdMedium = 7
)

// Active trigger labels derived from the day counters.
const (
	NoReplyHigh    = "no_reply_high"
	NoReplyMedium  = "no_reply_medium"
	StageAgeHigh   = "stage_age_high"
	StageAgeMedium = "stage_age_medium"
)

// DealFeatures is the classification input: the deal snapshot plus the
// derived trigger sets. Once fingerprinted it must not be mutated.
type DealFeatures struct {
	DealID           string   `json:"deal_id"`
	ClientName       string   `json:"client_name"`
	Stage            string   `json:"stage"`
	LastContactDays  int      `json:"last_contact_days"`
	StageAgeDays     int      `json:"stage_age_days"`
	DealValue        float64  `json:"deal_value"`
	LastMessageText  string   `json:"last_message_text"`
	ActiveTriggers   []string `json:"active_triggers"`
	SemanticTriggers []string `json:"semantic_triggers"`
}

// Build derives a feature record from a raw CRM lead and its latest note.
func Build(lead kommo.Lead, lastMessage string, now time.Time) DealFeatures {
	f := DealFeatures{
		DealID:          lead.IDString(),
		ClientName:      lead.DisplayName(),
		Stage:           lead.StageString(),
		LastContactDays: daysSince(lead.LastContactDate(), now, UnknownContactDays),
		StageAgeDays:    daysSince(lead.StageChangeDate(), now, 0),
		DealValue:       lead.Price,
		LastMessageText: lastMessage,
	}
	f.ActiveTriggers = ActiveTriggers(f.LastContactDays, f.StageAgeDays)
	return f
}

// daysSince parses a yyyy-mm-dd date string and returns whole days between
// it and now. Absent or unparseable dates return the fallback; future dates
// clamp to zero.
func daysSince(dateStr string, now time.Time, fallback int) int {
	if dateStr == "" {
		return fallback
	}
	dt, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		// Timestamps sneak in occasionally; accept RFC 3339 too.
		dt, err = time.Parse(time.RFC3339, dateStr)
		if err != nil {
			return fallback
		}
	}
	days := int(now.Sub(dt).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// ActiveTriggers applies the fixed recency and stage-age thresholds. At
// most one label per dimension.
func ActiveTriggers(lastContactDays, stageAgeDays int) []string {
	var out []string
	switch {
	case lastContactDays > ThresholdHigh:
		out = append(out, NoReplyHigh)
	case lastContactDays >= ThresholdMedium:
		out = append(out, NoReplyMedium)
	}
	switch {
	case stageAgeDays > ThresholdHigh:
		out = append(out, StageAgeHigh)
	case stageAgeDays >= ThresholdMedium:
		out = append(out, StageAgeMedium)
	}
	return out
}
