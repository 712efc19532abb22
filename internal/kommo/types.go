package kommo

import (
	"fmt"
	"strconv"
	"time"
)

// Lead is the subset of a Kommo lead record the pipeline consumes.
type Lead struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	Price             float64 `json:"price"`
	StatusID          int64   `json:"status_id"`
	ResponsibleUserID int64   `json:"responsible_user_id"`
	UpdatedAt         int64   `json:"updated_at"`
	CreatedAt         int64   `json:"created_at"`

	// StageChangedAt is resolved separately from the events endpoint.
	// Zero means no stage change event is known for the lead.
	StageChangedAt int64 `json:"-"`
}

func (l Lead) IDString() string {
	return strconv.FormatInt(l.ID, 10)
}

func (l Lead) DisplayName() string {
	if l.Name != "" {
		return l.Name
	}
	return fmt.Sprintf("Lead %d", l.ID)
}

// StageString returns the stage identifier in string form. Kommo only
// exposes the numeric status ID on the list endpoint.
func (l Lead) StageString() string {
	return strconv.FormatInt(l.StatusID, 10)
}

// LastContactDate returns the last activity date as yyyy-mm-dd, or "" when
// the record carries no usable timestamp.
func (l Lead) LastContactDate() string {
	ts := l.UpdatedAt
	if ts == 0 {
		ts = l.CreatedAt
	}
	if ts == 0 {
		return ""
	}
	return time.Unix(ts, 0).UTC().Format("2006-01-02")
}

// StageChangeDate returns the last stage change as yyyy-mm-dd, or "" when
// StageChangedAt has not been resolved.
func (l Lead) StageChangeDate() string {
	if l.StageChangedAt == 0 {
		return ""
	}
	return time.Unix(l.StageChangedAt, 0).UTC().Format("2006-01-02")
}
