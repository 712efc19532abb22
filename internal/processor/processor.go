// Package processor orchestrates assessment runs: fetch leads, build
// features, classify, and retain the latest snapshot for the API.
package processor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/copperline/dealwatch/internal/events"
	"github.com/copperline/dealwatch/internal/features"
	"github.com/copperline/dealwatch/internal/kommo"
	"github.com/copperline/dealwatch/internal/risk"
)

// CRM is the slice of the Kommo client the processor needs.
type CRM interface {
	FetchLeads(ctx context.Context, limit int) ([]kommo.Lead, error)
	FetchLastNote(ctx context.Context, leadID int64) (string, error)
	FetchStageChangedAt(ctx context.Context, leadID int64) (int64, error)
}

// Assessor classifies one feature record.
type Assessor interface {
	Assess(ctx context.Context, f features.DealFeatures) (risk.Verdict, error)
}

// Publisher emits run events. Nil disables publishing.
type Publisher interface {
	Publish(subject string, data any) error
}

// DealResult is one deal's outcome within a run. Either Verdict or Error
// is set: a failed classification is recorded, not fatal to the run.
type DealResult struct {
	DealID            string        `json:"deal_id"`
	ClientName        string        `json:"client_name"`
	Stage             string        `json:"stage"`
	DealValue         float64       `json:"deal_value"`
	LastContactDays   int           `json:"last_contact_days"`
	StageAgeDays      int           `json:"stage_age_days"`
	LastMessage       string        `json:"last_message"`
	ResponsibleUserID int64         `json:"responsible_user_id"`
	SLABreached       bool          `json:"sla_breached"`
	Verdict           *risk.Verdict `json:"verdict,omitempty"`
	Error             string        `json:"error,omitempty"`
}

// RunResult is the snapshot of one assessment run.
type RunResult struct {
	RunID      string       `json:"run_id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Deals      []DealResult `json:"deals"`
	Red        int          `json:"red"`
	Yellow     int          `json:"yellow"`
	Green      int          `json:"green"`
	Failures   int          `json:"failures"`
}

type Runner struct {
	crm       CRM
	assessor  Assessor
	publisher Publisher
	leadLimit int
	slaDays   int
	logger    *slog.Logger
	now       func() time.Time

	mu     sync.RWMutex
	latest *RunResult
}

func NewRunner(crm CRM, assessor Assessor, publisher Publisher, leadLimit, slaDays int, logger *slog.Logger) *Runner {
	return &Runner{
		crm:       crm,
		assessor:  assessor,
		publisher: publisher,
		leadLimit: leadLimit,
		slaDays:   slaDays,
		logger:    logger,
		now:       time.Now,
	}
}

// Run executes one assessment pass over the CRM. Per-deal failures are
// captured in the result; only a failed lead fetch aborts the run.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	runID := uuid.New().String()
	started := r.now()

	leads, err := r.crm.FetchLeads(ctx, r.leadLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch leads: %w", err)
	}
	r.logger.Info("assessment run started", "run_id", runID, "leads", len(leads))

	result := &RunResult{RunID: runID, StartedAt: started}
	for _, lead := range leads {
		result.Deals = append(result.Deals, r.assessLead(ctx, runID, lead))
	}

	for _, d := range result.Deals {
		switch {
		case d.Error != "":
			result.Failures++
		case d.Verdict.Level == risk.LevelRed:
			result.Red++
		case d.Verdict.Level == risk.LevelYellow:
			result.Yellow++
		default:
			result.Green++
		}
	}
	result.FinishedAt = r.now()

	r.mu.Lock()
	r.latest = result
	r.mu.Unlock()

	r.publishRun(result)
	r.logger.Info("assessment run finished",
		"run_id", runID,
		"deals", len(result.Deals),
		"red", result.Red,
		"yellow", result.Yellow,
		"green", result.Green,
		"failures", result.Failures,
	)
	return result, nil
}

func (r *Runner) assessLead(ctx context.Context, runID string, lead kommo.Lead) DealResult {
	// Stage history is best effort: a failed event lookup leaves the
	// stage age unknown but does not fail the record.
	if ts, err := r.crm.FetchStageChangedAt(ctx, lead.ID); err != nil {
		r.logger.Warn("stage event fetch failed", "run_id", runID, "deal_id", lead.IDString(), "error", err)
	} else {
		lead.StageChangedAt = ts
	}

	f := features.Build(lead, "", r.now())
	res := DealResult{
		DealID:            lead.IDString(),
		ClientName:        lead.DisplayName(),
		Stage:             lead.StageString(),
		DealValue:         lead.Price,
		LastContactDays:   f.LastContactDays,
		StageAgeDays:      f.StageAgeDays,
		ResponsibleUserID: lead.ResponsibleUserID,
		SLABreached:       f.LastContactDays > r.slaDays,
	}

	note, err := r.crm.FetchLastNote(ctx, lead.ID)
	if err != nil {
		r.logger.Error("note fetch failed", "run_id", runID, "deal_id", res.DealID, "error", err)
		res.Error = err.Error()
		return res
	}

	f = features.Build(lead, note, r.now())
	res.LastMessage = note

	v, err := r.assessor.Assess(ctx, f)
	if err != nil {
		r.logger.Error("assessment failed", "run_id", runID, "deal_id", res.DealID, "error", err)
		res.Error = err.Error()
		return res
	}
	res.Verdict = &v
	return res
}

// Latest returns the most recent run snapshot, if any.
func (r *Runner) Latest() (*RunResult, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.latest == nil {
		return nil, false
	}
	return r.latest, true
}

func (r *Runner) publishRun(result *RunResult) {
	if r.publisher == nil {
		return
	}
	evt := events.RunCompleted{
		RunID:    result.RunID,
		Deals:    len(result.Deals),
		Red:      result.Red,
		Yellow:   result.Yellow,
		Green:    result.Green,
		Failures: result.Failures,
	}
	if err := r.publisher.Publish(events.SubjectRunCompleted, evt); err != nil {
		r.logger.Warn("failed to publish run event", "run_id", result.RunID, "error", err)
	}
	for _, d := range result.Deals {
		if d.Verdict == nil || d.Verdict.Level != risk.LevelRed {
			continue
		}
		alert := events.DealRed{
			RunID:      result.RunID,
			DealID:     d.DealID,
			ClientName: d.ClientName,
			Score:      d.Verdict.Score,
			Reason:     d.Verdict.Reason,
		}
		if err := r.publisher.Publish(events.SubjectDealRed, alert); err != nil {
			r.logger.Warn("failed to publish red deal event", "deal_id", d.DealID, "error", err)
		}
	}
}
