package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/copperline/dealwatch/internal/kommo"
	"github.com/copperline/dealwatch/internal/processor"
)

// Runs drives assessment runs and serves the latest snapshot.
type Runs interface {
	Run(ctx context.Context) (*processor.RunResult, error)
	Latest() (*processor.RunResult, bool)
}

// Tasks creates CRM follow-up tasks.
type Tasks interface {
	CreateTask(ctx context.Context, leadID int64, text string, completeTill time.Time, responsibleUserID int64) error
}

// Drafter produces follow-up message drafts.
type Drafter interface {
	DraftFollowup(ctx context.Context, clientName, reason, lastMessage string) (string, error)
}

// Deps wires the server's collaborators.
type Deps struct {
	Runs    Runs
	Tasks   Tasks
	Drafter Drafter
	Model   string
}

func (s *Server) deals(w http.ResponseWriter, r *http.Request) {
	run, ok := s.deps.Runs.Latest()
	if !ok {
		writeError(w, http.StatusNotFound, "no assessment run yet")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	run, err := s.deps.Runs.Run(r.Context())
	if err != nil {
		slog.Error("assessment run failed", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, run)
}

type taskRequest struct {
	Text         string `json:"text"`
	CompleteTill int64  `json:"complete_till"` // unix; defaults to tomorrow
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	deal, ok := s.findDeal(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown deal")
		return
	}
	leadID, err := strconv.ParseInt(deal.DealID, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid deal id")
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	text := req.Text
	if text == "" && deal.Verdict != nil {
		text = deal.Verdict.Action
	}
	if text == "" {
		text = "Follow up with the customer"
	}
	till := time.Unix(req.CompleteTill, 0)
	if req.CompleteTill == 0 {
		till = time.Now().Add(24 * time.Hour)
	}

	if err := s.deps.Tasks.CreateTask(r.Context(), leadID, text, till, deal.ResponsibleUserID); err != nil {
		slog.Error("task creation failed", "deal_id", deal.DealID, "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"deal_id":       deal.DealID,
		"text":          text,
		"complete_till": till.Unix(),
	})
}

func (s *Server) draftFollowup(w http.ResponseWriter, r *http.Request) {
	deal, ok := s.findDeal(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown deal")
		return
	}
	reason := ""
	if deal.Verdict != nil {
		reason = deal.Verdict.Reason
	}
	text, err := s.deps.Drafter.DraftFollowup(r.Context(), deal.ClientName, reason, deal.LastMessage)
	if err != nil {
		slog.Error("followup draft failed", "deal_id", deal.DealID, "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"deal_id": deal.DealID,
		"text":    text,
	})
}

func (s *Server) findDeal(id string) (processor.DealResult, bool) {
	run, ok := s.deps.Runs.Latest()
	if !ok {
		return processor.DealResult{}, false
	}
	for _, d := range run.Deals {
		if d.DealID == id {
			return d, true
		}
	}
	return processor.DealResult{}, false
}

// compile-time check that the concrete CRM client satisfies Tasks.
var _ Tasks = (*kommo.Client)(nil)
