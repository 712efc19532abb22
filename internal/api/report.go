package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/copperline/dealwatch/internal/report"
)

func (s *Server) reportPDF(w http.ResponseWriter, r *http.Request) {
	run, ok := s.deps.Runs.Latest()
	if !ok {
		writeError(w, http.StatusNotFound, "no assessment run yet")
		return
	}
	pdf, err := report.Render(run)
	if err != nil {
		slog.Error("report render failed", "run_id", run.RunID, "error", err)
		writeError(w, http.StatusInternalServerError, "report generation failed")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=deal-risk-%s.pdf", run.FinishedAt.Format("2006-01-02")))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}
