package server

import (
	"net/http"
	"strings"

	"github.com/johan/sads-console/internal/outcome"
)

// MatchRequest asks which candidate best fits a target label.
type MatchRequest struct {
	TargetLabel string              `json:"targetLabel"`
	Markets     []outcome.Candidate `json:"markets"`
}

// MatchResponse is the matcher result. Prices is set only when the matched
// candidate's prices parse.
type MatchResponse struct {
	Matched   bool               `json:"matched"`
	Strategy  outcome.Strategy   `json:"strategy"`
	Candidate *outcome.Candidate `json:"candidate,omitempty"`
	Prices    *outcome.Prices    `json:"prices,omitempty"`
	Settled   bool               `json:"settled"`
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.TargetLabel) == "" {
		respondError(w, http.StatusBadRequest, "targetLabel is required")
		return
	}

	c, strategy := outcome.MatchWithStrategy(req.Markets, req.TargetLabel)
	resp := MatchResponse{Matched: c != nil, Strategy: strategy, Candidate: c}
	if c != nil && c.Prices != nil {
		if p := outcome.NormalizePrices(*c.Prices); p.Valid() {
			resp.Prices = &p
			resp.Settled = p.Settled()
		}
	}
	respondJSON(w, http.StatusOK, resp)
}
