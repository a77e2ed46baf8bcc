package server

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"github.com/johan/sads-console/internal/prediction"
)

type predictError struct {
	Error   string             `json:"error"`
	Details []prediction.Issue `json:"details,omitempty"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req prediction.Request
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, predictError{
			Error: "Invalid address format",
			Details: []prediction.Issue{{
				Code:    "invalid_type",
				Path:    []string{"address"},
				Message: "Expected an object with a string address",
			}},
		})
		return
	}
	if issues := prediction.Validate(req.Address); len(issues) > 0 {
		respondJSON(w, http.StatusBadRequest, predictError{Error: "Invalid address format", Details: issues})
		return
	}

	report, err := s.deps.Predictor.Predict(r.Context(), req.Address)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.logger.WithError(err).Error("Prediction failed")
		respondJSON(w, http.StatusInternalServerError, predictError{Error: "Prediction analysis failed"})
		return
	}
	respondJSON(w, http.StatusOK, report)
}
