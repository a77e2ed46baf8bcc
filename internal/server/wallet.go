package server

import (
	"net/http"

	"github.com/pkg/errors"

	"github.com/johan/sads-console/internal/wallet"
)

func (s *Server) handleWalletStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.deps.Wallet.Status())
}

func (s *Server) handleWalletConnect(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.Wallet.Connect(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, st)
}

func (s *Server) handleWalletDisconnect(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.Wallet.Disconnect(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, st)
}

// handlePlaceBet answers 200 with success=false when the wallet is not
// connected, matching the wallet shim's result object.
func (s *Server) handlePlaceBet(w http.ResponseWriter, r *http.Request) {
	var bet wallet.Bet
	if err := decodeJSON(r, &bet); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, ok := s.deps.Catalog.Get(bet.MarketID); !ok {
		respondError(w, http.StatusNotFound, "market not found: "+bet.MarketID)
		return
	}

	res, err := s.deps.Wallet.PlaceBet(r.Context(), bet)
	if errors.Is(err, wallet.ErrInvalidBet) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, res)
}
