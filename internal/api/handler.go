// Package api exposes the game over JSON/HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"KingOfTheBlock/internal/engine"
	"KingOfTheBlock/internal/model"
)

// SignerHeader carries the identity that signed the request. Signature
// checks happen in front of this service.
const SignerHeader = "X-Signer"

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

// Handler serves the game endpoints.
type Handler struct {
	engine       *engine.Engine
	enableFaucet bool
}

// NewHandler creates a Handler. The airdrop endpoint is only mounted when
// enableFaucet is set.
func NewHandler(eng *engine.Engine, enableFaucet bool) *Handler {
	return &Handler{engine: eng, enableFaucet: enableFaucet}
}

// RegisterRoutes mounts the /v1 routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Post("/initialize", h.handleInitialize)
		r.Post("/bid", h.handleBid)
		r.Post("/settings", h.handleUpdateSettings)
		r.Post("/endgame", h.handleEndgame)
		if h.enableFaucet {
			r.Post("/airdrop", h.handleAirdrop)
		}

		r.Get("/state", h.handleState)
		r.Get("/settings", h.handleSettings)
		r.Get("/treasury", h.handleTreasury)
		r.Get("/accounts/{id}", h.handleAccount)
		r.Get("/events/{kind}", h.handleEvents)
	})
}

type initializeRequest struct {
	Authority  model.Identity `json:"authority"`
	FeeAccount model.Identity `json:"fee_account"`
}

type bidRequest struct {
	FeeAccount model.Identity `json:"fee_account"`
	Pot        model.Identity `json:"pot,omitempty"`
	NextPot    model.Identity `json:"next_pot,omitempty"`
}

type endgameRequest struct {
	Winner  model.Identity `json:"winner"`
	Pot     model.Identity `json:"pot,omitempty"`
	NextPot model.Identity `json:"next_pot,omitempty"`
}

type airdropRequest struct {
	Account model.Identity `json:"account"`
	Amount  uint64         `json:"amount"`
}

type accountResponse struct {
	Account model.Identity `json:"account"`
	Balance uint64         `json:"balance"`
}

type treasuryResponse struct {
	Slot     uint64         `json:"slot"`
	Treasury model.Treasury `json:"treasury"`
	Vaults   model.Vaults   `json:"vaults"`
}

func signer(w http.ResponseWriter, r *http.Request) (model.Identity, bool) {
	id := r.Header.Get(SignerHeader)
	if id == "" {
		writeFailure(w, http.StatusUnauthorized, codeMissingSigner, SignerHeader+" header is required")
		return "", false
	}
	return model.Identity(id), true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeFailure(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (h *Handler) handleInitialize(w http.ResponseWriter, r *http.Request) {
	payer, ok := signer(w, r)
	if !ok {
		return
	}
	var req initializeRequest
	if !decode(w, r, &req) {
		return
	}
	rcpt, err := h.engine.InitializeState(r.Context(), payer, req.Authority, req.FeeAccount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rcpt)
}

func (h *Handler) handleBid(w http.ResponseWriter, r *http.Request) {
	bidder, ok := signer(w, r)
	if !ok {
		return
	}
	var req bidRequest
	if !decode(w, r, &req) {
		return
	}
	rcpt, err := h.engine.Bid(r.Context(), bidder, req.FeeAccount, model.Vaults{Pot: req.Pot, NextPot: req.NextPot})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rcpt)
}

func (h *Handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	caller, ok := signer(w, r)
	if !ok {
		return
	}
	var patch model.SettingsPatch
	if !decode(w, r, &patch) {
		return
	}
	rcpt, err := h.engine.UpdateSettings(r.Context(), caller, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rcpt)
}

func (h *Handler) handleEndgame(w http.ResponseWriter, r *http.Request) {
	if _, ok := signer(w, r); !ok {
		return
	}
	var req endgameRequest
	if !decode(w, r, &req) {
		return
	}
	rcpt, err := h.engine.Endgame(r.Context(), req.Winner, model.Vaults{Pot: req.Pot, NextPot: req.NextPot})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rcpt)
}

func (h *Handler) handleAirdrop(w http.ResponseWriter, r *http.Request) {
	var req airdropRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.engine.Airdrop(r.Context(), req.Account, req.Amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accountResponse{Account: req.Account, Balance: h.engine.Balance(req.Account)})
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	snap, err := h.engine.Snapshot()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleSettings(w http.ResponseWriter, r *http.Request) {
	snap, err := h.engine.Snapshot()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap.Settings)
}

func (h *Handler) handleTreasury(w http.ResponseWriter, r *http.Request) {
	snap, err := h.engine.Snapshot()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, treasuryResponse{Slot: snap.Slot, Treasury: snap.Treasury, Vaults: snap.Vaults})
}

func (h *Handler) handleAccount(w http.ResponseWriter, r *http.Request) {
	id := model.Identity(chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, accountResponse{Account: id, Balance: h.engine.Balance(id)})
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeFailure(w, http.StatusBadRequest, codeBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxEventLimit)
	}

	rec := h.engine.Recorder
	var (
		out any
		err error
	)
	switch chi.URLParam(r, "kind") {
	case "bids":
		out, err = rec.RecentBids(limit)
	case "games":
		out, err = rec.RecentGames(limit)
	case "settings":
		out, err = rec.RecentSettings(limit)
	case "treasury":
		out, err = rec.RecentTreasury(limit)
	default:
		writeFailure(w, http.StatusNotFound, codeNotFound, "unknown event kind")
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
