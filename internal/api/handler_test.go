package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"KingOfTheBlock/internal/engine"
	"KingOfTheBlock/internal/game"
	"KingOfTheBlock/internal/ledger"
	"KingOfTheBlock/internal/model"
	"KingOfTheBlock/internal/recorder"
)

type testAPI struct {
	router chi.Router
	eng    *engine.Engine
	clock  *ledger.ManualClock
}

func setupAPI(t *testing.T, faucet bool) *testAPI {
	t.Helper()
	clock := ledger.NewManualClock(1)
	l, err := ledger.Open(ledger.Options{ProgramID: "api-test", Clock: clock})
	require.NoError(t, err)
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { rec.Close() })

	eng := engine.New(context.Background(), l, rec, nil)
	t.Cleanup(eng.Wait)
	require.NoError(t, eng.Airdrop(context.Background(), "payer", 10*game.UnitsPerCoin))
	require.NoError(t, eng.Airdrop(context.Background(), "alice", game.UnitsPerCoin))

	return &testAPI{router: NewRouter(NewHandler(eng, faucet)), eng: eng, clock: clock}
}

func (a *testAPI) do(t *testing.T, method, path, signer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	if signer != "" {
		req.Header.Set(SignerHeader, signer)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func (a *testAPI) initialize(t *testing.T) {
	t.Helper()
	w := a.do(t, http.MethodPost, "/v1/initialize", "payer", initializeRequest{Authority: "auth", FeeAccount: "fees"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestLivez(t *testing.T) {
	a := setupAPI(t, false)
	w := a.do(t, http.MethodGet, "/livez", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStateBeforeInitialize(t *testing.T) {
	a := setupAPI(t, false)
	w := a.do(t, http.MethodGet, "/v1/state", "", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, string(game.CodeNotInitialized), decodeError(t, w).Code)
}

func TestInitializeAndBid(t *testing.T) {
	a := setupAPI(t, false)
	a.initialize(t)

	w := a.do(t, http.MethodPost, "/v1/initialize", "payer", initializeRequest{Authority: "auth", FeeAccount: "fees"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, string(game.CodeAlreadyInitialized), decodeError(t, w).Code)

	w = a.do(t, http.MethodPost, "/v1/bid", "alice", bidRequest{FeeAccount: "fees"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rcpt engine.BidReceipt
	require.NoError(t, json.NewDecoder(w.Body).Decode(&rcpt))
	assert.Equal(t, model.Identity("alice"), rcpt.Event.Bidder)
	assert.Equal(t, game.MinPriceFloor, rcpt.Event.BidValue)
	assert.Equal(t, uint64(151), rcpt.Event.FinalSlot)

	w = a.do(t, http.MethodGet, "/v1/state", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var snap model.Snapshot
	require.NoError(t, json.NewDecoder(w.Body).Decode(&snap))
	assert.Equal(t, game.PhaseActive.String(), snap.Phase)
	assert.True(t, snap.State.LastBidder.Is("alice"))

	w = a.do(t, http.MethodGet, "/v1/accounts/fees", "", nil)
	var acct accountResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&acct))
	assert.Equal(t, uint64(1_000_000), acct.Balance)
}

func TestBidErrors(t *testing.T) {
	a := setupAPI(t, false)
	a.initialize(t)

	w := a.do(t, http.MethodPost, "/v1/bid", "", bidRequest{FeeAccount: "fees"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, codeMissingSigner, decodeError(t, w).Code)

	w = a.do(t, http.MethodPost, "/v1/bid", "alice", bidRequest{FeeAccount: "other"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, string(game.CodeWrongFeeAccount), decodeError(t, w).Code)

	w = a.do(t, http.MethodPost, "/v1/bid", "pauper", bidRequest{FeeAccount: "fees"})
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, string(game.CodeInsufficientFunds), body.Code)
	assert.Equal(t, "0", body.Metadata["balance"])

	w = a.do(t, http.MethodPost, "/v1/bid", "alice", bidRequest{FeeAccount: "fees", Pot: "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(game.CodeAccountMismatch), decodeError(t, w).Code)

	w = a.do(t, http.MethodPost, "/v1/bid", "alice", map[string]string{"fee_acct": "fees"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, codeBadRequest, decodeError(t, w).Code)
}

func TestSettingsAndEndgame(t *testing.T) {
	a := setupAPI(t, false)
	a.initialize(t)

	w := a.do(t, http.MethodPost, "/v1/settings", "alice", map[string]any{"slots_to_win": 3})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(t, http.MethodPost, "/v1/settings", "auth", map[string]any{"fee_bps": 2000})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(game.CodeInvalidPercentages), decodeError(t, w).Code)

	w = a.do(t, http.MethodPost, "/v1/settings", "auth", map[string]any{"slots_to_win": 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(t, http.MethodPost, "/v1/bid", "alice", bidRequest{FeeAccount: "fees"})
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, http.MethodPost, "/v1/endgame", "anyone", endgameRequest{Winner: "alice"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, string(game.CodeGameInProgress), decodeError(t, w).Code)

	a.clock.Set(4)
	w = a.do(t, http.MethodPost, "/v1/endgame", "anyone", endgameRequest{Winner: "mallory"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, string(game.CodeWrongWinner), decodeError(t, w).Code)

	w = a.do(t, http.MethodPost, "/v1/endgame", "anyone", endgameRequest{Winner: "alice"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rcpt engine.GameReceipt
	require.NoError(t, json.NewDecoder(w.Body).Decode(&rcpt))
	assert.Equal(t, uint64(5_000_000), rcpt.Event.Prize)

	w = a.do(t, http.MethodGet, "/v1/settings", "", nil)
	var settings model.GameSettings
	require.NoError(t, json.NewDecoder(w.Body).Decode(&settings))
	assert.Equal(t, uint64(3), settings.SlotsToWin)

	w = a.do(t, http.MethodGet, "/v1/treasury", "", nil)
	var tr treasuryResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&tr))
	assert.Equal(t, uint64(5_000_000), tr.Treasury.PotBalance)
	assert.Equal(t, uint64(1_000_000), tr.Treasury.NextPotBalance)
}

func TestEvents(t *testing.T) {
	a := setupAPI(t, false)
	a.initialize(t)
	w := a.do(t, http.MethodPost, "/v1/bid", "alice", bidRequest{FeeAccount: "fees"})
	require.Equal(t, http.StatusOK, w.Code)
	a.eng.Wait()

	w = a.do(t, http.MethodGet, "/v1/events/bids?limit=5", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var bids []recorder.BidRecord
	require.NoError(t, json.NewDecoder(w.Body).Decode(&bids))
	require.Len(t, bids, 1)
	assert.Equal(t, model.Identity("alice"), bids[0].Bid.Bidder)

	w = a.do(t, http.MethodGet, "/v1/events/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(t, http.MethodGet, "/v1/events/bids?limit=-1", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFaucet(t *testing.T) {
	closed := setupAPI(t, false)
	w := closed.do(t, http.MethodPost, "/v1/airdrop", "", airdropRequest{Account: "carol", Amount: 5})
	assert.Equal(t, http.StatusNotFound, w.Code)

	open := setupAPI(t, true)
	w = open.do(t, http.MethodPost, "/v1/airdrop", "", airdropRequest{Account: "carol", Amount: 5})
	require.Equal(t, http.StatusOK, w.Code)
	var acct accountResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&acct))
	assert.Equal(t, uint64(5), acct.Balance)
}
