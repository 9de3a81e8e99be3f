package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/synthmarket/marketsim/internal/service"
	"github.com/synthmarket/marketsim/internal/sim"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	session := service.NewSession(sim.Options{
		Symbol:       "BTC/USD",
		InitialPrice: 50000.0,
		Seed:         42,
		Policy:       sim.PolicyRegime,
	})
	session.Run(10)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(session, logger)
}

func get(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type: want application/json, got %q", ct)
	}
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealthz(t *testing.T) {
	rec := get(t, testRouter(t), "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want 200, got %d", rec.Code)
	}
	var body map[string]string
	decode(t, rec, &body)
	if body["status"] != "ok" {
		t.Errorf("body: want status ok, got %v", body)
	}
}

func TestGetStatus(t *testing.T) {
	rec := get(t, testRouter(t), "/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want 200, got %d", rec.Code)
	}
	var body struct {
		RunID  string `json:"run_id"`
		Symbol string `json:"symbol"`
		Done   bool   `json:"done"`
		Bars   int    `json:"bars"`
	}
	decode(t, rec, &body)
	if body.Symbol != "BTC/USD" || !body.Done || body.Bars != 10 {
		t.Errorf("unexpected status body: %+v", body)
	}
	if body.RunID == "" {
		t.Error("expected a run id")
	}
}

func TestGetBars(t *testing.T) {
	router := testRouter(t)

	rec := get(t, router, "/bars")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want 200, got %d", rec.Code)
	}
	var body struct {
		Symbol string `json:"symbol"`
		Count  int    `json:"count"`
		Bars   []struct {
			Open   float64 `json:"open"`
			Close  float64 `json:"close"`
			Hash   string  `json:"hash"`
			Volume float64 `json:"volume"`
		} `json:"bars"`
	}
	decode(t, rec, &body)
	if body.Count != 10 || len(body.Bars) != 10 {
		t.Errorf("want 10 bars, got count=%d len=%d", body.Count, len(body.Bars))
	}
	if body.Bars[0].Hash == "" {
		t.Error("bars should carry integrity hashes")
	}

	rec = get(t, router, "/bars?limit=3")
	decode(t, rec, &body)
	if body.Count != 3 {
		t.Errorf("limited: want 3 bars, got %d", body.Count)
	}
}

func TestGetTrades(t *testing.T) {
	router := testRouter(t)

	rec := get(t, router, "/trades?limit=5")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want 200, got %d", rec.Code)
	}
	var body struct {
		Count  int `json:"count"`
		Trades []struct {
			Price    float64 `json:"price"`
			Quantity float64 `json:"quantity"`
			Hash     string  `json:"hash"`
		} `json:"trades"`
	}
	decode(t, rec, &body)
	if body.Count != 5 || len(body.Trades) != 5 {
		t.Errorf("want 5 trades, got count=%d len=%d", body.Count, len(body.Trades))
	}
	for _, tr := range body.Trades {
		if tr.Price <= 0 || tr.Quantity <= 0 {
			t.Errorf("malformed trade: %+v", tr)
		}
	}
}

func TestGetDepth(t *testing.T) {
	rec := get(t, testRouter(t), "/depth?levels=3")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want 200, got %d", rec.Code)
	}
	var body struct {
		Bids []struct {
			Price    float64 `json:"price"`
			Quantity float64 `json:"quantity"`
		} `json:"bids"`
		Asks []struct {
			Price    float64 `json:"price"`
			Quantity float64 `json:"quantity"`
		} `json:"asks"`
	}
	decode(t, rec, &body)
	if len(body.Bids) > 3 || len(body.Asks) > 3 {
		t.Errorf("depth exceeds requested levels: %d bids %d asks",
			len(body.Bids), len(body.Asks))
	}
	for i := 1; i < len(body.Bids); i++ {
		if body.Bids[i].Price >= body.Bids[i-1].Price {
			t.Error("bids should be best price first")
		}
	}
}

func TestGetTraders(t *testing.T) {
	rec := get(t, testRouter(t), "/traders")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want 200, got %d", rec.Code)
	}
	var body struct {
		TotalTraders int                        `json:"total_traders"`
		ByArchetype  map[string]json.RawMessage `json:"by_archetype"`
	}
	decode(t, rec, &body)
	if body.TotalTraders != 1430 {
		t.Errorf("total traders: want 1430, got %d", body.TotalTraders)
	}
	if len(body.ByArchetype) != 7 {
		t.Errorf("archetypes: want 7, got %d", len(body.ByArchetype))
	}
}

func TestInvalidQueryParams(t *testing.T) {
	router := testRouter(t)

	for _, path := range []string{"/bars?limit=abc", "/trades?limit=-1", "/depth?levels=x"} {
		rec := get(t, router, path)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: want 400, got %d", path, rec.Code)
		}
		var body struct {
			Error string `json:"error"`
		}
		decode(t, rec, &body)
		if body.Error != "invalid_request" {
			t.Errorf("%s: want invalid_request, got %q", path, body.Error)
		}
	}
}

func TestUnknownRoute(t *testing.T) {
	rec := get(t, testRouter(t), "/orders")
	if rec.Code != http.StatusNotFound {
		t.Errorf("want 404, got %d", rec.Code)
	}
}
