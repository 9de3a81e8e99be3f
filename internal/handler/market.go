package handler

import (
	"net/http"
	"strconv"

	"github.com/synthmarket/marketsim/internal/domain"
	"github.com/synthmarket/marketsim/internal/engine"
	"github.com/synthmarket/marketsim/internal/service"
)

// MarketHandler serves read-only market data from a hosted session.
type MarketHandler struct {
	session *service.Session
}

// NewMarketHandler creates a MarketHandler for the given session.
func NewMarketHandler(session *service.Session) *MarketHandler {
	return &MarketHandler{session: session}
}

// GetStatus handles GET /status.
func (h *MarketHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.session.Status())
}

// barsResponse is the response for GET /bars.
type barsResponse struct {
	Symbol string              `json:"symbol"`
	Count  int                 `json:"count"`
	Bars   []*domain.MarketBar `json:"bars"`
}

// GetBars handles GET /bars?limit=N.
func (h *MarketHandler) GetBars(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit", 0)
	if !ok {
		return
	}
	bars := h.session.Bars(limit)
	WriteJSON(w, http.StatusOK, barsResponse{
		Symbol: h.session.Status().Symbol,
		Count:  len(bars),
		Bars:   bars,
	})
}

// tradesResponse is the response for GET /trades.
type tradesResponse struct {
	Symbol string          `json:"symbol"`
	Count  int             `json:"count"`
	Trades []*domain.Trade `json:"trades"`
}

// GetTrades handles GET /trades?limit=N.
func (h *MarketHandler) GetTrades(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit", 100)
	if !ok {
		return
	}
	trades := h.session.Trades(limit)
	WriteJSON(w, http.StatusOK, tradesResponse{
		Symbol: h.session.Status().Symbol,
		Count:  len(trades),
		Trades: trades,
	})
}

// depthResponse is the response for GET /depth.
type depthResponse struct {
	Symbol string              `json:"symbol"`
	Bids   []engine.DepthLevel `json:"bids"`
	Asks   []engine.DepthLevel `json:"asks"`
}

// GetDepth handles GET /depth?levels=N. Levels are returned best price
// first on both sides.
func (h *MarketHandler) GetDepth(w http.ResponseWriter, r *http.Request) {
	levels, ok := queryInt(w, r, "levels", 10)
	if !ok {
		return
	}
	bids, asks := h.session.Depth(levels)
	WriteJSON(w, http.StatusOK, depthResponse{
		Symbol: h.session.Status().Symbol,
		Bids:   bids,
		Asks:   asks,
	})
}

// GetTraders handles GET /traders.
func (h *MarketHandler) GetTraders(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.session.TraderStats())
}

// queryInt parses an optional non-negative integer query parameter,
// writing a 400 response and returning ok=false on invalid input.
func queryInt(w http.ResponseWriter, r *http.Request, name string, defaultVal int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultVal, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		WriteError(w, http.StatusBadRequest, "invalid_request",
			name+" must be a non-negative integer")
		return 0, false
	}
	return v, true
}
