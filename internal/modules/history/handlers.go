package history

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const dateLayout = "2006-01-02"

// Handler handles HTTP requests for the history module.
type Handler struct {
	store *Store
	log   zerolog.Logger
}

// NewHandler creates a new history handler.
func NewHandler(store *Store, log zerolog.Logger) *Handler {
	return &Handler{
		store: store,
		log:   log.With().Str("component", "history_handler").Logger(),
	}
}

type pricePayload struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// HandlePutPrices handles PUT /api/history/prices/{symbol}.
// The body is a JSON array of {date, close} observations; existing dates
// are overwritten.
func (h *Handler) HandlePutPrices(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if symbol == "" {
		h.writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	var payload []pricePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if len(payload) == 0 {
		h.writeError(w, http.StatusBadRequest, "no price rows provided")
		return
	}

	prices := make([]DailyPrice, 0, len(payload))
	for _, p := range payload {
		date, err := time.Parse(dateLayout, p.Date)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, fmt.Sprintf("bad date %q: %v", p.Date, err))
			return
		}
		prices = append(prices, DailyPrice{Date: date, Close: p.Close})
	}

	if err := h.store.SavePrices(symbol, prices); err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to save prices")
		h.writeError(w, http.StatusInternalServerError, "failed to save prices")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"saved":  len(prices),
	})
}

// HandleGetPrices handles GET /api/history/prices/{symbol}?days=N.
func (h *Handler) HandleGetPrices(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if symbol == "" {
		h.writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	days := 252
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.writeError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = parsed
	}

	prices, err := h.store.GetDailyPrices(symbol, days)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to fetch prices")
		h.writeError(w, http.StatusInternalServerError, "failed to fetch prices")
		return
	}

	out := make([]pricePayload, 0, len(prices))
	for _, p := range prices {
		out = append(out, pricePayload{Date: p.Date.Format(dateLayout), Close: p.Close})
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"prices": out,
	})
}

// HandleListSymbols handles GET /api/history/symbols.
func (h *Handler) HandleListSymbols(w http.ResponseWriter, r *http.Request) {
	symbols, err := h.store.Symbols()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list symbols")
		h.writeError(w, http.StatusInternalServerError, "failed to list symbols")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"symbols": symbols})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
