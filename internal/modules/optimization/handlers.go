package optimization

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/dmelis/hrpfolio/internal/domain"
)

const dateLayout = "2006-01-02"

// Handler handles HTTP requests for the optimization module.
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new optimization handler.
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("component", "optimizer_handler").Logger(),
	}
}

// runRequest is the body of POST /api/optimizer/run. Either a symbol list
// (prices come from the history store) or an inline price table.
type runRequest struct {
	Symbols []string          `json:"symbols,omitempty"`
	Prices  *inlinePriceTable `json:"prices,omitempty"`
}

// inlinePriceTable carries prices directly in the request. Observations are
// nullable; null marks a missing price.
type inlinePriceTable struct {
	Dates  []string              `json:"dates"`
	Series map[string][]*float64 `json:"series"`
}

// HandleRun handles POST /api/optimizer/run.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	// An empty body means "run over everything in the store".
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	var result *Result
	var err error
	if req.Prices != nil {
		var table *domain.PriceTable
		table, err = req.Prices.toPriceTable()
		if err == nil {
			result, err = h.service.RunForTable(table)
		}
	} else {
		result, err = h.service.RunForSymbols(req.Symbols)
	}

	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		h.log.Error().Err(err).Msg("Optimization run failed")
		h.writeError(w, status, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleGetStatus handles GET /api/optimizer.
func (h *Handler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":   "ready",
		"last_run": nil,
	}

	if last, ok := h.service.LastResult(); ok {
		response["last_run"] = last
		response["last_run_time"] = last.Timestamp.Format(time.RFC3339)
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleDendrogram handles GET /api/optimizer/dendrogram?size=N.
func (h *Handler) HandleDendrogram(w http.ResponseWriter, r *http.Request) {
	size := 6
	if raw := r.URL.Query().Get("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "size must be an integer")
			return
		}
		size = parsed
	}

	rendered, err := h.service.Dendrogram(size)
	if err != nil {
		if errors.Is(err, ErrNotOptimized) {
			h.writeError(w, http.StatusConflict, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Dendrogram rendering failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(rendered))
}

func (p *inlinePriceTable) toPriceTable() (*domain.PriceTable, error) {
	dates := make([]time.Time, len(p.Dates))
	for i, raw := range p.Dates {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: bad date %q: %v", ErrInvalidInput, raw, err)
		}
		dates[i] = parsed
	}

	assets := make([]string, 0, len(p.Series))
	for asset := range p.Series {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	table := domain.NewPriceTable(dates, assets)
	for asset, series := range p.Series {
		if len(series) != len(dates) {
			return nil, fmt.Errorf("%w: series for %s has %d values, want %d",
				ErrInvalidInput, asset, len(series), len(dates))
		}
		dst := table.Prices[asset]
		for i, v := range series {
			if v != nil {
				dst[i] = *v
			} else {
				dst[i] = math.NaN()
			}
		}
	}

	return table, nil
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
