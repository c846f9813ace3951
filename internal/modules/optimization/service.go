package optimization

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/dmelis/hrpfolio/internal/domain"
	"github.com/dmelis/hrpfolio/internal/modules/calculations"
	"github.com/dmelis/hrpfolio/internal/modules/history"
)

const (
	cacheCategory = "optimizer"
	cacheKeyLast  = "last_result"
)

// Service bridges the price history store and the HRP optimizer, and keeps
// the last result (including the retained merge tree) for status queries and
// dendrogram rendering. Access to the retained result is guarded so HTTP
// handlers and the scheduler can share one instance; the optimizer itself
// is serialized behind the same mutex.
type Service struct {
	optimizer    *HRPOptimizer
	store        *history.Store
	cache        *calculations.Cache
	lookbackDays int
	log          zerolog.Logger

	mu   sync.RWMutex
	last *Result
}

// NewService creates the optimizer service. cache may be nil; with a cache
// the last result is persisted (msgpack) and reloaded on startup.
func NewService(
	optimizer *HRPOptimizer,
	store *history.Store,
	cache *calculations.Cache,
	lookbackDays int,
	log zerolog.Logger,
) *Service {
	s := &Service{
		optimizer:    optimizer,
		store:        store,
		cache:        cache,
		lookbackDays: lookbackDays,
		log:          log.With().Str("component", "optimizer_service").Logger(),
	}
	s.restoreLastResult()
	return s
}

// RunForSymbols assembles a price table for the given symbols (every stored
// symbol when the list is empty) and runs the optimizer over it.
func (s *Service) RunForSymbols(symbols []string) (*Result, error) {
	if len(symbols) == 0 {
		all, err := s.store.Symbols()
		if err != nil {
			return nil, fmt.Errorf("failed to list symbols: %w", err)
		}
		symbols = all
	}
	if len(symbols) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 symbols with price history, got %d",
			ErrInvalidInput, len(symbols))
	}

	table, err := s.store.PriceTable(symbols, s.lookbackDays)
	if err != nil {
		return nil, fmt.Errorf("failed to build price table: %w", err)
	}

	return s.RunForTable(table)
}

// RunForTable runs the optimizer over an explicit price table and retains
// the result.
func (s *Service) RunForTable(table *domain.PriceTable) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.optimizer.Optimize(table)
	if err != nil {
		return nil, err
	}

	s.last = result
	s.persistLastResult(result)

	s.log.Info().
		Str("run_id", result.ID).
		Int("assets", len(result.Assets)).
		Int("weights", len(result.Weights)).
		Msg("Optimization run stored")

	return result, nil
}

// LastResult returns the most recent result, or ok=false if none exists.
func (s *Service) LastResult() (*Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil, false
	}
	return s.last, true
}

// Dendrogram renders the merge tree retained from the last run. Calling it
// before any successful run returns ErrNotOptimized.
func (s *Service) Dendrogram(size int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.last == nil {
		return "", fmt.Errorf("%w: run optimize before requesting the dendrogram", ErrNotOptimized)
	}

	return RenderDendrogram(s.last.Tree, s.last.Assets, size)
}

func (s *Service) persistLastResult(result *Result) {
	if s.cache == nil {
		return
	}
	data, err := msgpack.Marshal(result)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to encode result for cache")
		return
	}
	if err := s.cache.Set(cacheCategory, cacheKeyLast, data, calculations.TTLOptimizer); err != nil {
		s.log.Warn().Err(err).Msg("Failed to cache result")
	}
}

func (s *Service) restoreLastResult() {
	if s.cache == nil {
		return
	}
	data, ok := s.cache.Get(cacheCategory, cacheKeyLast)
	if !ok {
		return
	}
	var result Result
	if err := msgpack.Unmarshal(data, &result); err != nil {
		s.log.Warn().Err(err).Msg("Failed to decode cached result, ignoring")
		return
	}
	s.last = &result
	s.log.Info().Str("run_id", result.ID).Msg("Restored last optimization result from cache")
}
