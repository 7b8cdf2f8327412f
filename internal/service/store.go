package service

import (
	"sort"
	"strings"
	"sync"

	"screener_go/internal/domain"
	"screener_go/internal/infra"

	"github.com/shopspring/decimal"
)

// Sort keys accepted by Query. They match the read model's column names.
const (
	SortByToken      = "token"
	SortByPrice      = "close"
	SortByVolume     = "assetVolume"
	SortByPercent    = "percent"
	SortByTrades     = "trades"
	SortByRatio      = "longShortRatio"
	SortByVolatility = "volatility"
)

// Sort directions accepted by Query.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// QueryOptions are the read model's query parameters. Zero values mean
// "no filter", "no sort", "no limit".
type QueryOptions struct {
	Search        string
	SortKey       string
	Order         string // "asc" or "desc"
	Limit         int
	FavoritesOnly bool
}

// MarketStore owns all mutable per-instrument state. Every mutation
// (snapshot apply, tick merge, ratio refresh, favorite toggle) goes
// through its mutex; readers only ever see copied snapshots.
type MarketStore struct {
	mu          sync.RWMutex
	entries     map[string]*domain.MarketEntry
	order       []string // registry in snapshot insertion order
	ratios      map[string]string
	favorites   map[string]bool
	historySize int
	degraded    bool
	lastListed  string
}

// NewMarketStore creates an empty store. historySize bounds each
// instrument's price history.
func NewMarketStore(historySize int) *MarketStore {
	return &MarketStore{
		entries:     make(map[string]*domain.MarketEntry),
		ratios:      make(map[string]string),
		favorites:   make(map[string]bool),
		historySize: historySize,
	}
}

// ApplySnapshot replaces the registry and all stats with a fresh bulk
// snapshot. Cached ratios and favorites survive for symbols that are
// still listed.
func (s *MarketStore) ApplySnapshot(entries []*domain.MarketEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*domain.MarketEntry, len(entries))
	s.order = make([]string, 0, len(entries))
	for _, e := range entries {
		if _, exists := s.entries[e.Symbol]; exists {
			continue
		}
		s.entries[e.Symbol] = e
		s.order = append(s.order, e.Symbol)
	}

	s.degraded = false
	infra.GlobalMetrics.SetDegraded(false)
	infra.GlobalMetrics.RecordSnapshotLoad()
}

// ApplyTick merges one incremental update. Unknown symbols are ignored
// since the registry is snapshot-authoritative. Re-applying the identical
// update is a no-op, so delivery retries cannot inflate the history.
// Returns whether the update was applied.
func (s *MarketStore) ApplyTick(u domain.TickerUpdate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyTickLocked(u)
}

// ApplyTicks merges a batch of updates in delivery order.
func (s *MarketStore) ApplyTicks(updates []domain.TickerUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range updates {
		s.applyTickLocked(u)
	}
}

func (s *MarketStore) applyTickLocked(u domain.TickerUpdate) bool {
	entry, exists := s.entries[u.Symbol]
	if !exists {
		infra.GlobalMetrics.RecordTickIgnored()
		return false
	}

	if statsEqual(&entry.Stats, &u) {
		return true // Duplicate delivery; state already reflects it
	}

	entry.Stats.LastPrice = u.LastPrice
	entry.Stats.OpenPrice = u.OpenPrice
	entry.Stats.HighPrice = u.HighPrice
	entry.Stats.LowPrice = u.LowPrice
	entry.Stats.PriceChange = u.PriceChange
	entry.Stats.PriceChangePercent = u.PriceChangePercent
	entry.Stats.QuoteVolume = u.QuoteVolume
	entry.Stats.TradeCount = u.TradeCount
	entry.Stats.History = domain.AppendHistory(entry.Stats.History, u.LastPrice, s.historySize)
	entry.Stats.Volatility = domain.ComputeVolatility(u.HighPrice, u.LowPrice, u.OpenPrice)

	infra.GlobalMetrics.RecordTickApplied()
	return true
}

func statsEqual(st *domain.InstrumentStats, u *domain.TickerUpdate) bool {
	return st.LastPrice.Equal(u.LastPrice) &&
		st.OpenPrice.Equal(u.OpenPrice) &&
		st.HighPrice.Equal(u.HighPrice) &&
		st.LowPrice.Equal(u.LowPrice) &&
		st.PriceChange.Equal(u.PriceChange) &&
		st.PriceChangePercent.Equal(u.PriceChangePercent) &&
		st.QuoteVolume.Equal(u.QuoteVolume) &&
		st.TradeCount == u.TradeCount
}

// SetRatio merges one symbol's long/short ratio into the read model.
func (s *MarketStore) SetRatio(symbol, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratios[symbol] = value
}

// SetRatios merges a restored ratio map, e.g. from the persisted cache.
func (s *MarketStore) SetRatios(values map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for symbol, value := range values {
		s.ratios[symbol] = value
	}
}

// SetFavorites replaces the favorite set, e.g. restored at startup.
func (s *MarketStore) SetFavorites(symbols []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.favorites = make(map[string]bool, len(symbols))
	for _, sym := range symbols {
		s.favorites[sym] = true
	}
}

// ToggleFavorite flips a symbol's favorite flag and returns the new state.
func (s *MarketStore) ToggleFavorite(symbol string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.favorites[symbol] {
		delete(s.favorites, symbol)
		return false
	}
	s.favorites[symbol] = true
	return true
}

// ResetPositivePercents clamps positive 24h change percentages to zero.
// Runs on the daily reset schedule.
func (s *MarketStore) ResetPositivePercents() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.Stats.PriceChangePercent.IsPositive() {
			e.Stats.PriceChangePercent = decimal.Zero
		}
	}
}

// SetDegraded flags (or clears) degraded status after a failed (or
// successful) upstream interaction.
func (s *MarketStore) SetDegraded(degraded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.degraded = degraded
	infra.GlobalMetrics.SetDegraded(degraded)
}

// IsDegraded reports whether the store serves possibly stale data.
func (s *MarketStore) IsDegraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degraded
}

// SetLastListed records the most recently onboarded symbol.
func (s *MarketStore) SetLastListed(symbol string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastListed = symbol
}

// LastListed returns the most recently onboarded symbol.
func (s *MarketStore) LastListed() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastListed
}

// Symbols returns the registry in snapshot insertion order.
func (s *MarketStore) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of registered instruments.
func (s *MarketStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Get returns a copy of one instrument's merged record.
func (s *MarketStore) Get(symbol string) (domain.MarketEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[symbol]
	if !ok {
		return domain.MarketEntry{}, false
	}
	return s.copyEntryLocked(entry), true
}

// Query is the read model: filter by token substring, stable sort by
// key and direction, then truncate to limit. It returns copies; callers
// can never mutate shared state through the result.
func (s *MarketStore) Query(opts QueryOptions) []domain.MarketEntry {
	s.mu.RLock()

	result := make([]domain.MarketEntry, 0, len(s.order))
	search := strings.ToLower(opts.Search)
	for _, symbol := range s.order {
		entry := s.entries[symbol]
		if search != "" && !strings.Contains(strings.ToLower(entry.Token), search) {
			continue
		}
		if opts.FavoritesOnly && !s.favorites[symbol] {
			continue
		}
		result = append(result, s.copyEntryLocked(entry))
	}
	s.mu.RUnlock()

	if opts.SortKey != "" {
		cmp := comparatorFor(opts.SortKey)
		desc := opts.Order == OrderDesc
		sort.SliceStable(result, func(i, j int) bool {
			c := cmp(&result[i], &result[j])
			if desc {
				return c > 0
			}
			return c < 0
		})
	}

	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}
	return result
}

// copyEntryLocked deep-copies an entry and joins in the ratio and
// favorite flag. Must be called with the lock held.
func (s *MarketStore) copyEntryLocked(entry *domain.MarketEntry) domain.MarketEntry {
	out := *entry
	out.Stats.History = make([]decimal.Decimal, len(entry.Stats.History))
	copy(out.Stats.History, entry.Stats.History)

	if ratio, ok := s.ratios[entry.Symbol]; ok {
		out.Ratio = ratio
	} else {
		out.Ratio = domain.RatioUnavailable
	}
	out.IsFavorite = s.favorites[entry.Symbol]
	return out
}

// comparatorFor returns a three-way comparison for the sort key.
// Unknown keys compare everything equal, which leaves input order
// intact under the stable sort.
func comparatorFor(key string) func(a, b *domain.MarketEntry) int {
	switch key {
	case SortByToken:
		return func(a, b *domain.MarketEntry) int {
			return strings.Compare(a.Token, b.Token)
		}
	case SortByPrice:
		return func(a, b *domain.MarketEntry) int {
			return a.Stats.LastPrice.Cmp(b.Stats.LastPrice)
		}
	case SortByVolume:
		return func(a, b *domain.MarketEntry) int {
			return a.Stats.QuoteVolume.Cmp(b.Stats.QuoteVolume)
		}
	case SortByPercent:
		return func(a, b *domain.MarketEntry) int {
			return a.Stats.PriceChangePercent.Cmp(b.Stats.PriceChangePercent)
		}
	case SortByTrades:
		return func(a, b *domain.MarketEntry) int {
			switch {
			case a.Stats.TradeCount < b.Stats.TradeCount:
				return -1
			case a.Stats.TradeCount > b.Stats.TradeCount:
				return 1
			default:
				return 0
			}
		}
	case SortByRatio:
		return func(a, b *domain.MarketEntry) int {
			return ratioValue(a.Ratio).Cmp(ratioValue(b.Ratio))
		}
	case SortByVolatility:
		return func(a, b *domain.MarketEntry) int {
			return a.Stats.Volatility.Cmp(b.Stats.Volatility)
		}
	default:
		return func(a, b *domain.MarketEntry) int { return 0 }
	}
}

// ratioValue parses a cached ratio for sorting. "N/A" sorts below every
// real value.
func ratioValue(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NewFromInt(-1)
	}
	return v
}
