package marketdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
)

// ChartPoint is one monthly bar in the 5-year price chart series.
type ChartPoint struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// StockSnapshot is the stock payload served to the frontend and embedded in
// report generation requests.
type StockSnapshot struct {
	Ticker          string       `json:"ticker"`
	Symbol          string       `json:"symbol"`
	CompanyName     string       `json:"company_name"`
	Currency        string       `json:"currency"`
	Exchange        string       `json:"exchange"`
	Sector          string       `json:"sector"`
	Industry        string       `json:"industry"`
	Country         string       `json:"country"`
	Description     string       `json:"business_summary"`
	CurrentPrice    float64      `json:"current_price"`
	PreviousClose   float64      `json:"previous_close"`
	PriceChange     float64      `json:"price_change"`
	PriceChangePct  float64      `json:"price_change_pct"`
	Volume          int64        `json:"volume"`
	MarketCap       float64      `json:"market_cap"`
	PERatio         float64      `json:"pe_ratio"`
	ForwardPE       float64      `json:"forward_pe"`
	PriceToBook     float64      `json:"price_to_book"`
	EPS             float64      `json:"eps"`
	DividendYield   float64      `json:"dividend_yield"`
	PayoutRatio     float64      `json:"payout_ratio"`
	Beta            float64      `json:"beta"`
	Week52High      float64      `json:"week_52_high"`
	Week52Low       float64      `json:"week_52_low"`
	FiftyDayMA      float64      `json:"fifty_day_average"`
	TwoHundredDayMA float64      `json:"two_hundred_day_average"`
	TargetPrice     float64      `json:"target_mean_price"`
	ReturnOnEquity  float64      `json:"return_on_equity"`
	ProfitMargin    float64      `json:"profit_margin"`
	RevenueTTM      float64      `json:"total_revenue"`
	Chart           []ChartPoint `json:"chart_data"`
	ChartPoints     int          `json:"chart_data_points"`
	LastUpdated     time.Time    `json:"last_updated"`

	// Fundamentals carries the full statement data for prompt table building.
	// Not serialized to the frontend payload.
	Fundamentals *Fundamentals `json:"-"`
}

type cacheEntry struct {
	snapshot *StockSnapshot
	expires  time.Time
}

// Service resolves tickers and assembles stock snapshots, with an in-memory
// cache in front of the data API.
type Service struct {
	client *Client
	ttl    time.Duration
	logger arbor.ILogger

	mu    sync.RWMutex
	cache map[string]cacheEntry

	now func() time.Time
}

// NewService creates a snapshot service. A zero ttl disables caching.
func NewService(client *Client, ttl time.Duration, logger arbor.ILogger) *Service {
	return &Service{
		client: client,
		ttl:    ttl,
		logger: logger,
		cache:  make(map[string]cacheEntry),
		now:    time.Now,
	}
}

// Snapshot returns the snapshot for a ticker, probing exchange-suffix
// candidates until one yields a valid quote.
func (s *Service) Snapshot(ctx context.Context, ticker string) (*StockSnapshot, error) {
	candidates := CandidateSymbols(ticker)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("invalid ticker %q", ticker)
	}

	key := candidates[0]
	if cached := s.lookup(key); cached != nil {
		return cached, nil
	}

	quote, symbol, err := s.resolve(ctx, candidates)
	if err != nil {
		return nil, err
	}

	snapshot := &StockSnapshot{
		Ticker:         ticker,
		Symbol:         symbol,
		CompanyName:    symbol,
		CurrentPrice:   quote.Close,
		PreviousClose:  quote.PreviousClose,
		PriceChange:    quote.Change,
		PriceChangePct: quote.ChangePct,
		Volume:         quote.Volume,
		LastUpdated:    s.now(),
	}
	if snapshot.PriceChange == 0 && quote.PreviousClose != 0 {
		snapshot.PriceChange = quote.Close - quote.PreviousClose
		snapshot.PriceChangePct = snapshot.PriceChange / quote.PreviousClose * 100
	}

	// Fundamentals and chart failures degrade the snapshot, not the request.
	if fundamentals, err := s.client.GetFundamentals(ctx, symbol); err != nil {
		if s.logger != nil {
			s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Fundamentals unavailable")
		}
	} else {
		applyFundamentals(snapshot, fundamentals)
	}

	if chart, err := s.chartSeries(ctx, symbol); err != nil {
		if s.logger != nil {
			s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Chart series unavailable")
		}
	} else {
		snapshot.Chart = chart
		snapshot.ChartPoints = len(chart)
	}

	s.store(key, snapshot)
	return snapshot, nil
}

// resolve probes each candidate symbol until one returns a quote with a
// non-zero close.
func (s *Service) resolve(ctx context.Context, candidates []string) (*Quote, string, error) {
	var lastErr error
	for _, symbol := range candidates {
		quote, err := s.client.GetRealTimeQuote(ctx, symbol)
		if err != nil {
			lastErr = err
			continue
		}
		if quote.Close <= 0 {
			lastErr = fmt.Errorf("no price data for %s", symbol)
			continue
		}
		if s.logger != nil {
			s.logger.Debug().Str("symbol", symbol).Msg("Ticker resolved")
		}
		return quote, symbol, nil
	}
	return nil, "", fmt.Errorf("no quote found for %v: %w", candidates, lastErr)
}

// chartSeries fetches five years of monthly bars.
func (s *Service) chartSeries(ctx context.Context, symbol string) ([]ChartPoint, error) {
	to := s.now()
	from := to.AddDate(-5, 0, 0)
	bars, err := s.client.GetEOD(ctx, symbol,
		WithPeriod("m"),
		WithOrder("a"),
		WithDateRange(from, to))
	if err != nil {
		return nil, err
	}

	chart := make([]ChartPoint, 0, len(bars))
	for _, bar := range bars {
		chart = append(chart, ChartPoint{
			Date:   bar.DateStr,
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: bar.Volume,
		})
	}
	return chart, nil
}

func applyFundamentals(snapshot *StockSnapshot, f *Fundamentals) {
	snapshot.Fundamentals = f

	if g := f.General; g != nil {
		if g.Name != "" {
			snapshot.CompanyName = g.Name
		}
		snapshot.Currency = g.CurrencyCode
		snapshot.Exchange = g.Exchange
		snapshot.Sector = g.Sector
		snapshot.Industry = g.Industry
		snapshot.Country = g.CountryName
		snapshot.Description = g.Description
	}
	if h := f.Highlights; h != nil {
		snapshot.MarketCap = h.MarketCapitalization
		snapshot.PERatio = h.PERatio
		snapshot.EPS = h.EarningsShare
		snapshot.DividendYield = h.DividendYield
		snapshot.ReturnOnEquity = h.ReturnOnEquityTTM
		snapshot.ProfitMargin = h.ProfitMargin
		snapshot.RevenueTTM = h.RevenueTTM
		snapshot.TargetPrice = h.WallStreetTargetPrice
	}
	if v := f.Valuation; v != nil {
		snapshot.ForwardPE = v.ForwardPE
		snapshot.PriceToBook = v.PriceBookMRQ
	}
	if t := f.Technicals; t != nil {
		snapshot.Beta = t.Beta
		snapshot.Week52High = t.FiftyTwoWeekHigh
		snapshot.Week52Low = t.FiftyTwoWeekLow
		snapshot.FiftyDayMA = t.FiftyDayMA
		snapshot.TwoHundredDayMA = t.TwoHundredDayMA
	}
	if sd := f.SplitsDividends; sd != nil {
		snapshot.PayoutRatio = sd.PayoutRatio
	}
	if ar := f.AnalystRatings; ar != nil && snapshot.TargetPrice == 0 {
		snapshot.TargetPrice = ar.TargetPrice
	}
}

func (s *Service) lookup(key string) *StockSnapshot {
	if s.ttl <= 0 {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.cache[key]
	if !ok || s.now().After(entry.expires) {
		return nil
	}
	return entry.snapshot
}

func (s *Service) store(key string, snapshot *StockSnapshot) {
	if s.ttl <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[key] = cacheEntry{snapshot: snapshot, expires: s.now().Add(s.ttl)}
}
