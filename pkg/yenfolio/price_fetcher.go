package yenfolio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// defaultUSDJPYRate is the last-ditch fallback when no FX source responds
// and no cached rate exists, even a stale one.
const defaultUSDJPYRate = 150.0

// reJPXSymbol matches Tokyo exchange tickers, e.g. "3350.T".
var reJPXSymbol = regexp.MustCompile(`^\d{4}\.T$`)

// isJPXSymbol reports whether the symbol trades on the Tokyo exchange and is
// therefore quoted in yen natively.
func isJPXSymbol(symbol string) bool {
	return reJPXSymbol.MatchString(strings.ToUpper(symbol))
}

// isCryptoPair matches Binance-style pairs quoted in USDT, e.g. "BTCUSDT".
func isCryptoPair(symbol string) bool {
	return strings.HasSuffix(strings.ToUpper(symbol), "USDT")
}

// Price fetcher errors. Use errors.Is() to check for these conditions.
var (
	// ErrNoData indicates the data source returned no price for the symbol.
	ErrNoData = errors.New("no price data available")
	// ErrNoProvider indicates no data source is configured for the symbol type.
	ErrNoProvider = errors.New("no price provider for symbol")
)

// HTTPDoer is an interface for making HTTP requests. It enables dependency
// injection for testing without network calls.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

type priceFetcherOptions struct {
	Logger           *slog.Logger
	PriceCacheTTL    time.Duration
	RateCacheTTL     time.Duration
	FailThreshold    int
	FailWindow       time.Duration
	Cooldown         time.Duration
	HTTPTimeout      time.Duration
	HTTPClient       HTTPDoer // Optional: inject custom client for testing
	FinnhubAPIKey    string
	TwelveDataAPIKey string
	JPXProxyURL      string
}

type priceFetcher struct {
	logger           *slog.Logger
	priceCacheTTL    time.Duration
	rateCacheTTL     time.Duration
	failThreshold    int
	failWindow       time.Duration
	cooldown         time.Duration
	client           HTTPDoer
	finnhubAPIKey    string
	twelveDataAPIKey string
	jpxProxyURL      string

	// Separate locks for cache and circuit breaker to reduce contention.
	cacheMu      sync.RWMutex
	cache        map[string]cacheEntry
	rate         rateEntry
	circuitMu    sync.Mutex
	serviceState map[string]*serviceState
}

type cacheEntry struct {
	price  float64
	source string
	ts     time.Time
}

type rateEntry struct {
	rate float64
	ts   time.Time
}

type serviceState struct {
	failCount     int
	firstFailAt   time.Time
	cooldownUntil time.Time
}

func newPriceFetcher(opts priceFetcherOptions) *priceFetcher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{
			Timeout: opts.HTTPTimeout,
		}
	}
	return &priceFetcher{
		logger:           logger,
		priceCacheTTL:    opts.PriceCacheTTL,
		rateCacheTTL:     opts.RateCacheTTL,
		failThreshold:    opts.FailThreshold,
		failWindow:       opts.FailWindow,
		cooldown:         opts.Cooldown,
		client:           client,
		finnhubAPIKey:    opts.FinnhubAPIKey,
		twelveDataAPIKey: opts.TwelveDataAPIKey,
		jpxProxyURL:      opts.JPXProxyURL,
		cache:            map[string]cacheEntry{},
		serviceState:     map[string]*serviceState{},
	}
}

// PriceResult is one fetched quote in its native currency.
type PriceResult struct {
	Price    *float64 `json:"price"`
	Currency string   `json:"currency"`
	Message  string   `json:"message"`
}

// FetchPrice fetches the latest native-currency price for a symbol.
func (c *Core) FetchPrice(symbol string) (PriceResult, error) {
	symbol = normalizeSymbol(symbol)
	currency := "USD"
	if isJPXSymbol(symbol) {
		currency = HomeCurrency
	}
	price, message, err := c.price.fetch(symbol)
	if err != nil {
		return PriceResult{Currency: currency, Message: message}, err
	}
	return PriceResult{Price: price, Currency: currency, Message: message}, nil
}

// USDJPYRate returns the current dollar-yen rate, cached or fallback.
func (c *Core) USDJPYRate() float64 {
	return c.price.fetchUSDJPY()
}

func (pf *priceFetcher) fetch(symbol string) (*float64, string, error) {
	symbol = normalizeSymbol(symbol)

	if cachedPrice, source, ok := pf.getCached(symbol); ok {
		msg := fmt.Sprintf("price from cache (source: %s)", source)
		return &cachedPrice, msg, nil
	}

	attempts := pf.buildAttempts(symbol)
	if len(attempts) == 0 {
		return nil, fmt.Sprintf("no provider for symbol %s", symbol), ErrNoProvider
	}

	var errorsList []string
	for _, attempt := range attempts {
		service := attempt.name
		if !pf.serviceAvailable(service) {
			errorsList = append(errorsList, fmt.Sprintf("%s: circuit open", service))
			continue
		}
		price, err := attempt.fn()
		if err == nil && price != nil {
			pf.recordServiceSuccess(service)
			pf.setCached(symbol, *price, service)
			return price, fmt.Sprintf("price fetched (source: %s)", service), nil
		}
		if err != nil {
			errorsList = append(errorsList, fmt.Sprintf("%s: %v", service, err))
		} else {
			errorsList = append(errorsList, fmt.Sprintf("%s: no data", service))
		}
		pf.recordServiceFailure(service)
	}

	msg := fmt.Sprintf("price fetch failed: %s", strings.Join(errorsList, "; "))
	return nil, msg, errors.New(msg)
}

type fetchAttempt struct {
	name string
	fn   func() (*float64, error)
}

func (pf *priceFetcher) buildAttempts(symbol string) []fetchAttempt {
	switch {
	case isCryptoPair(symbol):
		return []fetchAttempt{
			{"Binance", func() (*float64, error) { return pf.binanceFetchTicker(symbol) }},
		}
	case isJPXSymbol(symbol):
		attempts := []fetchAttempt{}
		if pf.jpxProxyURL != "" {
			attempts = append(attempts, fetchAttempt{
				"JPX Proxy", func() (*float64, error) { return pf.jpxProxyFetch(symbol) },
			})
		}
		attempts = append(attempts, fetchAttempt{
			"Twelve Data", func() (*float64, error) { return pf.twelveDataFetchPrice(symbol) },
		})
		return attempts
	default:
		return []fetchAttempt{
			{"Finnhub", func() (*float64, error) { return pf.finnhubFetchQuote(symbol) }},
			{"Twelve Data", func() (*float64, error) { return pf.twelveDataFetchPrice(symbol) }},
		}
	}
}

// fetchHomePrices resolves every holding to a home-currency (yen) price.
// Symbols whose price cannot be fetched are simply absent from the map,
// never recorded as a fabricated zero. The returned rate is the USD/JPY
// rate used for conversion.
func (pf *priceFetcher) fetchHomePrices(holdings []Holding) (PriceMap, float64) {
	rate := pf.fetchUSDJPY()
	prices := PriceMap{}
	for _, h := range holdings {
		price, _, err := pf.fetch(h.Symbol)
		if err != nil || price == nil {
			pf.logger.Warn("price unavailable", "symbol", h.Symbol, "err", err)
			continue
		}
		if isJPXSymbol(h.Symbol) {
			prices[h.Symbol] = *price
		} else {
			prices[h.Symbol] = *price * rate
		}
	}
	return prices, rate
}

// fetchDisplayPrices resolves holdings to prices in their native quote
// currency, for display alongside the home-currency figures.
func (pf *priceFetcher) fetchDisplayPrices(holdings []Holding) PriceMap {
	prices := PriceMap{}
	for _, h := range holdings {
		price, _, err := pf.fetch(h.Symbol)
		if err != nil || price == nil {
			continue
		}
		prices[h.Symbol] = *price
	}
	return prices
}

// fetchUSDJPY returns the dollar-yen rate, preferring the cached value
// within its TTL, then a fresh fetch, then a stale cached value, and as a
// last resort the hardcoded default.
func (pf *priceFetcher) fetchUSDJPY() float64 {
	pf.cacheMu.RLock()
	cached := pf.rate
	pf.cacheMu.RUnlock()
	if cached.rate > 0 && time.Since(cached.ts) <= pf.rateCacheTTL {
		return cached.rate
	}

	const service = "Twelve Data FX"
	if pf.serviceAvailable(service) {
		rate, err := pf.twelveDataFetchUSDJPY()
		if err == nil && rate != nil && *rate > 0 {
			pf.recordServiceSuccess(service)
			pf.cacheMu.Lock()
			pf.rate = rateEntry{rate: *rate, ts: time.Now()}
			pf.cacheMu.Unlock()
			return *rate
		}
		pf.recordServiceFailure(service)
		pf.logger.Warn("usd/jpy fetch failed", "err", err)
	}

	if cached.rate > 0 {
		pf.logger.Warn("using stale usd/jpy rate", "rate", cached.rate, "age", time.Since(cached.ts))
		return cached.rate
	}
	pf.logger.Warn("using default usd/jpy rate", "rate", defaultUSDJPYRate)
	return defaultUSDJPYRate
}

func (pf *priceFetcher) getCached(symbol string) (float64, string, bool) {
	pf.cacheMu.RLock()
	defer pf.cacheMu.RUnlock()
	entry, ok := pf.cache[symbol]
	if !ok {
		return 0, "", false
	}
	if time.Since(entry.ts) <= pf.priceCacheTTL {
		return entry.price, entry.source, true
	}
	return 0, "", false
}

func (pf *priceFetcher) setCached(symbol string, price float64, source string) {
	pf.cacheMu.Lock()
	defer pf.cacheMu.Unlock()
	pf.cache[symbol] = cacheEntry{price: price, source: source, ts: time.Now()}
}

func (pf *priceFetcher) serviceAvailable(service string) bool {
	pf.circuitMu.Lock()
	defer pf.circuitMu.Unlock()
	state, ok := pf.serviceState[service]
	if !ok {
		return true
	}
	return time.Now().After(state.cooldownUntil)
}

func (pf *priceFetcher) recordServiceFailure(service string) {
	pf.circuitMu.Lock()
	defer pf.circuitMu.Unlock()
	state := pf.serviceState[service]
	now := time.Now()
	if state == nil {
		state = &serviceState{firstFailAt: now}
		pf.serviceState[service] = state
	}
	if now.Sub(state.firstFailAt) > pf.failWindow {
		state.failCount = 0
		state.firstFailAt = now
	}
	state.failCount++
	if state.failCount >= pf.failThreshold {
		state.cooldownUntil = now.Add(pf.cooldown)
	}
}

func (pf *priceFetcher) recordServiceSuccess(service string) {
	pf.circuitMu.Lock()
	defer pf.circuitMu.Unlock()
	delete(pf.serviceState, service)
}

// Binance spot ticker. Pairs are quoted in USDT, treated as USD.
func (pf *priceFetcher) binanceFetchTicker(symbol string) (*float64, error) {
	u := fmt.Sprintf("https://api.binance.com/api/v3/ticker/price?symbol=%s", url.QueryEscape(symbol))
	body, err := pf.httpGet(context.Background(), u, nil)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Price string `json:"price"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	if payload.Price == "" {
		return nil, nil
	}
	price, err := strconv.ParseFloat(payload.Price, 64)
	if err != nil {
		return nil, err
	}
	return &price, nil
}

// Finnhub quote endpoint for US stocks.
func (pf *priceFetcher) finnhubFetchQuote(symbol string) (*float64, error) {
	if pf.finnhubAPIKey == "" {
		return nil, errors.New("finnhub api key not configured")
	}
	u := fmt.Sprintf("https://finnhub.io/api/v1/quote?symbol=%s&token=%s",
		url.QueryEscape(symbol), url.QueryEscape(pf.finnhubAPIKey))
	body, err := pf.httpGet(context.Background(), u, nil)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Current float64 `json:"c"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	// Finnhub returns c=0 for unknown symbols.
	if payload.Current <= 0 {
		return nil, nil
	}
	return &payload.Current, nil
}

// Twelve Data price endpoint, used for JPX tickers and as a stock fallback.
func (pf *priceFetcher) twelveDataFetchPrice(symbol string) (*float64, error) {
	if pf.twelveDataAPIKey == "" {
		return nil, errors.New("twelve data api key not configured")
	}
	u := fmt.Sprintf("https://api.twelvedata.com/price?symbol=%s&apikey=%s",
		url.QueryEscape(symbol), url.QueryEscape(pf.twelveDataAPIKey))
	body, err := pf.httpGet(context.Background(), u, nil)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Price string `json:"price"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	if payload.Price == "" {
		return nil, nil
	}
	price, err := strconv.ParseFloat(payload.Price, 64)
	if err != nil {
		return nil, err
	}
	return &price, nil
}

func (pf *priceFetcher) twelveDataFetchUSDJPY() (*float64, error) {
	if pf.twelveDataAPIKey == "" {
		return nil, errors.New("twelve data api key not configured")
	}
	u := fmt.Sprintf("https://api.twelvedata.com/price?symbol=USD/JPY&apikey=%s",
		url.QueryEscape(pf.twelveDataAPIKey))
	body, err := pf.httpGet(context.Background(), u, nil)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Price string `json:"price"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	if payload.Price == "" {
		return nil, nil
	}
	rate, err := strconv.ParseFloat(payload.Price, 64)
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

// jpxProxyFetch asks a configured proxy for a Tokyo exchange quote. The
// proxy answers {"symbol": "...", "price": N} with the price in yen.
func (pf *priceFetcher) jpxProxyFetch(symbol string) (*float64, error) {
	u := fmt.Sprintf("%s?symbol=%s", strings.TrimRight(pf.jpxProxyURL, "/"), url.QueryEscape(symbol))
	body, err := pf.httpGet(context.Background(), u, nil)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Price *float64 `json:"price"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	if payload.Price == nil || *payload.Price <= 0 {
		return nil, nil
	}
	return payload.Price, nil
}

func (pf *priceFetcher) clearCache() {
	pf.cacheMu.Lock()
	defer pf.cacheMu.Unlock()
	pf.cache = map[string]cacheEntry{}
	pf.rate = rateEntry{}
}

// RefreshPrices drops every cached quote and refetches all holdings,
// returning fresh home-currency prices and the USD/JPY rate used.
func (c *Core) RefreshPrices() (PriceMap, float64, error) {
	holdings, err := c.GetHoldings()
	if err != nil {
		return nil, 0, err
	}
	c.price.clearCache()
	prices, rate := c.price.fetchHomePrices(holdings)
	c.logger.Info("prices refreshed", "priced", len(prices), "holdings", len(holdings), "rate", rate)
	return prices, rate, nil
}

// maxResponseSize limits external API responses to 1MB to prevent memory exhaustion.
const maxResponseSize = 1 << 20 // 1MB

func (pf *priceFetcher) httpGet(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := pf.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("http status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
}
