package yenfolio

// HomeCurrency is the currency all portfolio totals are reported in.
const HomeCurrency = "JPY"

var Currencies = []string{"JPY", "USD"}

// Holding kinds. The kind decides the unit convention (shares vs fractional
// units) and whether the cost basis is already in the home currency.
const (
	KindStock  = "stock"
	KindCrypto = "crypto"
)

var HoldingKinds = []string{KindStock, KindCrypto}

// Capital event kinds. Positive amounts add capital, negative remove it.
const (
	EventInitial    = "initial"
	EventDeposit    = "deposit"
	EventWithdrawal = "withdrawal"
	EventTrade      = "trade"
)

var CapitalEventKinds = []string{EventInitial, EventDeposit, EventWithdrawal, EventTrade}

// CalculationMethod tags a year record as authoritative or derived.
// Hardcoded records are never recomputed; automatic records are recalculated
// as snapshots and capital events accumulate.
type CalculationMethod string

const (
	MethodHardcoded CalculationMethod = "hardcoded"
	MethodAutomatic CalculationMethod = "automatic"
)

// Holding represents one position in the portfolio.
type Holding struct {
	Symbol   string  `json:"symbol"`
	Name     *string `json:"name"`
	Kind     string  `json:"kind"`
	Quantity float64 `json:"quantity"`
}

// CostBasis is the average purchase cost per unit for a symbol, expressed
// in the symbol's original transaction currency.
type CostBasis struct {
	AvgCost  float64 `json:"avg_cost"`
	Currency string  `json:"currency"`
}

// CostBasisTable is the single authoritative cost-basis table, keyed by symbol.
type CostBasisTable map[string]CostBasis

// CapitalEvent records money moved into or out of the portfolio, as
// distinct from market-driven value change.
type CapitalEvent struct {
	ID     int64   `json:"id"`
	Date   string  `json:"date"`
	Amount Amount  `json:"amount"`
	Kind   string  `json:"kind"`
	Note   *string `json:"note"`
}

// PortfolioSnapshot is one daily persisted valuation of the whole portfolio.
// Nil values mean "not computable that day" and must never be coerced to zero.
type PortfolioSnapshot struct {
	Date         string  `json:"date"`
	Timestamp    string  `json:"timestamp"`
	StockValue   *Amount `json:"stockValue"`
	CryptoValue  *Amount `json:"cryptoValue"`
	TotalValue   *Amount `json:"totalValue"`
	ExchangeRate float64 `json:"exchangeRate"`
}

// YearRecord is one row of the annual performance database. Nil fields are
// not yet known (an expected state for an in-progress year).
type YearRecord struct {
	Year             int               `json:"year"`
	StartDate        string            `json:"start_date"`
	EndDate          string            `json:"end_date"`
	StartValue       *Amount           `json:"start_value"`
	EndValue         *Amount           `json:"end_value"`
	CurrentBalance   *Amount           `json:"current_balance"`
	ActualProfit     *Amount           `json:"actual_profit"`
	ReturnPercent    *float64          `json:"return_percent"`
	CapitalAdded     Amount            `json:"capital_added"`
	CapitalWithdrawn Amount            `json:"capital_withdrawn"`
	NetCapitalChange Amount            `json:"net_capital_change"`
	StocksProfit     *Amount           `json:"stocks_profit"`
	CryptoProfit     *Amount           `json:"crypto_profit"`
	Notes            string            `json:"notes"`
	Method           CalculationMethod `json:"calculation_method"`
	Formula          string            `json:"formula"`
}

// YearUpdate carries partial field updates for UpdateYear. Nil fields are
// left untouched.
type YearUpdate struct {
	StartValue       *Amount
	EndValue         *Amount
	CurrentBalance   *Amount
	ActualProfit     *Amount
	ReturnPercent    *float64
	CapitalAdded     *Amount
	CapitalWithdrawn *Amount
	StocksProfit     *Amount
	CryptoProfit     *Amount
	Notes            *string
	Method           *CalculationMethod
}

// AnnualPerformanceRecord is one emitted per-year performance figure.
type AnnualPerformanceRecord struct {
	Year             int               `json:"year"`
	StartValue       Amount            `json:"startValue"`
	EndValue         Amount            `json:"endValue"`
	CapitalAdded     Amount            `json:"capitalAdded"`
	CapitalWithdrawn Amount            `json:"capitalWithdrawn"`
	ActualProfit     Amount            `json:"actualProfit"`
	ReturnPercent    float64           `json:"returnPercent"`
	StocksProfit     *Amount           `json:"stocksProfit"`
	CryptoProfit     *Amount           `json:"cryptoProfit"`
	Notes            string            `json:"notes"`
	Method           CalculationMethod `json:"calculationMethod"`
}

// LiveFigures are the in-progress year's real-time numbers, supplied by the
// caller when current holdings gain and balance are known.
type LiveFigures struct {
	HoldingsGain Amount `json:"holdings_gain"`
	Balance      Amount `json:"balance"`
}

// Trade sides.
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// TradeRequest defines inputs to process a trade.
type TradeRequest struct {
	Date     string
	Symbol   string
	Side     string
	Quantity float64
	Price    float64
	// AmountHome is the capital moved in home currency (JPY). Positive for
	// buys funded with fresh capital, negative for sells withdrawn.
	AmountHome float64
	Kind       string
	Note       *string
}

// Trade is one recorded buy or sell.
type Trade struct {
	ID         int64   `json:"id"`
	Date       string  `json:"date"`
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"`
	Quantity   float64 `json:"quantity"`
	Price      float64 `json:"price"`
	AmountHome float64 `json:"amount_home"`
	Note       *string `json:"note"`
}

// TradeResult returns the IDs written by trade processing.
type TradeResult struct {
	TradeID        int64   `json:"trade_id"`
	CapitalEventID int64   `json:"capital_event_id"`
	NewQuantity    float64 `json:"new_quantity"`
	Removed        bool    `json:"removed"`
}

// ValuedHolding is a holding joined with live prices for the UI.
type ValuedHolding struct {
	Holding
	PriceHome       *float64 `json:"price_home"`
	PriceDisplay    *float64 `json:"price_display"`
	DisplayCurrency string   `json:"display_currency"`
	Value           float64  `json:"value"`
	GainLoss        *float64 `json:"gain_loss"`
	GainLossPercent *float64 `json:"gain_loss_percent"`
}

// PortfolioSummary aggregates the live portfolio for the dashboard.
type PortfolioSummary struct {
	StockValue       float64 `json:"stock_value"`
	CryptoValue      float64 `json:"crypto_value"`
	TotalValue       float64 `json:"total_value"`
	GainLoss         float64 `json:"gain_loss"`
	GainLossPercent  float64 `json:"gain_loss_percent"`
	StocksGainLoss   float64 `json:"stocks_gain_loss"`
	CryptoGainLoss   float64 `json:"crypto_gain_loss"`
	ExchangeRate     float64 `json:"exchange_rate"`
	PricedHoldings   int     `json:"priced_holdings"`
	UnpricedHoldings int     `json:"unpriced_holdings"`
}

// OperationLog represents an audit log record.
type OperationLog struct {
	ID        int64   `json:"id"`
	Operation string  `json:"operation_type"`
	Symbol    *string `json:"symbol"`
	Details   *string `json:"details"`
	CreatedAt *string `json:"created_at"`
}

func todayISO() string {
	return TodayISOInTokyo()
}
