package api

import "yenfolio/pkg/yenfolio"

type holdingPayload struct {
	Symbol   string  `json:"symbol"`
	Name     *string `json:"name"`
	Kind     string  `json:"kind"`
	Quantity float64 `json:"quantity"`
}

type costBasisPayload struct {
	AvgCost  float64 `json:"avg_cost"`
	Currency string  `json:"currency"`
}

type capitalEventPayload struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
	Kind   string  `json:"kind"`
	Note   *string `json:"note"`
}

type tradePayload struct {
	Date       string  `json:"date"`
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"`
	Quantity   float64 `json:"quantity"`
	Price      float64 `json:"price"`
	AmountHome float64 `json:"amount_home"`
	Kind       string  `json:"kind"`
	Note       *string `json:"note"`
}

type addYearPayload struct {
	Year int `json:"year"`
}

type yearUpdatePayload struct {
	StartValue       *float64 `json:"start_value"`
	EndValue         *float64 `json:"end_value"`
	CurrentBalance   *float64 `json:"current_balance"`
	ActualProfit     *float64 `json:"actual_profit"`
	ReturnPercent    *float64 `json:"return_percent"`
	CapitalAdded     *float64 `json:"capital_added"`
	CapitalWithdrawn *float64 `json:"capital_withdrawn"`
	StocksProfit     *float64 `json:"stocks_profit"`
	CryptoProfit     *float64 `json:"crypto_profit"`
	Notes            *string  `json:"notes"`
	Method           *string  `json:"calculation_method"`
}

type portfolioResponse struct {
	Holdings []yenfolio.ValuedHolding  `json:"holdings"`
	Summary  yenfolio.PortfolioSummary `json:"summary"`
}

type refreshPricesResponse struct {
	Prices       yenfolio.PriceMap `json:"prices"`
	ExchangeRate float64           `json:"exchange_rate"`
}
