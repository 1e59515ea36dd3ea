package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"yenfolio/pkg/yenfolio"
)

// tradeCmd records a buy or sell and adjusts the holding.
type tradeCmd struct {
	date   string
	symbol string
	side   string
	qty    float64
	price  float64
	amount float64
	kind   string
	note   string
}

func (*tradeCmd) Name() string     { return "trade" }
func (*tradeCmd) Synopsis() string { return "record a buy or sell trade" }
func (*tradeCmd) Usage() string {
	return `yenfolio-admin trade -symbol <sym> -side <buy|sell> -qty <n> -price <p> -amount <jpy>

  Records a trade, adjusts the holding quantity, reweights the cost basis
  on buys and appends a trade capital event for the JPY amount moved.
`
}

func (c *tradeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "Trade date YYYY-MM-DD (defaults to today in Asia/Tokyo)")
	f.StringVar(&c.symbol, "symbol", "", "Ticker symbol, e.g. NVDA, 3350.T or BTCUSDT")
	f.StringVar(&c.side, "side", "", "buy or sell")
	f.Float64Var(&c.qty, "qty", 0, "Quantity traded")
	f.Float64Var(&c.price, "price", 0, "Price per unit in the holding's native currency")
	f.Float64Var(&c.amount, "amount", 0, "Capital moved in JPY (positive for buys, negative for sells)")
	f.StringVar(&c.kind, "kind", "", "Holding kind for new symbols (stock or crypto)")
	f.StringVar(&c.note, "note", "", "Optional note")
}

func (c *tradeCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	date := c.date
	if date == "" {
		date = yenfolio.TodayISOInTokyo()
	}

	core, err := openCore()
	if err != nil {
		return fail(err)
	}
	defer core.Close()

	req := yenfolio.TradeRequest{
		Date:       date,
		Symbol:     c.symbol,
		Side:       c.side,
		Quantity:   c.qty,
		Price:      c.price,
		AmountHome: c.amount,
		Kind:       c.kind,
	}
	if c.note != "" {
		req.Note = &c.note
	}

	result, err := core.ProcessTrade(req)
	if err != nil {
		return fail(err)
	}

	if result.Removed {
		fmt.Printf("trade %d recorded, %s position closed\n", result.TradeID, req.Symbol)
	} else {
		fmt.Printf("trade %d recorded, %s quantity now %v\n", result.TradeID, req.Symbol, result.NewQuantity)
	}
	return subcommands.ExitSuccess
}
