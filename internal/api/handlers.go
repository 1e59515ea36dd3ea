package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"yenfolio/pkg/yenfolio"
)

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) getHoldings(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.core.GetHoldings()
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	writeSuccess(w, holdings)
}

func (h *handler) upsertHolding(w http.ResponseWriter, r *http.Request) {
	var payload holdingPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	holding := yenfolio.Holding{
		Symbol:   payload.Symbol,
		Name:     payload.Name,
		Kind:     payload.Kind,
		Quantity: payload.Quantity,
	}
	if err := h.core.UpsertHolding(holding); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err)
		return
	}
	writeSuccessWithMessage(w, "holding saved", holding)
}

func (h *handler) setCostBasis(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	var payload costBasisPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := h.core.SetCostBasis(symbol, payload.AvgCost, payload.Currency); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err)
		return
	}
	writeSuccessWithMessage(w, "cost basis saved", nil)
}

func (h *handler) getPortfolio(w http.ResponseWriter, r *http.Request) {
	holdings, summary, err := h.core.ValuedHoldings()
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	writeSuccess(w, portfolioResponse{Holdings: holdings, Summary: summary})
}

func (h *handler) getSnapshots(w http.ResponseWriter, r *http.Request) {
	history, err := h.core.GetSnapshotHistory()
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	writeSuccess(w, history)
}

func (h *handler) createSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.core.CreateSnapshot()
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	writeSuccessWithMessage(w, "snapshot created", snapshot)
}

func (h *handler) backfillCrypto(w http.ResponseWriter, r *http.Request) {
	updated, err := h.core.BackfillCryptoValues()
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	writeSuccess(w, map[string]int{"updated": updated})
}

func (h *handler) getCapitalEvents(w http.ResponseWriter, r *http.Request) {
	ledger, err := h.core.GetCapitalLedger()
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	writeSuccess(w, ledger)
}

func (h *handler) addCapitalEvent(w http.ResponseWriter, r *http.Request) {
	var payload capitalEventPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	id, err := h.core.AddCapitalEvent(yenfolio.CapitalEvent{
		Date:   payload.Date,
		Amount: yenfolio.NewAmount(payload.Amount),
		Kind:   payload.Kind,
		Note:   payload.Note,
	})
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err)
		return
	}
	writeSuccessWithMessage(w, "capital event added", map[string]int64{"id": id})
}

// getAnnualPerformance returns per-year figures. With ?live=true the
// in-progress year is overlaid with the current portfolio valuation.
func (h *handler) getAnnualPerformance(w http.ResponseWriter, r *http.Request) {
	var live *yenfolio.LiveFigures
	if r.URL.Query().Get("live") == "true" {
		_, summary, err := h.core.ValuedHoldings()
		if err != nil {
			writeErrorResponse(w, http.StatusInternalServerError, err)
			return
		}
		live = &yenfolio.LiveFigures{
			HoldingsGain: yenfolio.NewAmount(summary.GainLoss),
			Balance:      yenfolio.NewAmount(summary.TotalValue),
		}
	}
	records, err := h.core.AnnualProfits(live)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	writeSuccess(w, records)
}

func (h *handler) addYear(w http.ResponseWriter, r *http.Request) {
	var payload addYearPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if payload.Year < 2000 || payload.Year > 2200 {
		writeError(w, http.StatusBadRequest, "year out of range")
		return
	}
	created, err := h.core.CreateNewYear(payload.Year)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	if !created {
		writeError(w, http.StatusConflict, "year already exists")
		return
	}
	writeSuccessWithMessage(w, "year created", map[string]int{"year": payload.Year})
}

func (h *handler) updateYear(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	var payload yearUpdatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	amount := func(v *float64) *yenfolio.Amount {
		if v == nil {
			return nil
		}
		a := yenfolio.NewAmount(*v)
		return &a
	}
	updates := yenfolio.YearUpdate{
		StartValue:       amount(payload.StartValue),
		EndValue:         amount(payload.EndValue),
		CurrentBalance:   amount(payload.CurrentBalance),
		ActualProfit:     amount(payload.ActualProfit),
		ReturnPercent:    payload.ReturnPercent,
		CapitalAdded:     amount(payload.CapitalAdded),
		CapitalWithdrawn: amount(payload.CapitalWithdrawn),
		StocksProfit:     amount(payload.StocksProfit),
		CryptoProfit:     amount(payload.CryptoProfit),
		Notes:            payload.Notes,
	}
	if payload.Method != nil {
		method := yenfolio.CalculationMethod(*payload.Method)
		if method != yenfolio.MethodHardcoded && method != yenfolio.MethodAutomatic {
			writeError(w, http.StatusBadRequest, "invalid calculation method")
			return
		}
		updates.Method = &method
	}

	ok, err := h.core.UpdateYear(year, updates)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "year not found")
		return
	}
	writeSuccessWithMessage(w, "year updated", map[string]int{"year": year})
}

func (h *handler) finalizeYear(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	result, err := h.core.FinalizeYear(year)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	writeSuccessWithMessage(w, "year finalized", result)
}

func (h *handler) getTrades(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	trades, err := h.core.GetTrades(limit)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	writeSuccess(w, trades)
}

func (h *handler) processTrade(w http.ResponseWriter, r *http.Request) {
	var payload tradePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	result, err := h.core.ProcessTrade(yenfolio.TradeRequest{
		Date:       payload.Date,
		Symbol:     payload.Symbol,
		Side:       payload.Side,
		Quantity:   payload.Quantity,
		Price:      payload.Price,
		AmountHome: payload.AmountHome,
		Kind:       payload.Kind,
		Note:       payload.Note,
	})
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err)
		return
	}
	writeSuccessWithMessage(w, "trade processed", result)
}

func (h *handler) fetchPrice(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	result, err := h.core.FetchPrice(symbol)
	if err != nil {
		writeErrorResponse(w, http.StatusServiceUnavailable, err)
		return
	}
	writeSuccess(w, result)
}

func (h *handler) refreshPrices(w http.ResponseWriter, r *http.Request) {
	prices, rate, err := h.core.RefreshPrices()
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	writeSuccess(w, refreshPricesResponse{Prices: prices, ExchangeRate: rate})
}

func (h *handler) getOperationLogs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	logs, err := h.core.GetOperationLogs(limit, offset)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	writeSuccess(w, logs)
}
