package http

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/guregu/null/v6"
	"github.com/krobus00/execution-simulator/internal/config"
	"github.com/krobus00/execution-simulator/internal/entity"
	"github.com/krobus00/execution-simulator/internal/service/executionengine"
	"github.com/shopspring/decimal"
)

var (
	errAPIKeyMissing  = errors.New("api key is required")
	errAPIKeyInvalid  = errors.New("invalid api key")
	errAPIKeyInactive = errors.New("api key is inactive")
	errAPIKeyExpired  = errors.New("api key is expired")
)

type ExecutionEngine interface {
	Execute(ctx context.Context, req entity.OrderRequest) (*entity.ExecutionReport, error)
	ExecuteAsync(ctx context.Context, req entity.OrderRequest) error
}

type MarketContextRequest struct {
	Volatility null.Float `json:"volatility"`
	High       null.Float `json:"high"`
	Low        null.Float `json:"low"`
	Close      null.Float `json:"close"`
}

type SimulateExecutionRequest struct {
	ApiKey        string                `json:"api_key"`
	RequestID     string                `json:"request_id"`
	Exchange      string                `json:"exchange"`
	Symbol        string                `json:"symbol"`
	Type          string                `json:"type"`
	Side          string                `json:"side"`
	Quantity      string                `json:"quantity"`
	SignalPrice   string                `json:"signal_price"`
	SignalTime    int64                 `json:"signal_time"`
	MarketContext *MarketContextRequest `json:"market_context,omitempty"`
}

type SimulateExecutionResponse struct {
	ID                   string                        `json:"id"`
	RequestID            string                        `json:"request_id,omitempty"`
	Symbol               string                        `json:"symbol"`
	Side                 string                        `json:"side"`
	Type                 string                        `json:"type"`
	Mode                 string                        `json:"mode"`
	SignalPrice          float64                       `json:"signal_price"`
	Quantity             float64                       `json:"quantity"`
	FilledPrice          float64                       `json:"filled_price"`
	FilledQuantity       float64                       `json:"filled_quantity"`
	SlippagePct          float64                       `json:"slippage_pct"`
	ExecutionTimeMs      int64                         `json:"execution_time_ms"`
	PartialFill          bool                          `json:"partial_fill"`
	FillPercentage       float64                       `json:"fill_percentage"`
	SignalTime           int64                         `json:"signal_time"`
	ExecutionStartedAt   int64                         `json:"execution_started_at"`
	ExecutionCompletedAt int64                         `json:"execution_completed_at"`
	Realistic            *entity.RealisticDiagnostics  `json:"realistic,omitempty"`
	Historical           *entity.HistoricalDiagnostics `json:"historical,omitempty"`
}

type SimulateExecutionAsyncResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

type Handler struct {
	executionEngine ExecutionEngine
}

func NewExecutionEngineHTTPHandler(executionEngine ExecutionEngine) *Handler {
	return &Handler{executionEngine: executionEngine}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/execution-simulator/v1/executions", h.SimulateExecution)
	mux.HandleFunc("/execution-simulator/v1/executions/async", h.SimulateExecutionAsync)
}

func (h *Handler) SimulateExecution(w http.ResponseWriter, r *http.Request) {
	orderReq, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	report, err := h.executionEngine.Execute(r.Context(), orderReq)
	switch {
	case err == nil:
	case errors.Is(err, entity.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	case errors.Is(err, executionengine.ErrPublishReportFailed) && report != nil:
		// the fill happened, only the fan-out failed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "request cancelled"})
		return
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, mapExecutionReportToHTTPResponse(report))
}

func (h *Handler) SimulateExecutionAsync(w http.ResponseWriter, r *http.Request) {
	orderReq, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	err := h.executionEngine.ExecuteAsync(r.Context(), orderReq)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrInvalidInput):
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		case errors.Is(err, executionengine.ErrJetstreamUnavailable):
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": err.Error()})
		case errors.Is(err, executionengine.ErrPublishRequestFailed):
			writeJSON(w, http.StatusBadGateway, map[string]any{"error": err.Error()})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusAccepted, SimulateExecutionAsyncResponse{
		RequestID: orderReq.RequestID,
		Status:    "queued",
	})
}

func (h *Handler) decodeRequest(w http.ResponseWriter, r *http.Request) (entity.OrderRequest, bool) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return entity.OrderRequest{}, false
	}

	defer r.Body.Close()

	var req SimulateExecutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json body"})
		return entity.OrderRequest{}, false
	}

	if err := validateAPIKey(resolveAPIKey(r, &req)); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": err.Error()})
		return entity.OrderRequest{}, false
	}

	if strings.TrimSpace(req.Symbol) == "" || strings.TrimSpace(req.Side) == "" || strings.TrimSpace(req.Quantity) == "" || strings.TrimSpace(req.SignalPrice) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "missing required fields"})
		return entity.OrderRequest{}, false
	}

	orderReq, err := mapHTTPRequestToOrderRequest(&req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return entity.OrderRequest{}, false
	}

	return orderReq, true
}

func mapHTTPRequestToOrderRequest(req *SimulateExecutionRequest) (entity.OrderRequest, error) {
	price, err := decimal.NewFromString(req.SignalPrice)
	if err != nil {
		return entity.OrderRequest{}, errors.New("invalid signal_price")
	}

	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		return entity.OrderRequest{}, errors.New("invalid quantity")
	}

	orderType := entity.OrderTypeMarket
	if raw := strings.TrimSpace(req.Type); raw != "" {
		orderType = entity.OrderType(strings.ToUpper(raw))
	}

	var signalTime time.Time
	if req.SignalTime > 0 {
		signalTime = time.UnixMilli(req.SignalTime).UTC()
	}

	var marketContext *entity.MarketContext
	if req.MarketContext != nil {
		marketContext = &entity.MarketContext{
			Volatility: req.MarketContext.Volatility,
			High:       req.MarketContext.High,
			Low:        req.MarketContext.Low,
			Close:      req.MarketContext.Close,
		}
	}

	return entity.OrderRequest{
		RequestID:     strings.TrimSpace(req.RequestID),
		Exchange:      strings.TrimSpace(req.Exchange),
		Symbol:        strings.ToUpper(strings.TrimSpace(req.Symbol)),
		Type:          orderType,
		Side:          entity.OrderSide(strings.ToUpper(strings.TrimSpace(req.Side))),
		Quantity:      quantity.InexactFloat64(),
		SignalPrice:   price.InexactFloat64(),
		SignalTime:    signalTime,
		MarketContext: marketContext,
	}, nil
}

func mapExecutionReportToHTTPResponse(report *entity.ExecutionReport) *SimulateExecutionResponse {
	return &SimulateExecutionResponse{
		ID:                   report.ID,
		RequestID:            report.RequestID,
		Symbol:               report.Symbol,
		Side:                 string(report.Side),
		Type:                 string(report.Type),
		Mode:                 string(report.Mode),
		SignalPrice:          report.SignalPrice,
		Quantity:             report.Quantity,
		FilledPrice:          report.FilledPrice,
		FilledQuantity:       report.FilledQuantity,
		SlippagePct:          report.SlippagePct,
		ExecutionTimeMs:      report.ExecutionTimeMs,
		PartialFill:          report.PartialFill,
		FillPercentage:       report.FillPercentage,
		SignalTime:           report.SignalTime.UnixMilli(),
		ExecutionStartedAt:   report.ExecutionStartedAt.UnixMilli(),
		ExecutionCompletedAt: report.ExecutionCompletedAt.UnixMilli(),
		Realistic:            report.Realistic,
		Historical:           report.Historical,
	}
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func resolveAPIKey(r *http.Request, req *SimulateExecutionRequest) string {
	if headerKey := strings.TrimSpace(r.Header.Get("X-API-Key")); headerKey != "" {
		return headerKey
	}

	return strings.TrimSpace(req.ApiKey)
}

func validateAPIKey(rawAPIKey string) error {
	apiKey := strings.TrimSpace(rawAPIKey)
	if apiKey == "" {
		return errAPIKeyMissing
	}

	if config.Env == nil || len(config.Env.APIKeys) == 0 {
		return errAPIKeyInvalid
	}

	now := time.Now().UTC()
	for _, candidate := range config.Env.APIKeys {
		storedKey := strings.TrimSpace(candidate.Key)
		if storedKey == "" {
			continue
		}

		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(storedKey)) != 1 {
			continue
		}

		if !candidate.Active {
			return errAPIKeyInactive
		}

		expiredAt, hasExpiry, err := parseExpiry(candidate.ExpiredAt)
		if err != nil {
			return errAPIKeyInvalid
		}
		if hasExpiry && !now.Before(expiredAt) {
			return errAPIKeyExpired
		}

		return nil
	}

	return errAPIKeyInvalid
}

// parseExpiry accepts RFC3339 timestamps or plain dates. A plain date
// stays valid through the end of that day.
func parseExpiry(value any) (time.Time, bool, error) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, false, nil
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false, nil
		}
		return v.UTC(), true, nil
	case string:
		raw := strings.TrimSpace(v)
		if raw == "" {
			return time.Time{}, false, nil
		}

		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			return parsed.UTC(), true, nil
		}

		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, false, err
		}

		return parsed.UTC().Add(24 * time.Hour), true, nil
	default:
		return time.Time{}, false, errors.New("unsupported expiry type")
	}
}
