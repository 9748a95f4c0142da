package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"StockScope/internal/collector"
	"StockScope/internal/features"
	"StockScope/internal/model"
	"StockScope/internal/pipeline"
	"StockScope/internal/report"
)

// Handler serves the prediction, screener and cache routes.
type Handler struct {
	collector    *collector.Collector
	pipeline     pipeline.Config
	lookbackDays int
	now          func() time.Time
	logger       zerolog.Logger
}

// NewHandler creates a Handler running cfg unless a request overrides it.
func NewHandler(col *collector.Collector, cfg pipeline.Config, lookbackDays int, logger zerolog.Logger) *Handler {
	if lookbackDays <= 0 {
		lookbackDays = 365
	}
	return &Handler{
		collector:    col,
		pipeline:     cfg,
		lookbackDays: lookbackDays,
		now:          time.Now,
		logger:       logger.With().Str("component", "api").Logger(),
	}
}

// RegisterRoutes mounts the API on e.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.GET("/predict", h.Predict)
	g.GET("/movers/:category", h.Movers)
	g.DELETE("/cache/:symbol", h.InvalidateSymbol)
	g.DELETE("/cache", h.InvalidateAll)
}

func (h *Handler) Health(c echo.Context) error {
	return SuccessResponse(c, HealthResponse{Status: "ok", Source: h.collector.Source(), Time: h.now().UTC()})
}

func (h *Handler) Predict(c echo.Context) error {
	req := &PredictRequest{}
	if verrs := ReadAndValidateRequest(c, req); verrs != nil {
		return BadRequestResponse(c, verrs)
	}

	r, appErr := h.resolveRange(req)
	if appErr != nil {
		return AppErrorResponse(c, appErr)
	}
	cfg, err := h.resolveConfig(req)
	if err != nil {
		return AppErrorResponse(c, err)
	}

	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	res, err := h.collector.Predict(c.Request().Context(), symbol, r, cfg)
	if err != nil {
		h.logger.Warn().Err(err).Str("symbol", symbol).Msg("predict failed")
		return AppErrorResponse(c, err)
	}

	if req.Format == "text" {
		return c.String(http.StatusOK, report.FormatResult(res, req.Tail))
	}
	return SuccessResponse(c, PredictResponse{
		Symbol:     res.Symbol,
		Source:     h.collector.Source(),
		From:       r.From.Format(time.DateOnly),
		To:         r.To.Format(time.DateOnly),
		Interval:   r.Interval,
		Bars:       res.Frame.Len(),
		Samples:    res.Samples,
		Features:   res.Features,
		Windows:    Windows{Short: res.Frame.ShortWindow, Long: res.Frame.LongWindow, RSI: res.Frame.RSIWindow},
		Indicators: res.Frame.Tail(req.Tail),
		Period:     res.Period,
		Evaluation: res.Evaluation,
		Forecast:   res.Forecast,
		Outlook:    res.Outlook,
	})
}

func (h *Handler) resolveRange(req *PredictRequest) (model.Range, *AppError) {
	days := req.Days
	if days == 0 {
		days = h.lookbackDays
	}
	to := h.now().UTC().Truncate(24 * time.Hour)
	if req.To != "" {
		to, _ = time.Parse(time.DateOnly, req.To)
	}
	from := to.AddDate(0, 0, -days)
	if req.From != "" {
		from, _ = time.Parse(time.DateOnly, req.From)
	}
	if !from.Before(to) {
		return model.Range{}, NewAppError("ERR_BAD_RANGE", "from must be before to", http.StatusBadRequest)
	}
	return model.Range{From: from, To: to, Interval: model.Interval(req.Interval)}, nil
}

func (h *Handler) resolveConfig(req *PredictRequest) (pipeline.Config, error) {
	cfg := h.pipeline
	if req.ShortWindow > 0 {
		cfg.Indicators.ShortWindow = req.ShortWindow
	}
	if req.LongWindow > 0 {
		cfg.Indicators.LongWindow = req.LongWindow
	}
	if req.RSIWindow > 0 {
		cfg.Indicators.RSIWindow = req.RSIWindow
	}
	if req.Trees > 0 {
		cfg.Classifier.Trees = req.Trees
	}
	if req.Features != "" {
		feats, err := features.ParseList(strings.Split(req.Features, ","))
		if err != nil {
			return cfg, err
		}
		cfg.Features = feats
	}
	return cfg, nil
}

func (h *Handler) Movers(c echo.Context) error {
	cat, err := model.ParseCategory(c.Param("category"))
	if err != nil {
		return AppErrorResponse(c, NewAppError("ERR_UNKNOWN_CATEGORY", err.Error(), http.StatusBadRequest))
	}
	quotes, err := h.collector.Movers(c.Request().Context(), cat)
	if err != nil {
		h.logger.Warn().Err(err).Str("category", cat.Slug()).Msg("movers failed")
		return AppErrorResponse(c, err)
	}
	if quotes == nil {
		quotes = []model.Quote{}
	}
	return SuccessResponse(c, MoversResponse{Category: cat.String(), Source: h.collector.Source(), Quotes: quotes})
}

func (h *Handler) InvalidateSymbol(c echo.Context) error {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	n, err := h.collector.Invalidate(c.Request().Context(), symbol)
	if err != nil {
		return AppErrorResponse(c, err)
	}
	return SuccessResponse(c, InvalidateResponse{Symbol: symbol, Removed: n})
}

func (h *Handler) InvalidateAll(c echo.Context) error {
	n, err := h.collector.InvalidateAll(c.Request().Context())
	if err != nil {
		return AppErrorResponse(c, err)
	}
	return SuccessResponse(c, InvalidateResponse{Removed: n})
}
