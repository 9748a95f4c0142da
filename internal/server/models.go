package server

import (
	"time"

	"StockScope/internal/model"
	"StockScope/internal/pipeline"
)

// PredictRequest is the query of GET /api/predict. Zero model parameters fall back
// to the configured ones.
type PredictRequest struct {
	Symbol      string `query:"symbol" validate:"required,max=20"`
	From        string `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To          string `query:"to" validate:"omitempty,datetime=2006-01-02"`
	Days        int    `query:"days" validate:"gte=0,lte=7300"`
	Interval    string `query:"interval" default:"1d" validate:"oneof=1d 1wk"`
	ShortWindow int    `query:"short_window" validate:"omitempty,gte=2"`
	LongWindow  int    `query:"long_window" validate:"omitempty,gte=2"`
	RSIWindow   int    `query:"rsi_window" validate:"omitempty,gte=2"`
	Trees       int    `query:"trees" validate:"gte=0,lte=500"`
	Features    string `query:"features"`
	Tail        int    `query:"tail" default:"30" validate:"gte=0,lte=5000"`
	Format      string `query:"format" default:"json" validate:"oneof=json text"`
}

// PredictResponse is the JSON body of a successful prediction.
type PredictResponse struct {
	Symbol     string                 `json:"symbol"`
	Source     string                 `json:"source"`
	From       string                 `json:"from"`
	To         string                 `json:"to"`
	Interval   model.Interval         `json:"interval"`
	Bars       int                    `json:"bars"`
	Samples    int                    `json:"samples"`
	Features   []model.Feature        `json:"features"`
	Windows    Windows                `json:"windows"`
	Indicators []model.IndicatorRow   `json:"indicators"`
	Period     pipeline.PeriodSummary `json:"period"`
	Evaluation *model.Evaluation      `json:"evaluation"`
	Forecast   *model.Forecast        `json:"forecast,omitempty"`
	Outlook    *model.Outlook         `json:"outlook,omitempty"`
}

// Windows echoes the indicator windows the run used.
type Windows struct {
	Short int `json:"short"`
	Long  int `json:"long"`
	RSI   int `json:"rsi"`
}

// MoversResponse is the JSON body of GET /api/movers/:category.
type MoversResponse struct {
	Category string        `json:"category"`
	Source   string        `json:"source"`
	Quotes   []model.Quote `json:"quotes"`
}

// InvalidateResponse reports how many cache entries were dropped.
type InvalidateResponse struct {
	Symbol  string `json:"symbol,omitempty"`
	Removed int    `json:"removed"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string    `json:"status"`
	Source string    `json:"source"`
	Time   time.Time `json:"time"`
}
