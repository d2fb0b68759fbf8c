package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/quotegate/quotegate/internal/apperr"
	"github.com/quotegate/quotegate/internal/marketdata"
	"github.com/quotegate/quotegate/internal/metrics"
	"github.com/quotegate/quotegate/internal/model"
)

// MsgSymbolRequired is returned for an empty symbol.
const MsgSymbolRequired = "Symbol is required."

const msgProviderUnavailable = "Error retrieving data from provider."

// BarSource returns the most recent daily bars for a symbol, newest first.
type BarSource interface {
	LatestBars(ctx context.Context, symbol string, n int) ([]model.DailyBar, error)
}

// QuoteService normalizes daily bars into a Quote.
type QuoteService struct {
	source  BarSource
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewQuoteService creates a new QuoteService.
func NewQuoteService(source BarSource, recorder metrics.Recorder, logger *slog.Logger) *QuoteService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &QuoteService{source: source, metrics: recorder, logger: logger}
}

// FetchQuote returns the latest open, high, low and close for symbol
// together with the change against the previous close.
func (s *QuoteService) FetchQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		s.metrics.IncQuoteRequest(metrics.ResultInvalid)
		return nil, apperr.Validation(MsgSymbolRequired)
	}

	start := time.Now()
	bars, err := s.source.LatestBars(ctx, symbol, 2)
	s.metrics.ObserveProviderDuration(time.Since(start))
	if err != nil {
		return nil, s.providerFailed(symbol, err)
	}

	quote, err := normalize(bars)
	if err != nil {
		return nil, s.providerFailed(symbol, err)
	}

	s.metrics.IncQuoteRequest(metrics.ResultSuccess)
	return quote, nil
}

func (s *QuoteService) providerFailed(symbol string, err error) error {
	s.metrics.IncQuoteRequest(metrics.ResultProviderError)
	s.logger.Warn("quote retrieval failed",
		slog.String("symbol", symbol),
		slog.Any("error", err),
	)

	var payloadErr *marketdata.PayloadError
	if errors.As(err, &payloadErr) {
		return apperr.Provider(err, "Error retrieving data: "+payloadErr.Message)
	}
	return apperr.Provider(err, msgProviderUnavailable)
}

var (
	errTooFewBars        = errors.New("fewer than two daily bars")
	errZeroPreviousClose = errors.New("previous close is zero")
)

func normalize(bars []model.DailyBar) (*model.Quote, error) {
	if len(bars) < 2 {
		return nil, errTooFewBars
	}
	latest, previous := bars[0], bars[1]
	if previous.Close == 0 {
		return nil, errZeroPreviousClose
	}

	variation := latest.Close - previous.Close
	return &model.Quote{
		Open:               latest.Open,
		Close:              latest.Close,
		High:               latest.High,
		Low:                latest.Low,
		TwoDayVariation:    variation,
		TwoDayVariationPct: variation / previous.Close * 100,
	}, nil
}
