// Package ports defines the synchronous, function-call-shaped boundaries the
// core consumes from the outside world (C10): market data, key/value state,
// OHLCV ingestion, a development-only execution stub, and telemetry. Every
// adapter here wraps a third-party client the way the rest of this codebase
// wraps its external dependencies: errors joined against a sentinel,
// contexts threaded through, retries bounded and explicit.
package ports

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"callsim/internal/candle"

	"github.com/go-resty/resty/v2"
)

var (
	ErrNoData        = errors.New("ports: no data available")
	ErrProviderError = errors.New("ports: provider error")
)

// MarketDataPort fetches OHLCV candles and point-in-time historical prices
// for a token on a chain.
type MarketDataPort interface {
	FetchOHLCV(ctx context.Context, token, chain string, interval candle.Interval, fromS, toS int64) ([]candle.Candle, error)
	FetchHistoricalPriceAt(ctx context.Context, token, chain string, unixS int64) (*PricePoint, error)
}

// PricePoint is a single point-in-time price observation.
type PricePoint struct {
	Value float64
	UnixS int64
}

// RESTMarketDataAdapter implements MarketDataPort against a REST OHLCV
// provider (Birdeye-shaped) using resty's retrying JSON client. Name and
// HealthCheck mirror the single-provider surface a Provider implementation
// exposes when it's wrapped by a multi-provider client, even though this
// adapter is never composed behind a fallback chain itself.
type RESTMarketDataAdapter struct {
	client       *resty.Client
	providerName string
}

// NewRESTMarketDataAdapter builds an adapter pointed at baseURL, with a
// bounded retry policy matching the rest of this codebase's external-call
// conventions (timeout, small exponential backoff, explicit retry count).
func NewRESTMarketDataAdapter(baseURL, apiKey string) *RESTMarketDataAdapter {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Authorization", "Bearer "+apiKey).
		SetTimeout(10*time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second)
	return &RESTMarketDataAdapter{client: client, providerName: "birdeye"}
}

// Name identifies the provider backing this adapter.
func (a *RESTMarketDataAdapter) Name() string { return a.providerName }

// HealthCheck verifies the provider is reachable and authenticated.
func (a *RESTMarketDataAdapter) HealthCheck(ctx context.Context) error {
	resp, err := a.client.R().SetContext(ctx).Get("/health")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderError, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: status %d", ErrProviderError, resp.StatusCode())
	}
	return nil
}

type ohlcvResponse struct {
	Candles []struct {
		TsS    int64   `json:"ts_s"`
		Open   float64 `json:"open"`
		High   float64 `json:"high"`
		Low    float64 `json:"low"`
		Close  float64 `json:"close"`
		Volume float64 `json:"volume"`
	} `json:"candles"`
}

// FetchOHLCV fetches candles over [fromS, toS] and returns them in
// chronological order with strictly increasing timestamps, as candle.Series
// requires downstream.
func (a *RESTMarketDataAdapter) FetchOHLCV(ctx context.Context, token, chain string, interval candle.Interval, fromS, toS int64) ([]candle.Candle, error) {
	var out ohlcvResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"token":    token,
			"chain":    chain,
			"interval": fmt.Sprintf("%d", interval.Seconds()),
			"from":     fmt.Sprintf("%d", fromS),
			"to":       fmt.Sprintf("%d", toS),
		}).
		SetResult(&out).
		Get("/ohlcv")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderError, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: status %d", ErrProviderError, resp.StatusCode())
	}
	if len(out.Candles) == 0 {
		return nil, ErrNoData
	}

	candles := make([]candle.Candle, 0, len(out.Candles))
	d := decimalFromFloat
	for _, c := range out.Candles {
		candles = append(candles, candle.Candle{
			TimestampS: c.TsS,
			Open:       d(c.Open),
			High:       d(c.High),
			Low:        d(c.Low),
			Close:      d(c.Close),
			Volume:     d(c.Volume),
		})
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].TimestampS < candles[j].TimestampS })
	for i := 1; i < len(candles); i++ {
		if candles[i].TimestampS == candles[i-1].TimestampS {
			return nil, fmt.Errorf("%w: duplicate candle timestamp %d", ErrProviderError, candles[i].TimestampS)
		}
	}
	return candles, nil
}

// FetchHistoricalPriceAt fetches the price at or nearest to unixS.
func (a *RESTMarketDataAdapter) FetchHistoricalPriceAt(ctx context.Context, token, chain string, unixS int64) (*PricePoint, error) {
	var out struct {
		Value float64 `json:"value"`
		UnixS int64   `json:"unix_s"`
		Found bool    `json:"found"`
	}
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"token": token,
			"chain": chain,
			"at":    fmt.Sprintf("%d", unixS),
		}).
		SetResult(&out).
		Get("/price-at")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderError, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: status %d", ErrProviderError, resp.StatusCode())
	}
	if !out.Found {
		return nil, ErrNoData
	}
	return &PricePoint{Value: out.Value, UnixS: out.UnixS}, nil
}
