package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrNoData источник не вернул ни одной свечи.
var ErrNoData = errors.New("no market data")

// Source источник свечей.
type Source interface {
	Candles(ctx context.Context, symbol, timeframe string, limit int) ([]Candle, error)
}

type httpClient struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

func newHTTPClient(baseURL string, timeout time.Duration, client *http.Client) httpClient {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return httpClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  "Mozilla/5.0 (compatible; signal-club/1.0)",
		httpClient: client,
	}
}

func (c httpClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.New("unexpected status: " + resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Router направляет символы вида BASE/QUOTE на криптобиржу, остальные на Yahoo.
type Router struct {
	Crypto Source
	Other  Source
}

// Candles реализует Source.
func (r Router) Candles(ctx context.Context, symbol, timeframe string, limit int) ([]Candle, error) {
	if strings.Contains(symbol, "/") {
		return r.Crypto.Candles(ctx, symbol, timeframe, limit)
	}
	return r.Other.Candles(ctx, symbol, timeframe, limit)
}

// Provider выдаёт снимки индикаторов по символу.
type Provider struct {
	source Source
}

// NewProvider конструктор.
func NewProvider(source Source) *Provider {
	return &Provider{source: source}
}

// Snapshot загружает свечи и считает индикаторы.
func (p *Provider) Snapshot(ctx context.Context, symbol, timeframe string) (Snapshot, error) {
	const op = "market.Provider.Snapshot"

	candles, err := p.source.Candles(ctx, symbol, timeframe, FetchLimit)
	if err != nil {
		return Snapshot{Symbol: symbol}, fmt.Errorf("%s: %s: %w", op, symbol, err)
	}
	if len(candles) == 0 {
		return Snapshot{Symbol: symbol}, fmt.Errorf("%s: %s: %w", op, symbol, ErrNoData)
	}
	return NewSnapshot(symbol, candles), nil
}
