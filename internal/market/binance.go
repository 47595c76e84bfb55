package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Binance свечи спотового рынка Binance.
type Binance struct {
	client httpClient
}

// NewBinance конструктор. client может быть nil.
func NewBinance(baseURL string, timeout time.Duration, client *http.Client) *Binance {
	return &Binance{client: newHTTPClient(baseURL, timeout, client)}
}

// Candles запрашивает /api/v3/klines. Символ BTC/USDT превращается в BTCUSDT.
func (b *Binance) Candles(ctx context.Context, symbol, timeframe string, limit int) ([]Candle, error) {
	const op = "market.Binance.Candles"

	q := url.Values{}
	q.Set("symbol", strings.ReplaceAll(strings.ToUpper(symbol), "/", ""))
	q.Set("interval", timeframe)
	q.Set("limit", strconv.Itoa(limit))

	var rows [][]json.RawMessage
	if err := b.client.getJSON(ctx, "/api/v3/klines?"+q.Encode(), &rows); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	candles := make([]Candle, 0, len(rows))
	for _, row := range rows {
		c, err := parseKline(row)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		candles = append(candles, c)
	}
	return candles, nil
}

// kline: [openTime, "open", "high", "low", "close", "volume", closeTime, ...]
func parseKline(row []json.RawMessage) (Candle, error) {
	if len(row) < 5 {
		return Candle{}, fmt.Errorf("short kline of %d fields", len(row))
	}
	var openTime int64
	if err := json.Unmarshal(row[0], &openTime); err != nil {
		return Candle{}, fmt.Errorf("open time: %w", err)
	}

	var values [4]float64
	for i := range values {
		var s string
		if err := json.Unmarshal(row[i+1], &s); err != nil {
			return Candle{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Candle{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		values[i] = v
	}
	return Candle{
		Time:  time.UnixMilli(openTime).UTC(),
		Open:  values[0],
		High:  values[1],
		Low:   values[2],
		Close: values[3],
	}, nil
}
