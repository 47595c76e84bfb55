package market

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Yahoo свечи акций, форекса и металлов из chart API Yahoo Finance.
type Yahoo struct {
	client httpClient
}

// NewYahoo конструктор. client может быть nil.
func NewYahoo(baseURL string, timeout time.Duration, client *http.Client) *Yahoo {
	return &Yahoo{client: newHTTPClient(baseURL, timeout, client)}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open  []*float64 `json:"open"`
					High  []*float64 `json:"high"`
					Low   []*float64 `json:"low"`
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Candles запрашивает /v8/finance/chart/{symbol} и возвращает последние limit свечей.
// Бары с пропущенными значениями отбрасываются.
func (y *Yahoo) Candles(ctx context.Context, symbol, timeframe string, limit int) ([]Candle, error) {
	const op = "market.Yahoo.Candles"

	interval, rng := yahooInterval(timeframe)
	q := url.Values{}
	q.Set("interval", interval)
	q.Set("range", rng)

	var resp chartResponse
	if err := y.client.getJSON(ctx, "/v8/finance/chart/"+url.PathEscape(symbol)+"?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("%s: %s: %s", op, resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNoData)
	}

	result := resp.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	n := len(result.Timestamp)
	if len(quote.Open) < n || len(quote.High) < n || len(quote.Low) < n || len(quote.Close) < n {
		return nil, fmt.Errorf("%s: %w", op, errors.New("quote arrays shorter than timestamps"))
	}

	candles := make([]Candle, 0, n)
	for i, ts := range result.Timestamp {
		if quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil || quote.Close[i] == nil {
			continue
		}
		candles = append(candles, Candle{
			Time:  time.Unix(ts, 0).UTC(),
			Open:  *quote.Open[i],
			High:  *quote.High[i],
			Low:   *quote.Low[i],
			Close: *quote.Close[i],
		})
	}
	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return candles, nil
}

// глубина истории для внутридневных интервалов у Yahoo ограничена
func yahooInterval(timeframe string) (string, string) {
	switch timeframe {
	case "1h":
		return "60m", "3mo"
	case "1d":
		return "1d", "2y"
	case "1m", "2m", "5m":
		return timeframe, "5d"
	default:
		return timeframe, "1mo"
	}
}
