// Package market получает свечи с бирж и считает по ним индикаторы
// для генерации сигналов.
package market

import "time"

const (
	// TrendPeriod период SMA тренда. Без такого числа баров снимок недействителен.
	TrendPeriod = 200
	// OscillatorPeriod период RSI и ATR.
	OscillatorPeriod = 14
	// OversoldLevel порог RSI для покупки на откате.
	OversoldLevel = 30
	// FetchLimit сколько свечей запрашивать, с запасом на разгон сглаживания.
	FetchLimit = 250
)

// Candle одна свеча OHLC.
type Candle struct {
	Time  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// Snapshot последнее закрытие и индикаторы по символу.
type Snapshot struct {
	Symbol string
	Close  float64
	SMA200 float64
	RSI14  float64
	ATR14  float64
	Bars   int
	valid  bool
}

// NewSnapshot считает индикаторы по свечам, отсортированным по времени.
func NewSnapshot(symbol string, candles []Candle) Snapshot {
	s := Snapshot{Symbol: symbol, Bars: len(candles)}
	if len(candles) == 0 {
		return s
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	s.Close = closes[len(closes)-1]

	sma, okSMA := SMA(closes, TrendPeriod)
	rsi, okRSI := RSI(closes, OscillatorPeriod)
	atr, okATR := ATR(candles, OscillatorPeriod)
	s.SMA200, s.RSI14, s.ATR14 = sma, rsi, atr
	s.valid = okSMA && okRSI && okATR
	return s
}

// Valid сообщает, хватило ли данных на все индикаторы.
func (s Snapshot) Valid() bool {
	return s.valid
}

// IsBuy цена выше SMA200 и RSI ниже 30. Недействительный снимок никогда не даёт покупку.
func (s Snapshot) IsBuy() bool {
	return s.valid && s.Close > s.SMA200 && s.RSI14 < OversoldLevel
}

// Trend направление относительно SMA200.
func (s Snapshot) Trend() string {
	switch {
	case !s.valid:
		return "Neutral"
	case s.Close > s.SMA200:
		return "Bullish"
	default:
		return "Bearish"
	}
}
