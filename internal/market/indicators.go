package market

// SMA простая скользящая средняя по последним period значениям.
func SMA(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) < period {
		return 0, false
	}
	var sum float64
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period), true
}

// RSI индекс относительной силы со сглаживанием Уайлдера.
// Нужно минимум period+1 значений.
func RSI(closes []float64, period int) (float64, bool) {
	if period <= 0 || len(closes) < period+1 {
		return 0, false
	}

	var gain, loss float64
	for i := 1; i <= period; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)

	for i := period + 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		var g, l float64
		if d > 0 {
			g = d
		} else {
			l = -d
		}
		avgGain = (avgGain*float64(period-1) + g) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + l) / float64(period)
	}

	if avgLoss == 0 {
		if avgGain == 0 {
			return 50, true
		}
		return 100, true
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), true
}

// ATR средний истинный диапазон со сглаживанием Уайлдера.
// Нужно минимум period+1 свечей, первая служит только предыдущим закрытием.
func ATR(candles []Candle, period int) (float64, bool) {
	if period <= 0 || len(candles) < period+1 {
		return 0, false
	}

	var sum float64
	for i := 1; i <= period; i++ {
		sum += trueRange(candles[i], candles[i-1].Close)
	}
	atr := sum / float64(period)

	for i := period + 1; i < len(candles); i++ {
		atr = (atr*float64(period-1) + trueRange(candles[i], candles[i-1].Close)) / float64(period)
	}
	return atr, true
}

func trueRange(c Candle, prevClose float64) float64 {
	tr := c.High - c.Low
	if d := abs(c.High - prevClose); d > tr {
		tr = d
	}
	if d := abs(c.Low - prevClose); d > tr {
		tr = d
	}
	return tr
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
