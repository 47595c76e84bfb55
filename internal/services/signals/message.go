package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/signal-club/internal/market"
	"github.com/magabrotheeeer/signal-club/internal/models"
)

var (
	two   = decimal.NewFromInt(2)
	three = decimal.NewFromInt(3)
	five  = decimal.NewFromInt(5)
)

// Levels уровни входа, стопа и целей, рассчитанные от ATR.
type Levels struct {
	Entry decimal.Decimal
	Stop  decimal.Decimal
	TP1   decimal.Decimal
	TP2   decimal.Decimal
	TP3   decimal.Decimal
}

// NewLevels stop = close - 2*ATR, цели close + 2, 3 и 5 ATR.
func NewLevels(closePrice, atr float64) Levels {
	c := decimal.NewFromFloat(closePrice)
	a := decimal.NewFromFloat(atr)
	return Levels{
		Entry: c,
		Stop:  c.Sub(a.Mul(two)),
		TP1:   c.Add(a.Mul(two)),
		TP2:   c.Add(a.Mul(three)),
		TP3:   c.Add(a.Mul(five)),
	}
}

var categoryIcons = map[string]string{
	models.AssetCrypto: "₿",
	models.AssetStocks: "🏢",
	models.AssetForex:  "💱",
	models.AssetGold:   "🥇",
}

var displayReplacer = strings.NewReplacer("=X", "", "=F", "", "/", "")

const freeFooter = "\n\n------------------------\n" +
	"🔒 Free Channel Limit\n" +
	"Get ALL signals in Real-Time!\n" +
	"👉 /subscribe to join Premium!"

func formatSignal(category, timeframe string, s market.Snapshot, free bool) string {
	icon, ok := categoryIcons[category]
	if !ok {
		icon = "📊"
	}
	lv := NewLevels(s.Close, s.ATR14)

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s – %s\n", icon, displayReplacer.Replace(s.Symbol), strings.ToUpper(timeframe))
	b.WriteString("🟢 BUY SIGNAL\n\n")
	fmt.Fprintf(&b, "Entry : %s\n", formatPrice(lv.Entry))
	fmt.Fprintf(&b, "Stop  : %s\n\n", formatPrice(lv.Stop))
	fmt.Fprintf(&b, "TP1   : %s\n", formatPrice(lv.TP1))
	fmt.Fprintf(&b, "TP2   : %s\n", formatPrice(lv.TP2))
	fmt.Fprintf(&b, "TP3   : %s\n\n", formatPrice(lv.TP3))
	fmt.Fprintf(&b, "Trend      : %s\n", s.Trend())
	fmt.Fprintf(&b, "RSI        : %d (Pullback)\n", int(s.RSI14))
	b.WriteString("Volatility : Normal")
	if free {
		b.WriteString(freeFooter)
	}
	return b.String()
}

// formatPrice два знака после запятой и запятые между тысячами.
func formatPrice(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + "." + frac
}
