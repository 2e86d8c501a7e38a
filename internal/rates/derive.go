package rates

import (
	"fmt"
	"math"
	"strings"

	"github.com/Armin-kho/gold-live-rates/internal/feed"
)

type Tier string

const (
	Tier24K Tier = "24K"
	Tier22K Tier = "22K"
	Tier20K Tier = "20K"
	Tier18K Tier = "18K"
	Tier16K Tier = "16K"
)

// Tiers in display order.
var Tiers = []Tier{Tier24K, Tier22K, Tier20K, Tier18K, Tier16K}

const (
	tierDivisor  = 1.1
	coinOffset   = 100.0
	silverMarkup = 1.03

	DefaultMakingCharge = 5250.0
)

func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Tiers {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown purity tier %q", s)
}

// Purity is the nominal fineness of the tier.
func (t Tier) Purity() float64 {
	switch t {
	case Tier24K:
		return 0.999
	case Tier22K:
		return 0.916
	case Tier20K:
		return 0.833
	case Tier18K:
		return 0.750
	case Tier16K:
		return 0.666
	}
	return 0
}

type Price struct {
	Per10g float64 `json:"per_10g"`
	Per1g  float64 `json:"per_1g"`
}

type TierPrice struct {
	Tier Tier `json:"tier"`
	Price
}

// Derive maps the base rate (the feed's per-10-gram 24K quote) to a tier price.
// Making charge only enters the 22K formula.
func Derive(tier Tier, base, making float64) Price {
	var p10 float64
	switch tier {
	case Tier24K:
		p10 = base
	case Tier22K:
		p10 = (base + making) / tierDivisor
	case Tier20K:
		p10 = base / tierDivisor
	case Tier18K:
		p10 = (0.95 * base) / tierDivisor
	case Tier16K:
		p10 = (0.85 * base) / tierDivisor
	}
	return Price{Per10g: p10, Per1g: p10 / 10}
}

func Table(base, making float64) []TierPrice {
	out := make([]TierPrice, 0, len(Tiers))
	for _, t := range Tiers {
		out = append(out, TierPrice{Tier: t, Price: Derive(t, base, making)})
	}
	return out
}

// GoldCoin is the flat per-coin price.
func GoldCoin(base float64) float64 {
	return base/10 + coinOffset
}

type Silver struct {
	Per1kg float64 `json:"per_1kg"`
	Per10g float64 `json:"per_10g"`
	Per1g  float64 `json:"per_1g"`
}

// DeriveSilver applies the 3% GST markup to the observed per-kg quote.
func DeriveSilver(per1kg float64) Silver {
	return Silver{
		Per1kg: per1kg,
		Per10g: (per1kg / 100) * silverMarkup,
		Per1g:  (per1kg / 1000) * silverMarkup,
	}
}

// NormalizeMaking turns user input into a usable making charge. Blank, negative or
// non-numeric input yields def and false.
func NormalizeMaking(input string, def float64) (float64, bool) {
	v, ok := feed.ParseNumber(input)
	if !ok || v < 0 || math.IsNaN(v) {
		return def, false
	}
	return v, true
}
