package rates

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Armin-kho/gold-live-rates/internal/feed"
)

var (
	gstFactor       = decimal.RequireFromString("0.03")
	withGSTFactor   = decimal.RequireFromString("1.03")
	makingShare     = decimal.RequireFromString("0.10")
	hundred         = decimal.NewFromInt(100)
	defaultHallmark = decimal.NewFromInt(100)
	HallmarkOptions = []int64{100, 150}
)

// Row is one user-entered line of the jewellery pricing table.
type Row struct {
	Weight        string `json:"weight"`
	Carat         string `json:"carat"`
	MakingPercent string `json:"making_percent"`
}

type RowQuote struct {
	Weight        float64         `json:"weight"`
	Tier          Tier            `json:"tier"`
	MakingPercent float64         `json:"making_percent"`
	PerGram       float64         `json:"per_gram"`
	Totals        map[int64]int64 `json:"totals"`
	GST           int64           `json:"gst"`
	MakingCharges int64           `json:"making_charges"`
}

type Invoice struct {
	Rows               []RowQuote      `json:"rows"`
	TotalWeight        float64         `json:"total_weight"`
	Totals             map[int64]int64 `json:"totals"`
	TotalGST           int64           `json:"total_gst"`
	TotalMakingCharges int64           `json:"total_making_charges"`
}

// QuoteRows prices every row against the current base rate. Rows without a positive weight
// are skipped; unknown carats price as 22K.
func QuoteRows(rows []Row, base, making float64) Invoice {
	inv := Invoice{Totals: map[int64]int64{}}
	for _, h := range HallmarkOptions {
		inv.Totals[h] = 0
	}
	totalWeight := decimal.Zero
	for _, r := range rows {
		q, ok := quoteRow(r, base, making)
		if !ok {
			continue
		}
		inv.Rows = append(inv.Rows, q)
		totalWeight = totalWeight.Add(decimal.NewFromFloat(q.Weight))
		for h, v := range q.Totals {
			inv.Totals[h] += v
		}
		inv.TotalGST += q.GST
		inv.TotalMakingCharges += q.MakingCharges
	}
	inv.TotalWeight = totalWeight.InexactFloat64()
	return inv
}

func quoteRow(r Row, base, making float64) (RowQuote, bool) {
	w, ok := feed.ParseNumber(r.Weight)
	if !ok || w <= 0 {
		return RowQuote{}, false
	}
	tier, err := ParseTier(r.Carat)
	if err != nil {
		tier = Tier22K
	}
	mp, ok := feed.ParseNumber(strings.TrimSuffix(strings.TrimSpace(r.MakingPercent), "%"))
	if !ok || mp < 0 {
		mp = 0
	}

	weight := decimal.NewFromFloat(w)
	perGram := decimal.NewFromFloat(Derive(tier, base, making).Per1g)
	metal := weight.Mul(perGram)
	makingAmt := metal.Mul(decimal.NewFromFloat(mp)).Div(hundred)

	q := RowQuote{
		Weight:        w,
		Tier:          tier,
		MakingPercent: mp,
		PerGram:       perGram.InexactFloat64(),
		Totals:        map[int64]int64{},
		GST:           metal.Add(makingAmt).Add(defaultHallmark).Mul(gstFactor).Round(0).IntPart(),
		MakingCharges: decimal.NewFromFloat(making).Mul(weight).Mul(makingShare).Round(0).IntPart(),
	}
	for _, h := range HallmarkOptions {
		q.Totals[h] = metal.Add(makingAmt).Add(decimal.NewFromInt(h)).Mul(withGSTFactor).Round(0).IntPart()
	}
	return q, true
}
