package render

import (
	"strings"
	"time"

	"github.com/Armin-kho/gold-live-rates/internal/dashboard"
	"github.com/Armin-kho/gold-live-rates/internal/items"
	"github.com/Armin-kho/gold-live-rates/internal/tracker"
	"github.com/Armin-kho/gold-live-rates/internal/utils"
)

type Line struct {
	ItemID   string
	Text     string
	Value    float64
	HasValue bool
	Arrow    string
	Category items.Category
}

type Output struct {
	Text  string
	Lines []Line
}

var statusLabels = map[tracker.Status]string{
	tracker.StatusConnecting: "⏳ Connecting",
	tracker.StatusLive:       "🟢 Live",
	tracker.StatusStable:     "🔵 Stable",
	tracker.StatusOffline:    "🔴 Offline",
}

// BuildMessage renders a dashboard snapshot as a plain-text message (channel post, /api/message).
func BuildMessage(snap dashboard.Snapshot, digits string, now time.Time) Output {
	var lines []Line
	add := func(id string, c dashboard.Cell) {
		it, ok := items.ByID(id)
		if !ok {
			return
		}
		arrow := arrowFor(c.Direction)
		lines = append(lines, Line{
			ItemID:   id,
			Text:     it.Emoji + " " + it.Name + ": " + c.Text + arrow,
			Value:    c.Value,
			HasValue: c.OK,
			Arrow:    arrow,
			Category: it.Category,
		})
	}

	for _, row := range snap.Tiers {
		add(row.ItemID, row.Per10g)
	}
	if snap.Coin != nil {
		add(items.Coin, *snap.Coin)
	}
	if snap.Silver != nil {
		add(items.Silver, snap.Silver.Per1kg)
	}
	if snap.Spot != nil {
		add(items.Spot, *snap.Spot)
	}
	if snap.FX != nil {
		add(items.USDINR, *snap.FX)
	}

	var b strings.Builder
	if snap.Display.ShopName != "" {
		b.WriteString(snap.Display.ShopName)
		b.WriteString("\n")
	}
	if snap.Display.Salutation != "" {
		b.WriteString(snap.Display.Salutation)
		b.WriteString("\n")
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	for _, ln := range lines {
		b.WriteString(ln.Text)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(statusLabels[snap.Status])

	updated := utils.Placeholder
	if snap.LastUpdate != nil {
		updated = utils.DateTime(*snap.LastUpdate)
	} else if !now.IsZero() {
		updated = utils.DateTime(now)
	}
	if digits == "hi" {
		updated = utils.ToDevanagariDigits(updated)
	}
	b.WriteString(" · ")
	b.WriteString(updated)

	return Output{Text: strings.TrimSpace(b.String()), Lines: lines}
}

func arrowFor(d tracker.Direction) string {
	switch d {
	case tracker.Up:
		return " ▲"
	case tracker.Down:
		return " 🔻"
	}
	return ""
}
