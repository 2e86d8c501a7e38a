package dashboard

import (
	"time"

	"github.com/Armin-kho/gold-live-rates/internal/db"
	"github.com/Armin-kho/gold-live-rates/internal/rates"
	"github.com/Armin-kho/gold-live-rates/internal/tracker"
)

// Cell is one displayed number. Text is already formatted ("—" when absent).
type Cell struct {
	Value     float64           `json:"value"`
	OK        bool              `json:"ok"`
	Text      string            `json:"text"`
	Direction tracker.Direction `json:"direction,omitempty"`
}

type TierRow struct {
	Tier   rates.Tier `json:"tier"`
	ItemID string     `json:"item_id"`
	Per10g Cell       `json:"per_10g"`
	Per1g  Cell       `json:"per_1g"`
}

type SilverCells struct {
	Per1kg Cell `json:"per_1kg"`
	Per10g Cell `json:"per_10g"`
	Per1g  Cell `json:"per_1g"`
}

type RefreshView struct {
	Seconds float64 `json:"seconds"`
	Value   string  `json:"value"`
	Unit    string  `json:"unit"`
}

// Snapshot is the full render state handed to the HTTP surface and the notifiers.
type Snapshot struct {
	Variant     string         `json:"variant"`
	Display     Display        `json:"display"`
	Status      tracker.Status `json:"status"`
	LastError   string         `json:"last_error,omitempty"`
	FXError     string         `json:"fx_error,omitempty"`
	LastUpdate  *time.Time     `json:"last_update,omitempty"`
	FromCache   bool           `json:"from_cache"`
	Base        Cell           `json:"base"`
	Making      float64        `json:"making"`
	MakingInput string         `json:"making_input"`
	Tiers       []TierRow      `json:"tiers"`
	Coin        *Cell          `json:"coin,omitempty"`
	Silver      *SilverCells   `json:"silver,omitempty"`
	Spot        *Cell          `json:"spot,omitempty"`
	FX          *Cell          `json:"usd_inr,omitempty"`
	Refresh     RefreshView    `json:"refresh"`
	NextFetchIn int            `json:"next_fetch_in"`
	Points      []db.Point     `json:"points"`
}
