package dashboard

import (
	"fmt"
	"strings"
	"time"
)

// Variant is one dashboard flavour: its defaults and which cards it shows.
type Variant struct {
	Name           string        `json:"name"`
	DefaultMaking  float64       `json:"default_making"`
	DefaultRefresh time.Duration `json:"default_refresh"`
	BlinkDecay     time.Duration `json:"-"`
	// ShowCards enables the coin, silver, spot and USD/INR cards next to the rate table.
	ShowCards bool `json:"show_cards"`
}

var (
	Live = Variant{
		Name:           "live",
		DefaultMaking:  5250,
		DefaultRefresh: 5 * time.Second,
		BlinkDecay:     900 * time.Millisecond,
		ShowCards:      true,
	}
	Classic = Variant{
		Name:           "classic",
		DefaultMaking:  6000,
		DefaultRefresh: 60 * time.Second,
		BlinkDecay:     time.Second,
	}
)

func VariantByName(name string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", Live.Name:
		return Live, nil
	case Classic.Name:
		return Classic, nil
	}
	return Variant{}, fmt.Errorf("unknown dashboard variant %q", name)
}

// Display holds the passive shop strings echoed with every snapshot.
type Display struct {
	ShopName   string `json:"shop_name" mapstructure:"shop_name"`
	Logo       string `json:"logo" mapstructure:"logo"`
	ShopImage  string `json:"shop_image" mapstructure:"shop_image"`
	Salutation string `json:"salutation" mapstructure:"salutation"`
}
