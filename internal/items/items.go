package items

type Category string

const (
	CategoryGold   Category = "gold"
	CategoryCoin   Category = "coin"
	CategorySilver Category = "silver"
	CategorySpot   Category = "spot"
	CategoryFX     Category = "fx"
)

const (
	UnitINR = "inr"
	UnitUSD = "usd"
)

// IDs of every independently displayed value.
const (
	Rate24K = "GOLD24K"
	Rate22K = "GOLD22K"
	Rate20K = "GOLD20K"
	Rate18K = "GOLD18K"
	Rate16K = "GOLD16K"
	Coin    = "GOLDCOIN"
	Silver  = "SILVER"
	Spot    = "SPOT"
	USDINR  = "USDINR"
)

type Item struct {
	ID       string
	Category Category
	Name     string
	Emoji    string
	Unit     string
	// Tracked items take part in live/stable change detection.
	Tracked bool
}

var All = []Item{
	{ID: Rate24K, Category: CategoryGold, Name: "Gold 24K (10 gm)", Emoji: "🥇", Unit: UnitINR, Tracked: true},
	{ID: Rate22K, Category: CategoryGold, Name: "Gold 22K (10 gm)", Emoji: "🥇", Unit: UnitINR},
	{ID: Rate20K, Category: CategoryGold, Name: "Gold 20K (10 gm)", Emoji: "🥇", Unit: UnitINR},
	{ID: Rate18K, Category: CategoryGold, Name: "Gold 18K (10 gm)", Emoji: "🥇", Unit: UnitINR},
	{ID: Rate16K, Category: CategoryGold, Name: "Gold 16K (10 gm)", Emoji: "🥇", Unit: UnitINR},
	{ID: Coin, Category: CategoryCoin, Name: "Gold Coin", Emoji: "🪙", Unit: UnitINR},
	{ID: Silver, Category: CategorySilver, Name: "Silver (1 kg)", Emoji: "🥈", Unit: UnitINR, Tracked: true},
	{ID: Spot, Category: CategorySpot, Name: "Spot Gold", Emoji: "🌍", Unit: UnitUSD, Tracked: true},
	{ID: USDINR, Category: CategoryFX, Name: "USD / INR", Emoji: "💵", Unit: UnitINR, Tracked: true},
}

var byID map[string]Item

func init() {
	byID = map[string]Item{}
	for _, it := range All {
		byID[it.ID] = it
	}
}

func ByID(id string) (Item, bool) {
	it, ok := byID[id]
	return it, ok
}

// TierIDs maps purity tier names to item ids.
var TierIDs = map[string]string{
	"24K": Rate24K,
	"22K": Rate22K,
	"20K": Rate20K,
	"18K": Rate18K,
	"16K": Rate16K,
}
