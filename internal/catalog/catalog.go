// Package catalog maps raw line-item descriptions from the order export
// to catalog entries. Lookup is total: unknown descriptions fall back to
// a synthetic item so an unrecognised product never blocks a run.
package catalog

import "strings"

// Item is one catalog entry. FriendlyDescription is what packing slips
// print; it defaults to the raw description.
type Item struct {
	Description         string
	FriendlyDescription string
	Price               float64
	HasPrice            bool
	Image               string
	FortnightlyCoffee   bool
}

// The registry is keyed by the exact export description. No
// normalisation is applied to the key; the export repeats catalog
// strings verbatim.
var registry = buildRegistry()

func buildRegistry() map[string]Item {
	items := []Item{
		{Description: "Butter & Crust Subscription (Loaf Included)"},
		{Description: "Extra Loaf"},
		{Description: "Sweet Morning Treats"},
		{Description: "Townsend Farm Apple Juice 750ml"},
		{Description: "Granola"},
		{Description: "Cultured Butter 250g"},
		{Description: "Preserves 125g"},
	}

	// Coffee variants share one naming scheme: blend / grind / weight,
	// in weekly and fortnightly cadences.
	blends := []string{"Classic", "Espresso", "Our Pick"}
	grinds := []string{"Wholebean", "Coarse", "Medium", "Fine"}
	cadences := []string{"per week", "every other week"}
	for _, blend := range blends {
		for _, grind := range grinds {
			for _, cadence := range cadences {
				friendly := "Monmouth Coffee. - " + blend + " / " + grind + " / 250g"
				items = append(items, Item{
					Description:         friendly + " " + cadence,
					FriendlyDescription: friendly,
				})
			}
		}
	}

	reg := make(map[string]Item, len(items))
	for _, item := range items {
		if item.FriendlyDescription == "" {
			item.FriendlyDescription = item.Description
		}
		item.FortnightlyCoffee = IsFortnightlyCoffee(item.Description)
		reg[item.Description] = item
	}
	return reg
}

// IsFortnightlyCoffee reports whether a line-item description names a
// coffee subscription delivered once every two weeks.
func IsFortnightlyCoffee(description string) bool {
	s := strings.ToLower(description)
	return strings.Contains(s, "coffee") &&
		(strings.Contains(s, "every fortnight") || strings.Contains(s, "every other week"))
}

// Lookup resolves a raw description to its catalog entry. Misses return
// a synthetic item whose friendly description equals the input, except
// for unrecognised coffee products, which are trimmed at the first
// "250g" to keep slip lines readable.
func Lookup(description string) Item {
	if item, ok := registry[description]; ok {
		return item
	}

	friendly := description
	if strings.Contains(strings.ToLower(description), "coffee") {
		if i := strings.Index(description, "250g"); i >= 0 {
			friendly = description[:i] + "250g"
		}
	}
	return Item{
		Description:         description,
		FriendlyDescription: friendly,
		FortnightlyCoffee:   IsFortnightlyCoffee(description),
	}
}
