package pipeline

import (
	"strings"

	"salebook/internal"
	"salebook/internal/util"
)

// MatchUnit maps a spoken unit name to the best of a product's conversions.
// Matching is folded (case and diacritics ignored): an exact name match wins,
// then substring matches with the shortest unit name first, since composite
// names ("Thùng 24 lon") are longer than the unit they contain ("Lon").
// Equal-length substring matches fall back to catalog order. No match, or an
// empty spoken name, returns nil and the caller must require an explicit
// selection.
func MatchUnit(units []internal.UnitConversion, spokenName string) *internal.UnitConversion {
	if len(units) == 0 {
		return nil
	}
	key := util.FoldName(spokenName)
	if key == "" {
		return nil
	}

	for i := range units {
		if util.FoldName(units[i].UnitName) == key {
			return &units[i]
		}
	}

	var best *internal.UnitConversion
	bestLen := 0
	for i := range units {
		if !strings.Contains(util.FoldName(units[i].UnitName), key) {
			continue
		}
		nameLen := len([]rune(units[i].UnitName))
		if best == nil || nameLen < bestLen {
			best = &units[i]
			bestLen = nameLen
		}
	}
	return best
}
