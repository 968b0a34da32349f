package util

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reDotGroups   = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+$`)
	reCommaGroups = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+$`)
)

// ParseLooseNumber parses numeric tokens the way the extraction model emits
// them: plain floats, comma decimals ("1,5"), dot or comma thousand groups
// ("58.000", "1,000"), optional embedded spaces.
func ParseLooseNumber(token string) (float64, bool) {
	compact := strings.ReplaceAll(strings.TrimSpace(token), " ", "")
	compact = strings.ReplaceAll(compact, " ", "")
	if compact == "" {
		return 0, false
	}
	if reDotGroups.MatchString(compact) {
		compact = strings.ReplaceAll(compact, ".", "")
	} else if reCommaGroups.MatchString(compact) {
		compact = strings.ReplaceAll(compact, ",", "")
	} else if strings.Contains(compact, ",") && !strings.Contains(compact, ".") {
		compact = strings.ReplaceAll(compact, ",", ".")
	}
	parsed, err := strconv.ParseFloat(compact, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}
