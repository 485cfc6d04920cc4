// Package aqi converts provider-specific air quality scales into a single
// comparable 0-500 index.
package aqi

// Band upper bounds for the six upstream severity levels. The bands are
// non-uniform: the scale compresses at the low end and widens sharply for
// the hazardous tiers.
const (
	indexGood      = 50
	indexFair      = 100
	indexModerate  = 150
	indexPoor      = 200
	indexVeryPoor  = 300
	indexHazardous = 500
	indexUnknown   = 0

	minLevel = 1
	maxLevel = 6
)

var levelIndex = [...]int{
	indexGood,
	indexFair,
	indexModerate,
	indexPoor,
	indexVeryPoor,
	indexHazardous,
}

// Normalize maps an upstream severity level in [1,6] to the representative
// upper bound of its index band. Levels outside [1,6] come from untrusted
// upstream data and map to 0 rather than failing.
func Normalize(level int) int {
	if level < minLevel || level > maxLevel {
		return indexUnknown
	}

	return levelIndex[level-1]
}
