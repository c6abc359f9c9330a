package platform

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Unit prefixes in ascending power order. Index+1 is the power applied to the
// decimal (1000) or binary (1024) base.
var sizePrefixes = []string{"k", "m", "g", "t", "p", "e", "z", "y"}

// Long unit names, decimal and binary.
var sizeWords = []string{"kilo", "mega", "giga", "tera", "peta", "exa", "zetta", "yotta"}
var sizeBinaryWords = []string{"kibi", "mebi", "gibi", "tebi", "pebi", "exbi", "zebi", "yobi"}

var unitTable = buildUnitTable()
var filesizeRe = buildFilesizeRegexp()

func buildUnitTable() map[string]int64 {
	table := map[string]int64{
		"B":     1,
		"b":     1,
		"bytes": 1,
	}
	for i, p := range sizePrefixes {
		dec := int64(math.Pow(1000, float64(i+1)))
		bin := int64(math.Pow(1024, float64(i+1)))
		upper := strings.ToUpper(p)

		table[upper+"iB"] = bin
		table[upper+"B"] = dec
		table[p+"B"] = bin
		table[upper+"b"] = dec
		table[p+"b"] = dec
		table[sizeWords[i]+"bytes"] = dec
		table[sizeBinaryWords[i]+"bytes"] = bin
	}
	return table
}

func buildFilesizeRegexp() *regexp.Regexp {
	units := make([]string, 0, len(unitTable))
	for u := range unitTable {
		units = append(units, regexp.QuoteMeta(u))
	}
	// Longest alternatives first so "KiB" wins over "K"+"iB" partial matches.
	sort.Slice(units, func(i, j int) bool { return len(units[i]) > len(units[j]) })
	return regexp.MustCompile(`^([0-9]+(?:[,.][0-9]*)?)\s*(` + strings.Join(units, "|") + `)$`)
}

// ParseFilesize parses a human filesize string such as "10MB", "10MiB" or
// "1.5GiB" into a byte count. Decimal units multiply by powers of 1000,
// binary units by powers of 1024. The second return value reports whether the
// string was a valid filesize.
func ParseFilesize(s string) (int64, bool) {
	m := filesizeRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, false
	}
	num, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return int64(num * float64(unitTable[m[2]])), true
}
