package selector

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ytget/vidgrab/internal/model"
	"github.com/ytget/vidgrab/internal/platform"
)

// filterFunc reports whether a format passes one "[...]" filter.
type filterFunc func(model.Format) bool

var numericFilterRe = regexp.MustCompile(
	`^\s*(width|height|tbr|abr|vbr|asr|filesize|filesize_approx|fps)` +
		`\s*(<=|>=|!=|<|>|=)\s*(\?)?\s*([0-9.]+(?:[kKmMgGtTpPeEzZyY]i?[Bb]?)?)\s*(\?)?\s*$`)

var stringFilterRe = regexp.MustCompile(
	`^\s*(ext|acodec|vcodec|container|protocol|format_id)` +
		`\s*(!\s*)?(\^=|\$=|\*=|=)\s*(\?)?\s*([a-zA-Z0-9._-]+)\s*(\?)?\s*$`)

// buildFilter compiles one filter string into a predicate. A "?" either
// after the operator or after the value makes the filter none-inclusive: a
// format that lacks the field passes.
func buildFilter(filterSpec string) (filterFunc, error) {
	if m := numericFilterRe.FindStringSubmatch(filterSpec); m != nil {
		return buildNumericFilter(filterSpec, m[1], m[2], m[3] != "" || m[5] != "", m[4])
	}
	if m := stringFilterRe.FindStringSubmatch(filterSpec); m != nil {
		return buildStringFilter(m[1], m[3], m[2] != "", m[4] != "" || m[6] != "", m[5]), nil
	}
	return nil, &SpecError{Spec: filterSpec, Reason: "invalid filter specification"}
}

func buildNumericFilter(filterSpec, key, op string, noneInclusive bool, value string) (filterFunc, error) {
	var compareTo float64
	if n, err := strconv.Atoi(value); err == nil {
		compareTo = float64(n)
	} else {
		size, ok := platform.ParseFilesize(value)
		if !ok {
			// A bare "720K" style value gets an implicit byte unit.
			size, ok = platform.ParseFilesize(value + "B")
		}
		if !ok {
			return nil, &SpecError{Spec: filterSpec, Reason: "invalid value " + value}
		}
		compareTo = float64(size)
	}

	compare := numericComparators[op]
	return func(f model.Format) bool {
		actual, ok := numericField(f, key)
		if !ok {
			return noneInclusive
		}
		return compare(actual, compareTo)
	}, nil
}

var numericComparators = map[string]func(x, y float64) bool{
	"<":  func(x, y float64) bool { return x < y },
	">":  func(x, y float64) bool { return x > y },
	"<=": func(x, y float64) bool { return x <= y },
	">=": func(x, y float64) bool { return x >= y },
	"=":  func(x, y float64) bool { return x == y },
	"!=": func(x, y float64) bool { return x != y },
}

func buildStringFilter(key, op string, negate, noneInclusive bool, value string) filterFunc {
	var compare func(x, y string) bool
	switch op {
	case "=":
		compare = func(x, y string) bool { return x == y }
	case "^=":
		compare = strings.HasPrefix
	case "$=":
		compare = strings.HasSuffix
	case "*=":
		compare = strings.Contains
	}

	return func(f model.Format) bool {
		actual, ok := stringField(f, key)
		if !ok {
			return noneInclusive
		}
		result := compare(actual, value)
		if negate {
			result = !result
		}
		return result
	}
}

// numericField reads a numeric filter key off a format. A zero value counts
// as absent: extractors leave unknown dimensions and rates at zero.
func numericField(f model.Format, key string) (float64, bool) {
	value, ok := f.Field(key)
	if !ok {
		return 0, false
	}
	var n float64
	switch x := value.(type) {
	case int:
		n = float64(x)
	case int64:
		n = float64(x)
	case float64:
		n = x
	default:
		return 0, false
	}
	if n == 0 {
		return 0, false
	}
	return n, true
}

// stringField reads a string filter key off a format; empty means absent.
func stringField(f model.Format, key string) (string, bool) {
	value, ok := f.Field(key)
	if !ok {
		return "", false
	}
	s, ok := value.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
