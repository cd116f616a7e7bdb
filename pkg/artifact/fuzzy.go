package artifact

import (
	"log"
	"reflect"
	"strings"

	"github.com/agext/levenshtein"
)

var loggerf = log.Printf

// Match is a scored candidate from BestMatch.
type Match struct {
	Text  string
	Score float64
}

// BestMatch returns the candidate most similar to query, scored 0-100.
// Comparison is case-insensitive edit-distance similarity.
func BestMatch(query string, candidates []string) Match {
	best := Match{Score: -1}
	q := strings.ToLower(query)
	for _, c := range candidates {
		score := similarity(q, strings.ToLower(c))
		if score > best.Score {
			best = Match{Text: c, Score: score}
		}
	}
	return best
}

// similarity scores two strings 0-100 from their edit distance.
func similarity(a, b string) float64 {
	longest := len([]rune(a))
	if n := len([]rune(b)); n > longest {
		longest = n
	}
	if longest == 0 {
		return 100
	}
	dist := levenshtein.Distance(a, b, nil)
	return (1 - float64(dist)/float64(longest)) * 100
}

// AlignFields maps incoming top-level keys onto the expected field names.
// Each expected field takes the closest remaining incoming key whose
// similarity reaches cutoff; expected fields with no acceptable match are
// returned for diagnostics. Alignment applies to the top level only, nested
// structures pass through as-is.
func AlignFields(expected []string, data map[string]any, cutoff float64) (map[string]any, []string) {
	remaining := make([]string, 0, len(data))
	for k := range data {
		remaining = append(remaining, k)
	}

	aligned := make(map[string]any, len(expected))
	var unmatched []string
	for _, field := range expected {
		m := BestMatch(field, remaining)
		if m.Score < cutoff {
			unmatched = append(unmatched, field)
			continue
		}
		aligned[field] = data[m.Text]
		remaining = removeString(remaining, m.Text)
	}
	return aligned, unmatched
}

func removeString(s []string, v string) []string {
	for i, e := range s {
		if e == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

// expectedFields lists the top-level JSON field names of the struct behind
// out.
func expectedFields(out any) []string {
	t := reflect.TypeOf(out)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	fields := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("json"); ok {
			tag = strings.Split(tag, ",")[0]
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		fields = append(fields, name)
	}
	return fields
}
