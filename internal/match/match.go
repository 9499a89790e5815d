// Package match builds name predicates for descendant queries. A
// predicate receives a candidate's short name and reports whether the
// candidate should be kept.
package match

import (
	"fmt"
	"strings"

	"github.com/hbollon/go-edlib"
)

// Predicate filters candidate type names.
type Predicate func(name string) bool

// DefaultFuzzyThreshold is the Jaro-Winkler similarity a name must reach
// to count as a fuzzy match.
const DefaultFuzzyThreshold = 0.80

// Exact matches the target name exactly.
func Exact(target string) Predicate {
	return func(name string) bool { return name == target }
}

// Insensitive matches the target name ignoring case.
func Insensitive(target string) Predicate {
	return func(name string) bool { return strings.EqualFold(name, target) }
}

// Substring matches names containing the target, ignoring case.
func Substring(target string) Predicate {
	folded := strings.ToLower(target)
	return func(name string) bool {
		return strings.Contains(strings.ToLower(name), folded)
	}
}

// Fuzzy matches names whose Jaro-Winkler similarity to the target reaches
// threshold. An out-of-range threshold falls back to the default.
func Fuzzy(target string, threshold float64) Predicate {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultFuzzyThreshold
	}
	return func(name string) bool {
		if name == target {
			return true
		}
		if name == "" || target == "" {
			return false
		}
		score, err := edlib.StringsSimilarity(name, target, edlib.JaroWinkler)
		if err != nil {
			return false
		}
		return float64(score) >= threshold
	}
}

// Build translates CLI-style matching options into a predicate. An empty
// target matches everything.
func Build(target string, mode string, fuzzyThreshold float64) (Predicate, error) {
	if target == "" {
		return func(string) bool { return true }, nil
	}
	switch mode {
	case "", "exact":
		return Exact(target), nil
	case "insensitive":
		return Insensitive(target), nil
	case "substring":
		return Substring(target), nil
	case "fuzzy":
		return Fuzzy(target, fuzzyThreshold), nil
	default:
		return nil, fmt.Errorf("unknown match mode: %s (must be exact, insensitive, substring, or fuzzy)", mode)
	}
}
