package operator

import "strings"

// Classification is the operator chosen for a client name and the substring
// that decided it. Match is empty when the default was used.
type Classification struct {
	Operator
	Match string `json:"match,omitempty"`
}

// rules are checked in order; "telkomsel" must precede "telkom".
var rules = []struct {
	key     string
	needles []string
}{
	{KeyTelkomsel, []string{"telkomsel"}},
	{KeyTelkom, []string{"telkom"}},
	{KeyIOH, []string{"ioh", "indosat", "ooredoo", "hutchison"}},
	{KeyXLSmart, []string{"xl", "smart", "smartfren", "axis"}},
}

// Classify maps a client name to an operator group by case-insensitive
// substring match.
func Classify(clientName string) Classification {
	name := strings.ToLower(strings.TrimSpace(clientName))
	if name != "" {
		for _, r := range rules {
			for _, needle := range r.needles {
				if strings.Contains(name, needle) {
					return Classification{Operator: Lookup(r.key), Match: needle}
				}
			}
		}
	}
	return Classification{Operator: Lookup(Default)}
}

// Count tallies how many names fall into each operator, in legend order.
// Every operator is present even when its count is zero.
func Count(clientNames []string) []Tally {
	counts := make(map[string]int, len(operators))
	for _, n := range clientNames {
		counts[Classify(n).Key]++
	}
	out := make([]Tally, 0, len(operators))
	for _, o := range operators {
		out = append(out, Tally{Operator: o, Links: counts[o.Key]})
	}
	return out
}

type Tally struct {
	Operator
	Links int `json:"links"`
}
