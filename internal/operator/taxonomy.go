package operator

import "strings"

const (
	KeyTelkomsel = "telkomsel"
	KeyTelkom    = "telkom"
	KeyIOH       = "ioh"
	KeyXLSmart   = "xlsmart"
)

// Default is the group assigned to clients that match no known operator.
const Default = KeyTelkom

type Colors struct {
	Main  string `json:"main"`
	Pulse string `json:"pulse"`
	Hover string `json:"hover"`
}

type Operator struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Colors Colors `json:"colors"`
}

var operators = []Operator{
	{Key: KeyTelkomsel, Label: "Telkomsel", Colors: Colors{Main: "#e4002b", Pulse: "#ff4d6a", Hover: "#ff6b7a"}},
	{Key: KeyTelkom, Label: "Telkom", Colors: Colors{Main: "#00529b", Pulse: "#4d8fcc", Hover: "#66a3d9"}},
	{Key: KeyIOH, Label: "IOH", Colors: Colors{Main: "#ffc600", Pulse: "#ffe066", Hover: "#ffdb4d"}},
	{Key: KeyXLSmart, Label: "XLSmart", Colors: Colors{Main: "#8b1a8b", Pulse: "#c44dc4", Hover: "#d966d9"}},
}

// All returns the operator groups in legend order.
func All() []Operator {
	out := make([]Operator, len(operators))
	copy(out, operators)
	return out
}

// Lookup returns the operator for key, falling back to Default.
func Lookup(key string) Operator {
	key = NormalizeKey(key)
	for _, o := range operators {
		if o.Key == key {
			return o
		}
	}
	for _, o := range operators {
		if o.Key == Default {
			return o
		}
	}
	return operators[0]
}

func IsValidKey(key string) bool {
	key = NormalizeKey(key)
	for _, o := range operators {
		if o.Key == key {
			return true
		}
	}
	return false
}

func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
