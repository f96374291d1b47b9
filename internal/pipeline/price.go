package pipeline

import (
	"regexp"
	"strconv"
	"strings"
)

// numberPattern matches the first numeric token in free text: optional sign,
// digits, optional decimal fraction.
var numberPattern = regexp.MustCompile(`[-+]?\d*\.\d+|\d+`)

// currencyNoise holds characters stripped before parsing. Generative models
// answer with things like "$1,299.99" or "Price: $45"; symbols and thousands
// separators are noise, not signal.
var currencyNoise = strings.NewReplacer("$", "", "€", "", "£", "", ",", "")

// ParsePrice extracts the first number from a free-text model reply.
// Returns 0.0 when no numeric token is present: a reply with no number is
// a deliberate "no signal" outcome, not an error.
func ParsePrice(s string) float64 {
	s = currencyNoise.Replace(s)
	match := numberPattern.FindString(s)
	if match == "" {
		return 0.0
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0.0
	}
	return v
}
