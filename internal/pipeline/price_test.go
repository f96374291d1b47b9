package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{name: "plain_number", input: "123.45", want: 123.45},
		{name: "dollar_sign", input: "$99.99", want: 99.99},
		{name: "thousands_separator", input: "$1,234.56 approx", want: 1234.56},
		{name: "integer_only", input: "Price is around 450", want: 450},
		{name: "prefixed_text", input: "I'd say the price is $799.00 or so", want: 799},
		{name: "euro_sign", input: "€149.50", want: 149.5},
		{name: "pound_sign", input: "£89.99", want: 89.99},
		{name: "no_number", input: "no price mentioned", want: 0},
		{name: "empty", input: "", want: 0},
		{name: "zero_price", input: "Price is $0", want: 0},
		{name: "fraction_without_leading_digit", input: ".99", want: 0.99},
		{name: "first_number_wins", input: "between $40 and $60", want: 40},
		{name: "thousands_integer", input: "1,499", want: 1499},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ParsePrice(tt.input), 1e-9)
		})
	}
}
