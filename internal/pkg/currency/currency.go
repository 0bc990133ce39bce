package currency

import (
	"math"
	"strconv"
	"strings"

	"inmuebles-backend/internal/domain"
)

// ratesToCOP is how many Colombian pesos one unit of each currency buys.
var ratesToCOP = map[domain.Currency]float64{
	domain.COP: 1,
	domain.USD: 4000,
	domain.EUR: 4300,
}

func Valid(c domain.Currency) bool {
	_, ok := ratesToCOP[c]
	return ok
}

// Convert expresses amount (in from) in to. Same-currency conversion returns
// amount untouched. An unknown currency on either side yields NaN, which
// compares false against any bound.
func Convert(amount float64, from, to domain.Currency) float64 {
	if from == to {
		return amount
	}
	rf, ok := ratesToCOP[from]
	if !ok {
		return math.NaN()
	}
	rt, ok := ratesToCOP[to]
	if !ok {
		return math.NaN()
	}
	return amount * rf / rt
}

type style struct {
	group  string
	prefix string
	suffix string
}

var styles = map[domain.Currency]style{
	domain.COP: {group: ".", prefix: "$ "},
	domain.USD: {group: ",", prefix: "$"},
	domain.EUR: {group: ".", suffix: " €"},
}

// Format renders amount with no decimals and the thousands separator the
// currency's home locale uses: es-CO "$ 450.000.000", en-US "$112,500",
// es-ES "104.651 €".
func Format(amount float64, c domain.Currency) string {
	st, ok := styles[c]
	if !ok {
		st = style{group: ".", suffix: " " + string(c)}
	}
	neg := amount < 0
	digits := strconv.FormatFloat(math.Round(math.Abs(amount)), 'f', 0, 64)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(st.prefix)
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteString(st.group)
		}
		b.WriteRune(d)
	}
	b.WriteString(st.suffix)
	return b.String()
}
