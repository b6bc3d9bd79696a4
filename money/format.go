package money

import "strings"

// FormatUSD renders a Money as "$1,234.56" (or "-$1,234.56"). Display only;
// nothing parses this back.
func FormatUSD(m Money) string {
	neg := m.Value.IsNegative()
	s := m.Value.Abs().StringFixed(2)

	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	b.WriteString(groupThousands(whole))
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// FormatPercent renders a Percent as "42.5%" with at most one decimal place.
func FormatPercent(p Percent) string {
	s := p.Value.Round(1).String()
	return s + "%"
}

func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
