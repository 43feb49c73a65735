package compiler

import (
	"fmt"
	"math"
	"strings"
)

// Scale is the fixed-point factor applied to every numeric literal.
const Scale = 10

// isNumber reports whether s is a decimal literal: an optional sign, digits,
// at most one decimal point and at least one digit.
func isNumber(s string) bool {
	if s == "" {
		return false
	}
	p := s
	if p[0] == '+' || p[0] == '-' {
		p = p[1:]
	}
	hasDigit, hasDot := false, false
	for i := 0; i < len(p); i++ {
		switch c := p[i]; {
		case c >= '0' && c <= '9':
			hasDigit = true
		case c == '.' && !hasDot:
			hasDot = true
		default:
			return false
		}
	}
	return hasDigit
}

// ScaleLiteral converts a decimal literal to its fixed-point integer,
// rounding half away from zero on both sides of zero. The conversion works
// on the digit string so values such as 2.675 do not pick up binary
// floating-point error.
func ScaleLiteral(text string) (int64, error) {
	if !isNumber(text) {
		return 0, &SyntaxError{Text: text, Msg: "malformed numeric literal"}
	}

	outOfRange := &SyntaxError{Text: text, Msg: "numeric literal out of range"}

	digits := text
	neg := false
	switch digits[0] {
	case '-':
		neg = true
		digits = digits[1:]
	case '+':
		digits = digits[1:]
	}

	intPart, fracPart, _ := strings.Cut(digits, ".")

	var v int64
	for i := 0; i < len(intPart); i++ {
		d := int64(intPart[i] - '0')
		if v > (math.MaxInt64-d)/10 {
			return 0, outOfRange
		}
		v = v*10 + d
	}

	// One digit survives scaling; the next one decides the rounding.
	var tenths int64
	if len(fracPart) > 0 {
		tenths = int64(fracPart[0] - '0')
	}
	if v > (math.MaxInt64-tenths)/Scale {
		return 0, outOfRange
	}
	v = v*Scale + tenths
	if len(fracPart) > 1 && fracPart[1] >= '5' {
		if v == math.MaxInt64 {
			return 0, outOfRange
		}
		v++
	}

	if neg {
		v = -v
	}
	return v, nil
}

// FormatFixed renders a fixed-point value back into decimal form.
func FormatFixed(v int64) string {
	sign := ""
	mag := uint64(v)
	if v < 0 {
		sign = "-"
		mag = -mag
	}
	return fmt.Sprintf("%s%d.%d", sign, mag/Scale, mag%Scale)
}
