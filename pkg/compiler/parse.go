package compiler

import (
	"strings"
	"unicode"
)

// ParseOperand classifies a single operand: an empty string, a numeric
// literal, a reserved sensor, or a user variable.
func ParseOperand(text string) (Operand, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if isNumber(text) {
		v, err := ScaleLiteral(text)
		if err != nil {
			return nil, err
		}
		return &Literal{Text: text, Value: v}, nil
	}
	if s, ok := LookupSensor(text); ok {
		return &SensorRef{Sensor: s}, nil
	}
	if isIdentifier(text) {
		return &VarRef{Name: text}, nil
	}
	return nil, &SyntaxError{Text: text, Msg: "invalid operand"}
}

// ParseExpr parses an operand optionally followed by one addition. A sign in
// front of the first operand belongs to the literal, not to the sum.
func ParseExpr(text string) (Expr, error) {
	text = strings.TrimSpace(text)
	plus := -1
	if len(text) > 1 {
		if i := strings.IndexByte(text[1:], '+'); i >= 0 {
			plus = i + 1
		}
	}
	if plus < 0 {
		op, err := ParseOperand(text)
		if err != nil || op == nil {
			return nil, err
		}
		return op, nil
	}

	left, right := strings.TrimSpace(text[:plus]), strings.TrimSpace(text[plus+1:])
	if left == "" || right == "" {
		return nil, &SyntaxError{Text: text, Msg: "addition needs two operands"}
	}
	l, err := ParseOperand(left)
	if err != nil {
		return nil, err
	}
	r, err := ParseOperand(right)
	if err != nil {
		return nil, err
	}
	return &Sum{Left: l, Right: r}, nil
}

// ParseCondition splits text on its first '<', or failing that its first
// '>'. Both sides must be present.
func ParseCondition(text string) (Comparison, error) {
	text = strings.TrimSpace(text)
	op := Less
	i := strings.IndexByte(text, byte(Less))
	if i < 0 {
		op = Greater
		i = strings.IndexByte(text, byte(Greater))
	}
	if i < 0 {
		return Comparison{}, &SyntaxError{Text: text, Msg: "condition needs '<' or '>'"}
	}

	left, right := strings.TrimSpace(text[:i]), strings.TrimSpace(text[i+1:])
	if left == "" || right == "" {
		return Comparison{}, &SyntaxError{Text: text, Msg: "comparison needs two operands"}
	}
	l, err := ParseOperand(left)
	if err != nil {
		return Comparison{}, err
	}
	r, err := ParseOperand(right)
	if err != nil {
		return Comparison{}, err
	}
	return Comparison{Op: op, Left: l, Right: r}, nil
}

// checkVarName rejects names that cannot be bound to an address.
func checkVarName(name string) error {
	if !isIdentifier(name) {
		return &SyntaxError{Text: name, Msg: "invalid variable name"}
	}
	if IsReserved(name) {
		return &SyntaxError{Text: name, Msg: "reserved channel cannot be bound as a variable"}
	}
	return nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
			continue
		}

		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}

	return true
}
