package compiler

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseOperand(t *testing.T) {
	tests := []struct {
		input string
		want  Operand
	}{
		{"", nil},
		{"   ", nil},
		{"5", &Literal{Text: "5", Value: 50}},
		{" -2.5 ", &Literal{Text: "-2.5", Value: -25}},
		{"velocidade", &SensorRef{Sensor: SensorVelocidade}},
		{"tempo", &SensorRef{Sensor: SensorTempo}},
		{"inclinacao", &SensorRef{Sensor: SensorInclinacao}},
		{"Velocidade", &VarRef{Name: "Velocidade"}},
		{"x_1", &VarRef{Name: "x_1"}},
	}
	for _, tc := range tests {
		got, err := ParseOperand(tc.input)
		if err != nil {
			t.Errorf("ParseOperand(%q) error: %v", tc.input, err)
			continue
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ParseOperand(%q) = %#v; want %#v", tc.input, got, tc.want)
		}
	}

	for _, input := range []string{"1x", "a b", "x-1", "1.2.3"} {
		_, err := ParseOperand(input)
		var se *SyntaxError
		if !errors.As(err, &se) {
			t.Errorf("ParseOperand(%q) error = %v; want *SyntaxError", input, err)
		}
	}
}

func TestParseExpr(t *testing.T) {
	tests := []struct {
		input string
		want  Expr
	}{
		{"", nil},
		{"x", &VarRef{Name: "x"}},
		{"-5", &Literal{Text: "-5", Value: -50}},
		{"+5", &Literal{Text: "+5", Value: 50}},
		{"velocidade+5", &Sum{
			Left:  &SensorRef{Sensor: SensorVelocidade},
			Right: &Literal{Text: "5", Value: 50},
		}},
		{" x + 1.5 ", &Sum{
			Left:  &VarRef{Name: "x"},
			Right: &Literal{Text: "1.5", Value: 15},
		}},
		{"-5+x", &Sum{
			Left:  &Literal{Text: "-5", Value: -50},
			Right: &VarRef{Name: "x"},
		}},
	}
	for _, tc := range tests {
		got, err := ParseExpr(tc.input)
		if err != nil {
			t.Errorf("ParseExpr(%q) error: %v", tc.input, err)
			continue
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ParseExpr(%q) = %#v; want %#v", tc.input, got, tc.want)
		}
	}

	for _, input := range []string{"5+", "x +", "a+b+c", "x+1y"} {
		_, err := ParseExpr(input)
		var se *SyntaxError
		if !errors.As(err, &se) {
			t.Errorf("ParseExpr(%q) error = %v; want *SyntaxError", input, err)
		}
	}
}

func TestParseCondition(t *testing.T) {
	tests := []struct {
		input string
		want  Comparison
	}{
		{"x < 10", Comparison{Op: Less, Left: &VarRef{Name: "x"}, Right: &Literal{Text: "10", Value: 100}}},
		{"tempo>30", Comparison{Op: Greater, Left: &SensorRef{Sensor: SensorTempo}, Right: &Literal{Text: "30", Value: 300}}},
		{" velocidade > limite ", Comparison{Op: Greater, Left: &SensorRef{Sensor: SensorVelocidade}, Right: &VarRef{Name: "limite"}}},
	}
	for _, tc := range tests {
		got, err := ParseCondition(tc.input)
		if err != nil {
			t.Errorf("ParseCondition(%q) error: %v", tc.input, err)
			continue
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ParseCondition(%q) = %#v; want %#v", tc.input, got, tc.want)
		}
	}

	// '<' is looked for first, so "a<b>c" leaves "b>c" as an invalid right side.
	for _, input := range []string{"", "x", "x = 1", "< 5", "x >", "a<b>c"} {
		_, err := ParseCondition(input)
		var se *SyntaxError
		if !errors.As(err, &se) {
			t.Errorf("ParseCondition(%q) error = %v; want *SyntaxError", input, err)
		}
	}
}

func TestCheckVarName(t *testing.T) {
	for _, name := range []string{"x", "_tmp", "limite2"} {
		if err := checkVarName(name); err != nil {
			t.Errorf("checkVarName(%q) = %v; want nil", name, err)
		}
	}
	for _, name := range []string{"", "2x", "a-b", "tempo", "velocidade"} {
		if err := checkVarName(name); err == nil {
			t.Errorf("checkVarName(%q) = nil; want error", name)
		}
	}
}
