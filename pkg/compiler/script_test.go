package compiler

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParseScript(t *testing.T) {
	src := `
# warm up
declare limite = 12.5
set inclinacao = 1
while velocidade < limite
	velocidade = velocidade + 0.5
end
if tempo > 30
  inclinacao = 2
else
  inclinacao = 0
end
for i = 0 to 10 step 2
  debug
end
`
	stmts, err := ParseScript(src)
	if err != nil {
		t.Fatalf("ParseScript: %v", err)
	}

	want := []Stmt{
		&CommentStmt{Text: "warm up"},
		&DeclareStmt{Name: "limite", Init: &Literal{Text: "12.5", Value: 125}},
		&SetChannelStmt{Channel: SensorInclinacao, Value: &Literal{Text: "1", Value: 10}},
		&WhileStmt{
			Cond: Comparison{Op: Less, Left: &SensorRef{Sensor: SensorVelocidade}, Right: &VarRef{Name: "limite"}},
			Body: []Stmt{
				&AssignStmt{Name: "velocidade", Value: &Sum{
					Left:  &SensorRef{Sensor: SensorVelocidade},
					Right: &Literal{Text: "0.5", Value: 5},
				}},
			},
		},
		&IfStmt{
			Cond: Comparison{Op: Greater, Left: &SensorRef{Sensor: SensorTempo}, Right: &Literal{Text: "30", Value: 300}},
			Then: []Stmt{&AssignStmt{Name: "inclinacao", Value: &Literal{Text: "2", Value: 20}}},
			Else: []Stmt{&AssignStmt{Name: "inclinacao", Value: &Literal{Text: "0", Value: 0}}},
		},
		&ForStmt{
			Var:   "i",
			Start: &Literal{Text: "0", Value: 0},
			End:   &Literal{Text: "10", Value: 100},
			Step:  &Literal{Text: "2", Value: 20},
			Body:  []Stmt{&DebugStmt{}},
		},
	}
	if !reflect.DeepEqual(stmts, want) {
		for i := range stmts {
			t.Logf("stmt %d: %s", i, stmts[i])
		}
		t.Fatalf("unexpected statement tree")
	}
}

func TestParseScriptDeclareWithoutValue(t *testing.T) {
	stmts, err := ParseScript("declare x")
	if err != nil {
		t.Fatal(err)
	}
	d, ok := stmts[0].(*DeclareStmt)
	if !ok || d.Name != "x" || d.Init != nil {
		t.Errorf("got %#v", stmts[0])
	}
}

func TestParseScriptErrors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		wantLine int
		contains string
	}{
		{"missing end", "declare x\nwhile x < 1\n  x = 1\n", 2, "while: missing end"},
		{"end without block", "declare x\nend", 2, "end without open block"},
		{"else without if", "while x < 1\nelse\nend", 2, "else without if"},
		{"second else", "if x > 1\nelse\nelse\nend", 3, "else without if"},
		{"unknown statement", "jump here", 1, `unknown statement "jump"`},
		{"bad condition", "\n\nif x = 1\nend", 3, "condition needs"},
		{"bad expression", "x = 1 +", 1, "addition needs two operands"},
		{"reserved declare", "declare tempo = 1", 1, "reserved"},
		{"unknown channel", "set rpm = 1", 1, `unknown channel "rpm"`},
		{"bad for header", "for i = 0 until 10\nend", 1, "for needs"},
		{"reserved loop var", "for velocidade = 0 to 10\nend", 1, "reserved"},
		{"end with arguments", "while x < 1\nend while", 2, "end takes no arguments"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseScript(tc.src)
			var se *ScriptError
			if !errors.As(err, &se) {
				t.Fatalf("expected *ScriptError, got %v", err)
			}
			if se.Line != tc.wantLine {
				t.Errorf("line = %d; want %d (%v)", se.Line, tc.wantLine, err)
			}
			if !strings.Contains(err.Error(), tc.contains) {
				t.Errorf("error %q does not contain %q", err, tc.contains)
			}
		})
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		kind LineKind
	}{
		{"", LineBlank},
		{"   ", LineBlank},
		{"# note", LineStmt},
		{"x=1", LineStmt},
		{"debug", LineStmt},
		{"if x > 1", LineOpen},
		{"while\tx < 1", LineOpen},
		{"for i = 1 to 2", LineOpen},
		{"else", LineElse},
		{"end", LineEnd},
	}
	for _, tc := range tests {
		kind, _, err := ParseLine(tc.line)
		if err != nil {
			t.Errorf("ParseLine(%q): %v", tc.line, err)
			continue
		}
		if kind != tc.kind {
			t.Errorf("ParseLine(%q) kind = %d; want %d", tc.line, kind, tc.kind)
		}
	}
}
