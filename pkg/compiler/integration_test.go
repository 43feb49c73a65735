package compiler_test

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"treadmillc/pkg/asm"
	"treadmillc/pkg/compiler"
)

const workoutScript = `
# interval workout
declare alvo = 8.5
declare voltas = 0
set inclinacao = 1

for serie = 1 to 5
  while velocidade < alvo
    velocidade = velocidade + 0.5
  end
  if tempo > 30
    inclinacao = inclinacao + 1
  else
    inclinacao = 0.5
  end
  voltas = voltas + 1
end

while tempo < 600
  for i = 0 to 3 step 1.5
    velocidade = alvo
  end
end
debug
`

var labelDef = regexp.MustCompile(`(?m)^([A-Za-z_][A-Za-z0-9_]*):$`)

func TestIntegration_CompileAndVerify(t *testing.T) {
	assembly, prog, err := compiler.Compile(workoutScript, compiler.DefaultOptions())
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	// No label is defined twice.
	seen := make(map[string]bool)
	for _, m := range labelDef.FindAllStringSubmatch(*assembly, -1) {
		if seen[m[1]] {
			t.Errorf("label %s defined twice", m[1])
		}
		seen[m[1]] = true
	}

	// Every jump target is defined and every label is reached by a jump.
	for target := range prog.Jumps {
		if _, ok := prog.Labels[target]; !ok {
			t.Errorf("jump to undefined label %s", target)
		}
	}
	for label := range prog.Labels {
		if prog.Jumps[label] == 0 {
			t.Errorf("label %s is never jumped to", label)
		}
	}
	if len(prog.Labels) != len(seen) {
		t.Errorf("verifier found %d labels, text has %d", len(prog.Labels), len(seen))
	}

	// 2 for loops, 2 while loops and 1 if, each with two labels.
	if len(prog.Labels) != 10 {
		t.Errorf("expected 10 labels, got %d", len(prog.Labels))
	}

	if first := prog.Instrs[0].Op; first != "INICIAR" {
		t.Errorf("first instruction = %s; want INICIAR", first)
	}
	n := len(prog.Instrs)
	if prog.Instrs[n-2].Op != "STATUS" || prog.Instrs[n-1].Op != "HALT" {
		t.Errorf("program should end with STATUS, HALT; got %s, %s", prog.Instrs[n-2], prog.Instrs[n-1])
	}

	if !strings.Contains(*assembly, "; debug vars: alvo@10 voltas@11 serie@12 i@13") {
		t.Errorf("debug dump missing or out of order:\n%s", *assembly)
	}
}

func TestIntegration_GenerateReturnsBindings(t *testing.T) {
	stmts, err := compiler.ParseScript("declare b\ndeclare a\nb = a + c")
	if err != nil {
		t.Fatal(err)
	}
	opts := compiler.DefaultOptions()
	opts.BaseAddr = 40

	_, syms, err := compiler.Generate(stmts, opts)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	for name, want := range map[string]int{"b": 40, "a": 41, "c": 42} {
		if got, ok := syms.Lookup(name); !ok || got != want {
			t.Errorf("%s at %d (%v); want %d", name, got, ok, want)
		}
	}
}

func TestIntegration_CapacityError(t *testing.T) {
	opts := compiler.DefaultOptions()
	opts.MaxVars = 1
	_, _, err := compiler.Compile("declare a\ndeclare b", opts)
	if !errors.Is(err, compiler.ErrCapacity) {
		t.Fatalf("expected ErrCapacity, got %v", err)
	}
}

func TestIntegration_ScriptErrorHasLine(t *testing.T) {
	_, _, err := compiler.Compile("declare a\nif a\nend", compiler.DefaultOptions())
	var se *compiler.ScriptError
	if !errors.As(err, &se) || se.Line != 2 {
		t.Fatalf("expected ScriptError on line 2, got %v", err)
	}
}

func TestIntegration_OutputVerifiesAtEveryDepth(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 20; i++ {
		sb.WriteString("while x < 100\nfor i = 0 to 3\nif tempo > 1\n")
	}
	sb.WriteString("x = x + 1\n")
	for i := 0; i < 20; i++ {
		sb.WriteString("else\nx = 0\nend\nend\nend\n")
	}

	assembly, _, err := compiler.Compile(sb.String(), compiler.DefaultOptions())
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if _, err := asm.Verify(*assembly); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
}
