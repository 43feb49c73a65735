package compiler

import (
	"strings"
	"testing"
)

// simpleSource is a short straight-line script.
const simpleSource = `
declare x = 10
declare y = x
velocidade = x + y
`

// complexSource nests every construct.
var complexSource = strings.Repeat(`
declare alvo = 8.5
for serie = 1 to 5
  while velocidade < alvo
    velocidade = velocidade + 0.5
  end
  if tempo > 30
    inclinacao = inclinacao + 1
  else
    inclinacao = 0.5
  end
end
`, 20)

func BenchmarkParseScript_Simple(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := ParseScript(simpleSource); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParseScript_Complex(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := ParseScript(complexSource); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkGenerate_Complex(b *testing.B) {
	stmts, err := ParseScript(complexSource)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := Generate(stmts, DefaultOptions()); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCompile_Complex(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, _, err := Compile(complexSource, DefaultOptions()); err != nil {
			b.Fatal(err)
		}
	}
}
