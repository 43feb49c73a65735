package main

import (
	"io"
	"testing"

	"treadmillc/pkg/compiler"
	"treadmillc/pkg/vm"
)

func TestGaugesReadChannels(t *testing.T) {
	_, prog, err := compiler.Compile("velocidade = 8.5\ninclinacao = 3\nset tempo = 12", compiler.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	m := vm.New()
	m.Output = io.Discard
	m.Load(prog)
	if err := m.Run(1000); err != nil {
		t.Fatal(err)
	}

	want := map[string]int64{"velocidade": 85, "inclinacao": 30, "tempo": 120}
	for _, g := range gauges {
		if got := g.read(m); got != want[g.label] {
			t.Errorf("gauge %s = %d; want %d", g.label, got, want[g.label])
		}
	}
}

func TestLayout(t *testing.T) {
	d := &Dashboard{}
	w, h := d.Layout(1920, 1080)
	if w != screenWidth || h != screenHeight {
		t.Errorf("Layout = %dx%d; want %dx%d", w, h, screenWidth, screenHeight)
	}
}
