package main

import (
	"flag"
	"fmt"
	"image/color"
	"io"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"treadmillc/pkg/asm"
	"treadmillc/pkg/compiler"
	"treadmillc/pkg/config"
	"treadmillc/pkg/utils"
	"treadmillc/pkg/vm"
)

const (
	screenWidth  = 480
	screenHeight = 240

	barX     = 140
	barWidth = 300
	barH     = 24
)

// gauge is one horizontal bar on the dashboard.
type gauge struct {
	label string
	unit  string
	max   int64 // fixed-point value that fills the bar
	read  func(m *vm.VM) int64
	color color.RGBA
}

var gauges = []gauge{
	{"velocidade", "km/h", 200, func(m *vm.VM) int64 { return m.Reg(vm.Velocidade) }, color.RGBA{0x3c, 0xb3, 0x71, 0xff}},
	{"inclinacao", "deg", 150, func(m *vm.VM) int64 { return m.Reg(vm.Inclinacao) }, color.RGBA{0xe0, 0x9a, 0x2c, 0xff}},
	{"tempo", "s", 600, func(m *vm.VM) int64 { return m.Reg(vm.Tempo) }, color.RGBA{0x46, 0x82, 0xb4, 0xff}},
}

type Dashboard struct {
	vm            *vm.VM
	prog          *asm.Program
	name          string
	stepsPerFrame int
	face          *text.GoXFace
	paused        bool
	err           error
}

func (d *Dashboard) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		d.paused = !d.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		d.vm.Load(d.prog)
		d.err = nil
	}

	if d.paused || d.err != nil {
		return nil
	}
	for i := 0; i < d.stepsPerFrame; i++ {
		// Stop early once the program finishes.
		if d.vm.Halted {
			break
		}
		if err := d.vm.Step(); err != nil {
			d.err = err
			break
		}
	}
	return nil
}

func (d *Dashboard) drawText(screen *ebiten.Image, msg string, x, y float64, clr color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(screen, msg, d.face, op)
}

func (d *Dashboard) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{0x1e, 0x1e, 0x24, 0xff})

	d.drawText(screen, d.name, 16, 12, color.White)

	for i, g := range gauges {
		y := float32(48 + i*44)
		v := g.read(d.vm)
		d.drawText(screen, g.label, 16, float64(y)+4, color.White)

		fill := float32(0)
		if v > 0 {
			fill = float32(min(v, g.max)) / float32(g.max) * barWidth
		}
		vector.DrawFilledRect(screen, barX, y, barWidth, barH, color.RGBA{0x3a, 0x3a, 0x44, 0xff}, false)
		vector.DrawFilledRect(screen, barX, y, fill, barH, g.color, false)
		d.drawText(screen, fmt.Sprintf("%s %s", compiler.FormatFixed(v), g.unit), barX+8, float64(y)+4, color.White)
	}

	state := "running"
	switch {
	case d.err != nil:
		state = "error: " + d.err.Error()
	case d.vm.Halted:
		state = "halted"
	case d.paused:
		state = "paused"
	case !d.vm.Running:
		state = "stopped"
	}
	d.drawText(screen, fmt.Sprintf("%s  |  elapsed %d  steps %d  pc %d", state, d.vm.Elapsed, d.vm.Steps, d.vm.PC), 16, 186, color.Gray{0xc0})
	d.drawText(screen, "space: pause   r: restart   esc: quit", 16, 210, color.Gray{0x80})
}

func (d *Dashboard) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

func main() {
	stepsPerFrame := flag.Int("steps-per-frame", 20, "VM instructions executed per frame")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: desktop [-steps-per-frame n] <file.lmd|file.asm>")
		os.Exit(2)
	}

	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	filename := flag.Arg(0)
	fullPath, _, err := utils.GetPathInfo(filename)
	if err != nil {
		log.Fatalf("Bad path: %v", err)
	}
	source, err := os.ReadFile(fullPath)
	if err != nil {
		log.Fatalf("Failed to read source file: %v", err)
	}

	var prog *asm.Program
	if utils.IsAssembly(fullPath) {
		prog, err = asm.Verify(string(source))
	} else {
		_, prog, err = compiler.Compile(string(source), cfg.Options())
	}
	if err != nil {
		log.Fatalf("Compilation failed: %v", err)
	}

	machine := vm.New()
	machine.Output = io.Discard
	machine.Load(prog)

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(screenWidth*2, screenHeight*2)
	ebiten.SetWindowTitle("Treadmill Dashboard")

	d := &Dashboard{
		vm:            machine,
		prog:          prog,
		name:          filename,
		stepsPerFrame: *stepsPerFrame,
		face:          text.NewGoXFace(basicfont.Face7x13),
	}
	if err := ebiten.RunGame(d); err != nil {
		log.Fatal(err)
	}
}
