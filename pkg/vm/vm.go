// Package vm executes verified treadmill assembly. It exists so compiled
// programs can be run and inspected without the physical treadmill.
package vm

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"treadmillc/pkg/asm"
	"treadmillc/pkg/compiler"
	"treadmillc/pkg/logger"
)

// Reg indexes the register file.
type Reg int

const (
	Velocidade Reg = iota
	Tempo
	Inclinacao
	R1
	R2
	SP
	numRegs
)

var regNames = [numRegs]string{
	Velocidade: "VELOCIDADE",
	Tempo:      "TEMPO",
	Inclinacao: "INCLINACAO",
	R1:         "R1",
	R2:         "R2",
	SP:         "SP",
}

func (r Reg) String() string { return regNames[r] }

func lookupReg(name string) (Reg, bool) {
	for i, n := range regNames {
		if n == name {
			return Reg(i), true
		}
	}
	return 0, false
}

var (
	ErrStepLimit      = errors.New("step limit reached")
	ErrStackUnderflow = errors.New("stack underflow")
	ErrDivideByZero   = errors.New("division by zero")
	ErrNoProgram      = errors.New("no program loaded")
)

// SensorFunc produces the current reading of a sensor.
type SensorFunc func() int64

type VM struct {
	Regs  [numRegs]int64
	RAM   [asm.RAMSize]int64
	Stack []int64

	PC    int
	Steps int

	// Elapsed counts instructions executed while the treadmill runs; the
	// tempo sensor reads it.
	Elapsed int64
	Running bool
	Halted  bool

	// Output receives STATUS dumps. If nil, os.Stdout is used.
	Output io.Writer

	// Sensors holds the sensors that are not backed by a register.
	Sensors map[string]SensorFunc

	prog *asm.Program
}

// New returns a VM whose auxiliary sensors produce random readings in their
// physical range.
func New() *VM {
	return &VM{
		Sensors: map[string]SensorFunc{
			"peso":        func() int64 { return 50 + rand.Int63n(51) },
			"temperatura": func() int64 { return 20 + rand.Int63n(16) },
			"tensao":      func() int64 { return 220 + rand.Int63n(21) },
		},
	}
}

// Load resets the machine and installs prog.
func (v *VM) Load(prog *asm.Program) {
	v.Regs = [numRegs]int64{}
	v.RAM = [asm.RAMSize]int64{}
	v.Stack = v.Stack[:0]
	v.PC = 0
	v.Steps = 0
	v.Elapsed = 0
	v.Running = false
	v.Halted = false
	v.prog = prog
}

// LoadSource verifies code and loads it.
func (v *VM) LoadSource(code string) error {
	prog, err := asm.Verify(code)
	if err != nil {
		return err
	}
	v.Load(prog)
	return nil
}

// Reg returns the value of register r.
func (v *VM) Reg(r Reg) int64 {
	return v.Regs[r]
}

// Run steps until HALT, the end of the program, or maxSteps instructions.
// maxSteps of zero means no limit.
func (v *VM) Run(maxSteps int) error {
	if v.prog == nil {
		return ErrNoProgram
	}
	for !v.Halted {
		if maxSteps > 0 && v.Steps >= maxSteps {
			logger.Debug("VM step limit", "steps", v.Steps, "pc", v.PC)
			return fmt.Errorf("%w (%d)", ErrStepLimit, maxSteps)
		}
		if err := v.Step(); err != nil {
			return err
		}
	}
	logger.Debug("VM halted", "steps", v.Steps, "elapsed", v.Elapsed)
	return nil
}

// Step executes one instruction.
func (v *VM) Step() error {
	if v.prog == nil {
		return ErrNoProgram
	}
	if v.Halted {
		return nil
	}
	if v.PC >= len(v.prog.Instrs) {
		v.Halted = true
		return nil
	}

	in := v.prog.Instrs[v.PC]
	v.Steps++
	if err := v.exec(in); err != nil {
		return fmt.Errorf("%s (pc %d, line %d): %w", in, v.PC, in.Line, err)
	}
	if v.Running {
		v.Elapsed++
	}
	return nil
}

func (v *VM) exec(in asm.Instr) error {
	a := in.Args
	switch in.Op {
	// Flow control
	case "GOTO":
		return v.jump(a[0])
	case "JZ":
		return v.jumpIf(v.Regs[R1] == 0, a[0])
	case "JNZ":
		return v.jumpIf(v.Regs[R1] != 0, a[0])
	case "JL":
		return v.jumpIf(v.Regs[R1] < v.Regs[R2], a[0])
	case "JG":
		return v.jumpIf(v.Regs[R1] > v.Regs[R2], a[0])
	case "DECJZ":
		r, err := v.reg(a[0])
		if err != nil {
			return err
		}
		if v.Regs[r] == 0 {
			return v.jump(a[1])
		}
		v.Regs[r]--
	case "CALL":
		v.Stack = append(v.Stack, int64(v.PC+1))
		return v.jump(a[0])
	case "RET":
		ret, err := v.pop()
		if err != nil {
			return err
		}
		v.PC = int(ret)
		return nil

	// Arithmetic and logic
	case "SET":
		return v.binary(a, func(_, y int64) (int64, error) { return y, nil })
	case "ADD":
		return v.binary(a, func(x, y int64) (int64, error) { return x + y, nil })
	case "SUB":
		return v.binary(a, func(x, y int64) (int64, error) { return x - y, nil })
	case "MUL":
		return v.binary(a, func(x, y int64) (int64, error) { return x * y, nil })
	case "DIV":
		return v.binary(a, func(x, y int64) (int64, error) {
			if y == 0 {
				return 0, ErrDivideByZero
			}
			return floorDiv(x, y), nil
		})
	case "AND":
		return v.binary(a, func(x, y int64) (int64, error) { return x & y, nil })
	case "OR":
		return v.binary(a, func(x, y int64) (int64, error) { return x | y, nil })
	case "XOR":
		return v.binary(a, func(x, y int64) (int64, error) { return x ^ y, nil })
	case "INC":
		return v.unary(a[0], func(x int64) int64 { return x + 1 })
	case "DEC":
		return v.unary(a[0], func(x int64) int64 { return max(0, x-1) })
	case "NOT":
		return v.unary(a[0], func(x int64) int64 { return ^x & 0xFFFF })
	case "CMP":
		x, err := v.value(a[0])
		if err != nil {
			return err
		}
		y, err := v.value(a[1])
		if err != nil {
			return err
		}
		switch {
		case x < y:
			v.Regs[R1] = -1
		case x > y:
			v.Regs[R1] = 1
		default:
			v.Regs[R1] = 0
		}

	// Memory
	case "PUSH":
		x, err := v.value(a[0])
		if err != nil {
			return err
		}
		v.Stack = append(v.Stack, x)
	case "POP":
		r, err := v.reg(a[0])
		if err != nil {
			return err
		}
		x, err := v.pop()
		if err != nil {
			return err
		}
		v.Regs[r] = x
	case "LOAD":
		r, err := v.reg(a[0])
		if err != nil {
			return err
		}
		addr, err := v.value(a[1])
		if err != nil {
			return err
		}
		v.Regs[r] = v.RAM[wrap(addr)]
	case "STORE":
		x, err := v.value(a[0])
		if err != nil {
			return err
		}
		addr, err := v.value(a[1])
		if err != nil {
			return err
		}
		v.RAM[wrap(addr)] = x

	// Sensors
	case "READSENSOR":
		r, err := v.reg(a[0])
		if err != nil {
			return err
		}
		x, err := v.sensor(a[1])
		if err != nil {
			return err
		}
		v.Regs[r] = x

	// Treadmill control
	case "INICIAR":
		v.Running = true
	case "PARAR":
		v.Running = false
	case "STATUS":
		out := v.Output
		if out == nil {
			out = os.Stdout
		}
		if _, err := io.WriteString(out, v.Status()); err != nil {
			return err
		}
	case "HALT":
		v.Running = false
		v.Halted = true
		return nil

	default:
		return fmt.Errorf("unimplemented instruction %s", in.Op)
	}

	v.PC++
	return nil
}

func (v *VM) jump(label string) error {
	idx, ok := v.prog.Labels[label]
	if !ok {
		return fmt.Errorf("label not found: %s", label)
	}
	v.PC = idx
	return nil
}

func (v *VM) jumpIf(cond bool, label string) error {
	if cond {
		return v.jump(label)
	}
	v.PC++
	return nil
}

func (v *VM) binary(a []string, f func(x, y int64) (int64, error)) error {
	r, err := v.reg(a[0])
	if err != nil {
		return err
	}
	y, err := v.value(a[1])
	if err != nil {
		return err
	}
	res, err := f(v.Regs[r], y)
	if err != nil {
		return err
	}
	v.Regs[r] = res
	v.PC++
	return nil
}

func (v *VM) unary(name string, f func(x int64) int64) error {
	r, err := v.reg(name)
	if err != nil {
		return err
	}
	v.Regs[r] = f(v.Regs[r])
	v.PC++
	return nil
}

func (v *VM) reg(name string) (Reg, error) {
	r, ok := lookupReg(name)
	if !ok {
		return 0, fmt.Errorf("invalid register: %s", name)
	}
	return r, nil
}

func (v *VM) value(operand string) (int64, error) {
	if r, ok := lookupReg(operand); ok {
		return v.Regs[r], nil
	}
	x, err := strconv.ParseInt(operand, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid operand: %s", operand)
	}
	return x, nil
}

func (v *VM) pop() (int64, error) {
	n := len(v.Stack)
	if n == 0 {
		return 0, ErrStackUnderflow
	}
	x := v.Stack[n-1]
	v.Stack = v.Stack[:n-1]
	return x, nil
}

func (v *VM) sensor(name string) (int64, error) {
	switch strings.ToLower(name) {
	case "tempo":
		return v.Elapsed, nil
	case "velocidade":
		return v.Regs[Velocidade], nil
	case "inclinacao":
		return v.Regs[Inclinacao], nil
	}
	if f, ok := v.Sensors[strings.ToLower(name)]; ok {
		return f(), nil
	}
	return 0, fmt.Errorf("sensor not found: %s", name)
}

// Status renders the treadmill state the way the STATUS instruction prints
// it.
func (v *VM) Status() string {
	state := "stopped"
	if v.Running {
		state = "running"
	}
	var sb strings.Builder
	sb.WriteString("--- treadmill status ---\n")
	fmt.Fprintf(&sb, "state:      %s\n", state)
	fmt.Fprintf(&sb, "velocidade: %s km/h\n", compiler.FormatFixed(v.Regs[Velocidade]))
	fmt.Fprintf(&sb, "tempo:      %s s\n", compiler.FormatFixed(v.Regs[Tempo]))
	fmt.Fprintf(&sb, "inclinacao: %s deg\n", compiler.FormatFixed(v.Regs[Inclinacao]))
	fmt.Fprintf(&sb, "R1: %d  R2: %d  stack: %d\n", v.Regs[R1], v.Regs[R2], len(v.Stack))
	fmt.Fprintf(&sb, "RAM[0:16]: %v\n", v.RAM[:16])
	fmt.Fprintf(&sb, "elapsed: %d  pc: %d\n", v.Elapsed, v.PC)
	return sb.String()
}

func wrap(addr int64) int64 {
	n := int64(asm.RAMSize)
	return ((addr % n) + n) % n
}

// floorDiv rounds toward negative infinity.
func floorDiv(x, y int64) int64 {
	q := x / y
	if (x%y != 0) && ((x < 0) != (y < 0)) {
		q--
	}
	return q
}
