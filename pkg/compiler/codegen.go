package compiler

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"treadmillc/pkg/logger"
)

// Options tunes one compilation.
type Options struct {
	// BaseAddr is the address given to the first variable.
	BaseAddr int
	// MaxVars bounds the symbol table; 0 means unbounded.
	MaxVars int
	// MaxDepth bounds each scope stack; 0 means unbounded.
	MaxDepth int
	// FixedStep makes every for loop count by one regardless of its step
	// operand, matching programs built by older generators.
	FixedStep bool
}

// DefaultOptions returns the options matching the treadmill VM memory map.
func DefaultOptions() Options {
	return Options{
		BaseAddr: DefaultBaseAddr,
		MaxVars:  DefaultMaxVars,
		MaxDepth: DefaultMaxDepth,
	}
}

// CodeGen lowers statements into treadmill assembly text. One CodeGen serves
// exactly one program: the preamble is written by New and the epilogue by
// Close.
//
// Errors are sticky. After the first failure every operation returns that
// error and nothing more is written.
type CodeGen struct {
	out       *bufio.Writer
	closer    io.Closer
	syms      *SymbolTable
	nextLabel int
	whiles    scopeStack[whileScope]
	fors      scopeStack[forScope]
	ifs       scopeStack[ifScope]
	fixedStep bool
	err       error
	closed    bool
}

// New starts a program on w. The caller keeps ownership of w.
func New(w io.Writer, opts Options) *CodeGen {
	cg := &CodeGen{
		out:       bufio.NewWriter(w),
		syms:      NewSymbolTable(opts.BaseAddr, opts.MaxVars),
		whiles:    scopeStack[whileScope]{kind: "while", limit: opts.MaxDepth},
		fors:      scopeStack[forScope]{kind: "for", limit: opts.MaxDepth},
		ifs:       scopeStack[ifScope]{kind: "if", limit: opts.MaxDepth},
		fixedStep: opts.FixedStep,
	}
	cg.preamble()
	return cg
}

// NewOwned starts a program on wc and closes wc exactly once, in Close.
func NewOwned(wc io.WriteCloser, opts Options) *CodeGen {
	cg := New(wc, opts)
	cg.closer = wc
	return cg
}

// Symbols exposes the variable bindings made so far.
func (cg *CodeGen) Symbols() *SymbolTable {
	return cg.syms
}

// Err returns the error that stopped the generator, if any.
func (cg *CodeGen) Err() error {
	return cg.err
}

func (cg *CodeGen) check() error {
	if cg.closed {
		return ErrClosed
	}
	return cg.err
}

func (cg *CodeGen) fail(err error) error {
	if cg.err == nil {
		cg.err = err
	}
	return cg.err
}

func (cg *CodeGen) line(format string, args ...any) {
	if cg.err != nil {
		return
	}
	if _, err := fmt.Fprintf(cg.out, format+"\n", args...); err != nil {
		cg.err = err
	}
}

func (cg *CodeGen) comment(format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	cg.line("; %s", strings.ReplaceAll(text, "\n", " "))
}

func (cg *CodeGen) blank() {
	cg.line("")
}

func (cg *CodeGen) newLabel() int {
	l := cg.nextLabel
	cg.nextLabel++
	return l
}

func labelName(kind string, n int) string {
	return fmt.Sprintf("%s_%d", kind, n)
}

func (cg *CodeGen) preamble() {
	cg.comment("=== compiled treadmill program ===")
	cg.line("INICIAR")
	cg.line("SET %s 0", SensorVelocidade.Channel())
	cg.line("SET %s 0", SensorTempo.Channel())
	cg.line("SET %s 0", SensorInclinacao.Channel())
	cg.line("SET %s 0", R1)
	cg.line("SET %s 0", R2)
	cg.blank()
}

func (cg *CodeGen) epilogue() {
	cg.blank()
	cg.comment("=== end of program ===")
	cg.line("STATUS")
	cg.line("HALT")
}

// Flush writes buffered output to the underlying writer.
func (cg *CodeGen) Flush() error {
	if err := cg.check(); err != nil {
		return err
	}
	if err := cg.out.Flush(); err != nil {
		return cg.fail(err)
	}
	return nil
}

// Close checks that every scope was closed, writes the epilogue, flushes the
// output and releases an owned sink. The sink is released even when the
// program failed; the epilogue is written only for a complete program.
func (cg *CodeGen) Close() error {
	if cg.closed {
		return ErrClosed
	}

	err := cg.err
	if err == nil {
		if w, f, i := cg.whiles.depth(), cg.fors.depth(), cg.ifs.depth(); w+f+i > 0 {
			err = cg.fail(fmt.Errorf("%w: %d while, %d for, %d if still open", ErrUnbalanced, w, f, i))
		}
	}
	if err == nil {
		cg.epilogue()
		err = cg.err
	}
	cg.closed = true

	errs := []error{err}
	if ferr := cg.out.Flush(); ferr != nil && err == nil {
		errs = append(errs, ferr)
	}
	if cg.closer != nil {
		errs = append(errs, cg.closer.Close())
	}
	return errors.Join(errs...)
}

// Discard abandons the program without writing the epilogue. Buffered
// output is dropped and an owned sink is released.
func (cg *CodeGen) Discard() error {
	if cg.closed {
		return ErrClosed
	}
	cg.closed = true
	cg.out.Reset(io.Discard)
	if cg.closer != nil {
		return cg.closer.Close()
	}
	return nil
}

//  Operand and arithmetic lowering

// CompileOperand lowers a single operand into reg.
func (cg *CodeGen) CompileOperand(text string, reg Register) error {
	if err := cg.check(); err != nil {
		return err
	}
	op, err := ParseOperand(text)
	if err != nil {
		return cg.fail(err)
	}
	return cg.operand(op, reg)
}

// CompileArithmetic lowers an operand or a sum of two operands into reg.
func (cg *CodeGen) CompileArithmetic(text string, reg Register) error {
	if err := cg.check(); err != nil {
		return err
	}
	e, err := ParseExpr(text)
	if err != nil {
		return cg.fail(err)
	}
	return cg.expr(e, reg)
}

func (cg *CodeGen) operand(o Operand, reg Register) error {
	switch n := o.(type) {
	case nil:
		cg.line("SET %s 0", reg)
	case *Literal:
		cg.line("SET %s %d", reg, n.Value)
	case *SensorRef:
		if !n.Sensor.Valid() {
			return cg.fail(fmt.Errorf("codegen: unknown sensor %d", int(n.Sensor)))
		}
		cg.line("READSENSOR %s %s", reg, n.Sensor)
	case *VarRef:
		addr, err := cg.syms.Resolve(n.Name)
		if err != nil {
			return cg.fail(err)
		}
		cg.line("LOAD %s %d", reg, addr)
	default:
		return cg.fail(fmt.Errorf("codegen: unknown operand %T", o))
	}
	return cg.err
}

func (cg *CodeGen) expr(e Expr, reg Register) error {
	switch n := e.(type) {
	case nil:
		return cg.operand(nil, reg)
	case Operand:
		return cg.operand(n, reg)
	case *Sum:
		if reg == R2 {
			return cg.fail(fmt.Errorf("codegen: sum %s cannot target scratch register %s", n, R2))
		}
		logger.Debug("Lowering sum", "expr", n.String(), "target", string(reg))
		if err := cg.operand(n.Left, reg); err != nil {
			return err
		}
		if err := cg.operand(n.Right, R2); err != nil {
			return err
		}
		cg.line("ADD %s %s", reg, R2)
		return cg.err
	default:
		return cg.fail(fmt.Errorf("codegen: unknown expression %T", e))
	}
}

func (cg *CodeGen) compare(c Comparison) error {
	if err := cg.operand(c.Left, R1); err != nil {
		return err
	}
	return cg.operand(c.Right, R2)
}

//  Statement translators

// Comment copies text into the output as a comment line.
func (cg *CodeGen) Comment(text string) error {
	if err := cg.check(); err != nil {
		return err
	}
	cg.comment("%s", text)
	return cg.err
}

// DeclareVar binds name and stores the single operand expr into it.
func (cg *CodeGen) DeclareVar(name, expr string) error {
	if err := cg.check(); err != nil {
		return err
	}
	op, err := ParseOperand(expr)
	if err != nil {
		return cg.fail(err)
	}
	return cg.declare(&DeclareStmt{Name: name, Init: op})
}

func (cg *CodeGen) declare(s *DeclareStmt) error {
	if err := checkVarName(s.Name); err != nil {
		return cg.fail(err)
	}
	cg.comment("%s", s)
	addr, err := cg.syms.Resolve(s.Name)
	if err != nil {
		return cg.fail(err)
	}
	if err := cg.operand(s.Init, R1); err != nil {
		return err
	}
	cg.line("STORE %s %d", R1, addr)
	cg.blank()
	return cg.err
}

// SetChannel drives a channel register from a single operand.
func (cg *CodeGen) SetChannel(ch Sensor, expr string) error {
	if err := cg.check(); err != nil {
		return err
	}
	op, err := ParseOperand(expr)
	if err != nil {
		return cg.fail(err)
	}
	return cg.setChannel(&SetChannelStmt{Channel: ch, Value: op})
}

func (cg *CodeGen) setChannel(s *SetChannelStmt) error {
	if !s.Channel.Valid() {
		return cg.fail(fmt.Errorf("codegen: unknown channel %d", int(s.Channel)))
	}
	cg.comment("%s", s)
	if err := cg.operand(s.Value, R1); err != nil {
		return err
	}
	cg.line("SET %s %s", s.Channel.Channel(), R1)
	cg.blank()
	return cg.err
}

// Assign stores an operand or a sum into a variable. Assigning to a reserved
// identifier drives that channel instead.
func (cg *CodeGen) Assign(name, expr string) error {
	if err := cg.check(); err != nil {
		return err
	}
	e, err := ParseExpr(expr)
	if err != nil {
		return cg.fail(err)
	}
	return cg.assign(&AssignStmt{Name: name, Value: e})
}

func (cg *CodeGen) assign(s *AssignStmt) error {
	if ch, ok := LookupSensor(s.Name); ok {
		cg.comment("%s", s)
		if err := cg.expr(s.Value, R1); err != nil {
			return err
		}
		cg.line("SET %s %s", ch.Channel(), R1)
		cg.blank()
		return cg.err
	}

	if err := checkVarName(s.Name); err != nil {
		return cg.fail(err)
	}
	cg.comment("%s", s)
	addr, err := cg.syms.Resolve(s.Name)
	if err != nil {
		return cg.fail(err)
	}
	if err := cg.expr(s.Value, R1); err != nil {
		return err
	}
	cg.line("STORE %s %d", R1, addr)
	cg.blank()
	return cg.err
}

// DebugVars writes the current bindings as a comment.
func (cg *CodeGen) DebugVars() error {
	if err := cg.check(); err != nil {
		return err
	}
	parts := make([]string, 0, cg.syms.Len())
	for _, b := range cg.syms.Bindings() {
		parts = append(parts, fmt.Sprintf("%s@%d", b.Name, b.Address))
	}
	cg.comment("debug vars: %s", strings.Join(parts, " "))
	return cg.err
}
