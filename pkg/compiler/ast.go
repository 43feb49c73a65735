package compiler

import (
	"fmt"
	"strings"
)

//  Expression nodes

// Expr is implemented by every node that produces a value.
// Lowering an Expr leaves its value in the requested register.
type Expr interface {
	exprNode()
	String() string
}

// Operand is an Expr that needs no arithmetic: it lowers to exactly one
// instruction. A nil Operand is the empty operand and lowers to zero.
type Operand interface {
	Expr
	operandNode()
}

// Literal is a fixed-point constant.
//
//	velocidade = 5.5
//	             ^^^  Literal{Text: "5.5", Value: 55}
type Literal struct {
	Text  string
	Value int64 // scaled by Scale
}

func (*Literal) exprNode()        {}
func (*Literal) operandNode()     {}
func (l *Literal) String() string { return l.Text }

// SensorRef reads one of the reserved channels.
//
//	x = tempo
//	    ^^^^^  SensorRef{Sensor: SensorTempo}
type SensorRef struct {
	Sensor Sensor
}

func (*SensorRef) exprNode()        {}
func (*SensorRef) operandNode()     {}
func (s *SensorRef) String() string { return s.Sensor.String() }

// VarRef is a read of a user variable. The variable gets an address the
// first time it is referenced.
type VarRef struct {
	Name string
}

func (*VarRef) exprNode()        {}
func (*VarRef) operandNode()     {}
func (v *VarRef) String() string { return v.Name }

// Sum adds two operands. It is the only arithmetic form.
//
//	velocidade + 5
//	^^^^^^^^^^   ^
//	Left         Right
type Sum struct {
	Left  Operand
	Right Operand
}

func (*Sum) exprNode() {}
func (s *Sum) String() string {
	return fmt.Sprintf("%s+%s", operandString(s.Left), operandString(s.Right))
}

// CompareOp is the operator of a Comparison.
type CompareOp byte

const (
	Less    CompareOp = '<'
	Greater CompareOp = '>'
)

func (op CompareOp) String() string { return string(op) }

// Comparison is a single greater-than or less-than test of Left against
// Right. Left is lowered into R1 and Right into R2.
type Comparison struct {
	Op    CompareOp
	Left  Operand
	Right Operand
}

func (c Comparison) String() string {
	return fmt.Sprintf("%s %s %s", operandString(c.Left), c.Op, operandString(c.Right))
}

func operandString(o Operand) string {
	if o == nil {
		return ""
	}
	return o.String()
}

//  Statement nodes

// Stmt is implemented by every statement the generator can lower.
type Stmt interface {
	stmtNode()
	String() string
}

// CommentStmt is copied into the output as a comment line.
type CommentStmt struct {
	Text string
}

func (*CommentStmt) stmtNode()        {}
func (c *CommentStmt) String() string { return "# " + c.Text }

// DeclareStmt binds a variable and stores its initial value.
//
//	declare x = 5
type DeclareStmt struct {
	Name string
	Init Operand
}

func (*DeclareStmt) stmtNode() {}
func (d *DeclareStmt) String() string {
	if d.Init == nil {
		return "declare " + d.Name
	}
	return fmt.Sprintf("declare %s = %s", d.Name, d.Init)
}

// SetChannelStmt drives a channel register from a single operand.
//
//	set inclinacao = 2
type SetChannelStmt struct {
	Channel Sensor
	Value   Operand
}

func (*SetChannelStmt) stmtNode() {}
func (s *SetChannelStmt) String() string {
	return fmt.Sprintf("set %s = %s", s.Channel, operandString(s.Value))
}

// AssignStmt stores an expression into a variable, or into a channel when
// Name is a reserved identifier.
//
//	velocidade = velocidade + 5
type AssignStmt struct {
	Name  string
	Value Expr
}

func (*AssignStmt) stmtNode() {}
func (a *AssignStmt) String() string {
	v := ""
	if a.Value != nil {
		v = a.Value.String()
	}
	return fmt.Sprintf("%s = %s", a.Name, v)
}

// IfStmt runs Then when the comparison holds and Else otherwise.
type IfStmt struct {
	Cond Comparison
	Then []Stmt
	Else []Stmt
}

func (*IfStmt) stmtNode() {}
func (i *IfStmt) String() string {
	return fmt.Sprintf("if %s {%d} else {%d}", i.Cond, len(i.Then), len(i.Else))
}

// WhileStmt re-tests Cond before every pass over Body.
type WhileStmt struct {
	Cond Comparison
	Body []Stmt
}

func (*WhileStmt) stmtNode() {}
func (w *WhileStmt) String() string {
	return fmt.Sprintf("while %s {%d}", w.Cond, len(w.Body))
}

// ForStmt counts Var from Start while it does not exceed End, adding Step
// after every pass. A nil Step counts by one.
//
//	for i = 0 to 10 step 2
type ForStmt struct {
	Var   string
	Start Operand
	End   Operand
	Step  Operand
	Body  []Stmt
}

func (*ForStmt) stmtNode() {}
func (f *ForStmt) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "for %s = %s to %s", f.Var, operandString(f.Start), operandString(f.End))
	if f.Step != nil {
		fmt.Fprintf(&sb, " step %s", f.Step)
	}
	fmt.Fprintf(&sb, " {%d}", len(f.Body))
	return sb.String()
}

// DebugStmt dumps the current variable bindings as a comment.
type DebugStmt struct{}

func (*DebugStmt) stmtNode()      {}
func (*DebugStmt) String() string { return "debug" }
