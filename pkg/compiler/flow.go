package compiler

import (
	"fmt"

	"treadmillc/pkg/logger"
)

// Label kinds. Every construct draws its labels from the same counter, so a
// label name is unique for the whole program.
const (
	labelIfElse    = "if_else"
	labelIfEnd     = "if_end"
	labelWhileTest = "while_test"
	labelWhileEnd  = "while_end"
	labelForTest   = "for_test"
	labelForEnd    = "for_end"
)

// skipUnless emits the jump that leaves a construct when c does not hold.
// JL and JG compare R1 against R2, so the jump uses the inverse operator:
// a loop on a < b exits when a > b, and one on a > b exits when a < b.
func (cg *CodeGen) skipUnless(c Comparison, target string) {
	switch c.Op {
	case Less:
		cg.line("JG %s", target)
	default:
		cg.line("JL %s", target)
	}
}

//  If

// IfStart opens a conditional. The statements that follow, up to Else or
// IfEnd, run only when cond holds.
func (cg *CodeGen) IfStart(cond string) error {
	if err := cg.check(); err != nil {
		return err
	}
	c, err := ParseCondition(cond)
	if err != nil {
		return cg.fail(err)
	}
	return cg.ifStart(c)
}

func (cg *CodeGen) ifStart(c Comparison) error {
	scope := ifScope{elseLabel: cg.newLabel(), end: cg.newLabel()}
	if err := cg.ifs.push(scope); err != nil {
		return cg.fail(err)
	}
	logger.Debug("Opened if", "else", scope.elseLabel, "end", scope.end, "depth", cg.ifs.depth())

	cg.comment("if %s", c)
	if err := cg.compare(c); err != nil {
		return err
	}
	cg.skipUnless(c, labelName(labelIfElse, scope.elseLabel))
	return cg.err
}

// Else switches the innermost conditional to its alternative branch.
func (cg *CodeGen) Else() error {
	if err := cg.check(); err != nil {
		return err
	}
	scope, err := cg.ifs.top()
	if err != nil {
		return cg.fail(err)
	}
	if scope.hasElse {
		return cg.fail(fmt.Errorf("second else for if_%d: %w", scope.elseLabel, ErrUnbalanced))
	}
	scope.hasElse = true

	cg.line("GOTO %s", labelName(labelIfEnd, scope.end))
	cg.line("%s:", labelName(labelIfElse, scope.elseLabel))
	cg.comment("else")
	return cg.err
}

// IfEnd closes the innermost conditional.
func (cg *CodeGen) IfEnd() error {
	if err := cg.check(); err != nil {
		return err
	}
	scope, err := cg.ifs.pop()
	if err != nil {
		return cg.fail(err)
	}
	logger.Debug("Closed if", "else", scope.elseLabel, "end", scope.end, "depth", cg.ifs.depth())

	if !scope.hasElse {
		cg.line("GOTO %s", labelName(labelIfEnd, scope.end))
		cg.line("%s:", labelName(labelIfElse, scope.elseLabel))
	}
	cg.line("%s:", labelName(labelIfEnd, scope.end))
	cg.blank()
	return cg.err
}

//  While

// WhileStart opens a loop that runs while cond holds.
func (cg *CodeGen) WhileStart(cond string) error {
	if err := cg.check(); err != nil {
		return err
	}
	c, err := ParseCondition(cond)
	if err != nil {
		return cg.fail(err)
	}
	return cg.whileStart(c)
}

func (cg *CodeGen) whileStart(c Comparison) error {
	scope := whileScope{start: cg.newLabel(), end: cg.newLabel()}
	if err := cg.whiles.push(scope); err != nil {
		return cg.fail(err)
	}
	logger.Debug("Opened while", "start", scope.start, "end", scope.end, "depth", cg.whiles.depth())

	cg.comment("while (%s)", c)
	cg.line("%s:", labelName(labelWhileTest, scope.start))
	if err := cg.compare(c); err != nil {
		return err
	}
	cg.skipUnless(c, labelName(labelWhileEnd, scope.end))
	cg.blank()
	return cg.err
}

// WhileEnd closes the innermost while loop.
func (cg *CodeGen) WhileEnd() error {
	if err := cg.check(); err != nil {
		return err
	}
	scope, err := cg.whiles.pop()
	if err != nil {
		return cg.fail(err)
	}
	logger.Debug("Closed while", "start", scope.start, "end", scope.end, "depth", cg.whiles.depth())

	cg.line("GOTO %s", labelName(labelWhileTest, scope.start))
	cg.line("%s:", labelName(labelWhileEnd, scope.end))
	cg.blank()
	return cg.err
}

//  For

// ForStart opens a counted loop over variable v. The bounds and step are
// single operands; an empty step counts by one.
func (cg *CodeGen) ForStart(v, start, end, step string) error {
	if err := cg.check(); err != nil {
		return err
	}
	f := &ForStmt{Var: v}
	for _, p := range []struct {
		text string
		dst  *Operand
	}{{start, &f.Start}, {end, &f.End}, {step, &f.Step}} {
		op, err := ParseOperand(p.text)
		if err != nil {
			return cg.fail(err)
		}
		*p.dst = op
	}
	return cg.forStart(f)
}

func (cg *CodeGen) forStart(f *ForStmt) error {
	if err := checkVarName(f.Var); err != nil {
		return cg.fail(err)
	}
	cg.comment("%s", forHeader(f))

	addr, err := cg.syms.Resolve(f.Var)
	if err != nil {
		return cg.fail(err)
	}
	scope := forScope{start: cg.newLabel(), end: cg.newLabel(), addr: addr, step: f.Step}
	if err := cg.fors.push(scope); err != nil {
		return cg.fail(err)
	}
	logger.Debug("Opened for", "var", f.Var, "start", scope.start, "end", scope.end, "depth", cg.fors.depth())

	if err := cg.operand(f.Start, R1); err != nil {
		return err
	}
	cg.line("STORE %s %d", R1, addr)

	// A step variable is bound here, where it appears in the source, rather
	// than at the end of the loop body.
	if ref, ok := f.Step.(*VarRef); ok && !cg.fixedStep {
		if _, err := cg.syms.Resolve(ref.Name); err != nil {
			return cg.fail(err)
		}
	}

	cg.line("%s:", labelName(labelForTest, scope.start))
	cg.line("LOAD %s %d", R1, addr)
	if err := cg.operand(f.End, R2); err != nil {
		return err
	}
	cg.line("JG %s", labelName(labelForEnd, scope.end))
	cg.blank()
	return cg.err
}

// ForEnd advances the innermost for loop's variable and jumps back to its
// test.
func (cg *CodeGen) ForEnd() error {
	if err := cg.check(); err != nil {
		return err
	}
	scope, err := cg.fors.pop()
	if err != nil {
		return cg.fail(err)
	}
	logger.Debug("Closed for", "start", scope.start, "end", scope.end, "depth", cg.fors.depth())

	cg.line("LOAD %s %d", R1, scope.addr)
	if cg.fixedStep || scope.step == nil {
		cg.line("SET %s %d", R2, Scale)
	} else if err := cg.operand(scope.step, R2); err != nil {
		return err
	}
	cg.line("ADD %s %s", R1, R2)
	cg.line("STORE %s %d", R1, scope.addr)
	cg.line("GOTO %s", labelName(labelForTest, scope.start))
	cg.line("%s:", labelName(labelForEnd, scope.end))
	cg.blank()
	return cg.err
}

func forHeader(f *ForStmt) string {
	s := fmt.Sprintf("for %s = %s to %s", f.Var, operandString(f.Start), operandString(f.End))
	if f.Step != nil {
		s += " step " + f.Step.String()
	}
	return s
}
