package compiler

import (
	"fmt"
	"strings"
)

// Generate lowers a statement tree into a complete program and returns the
// assembly text together with the variable bindings it made.
func Generate(stmts []Stmt, opts Options) (string, *SymbolTable, error) {
	var sb strings.Builder
	cg := New(&sb, opts)
	if err := cg.genStmts(stmts); err != nil {
		_ = cg.Close()
		return "", cg.Symbols(), err
	}
	if err := cg.Close(); err != nil {
		return "", cg.Symbols(), err
	}
	return sb.String(), cg.Symbols(), nil
}

// Emit lowers stmts onto an open generator, leaving it open.
func (cg *CodeGen) Emit(stmts ...Stmt) error {
	if err := cg.check(); err != nil {
		return err
	}
	return cg.genStmts(stmts)
}

// Begin opens the construct s heads. s must be an *IfStmt, *WhileStmt or
// *ForStmt; its body is ignored and is expected to follow through Emit.
func (cg *CodeGen) Begin(s Stmt) error {
	if err := cg.check(); err != nil {
		return err
	}
	switch n := s.(type) {
	case *IfStmt:
		return cg.ifStart(n.Cond)
	case *WhileStmt:
		return cg.whileStart(n.Cond)
	case *ForStmt:
		return cg.forStart(n)
	}
	return cg.fail(fmt.Errorf("codegen: %T does not open a block", s))
}

// End closes the construct opened by Begin(s).
func (cg *CodeGen) End(s Stmt) error {
	switch s.(type) {
	case *IfStmt:
		return cg.IfEnd()
	case *WhileStmt:
		return cg.WhileEnd()
	case *ForStmt:
		return cg.ForEnd()
	}
	if err := cg.check(); err != nil {
		return err
	}
	return cg.fail(fmt.Errorf("codegen: %T does not close a block", s))
}

func (cg *CodeGen) genStmts(stmts []Stmt) error {
	for _, s := range stmts {
		if err := cg.genStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (cg *CodeGen) genStmt(s Stmt) error {
	switch n := s.(type) {
	case *CommentStmt:
		cg.comment("%s", n.Text)
		return cg.err

	case *DeclareStmt:
		return cg.declare(n)

	case *SetChannelStmt:
		return cg.setChannel(n)

	case *AssignStmt:
		return cg.assign(n)

	case *DebugStmt:
		return cg.DebugVars()

	case *IfStmt:
		if err := cg.ifStart(n.Cond); err != nil {
			return err
		}
		if err := cg.genStmts(n.Then); err != nil {
			return err
		}
		if len(n.Else) > 0 {
			if err := cg.Else(); err != nil {
				return err
			}
			if err := cg.genStmts(n.Else); err != nil {
				return err
			}
		}
		return cg.IfEnd()

	case *WhileStmt:
		if err := cg.whileStart(n.Cond); err != nil {
			return err
		}
		if err := cg.genStmts(n.Body); err != nil {
			return err
		}
		return cg.WhileEnd()

	case *ForStmt:
		if err := cg.forStart(n); err != nil {
			return err
		}
		if err := cg.genStmts(n.Body); err != nil {
			return err
		}
		return cg.ForEnd()
	}
	return cg.fail(fmt.Errorf("codegen: unknown statement %T", s))
}
