package compiler

import (
	"errors"
	"fmt"
	"strings"
)

// A statement script holds one pre-segmented statement per line:
//
//	# free text                 comment copied into the output
//	declare x [= operand]       bind x and store its initial value
//	set <channel> = operand     drive a channel from a single operand
//	<name> = expr               store operand or operand+operand
//	if cond / else / end
//	while cond / end
//	for v = a to b [step s] / end
//	debug                       dump the variable bindings
//
// Blank lines are ignored.

// ScriptError locates a failure in a statement script.
type ScriptError struct {
	Line int
	Err  error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ScriptError) Unwrap() error { return e.Err }

type block struct {
	node   Stmt
	body   *[]Stmt
	lineNo int
}

type scriptParser struct {
	root   []Stmt
	blocks []*block
}

// ParseScript reads a statement script into a statement tree.
func ParseScript(src string) ([]Stmt, error) {
	p := &scriptParser{}
	for i, raw := range strings.Split(src, "\n") {
		if err := p.parseLine(raw, i+1); err != nil {
			return nil, &ScriptError{Line: i + 1, Err: err}
		}
	}
	if n := len(p.blocks); n > 0 {
		open := p.blocks[n-1]
		return nil, &ScriptError{Line: open.lineNo, Err: fmt.Errorf("%s: missing end", keywordOf(open.node))}
	}
	return p.root, nil
}

func (p *scriptParser) current() *[]Stmt {
	if len(p.blocks) == 0 {
		return &p.root
	}
	return p.blocks[len(p.blocks)-1].body
}

func (p *scriptParser) add(s Stmt) {
	body := p.current()
	*body = append(*body, s)
}

func (p *scriptParser) open(s Stmt, body *[]Stmt, lineNo int) {
	p.add(s)
	p.blocks = append(p.blocks, &block{node: s, body: body, lineNo: lineNo})
}

func (p *scriptParser) parseLine(line string, lineNo int) error {
	kind, s, err := ParseLine(line)
	if err != nil {
		return err
	}

	switch kind {
	case LineStmt:
		p.add(s)

	case LineOpen:
		switch n := s.(type) {
		case *IfStmt:
			p.open(n, &n.Then, lineNo)
		case *WhileStmt:
			p.open(n, &n.Body, lineNo)
		case *ForStmt:
			p.open(n, &n.Body, lineNo)
		}

	case LineElse:
		if len(p.blocks) == 0 {
			return errors.New("else without if")
		}
		top := p.blocks[len(p.blocks)-1]
		n, ok := top.node.(*IfStmt)
		if !ok || top.body != &n.Then {
			return errors.New("else without if")
		}
		top.body = &n.Else

	case LineEnd:
		if len(p.blocks) == 0 {
			return errors.New("end without open block")
		}
		p.blocks = p.blocks[:len(p.blocks)-1]
	}
	return nil
}

// LineKind classifies one script line.
type LineKind int

const (
	LineBlank LineKind = iota
	LineStmt           // a complete statement
	LineOpen           // if, while or for header; the body follows
	LineElse
	LineEnd
)

// ParseLine reads a single script line. For LineOpen the statement is an
// *IfStmt, *WhileStmt or *ForStmt with an empty body.
func ParseLine(line string) (LineKind, Stmt, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return LineBlank, nil, nil
	}
	if strings.HasPrefix(line, "#") {
		return LineStmt, &CommentStmt{Text: strings.TrimSpace(line[1:])}, nil
	}

	keyword := strings.Fields(line)[0]
	rest := strings.TrimSpace(line[len(keyword):])

	switch keyword {
	case "declare":
		name, init, _ := strings.Cut(rest, "=")
		name = strings.TrimSpace(name)
		if err := checkVarName(name); err != nil {
			return 0, nil, err
		}
		op, err := ParseOperand(init)
		if err != nil {
			return 0, nil, err
		}
		return LineStmt, &DeclareStmt{Name: name, Init: op}, nil

	case "set":
		name, value, ok := strings.Cut(rest, "=")
		if !ok {
			return 0, nil, errors.New("set needs '<channel> = <operand>'")
		}
		ch, ok := LookupSensor(strings.TrimSpace(name))
		if !ok {
			return 0, nil, fmt.Errorf("unknown channel %q", strings.TrimSpace(name))
		}
		op, err := ParseOperand(value)
		if err != nil {
			return 0, nil, err
		}
		return LineStmt, &SetChannelStmt{Channel: ch, Value: op}, nil

	case "if":
		c, err := ParseCondition(rest)
		if err != nil {
			return 0, nil, err
		}
		return LineOpen, &IfStmt{Cond: c}, nil

	case "else":
		if rest != "" {
			return 0, nil, errors.New("else takes no arguments")
		}
		return LineElse, nil, nil

	case "while":
		c, err := ParseCondition(rest)
		if err != nil {
			return 0, nil, err
		}
		return LineOpen, &WhileStmt{Cond: c}, nil

	case "for":
		n, err := parseForHeader(rest)
		if err != nil {
			return 0, nil, err
		}
		return LineOpen, n, nil

	case "end":
		if rest != "" {
			return 0, nil, errors.New("end takes no arguments")
		}
		return LineEnd, nil, nil

	case "debug":
		return LineStmt, &DebugStmt{}, nil
	}

	name, value, ok := strings.Cut(line, "=")
	if !ok {
		return 0, nil, fmt.Errorf("unknown statement %q", keyword)
	}
	name = strings.TrimSpace(name)
	if !IsReserved(name) {
		if err := checkVarName(name); err != nil {
			return 0, nil, err
		}
	}
	e, err := ParseExpr(value)
	if err != nil {
		return 0, nil, err
	}
	return LineStmt, &AssignStmt{Name: name, Value: e}, nil
}

// parseForHeader reads "v = a to b [step s]".
func parseForHeader(text string) (*ForStmt, error) {
	v, bounds, ok := strings.Cut(text, "=")
	if !ok {
		return nil, errors.New("for needs '<var> = <start> to <end>'")
	}
	fields := strings.Fields(bounds)
	if (len(fields) != 3 && len(fields) != 5) || fields[1] != "to" || (len(fields) == 5 && fields[3] != "step") {
		return nil, errors.New("for needs '<var> = <start> to <end> [step <step>]'")
	}

	n := &ForStmt{Var: strings.TrimSpace(v)}
	if err := checkVarName(n.Var); err != nil {
		return nil, err
	}
	var err error
	if n.Start, err = ParseOperand(fields[0]); err != nil {
		return nil, err
	}
	if n.End, err = ParseOperand(fields[2]); err != nil {
		return nil, err
	}
	if len(fields) == 5 {
		if n.Step, err = ParseOperand(fields[4]); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func keywordOf(s Stmt) string {
	switch s.(type) {
	case *IfStmt:
		return "if"
	case *WhileStmt:
		return "while"
	case *ForStmt:
		return "for"
	}
	return "block"
}
