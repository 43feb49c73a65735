// Package asm checks treadmill VM assembly: every line must use a known
// instruction with the right operands and every jump must reach exactly one
// label.
package asm

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// RAMSize is the number of words of VM memory addressable by LOAD and STORE.
const RAMSize = 256

type operandKind int

const (
	kindRegister  operandKind = iota // register name
	kindValue                        // register name or integer immediate
	kindAddress                      // register name or immediate in [0, RAMSize)
	kindLabel                        // jump target
	kindSensor                       // sensor name
)

// instructionSet mirrors the VM's validation table.
var instructionSet = map[string][]operandKind{
	"INICIAR": nil,
	"PARAR":   nil,
	"STATUS":  nil,
	"HALT":    nil,
	"RET":     nil,

	"INC":  {kindRegister},
	"DEC":  {kindRegister},
	"NOT":  {kindRegister},
	"PUSH": {kindValue},
	"POP":  {kindRegister},

	"SET": {kindRegister, kindValue},
	"ADD": {kindRegister, kindValue},
	"SUB": {kindRegister, kindValue},
	"MUL": {kindRegister, kindValue},
	"DIV": {kindRegister, kindValue},
	"AND": {kindRegister, kindValue},
	"OR":  {kindRegister, kindValue},
	"XOR": {kindRegister, kindValue},
	"CMP": {kindValue, kindValue},

	"LOAD":  {kindRegister, kindAddress},
	"STORE": {kindValue, kindAddress},

	"READSENSOR": {kindRegister, kindSensor},

	"GOTO":  {kindLabel},
	"CALL":  {kindLabel},
	"JZ":    {kindLabel},
	"JNZ":   {kindLabel},
	"JL":    {kindLabel},
	"JG":    {kindLabel},
	"DECJZ": {kindRegister, kindLabel},
}

var registers = map[string]bool{
	"VELOCIDADE": true,
	"TEMPO":      true,
	"INCLINACAO": true,
	"R1":         true,
	"R2":         true,
	"SP":         true,
}

var sensors = map[string]bool{
	"tempo":       true,
	"velocidade":  true,
	"inclinacao":  true,
	"peso":        true,
	"temperatura": true,
	"tensao":      true,
}

// Instr is one verified instruction.
type Instr struct {
	Op   string
	Args []string
	Line int
}

func (in Instr) String() string {
	if len(in.Args) == 0 {
		return in.Op
	}
	return in.Op + " " + strings.Join(in.Args, " ")
}

// Program is a verified instruction stream.
type Program struct {
	Instrs []Instr
	// Labels maps each label to the index of the instruction it marks.
	Labels map[string]int
	// SourceMap maps instruction index to 1-based source line.
	SourceMap map[int]int
	// Jumps counts how many instructions target each label.
	Jumps map[string]int
}

// Verifier resolves labels over two passes.
type Verifier struct {
	labels map[string]int
}

type parsedLine struct {
	lineNo   int
	label    string
	mnemonic string
	operands []string
}

func NewVerifier() *Verifier {
	return &Verifier{
		labels: make(map[string]int),
	}
}

// Verify checks code and returns the parsed program.
func Verify(code string) (*Program, error) {
	return NewVerifier().Verify(code)
}

func (v *Verifier) Verify(code string) (*Program, error) {
	lines := strings.Split(code, "\n")

	if err := v.pass1(lines); err != nil {
		return nil, err
	}

	return v.pass2(lines)
}

func (v *Verifier) pass1(lines []string) error {
	index := 0

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return err
		}

		if p.label != "" {
			if _, exists := v.labels[p.label]; exists {
				return fmt.Errorf("duplicate label '%s' on line %d", p.label, lineNo)
			}
			v.labels[p.label] = index
			continue
		}

		if p.mnemonic == "" {
			continue
		}
		if _, ok := instructionSet[p.mnemonic]; !ok {
			return fmt.Errorf("unknown instruction on line %d: %s", lineNo, p.mnemonic)
		}
		index++
	}

	return nil
}

func (v *Verifier) pass2(lines []string) (*Program, error) {
	prog := &Program{
		Labels:    make(map[string]int, len(v.labels)),
		SourceMap: make(map[int]int),
		Jumps:     make(map[string]int),
	}
	for l, idx := range v.labels {
		prog.Labels[l] = idx
	}

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return nil, err
		}

		if p.mnemonic == "" {
			continue
		}

		kinds := instructionSet[p.mnemonic]
		if len(p.operands) != len(kinds) {
			return nil, fmt.Errorf("%s expects %d operands on line %d", p.mnemonic, len(kinds), lineNo)
		}

		for j, kind := range kinds {
			if err := v.checkOperand(kind, p.operands[j], lineNo); err != nil {
				return nil, err
			}
			if kind == kindLabel {
				prog.Jumps[p.operands[j]]++
			}
		}

		prog.SourceMap[len(prog.Instrs)] = lineNo
		prog.Instrs = append(prog.Instrs, Instr{Op: p.mnemonic, Args: p.operands, Line: lineNo})
	}

	return prog, nil
}

func (v *Verifier) checkOperand(kind operandKind, token string, lineNo int) error {
	switch kind {
	case kindRegister:
		if !registers[token] {
			return fmt.Errorf("invalid register '%s' on line %d", token, lineNo)
		}

	case kindValue:
		if registers[token] {
			return nil
		}
		if _, err := parseImmediate(token); err != nil {
			return fmt.Errorf("invalid operand '%s' on line %d", token, lineNo)
		}

	case kindAddress:
		if registers[token] {
			return nil
		}
		addr, err := parseImmediate(token)
		if err != nil {
			return fmt.Errorf("invalid address '%s' on line %d", token, lineNo)
		}
		if addr < 0 || addr >= RAMSize {
			return fmt.Errorf("address out of range on line %d: %s", lineNo, token)
		}

	case kindLabel:
		if _, ok := v.labels[token]; ok {
			return nil
		}
		if isIdentifier(token) {
			return fmt.Errorf("undefined label '%s' on line %d", token, lineNo)
		}
		return fmt.Errorf("invalid label '%s' on line %d", token, lineNo)

	case kindSensor:
		if !sensors[strings.ToLower(token)] {
			return fmt.Errorf("unknown sensor '%s' on line %d", token, lineNo)
		}
	}
	return nil
}

func parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{lineNo: lineNo}

	line := strings.TrimSpace(stripComments(raw))
	if line == "" {
		return p, nil
	}

	if strings.HasSuffix(line, ":") {
		label := strings.TrimSpace(strings.TrimSuffix(line, ":"))
		if !isIdentifier(label) {
			return p, fmt.Errorf("invalid label '%s' on line %d", label, lineNo)
		}
		p.label = label
		return p, nil
	}

	fields := strings.Fields(strings.ReplaceAll(line, ",", " "))
	p.mnemonic = strings.ToUpper(fields[0])
	if len(fields) > 1 {
		p.operands = fields[1:]
	}
	return p, nil
}

func stripComments(line string) string {
	if cut := strings.IndexByte(line, ';'); cut >= 0 {
		return line[:cut]
	}
	return line
}

func parseImmediate(token string) (int64, error) {
	return strconv.ParseInt(token, 10, 64)
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
			continue
		}

		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}

	return true
}
