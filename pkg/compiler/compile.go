package compiler

import (
	"fmt"

	"treadmillc/pkg/asm"
	"treadmillc/pkg/logger"
)

// Compile lowers a statement script and checks the result against the
// treadmill VM instruction set.
func Compile(src string, opts Options) (*string, *asm.Program, error) {
	logger.LogPhase("parse")
	stmts, err := ParseScript(src)
	if err != nil {
		logger.Debug("parse error", "error", err)
		return nil, nil, err
	}
	logger.LogParsing(len(stmts))
	logger.LogPhaseComplete("parse")

	logger.LogPhase("codegen")
	assembly, syms, err := Generate(stmts, opts)
	if err != nil {
		logger.Debug("codegen error", "error", err)
		return nil, nil, err
	}
	logger.LogCodeGen(len(stmts), syms.Len())
	logger.LogPhaseComplete("codegen")

	logger.LogPhase("verify")
	prog, err := asm.Verify(assembly)
	if err != nil {
		return &assembly, nil, fmt.Errorf("verify error: %w", err)
	}
	logger.LogPhaseComplete("verify")

	return &assembly, prog, nil
}
