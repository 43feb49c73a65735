package asm

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// ISAVersion is the VM instruction set the verifier and the compiler target.
const ISAVersion = "1.0.0"

// compatible lists the VM releases that accept ISAVersion programs.
var compatible = mustConstraint("~1")

func mustConstraint(c string) *semver.Constraints {
	cc, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return cc
}

// CheckTarget reports whether a VM at version target can run the emitted
// programs.
func CheckTarget(target string) error {
	v, err := semver.NewVersion(target)
	if err != nil {
		return fmt.Errorf("target ISA %q: %w", target, err)
	}
	if ok, reasons := compatible.Validate(v); !ok {
		return fmt.Errorf("target ISA %s cannot run ISA %s programs: %v", v, ISAVersion, reasons)
	}
	return nil
}
