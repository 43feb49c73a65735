// Package config gathers the settings shared by the treadmill tools.
// Values come from defaults, then TREADMILLC_* environment variables, then
// command-line flags.
package config

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/xyproto/env/v2"

	"treadmillc/pkg/asm"
	"treadmillc/pkg/compiler"
	"treadmillc/pkg/logger"
)

// Environment variables read by FromEnv.
const (
	EnvBaseAddr  = "TREADMILLC_BASE_ADDR"
	EnvMaxVars   = "TREADMILLC_MAX_VARS"
	EnvMaxDepth  = "TREADMILLC_MAX_DEPTH"
	EnvFixedStep = "TREADMILLC_FIXED_STEP"
	EnvTarget    = "TREADMILLC_TARGET_ISA"
	EnvLogLevel  = "TREADMILLC_LOG_LEVEL"
	EnvLogFormat = "TREADMILLC_LOG_FORMAT"
	EnvVerify    = "TREADMILLC_VERIFY"
	EnvJobs      = "TREADMILLC_JOBS"
	EnvMaxSteps  = "TREADMILLC_MAX_STEPS"
)

// DefaultMaxSteps bounds a VM run started by the tools.
const DefaultMaxSteps = 1_000_000

type Config struct {
	BaseAddr  int
	MaxVars   int // 0 uses every address left above BaseAddr
	MaxDepth  int // 0 means unbounded
	FixedStep bool
	TargetISA string
	LogLevel  string
	LogFormat string
	Verify    bool
	Jobs      int
	MaxSteps  int // 0 means unbounded
}

func Default() Config {
	return Config{
		BaseAddr:  compiler.DefaultBaseAddr,
		MaxVars:   compiler.DefaultMaxVars,
		MaxDepth:  compiler.DefaultMaxDepth,
		TargetISA: asm.ISAVersion,
		LogLevel:  "warn",
		LogFormat: "text",
		Verify:    true,
		Jobs:      runtime.NumCPU(),
		MaxSteps:  DefaultMaxSteps,
	}
}

// FromEnv returns the defaults overlaid with the environment as it is now.
func FromEnv() Config {
	env.Load()
	c := Default()
	c.BaseAddr = env.Int(EnvBaseAddr, c.BaseAddr)
	c.MaxVars = env.Int(EnvMaxVars, c.MaxVars)
	c.MaxDepth = env.Int(EnvMaxDepth, c.MaxDepth)
	c.FixedStep = env.Bool(EnvFixedStep)
	c.TargetISA = env.Str(EnvTarget, c.TargetISA)
	c.LogLevel = env.Str(EnvLogLevel, c.LogLevel)
	c.LogFormat = env.Str(EnvLogFormat, c.LogFormat)
	if env.Has(EnvVerify) {
		c.Verify = env.Bool(EnvVerify)
	}
	c.Jobs = env.Int(EnvJobs, c.Jobs)
	c.MaxSteps = env.Int(EnvMaxSteps, c.MaxSteps)
	return c
}

// Validate checks that the variable window fits the VM memory and that the
// target VM can run the emitted programs.
func (c Config) Validate() error {
	var errs []error
	if c.BaseAddr < 0 || c.BaseAddr >= asm.RAMSize {
		errs = append(errs, fmt.Errorf("base address %d outside VM memory [0, %d)", c.BaseAddr, asm.RAMSize))
	}
	if c.MaxVars < 0 {
		errs = append(errs, fmt.Errorf("max vars %d is negative", c.MaxVars))
	} else if c.BaseAddr+c.MaxVars > asm.RAMSize {
		errs = append(errs, fmt.Errorf("variables %d..%d overflow VM memory of %d words", c.BaseAddr, c.BaseAddr+c.MaxVars-1, asm.RAMSize))
	}
	if c.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("max depth %d is negative", c.MaxDepth))
	}
	if c.Jobs < 1 {
		errs = append(errs, fmt.Errorf("jobs must be at least 1, got %d", c.Jobs))
	}
	if c.MaxSteps < 0 {
		errs = append(errs, fmt.Errorf("max steps %d is negative", c.MaxSteps))
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log format %q is not text or json", c.LogFormat))
	}
	if err := asm.CheckTarget(c.TargetISA); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Options converts the configuration into compiler options.
func (c Config) Options() compiler.Options {
	maxVars := c.MaxVars
	if maxVars == 0 {
		maxVars = asm.RAMSize - c.BaseAddr
	}
	return compiler.Options{
		BaseAddr:  c.BaseAddr,
		MaxVars:   maxVars,
		MaxDepth:  c.MaxDepth,
		FixedStep: c.FixedStep,
	}
}

// Logger returns the logger configuration. Validate must have passed.
func (c Config) Logger() logger.Config {
	lc := logger.DefaultConfig()
	lc.Level, _ = logger.ParseLevel(c.LogLevel)
	lc.Format = c.LogFormat
	return lc
}
