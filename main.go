package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"treadmillc/pkg/asm"
	"treadmillc/pkg/compiler"
	"treadmillc/pkg/config"
	"treadmillc/pkg/logger"
	"treadmillc/pkg/sink"
	"treadmillc/pkg/utils"
	"treadmillc/pkg/vm"
)

func main() {
	cfg := config.FromEnv()

	outPath := flag.String("out", "", "output assembly path (default: input with .asm extension; single input only)")
	printAsm := flag.Bool("print", false, "print the generated assembly instead of writing files")
	watch := flag.Bool("watch", false, "rebuild inputs whenever they change")
	runProg := flag.Bool("run", false, "run each program on the treadmill VM after building it")
	flag.BoolVar(&cfg.Verify, "verify", cfg.Verify, "check generated assembly against the VM instruction set")
	flag.BoolVar(&cfg.FixedStep, "fixed-step", cfg.FixedStep, "ignore for-loop steps and always count by one")
	flag.IntVar(&cfg.BaseAddr, "base-addr", cfg.BaseAddr, "address of the first variable")
	flag.IntVar(&cfg.MaxVars, "max-vars", cfg.MaxVars, "maximum number of variables (0: fill VM memory)")
	flag.IntVar(&cfg.MaxDepth, "max-depth", cfg.MaxDepth, "maximum nesting per construct kind (0: unbounded)")
	flag.StringVar(&cfg.TargetISA, "target-isa", cfg.TargetISA, "version of the VM that will run the output")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	flag.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "text or json")
	flag.IntVar(&cfg.Jobs, "jobs", cfg.Jobs, "number of inputs compiled in parallel")
	flag.IntVar(&cfg.MaxSteps, "max-steps", cfg.MaxSteps, "instruction budget for -run (0: unbounded)")
	flag.Usage = usage
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(2)
	}
	if err := logger.Init(cfg.Logger()); err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(2)
	}

	inputs := flag.Args()
	if len(inputs) == 0 {
		fmt.Fprintln(os.Stderr, "nothing to do: provide one or more .lmd scripts or .asm files")
		flag.Usage()
		os.Exit(2)
	}
	if *outPath != "" && len(inputs) > 1 {
		fmt.Fprintln(os.Stderr, "-out needs exactly one input")
		os.Exit(2)
	}

	b := &builder{cfg: cfg, out: *outPath, print: *printAsm, run: *runProg}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := b.buildAll(ctx, inputs)
	if err != nil && !*watch {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	if *watch {
		if err := b.watch(ctx, inputs); err != nil {
			fmt.Fprintln(os.Stderr, "watch:", err)
			os.Exit(1)
		}
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `treadmillc compiles treadmill statement scripts into VM assembly.

Usage:
    treadmillc [flags] <file.lmd|file.asm>...

Scripts (.lmd) are compiled to .asm; assembly files (.asm) are verified.

Flags:
`)
	flag.PrintDefaults()
}

type builder struct {
	cfg   config.Config
	out   string
	print bool
	run   bool
	mu    sync.Mutex // serializes VM runs so their STATUS output does not interleave
}

// buildAll compiles every input, cfg.Jobs at a time. Each input gets its own
// compilation context.
func (b *builder) buildAll(ctx context.Context, inputs []string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Jobs)

	errs := make([]error, len(inputs))
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			errs[i] = b.build(in)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return errors.Join(errs...)
}

func (b *builder) build(in string) error {
	log := logger.With("build", ulid.Make().String(), "file", in)
	start := time.Now()

	source, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("failed to read input file %q: %w", in, err)
	}

	if utils.IsAssembly(in) {
		prog, err := asm.Verify(string(source))
		if err != nil {
			return fmt.Errorf("%s: %w", in, err)
		}
		fmt.Printf("verified %s: %d instructions, %d labels\n", in, len(prog.Instrs), len(prog.Labels))
		return b.execute(in, prog)
	}

	if b.print {
		assembly, prog, err := compiler.Compile(string(source), b.cfg.Options())
		if err != nil {
			return fmt.Errorf("%s: %w", in, err)
		}
		fmt.Print(*assembly)
		return b.execute(in, prog)
	}

	stmts, err := compiler.ParseScript(string(source))
	if err != nil {
		var se *compiler.ScriptError
		if errors.As(err, &se) {
			logger.LogError("parse", in, se.Line, se.Err.Error())
		}
		return fmt.Errorf("%s: %w", in, err)
	}

	output := b.out
	if output == "" {
		output = utils.DefaultOutputPath(in)
	}
	if err := b.emit(output, stmts); err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}

	log.Info("compiled", "out", output, "elapsed", time.Since(start))
	fmt.Printf("compiled %s -> %s\n", in, output)

	if !b.run {
		return nil
	}
	code, err := os.ReadFile(output)
	if err != nil {
		return err
	}
	prog, err := asm.Verify(string(code))
	if err != nil {
		return fmt.Errorf("%s: %w", output, err)
	}
	return b.execute(in, prog)
}

// execute runs prog on a fresh VM when -run is set.
func (b *builder) execute(in string, prog *asm.Program) error {
	if !b.run {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	machine := vm.New()
	machine.Load(prog)
	fmt.Printf("running %s\n", in)
	if err := machine.Run(b.cfg.MaxSteps); err != nil {
		logger.Error("run failed", "file", in, "pc", machine.PC, "steps", machine.Steps, "error", err)
		return fmt.Errorf("%s: %w", in, err)
	}
	logger.Info("run finished", "file", in, "steps", machine.Steps, "elapsed", machine.Elapsed)
	return nil
}

// emit streams the program into output. A failed or unverifiable program
// leaves no output file behind.
func (b *builder) emit(output string, stmts []compiler.Stmt) error {
	out, err := sink.Create(output)
	if err != nil {
		return err
	}

	cg := compiler.NewOwned(out, b.cfg.Options())
	err = cg.Emit(stmts...)
	if cerr := cg.Close(); err == nil {
		err = cerr
	}
	if err == nil && b.cfg.Verify {
		err = verifyFile(output)
	}
	if err != nil {
		if derr := out.Discard(); derr != nil && !errors.Is(derr, os.ErrNotExist) {
			logger.Warn("could not remove failed output", "out", output, "error", derr)
		}
		return err
	}
	return nil
}

func verifyFile(path string) error {
	code, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if _, err := asm.Verify(string(code)); err != nil {
		return fmt.Errorf("verify error: %w", err)
	}
	return nil
}

// watch rebuilds an input each time its file is written. Directories are
// watched rather than files so editors that replace files on save are seen.
func (b *builder) watch(ctx context.Context, inputs []string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	targets := make(map[string]string) // absolute path -> path as given
	dirs := make(map[string]bool)
	for _, in := range inputs {
		full, dir, err := utils.GetPathInfo(in)
		if err != nil {
			return err
		}
		targets[full] = in
		if !dirs[dir] {
			if err := w.Add(dir); err != nil {
				return err
			}
			dirs[dir] = true
		}
	}
	logger.Info("watching", "inputs", len(inputs), "dirs", len(dirs))

	const settle = 100 * time.Millisecond
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(settle)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			full, err := filepath.Abs(ev.Name)
			if err != nil {
				continue
			}
			if in, ok := targets[full]; ok {
				pending[in] = time.Now()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)

		case now := <-ticker.C:
			for in, seen := range pending {
				if now.Sub(seen) < settle {
					continue
				}
				delete(pending, in)
				if err := b.build(in); err != nil {
					fmt.Fprintln(os.Stderr, err)
				}
			}
		}
	}
}
