package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"treadmillc/pkg/compiler"
	"treadmillc/pkg/config"
	"treadmillc/pkg/logger"
	"treadmillc/pkg/sink"
)

const (
	historyFile = ".treadmillc_history"
	banner      = "treadmill console: one statement per line, :help for commands"
)

// session is one program being typed in. Output is flushed after every
// statement so the assembly appears as the program grows.
type session struct {
	cfg  config.Config
	out  string
	cg   *compiler.CodeGen
	sink *sink.File
	open []compiler.Stmt // blocks opened with Begin, innermost last
}

func main() {
	outPath := flag.String("out", "", "also write the program to this file when the session ends")
	flag.Parse()

	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logger()); err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}

	os.Exit(run(cfg, *outPath))
}

func run(cfg config.Config, outPath string) int {
	fmt.Println(banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(complete)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	s := &session{cfg: cfg, out: outPath}
	if err := s.start(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	code := 0
	for {
		line, err := ln.Prompt(s.prompt())
		if errors.Is(err, io.EOF) {
			fmt.Println()
			break
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			code = 1
			break
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		ln.AppendHistory(trimmed)

		if strings.HasPrefix(trimmed, ":") {
			if done := s.command(trimmed); done {
				break
			}
			continue
		}
		if err := s.feed(trimmed); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
	}

	if err := s.finish(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		code = 1
	}

	if f, err := os.Create(histPath); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
	return code
}

func (s *session) prompt() string {
	if len(s.open) == 0 {
		return "> "
	}
	return strings.Repeat("..", len(s.open)) + " "
}

func (s *session) start() error {
	s.open = nil
	if s.out == "" {
		s.cg = compiler.New(os.Stdout, s.cfg.Options())
		return s.cg.Flush()
	}
	f, err := sink.Create(s.out)
	if err != nil {
		return err
	}
	s.sink = f
	s.cg = compiler.NewOwned(f, s.cfg.Options())
	return s.cg.Flush()
}

// finish closes the program. An incomplete program leaves no output file.
func (s *session) finish() error {
	err := s.cg.Close()
	if err != nil && s.sink != nil {
		_ = s.sink.Discard()
	}
	if err == nil && s.sink != nil {
		fmt.Println("wrote", s.sink.Path())
	}
	s.sink = nil
	return err
}

func (s *session) feed(line string) error {
	kind, st, err := compiler.ParseLine(line)
	if err != nil {
		return err
	}

	switch kind {
	case compiler.LineStmt:
		err = s.cg.Emit(st)
	case compiler.LineOpen:
		if err = s.cg.Begin(st); err == nil {
			s.open = append(s.open, st)
		}
	case compiler.LineElse:
		if n := len(s.open); n == 0 {
			return errors.New("else without if")
		} else if _, ok := s.open[n-1].(*compiler.IfStmt); !ok {
			return errors.New("else without if")
		}
		err = s.cg.Else()
	case compiler.LineEnd:
		n := len(s.open)
		if n == 0 {
			return errors.New("end without open block")
		}
		if err = s.cg.End(s.open[n-1]); err == nil {
			s.open = s.open[:n-1]
		}
	}
	if err != nil {
		if s.cg.Err() != nil {
			return fmt.Errorf("%w (program aborted, :reset to start over)", err)
		}
		return err
	}
	return s.cg.Flush()
}

// command handles :help, :vars, :reset and :quit.
func (s *session) command(line string) (exit bool) {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":quit", ":q":
		return true
	case ":vars":
		fmt.Print(s.cg.Symbols())
	case ":reset":
		_ = s.cg.Discard()
		if s.sink != nil {
			_ = s.sink.Discard()
			s.sink = nil
		}
		if err := s.start(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return true
		}
	case ":help":
		fmt.Println(`statements:
  # comment
  declare x [= operand]
  set velocidade|tempo|inclinacao = operand
  x = operand [+ operand]
  if a < b | if a > b, else, end
  while a < b | while a > b, end
  for i = a to b [step s], end
  debug
commands:
  :vars   show variable addresses
  :reset  discard the program and start a new one
  :quit   finish the program and exit`)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %s (try :help)\n", fields[0])
	}
	return false
}

var keywords = []string{
	"declare ", "set ", "if ", "else", "while ", "for ", "end", "debug",
	"velocidade", "tempo", "inclinacao",
	":help", ":vars", ":reset", ":quit",
}

func complete(line string) []string {
	var out []string
	for _, k := range keywords {
		if strings.HasPrefix(k, line) {
			out = append(out, k)
		}
	}
	return out
}
