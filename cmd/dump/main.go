package main

import (
	"fmt"
	"os"

	"treadmillc/pkg/asm"
	"treadmillc/pkg/compiler"
	"treadmillc/pkg/config"
	"treadmillc/pkg/logger"
)

const testSource = `declare x = 10
for i = 0 to 5
  x = x + 1.5
end
velocidade = x
`

func main() {
	src := testSource
	if len(os.Args) > 1 {
		data, err := os.ReadFile(os.Args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "read error:", err)
			os.Exit(1)
		}
		src = string(data)
	}

	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	if cfg.LogLevel == "debug" {
		logger.InitDev()
	} else if err := logger.Init(cfg.Logger()); err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}

	fmt.Printf("Source:\n%s\n", src)

	// Parse
	stmts, err := compiler.ParseScript(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "parse error:", err)
		os.Exit(1)
	}

	fmt.Println("Statements")
	printStmts(stmts, "  ")
	fmt.Println()

	// code Generation
	code, syms, err := compiler.Generate(stmts, cfg.Options())
	if err != nil {
		fmt.Fprintln(os.Stderr, "codegen error:", err)
		os.Exit(1)
	}

	fmt.Println("Generated Assembly")
	fmt.Print(code)
	fmt.Println()
	fmt.Print(syms)

	prog, err := asm.Verify(code)
	if err != nil {
		fmt.Fprintln(os.Stderr, "verify error:", err)
		os.Exit(1)
	}
	fmt.Printf("\nVerified: %d instructions, %d labels\n", len(prog.Instrs), len(prog.Labels))
}

func printStmts(stmts []compiler.Stmt, indent string) {
	for _, s := range stmts {
		fmt.Println(indent + s.String())
		switch n := s.(type) {
		case *compiler.IfStmt:
			printStmts(n.Then, indent+"  ")
			if len(n.Else) > 0 {
				fmt.Println(indent + "else")
				printStmts(n.Else, indent+"  ")
			}
		case *compiler.WhileStmt:
			printStmts(n.Body, indent+"  ")
		case *compiler.ForStmt:
			printStmts(n.Body, indent+"  ")
		}
	}
}
