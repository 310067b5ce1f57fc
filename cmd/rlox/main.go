// Command rlox is the Lox interpreter CLI entry point.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/rlox-lang/rlox/pkg/diagnostics"
	"github.com/rlox-lang/rlox/pkg/interpreter"
	"github.com/rlox-lang/rlox/pkg/runtime"
)

const usage = `usage: rlox <command> [options]
commands:
  run <file> [--pretty]    execute a script
  repl                     start an interactive session
  check <file> [--pretty]  parse and resolve without executing
  fmt <file> [--write]     pretty-print a script
  help                     show this message`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl())
	case "check":
		os.Exit(cmdCheck(os.Args[2:]))
	case "fmt":
		os.Exit(cmdFmt(os.Args[2:]))
	case "help", "--help", "-h":
		fmt.Println(usage)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		os.Exit(1)
	}
}

func cmdRun(args []string) int {
	var file string
	pretty := false

	for _, arg := range args {
		switch arg {
		case "--pretty":
			pretty = true
		default:
			if !strings.HasPrefix(arg, "-") {
				file = arg
			}
		}
	}

	if file == "" {
		fmt.Fprintln(os.Stderr, "usage: rlox run <file> [--pretty]")
		return 1
	}

	source, filename, exitCode := readSource(file, pretty)
	if exitCode != 0 {
		return exitCode
	}

	rt := runtime.New()
	return reportError(rt.Run(source, filename), pretty)
}

func cmdRepl() int {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	historyPath := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyPath = filepath.Join(home, ".rlox_history")
		if f, err := os.Open(historyPath); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}

	rt := runtime.New(runtime.WithInteractive())

	for {
		input, err := line.Prompt("> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				continue
			}
			// EOF or a dead terminal ends the session
			break
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		line.AppendHistory(input)

		// Errors are reported but never end the session; the global
		// environment survives them.
		reportError(rt.Run(input, "<repl>"), true)
	}

	if historyPath != "" {
		if f, err := os.Create(historyPath); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}
	return 0
}

func cmdCheck(args []string) int {
	var file string
	pretty := false

	for _, arg := range args {
		switch arg {
		case "--pretty":
			pretty = true
		default:
			if !strings.HasPrefix(arg, "-") {
				file = arg
			}
		}
	}

	if file == "" {
		fmt.Fprintln(os.Stderr, "usage: rlox check <file> [--pretty]")
		return 1
	}

	source, filename, exitCode := readSource(file, pretty)
	if exitCode != 0 {
		return exitCode
	}

	rt := runtime.New()
	diags := rt.Check(source, filename)
	if len(diags) > 0 {
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics(diags, pretty))
		return 2
	}

	if pretty {
		fmt.Println("No errors found.")
	} else {
		fmt.Println("[]")
	}
	return 0
}

func cmdFmt(args []string) int {
	var file string
	write := false

	for _, arg := range args {
		switch arg {
		case "--write":
			write = true
		default:
			if !strings.HasPrefix(arg, "-") {
				file = arg
			}
		}
	}

	if file == "" {
		fmt.Fprintln(os.Stderr, "usage: rlox fmt <file> [--write]")
		return 1
	}

	source, filename, exitCode := readSource(file, false)
	if exitCode != 0 {
		return exitCode
	}

	rt := runtime.New()
	formatted, err := rt.Format(source, filename)
	if err != nil {
		var diagErr *runtime.DiagnosticError
		if errors.As(err, &diagErr) {
			fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics(diagErr.Diagnostics, false))
			return 2
		}
		fmt.Fprintln(os.Stderr, err.Error())
		return 2
	}

	if write {
		if err := os.WriteFile(file, []byte(formatted), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "error writing file: %s\n", err)
			return 1
		}
		return 0
	}
	fmt.Print(formatted)
	return 0
}

// reportError prints an execution error and maps it to an exit code:
// 2 for diagnostics, 4 for runtime errors.
func reportError(err error, pretty bool) int {
	if err == nil {
		return 0
	}
	var diagErr *runtime.DiagnosticError
	if errors.As(err, &diagErr) {
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics(diagErr.Diagnostics, pretty))
		return 2
	}
	var rtErr *interpreter.RuntimeError
	if errors.As(err, &rtErr) {
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{rtErr.Diagnostic()}, pretty))
		return 4
	}
	fmt.Fprintln(os.Stderr, err.Error())
	return 4
}

func readSource(file string, pretty bool) (string, string, int) {
	if file == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading stdin: %s\n", err)
			return "", "", 1
		}
		return string(data), "<stdin>", 0
	}

	source, err := os.ReadFile(file)
	if err != nil {
		diag := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", file), nil, "")
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{diag}, pretty))
		return "", "", 1
	}
	return string(source), file, 0
}
