// Package repl implements the interactive type explorer: each submitted
// program is checked from scratch and the inferred types (or diagnostics)
// are printed.
package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	"github.com/JohnathanFL/ante/internal/pipeline"
)

// Color functions for pretty output.
var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
)

// REPL is the read-check-print loop.
type REPL struct {
	version string
	lines   []string
	out     io.Writer
}

// New creates a REPL.
func New(version string) *REPL {
	if version == "" {
		version = "dev"
	}
	return &REPL{version: version, out: os.Stdout}
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".ante_history")
}

// Run reads lines until EOF or :quit. Every submitted line is added to the
// session's program and the whole program is re-checked, so definitions
// persist across inputs.
func (r *REPL) Run() {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	if path := historyPath(); path != "" {
		if f, err := os.Open(path); err == nil {
			_, _ = line.ReadHistory(f)
			f.Close()
		}
		defer func() {
			if f, err := os.Create(path); err == nil {
				_, _ = line.WriteHistory(f)
				f.Close()
			}
		}()
	}

	fmt.Fprintf(r.out, "%s %s — type :help for help\n", bold("ante"), dim(r.version))

	for {
		input, err := line.Prompt(cyan("ante> "))
		if err != nil {
			fmt.Fprintln(r.out)
			return
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if strings.HasPrefix(input, ":") {
			if r.command(input) {
				return
			}
			continue
		}

		r.lines = append(r.lines, input)
		output := r.Eval(input)
		fmt.Fprint(r.out, output)
	}
}

// command handles a colon command, returning true to exit.
func (r *REPL) command(input string) bool {
	switch input {
	case ":quit", ":q":
		return true
	case ":reset":
		r.lines = nil
		fmt.Fprintln(r.out, dim("session cleared"))
	case ":help", ":h":
		fmt.Fprintln(r.out, "  :help   show this help")
		fmt.Fprintln(r.out, "  :reset  clear the session's definitions")
		fmt.Fprintln(r.out, "  :quit   exit")
	default:
		fmt.Fprintf(r.out, "%s unknown command %s\n", red("error:"), input)
	}
	return false
}

// Eval checks the session program (already including the latest input) and
// renders the result. On errors the offending line is removed from the
// session so it does not poison later inputs.
func (r *REPL) Eval(latest string) string {
	source := strings.Join(r.lines, "\n")
	result := pipeline.Check(source, "<repl>")

	var out strings.Builder
	if result.HasErrors() {
		for _, diagnostic := range result.Diagnostics() {
			fmt.Fprintf(&out, "%s %s\n", red("error:"), diagnostic)
		}
		r.lines = r.lines[:len(r.lines)-1]
		return out.String()
	}

	if name, ok := definedName(latest); ok {
		for _, definition := range result.DefinitionTypes() {
			if definition.Name == name {
				fmt.Fprintf(&out, "%s : %s\n", bold(name), green(definition.Typ))
			}
		}
		return out.String()
	}

	fmt.Fprintf(&out, "%s\n", green(result.ProgramType()))
	return out.String()
}

// definedName extracts the name a `let` line defines, if any.
func definedName(line string) (string, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != "let" {
		return "", false
	}
	name := fields[1]
	if name == "mut" {
		if len(fields) < 3 {
			return "", false
		}
		name = fields[2]
	}
	return strings.TrimLeft(name, "("), true
}
