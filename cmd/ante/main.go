package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/JohnathanFL/ante/internal/lexer"
	"github.com/JohnathanFL/ante/internal/pipeline"
	"github.com/JohnathanFL/ante/internal/repl"
)

// Version info, set by ldflags during build.
var (
	Version = "dev"
	Commit  = "unknown"
)

var (
	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
	bold  = color.New(color.Bold).SprintFunc()
)

func main() {
	versionFlag := flag.Bool("version", false, "Print version information")
	helpFlag := flag.Bool("help", false, "Show help")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("ante %s (%s)\n", Version, Commit)
		return
	}
	if *helpFlag || flag.NArg() == 0 {
		printHelp()
		return
	}

	switch command := flag.Arg(0); command {
	case "check":
		if flag.NArg() < 2 {
			fmt.Fprintf(os.Stderr, "%s: missing file argument\n", red("Error"))
			fmt.Println("Usage: ante check <file.an>")
			os.Exit(1)
		}
		os.Exit(checkFile(flag.Arg(1)))

	case "repl":
		repl.New(Version).Run()

	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", red("Error"), command)
		printHelp()
		os.Exit(1)
	}
}

func checkFile(path string) int {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		return 1
	}

	result := pipeline.Check(string(lexer.Normalize(src)), path)

	if result.HasErrors() {
		for _, diagnostic := range result.Diagnostics() {
			fmt.Fprintf(os.Stderr, "%s %s\n", red("error:"), diagnostic)
		}
		return 1
	}

	for _, definition := range result.DefinitionTypes() {
		fmt.Printf("%s : %s\n", bold(definition.Name), green(definition.Typ))
	}
	fmt.Printf("%s : %s\n", bold("(program)"), green(result.ProgramType()))
	return 0
}

func printHelp() {
	fmt.Printf("%s — type checker for the ante language\n\n", bold("ante"))
	fmt.Println("Usage:")
	fmt.Println("  ante check <file.an>   Type check a file and print inferred types")
	fmt.Println("  ante repl              Start the interactive type explorer")
	fmt.Println("  ante -version          Print version information")
}
