package commands

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
)

// Command is a subcommand with its own flags and a Run function.
// Flags are defined on FlagSet; Run is called after Parse with the positional arguments.
type Command struct {
	Name    string
	Summary string
	FlagSet *flag.FlagSet
	Run     func(args []string) error
}

// ExitError carries a process exit code. Code 2 is a usage error.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// Usage returns an ExitError with code 2.
func Usage(format string, args ...any) *ExitError {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// Registry holds subcommands by name. Add commands with Register; run with Execute.
type Registry struct {
	program string
	out     io.Writer
	cmds    map[string]*Command
}

// NewRegistry returns an empty command registry. Help text is written to out.
func NewRegistry(program string, out io.Writer) *Registry {
	return &Registry{program: program, out: out, cmds: make(map[string]*Command)}
}

// Register adds a subcommand. fs is that command's FlagSet; run is called after
// fs.Parse(args[1:]) succeeds. fs output is redirected to the registry's writer.
func (r *Registry) Register(name, summary string, fs *flag.FlagSet, run func(args []string) error) {
	fs.SetOutput(r.out)
	r.cmds[name] = &Command{Name: name, Summary: summary, FlagSet: fs, Run: run}
}

// Names returns the registered command names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.cmds))
	for name := range r.cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PrintUsage writes the command list.
func (r *Registry) PrintUsage() {
	fmt.Fprintf(r.out, "Usage: %s <command> [flags] [args]\n\nCommands:\n", r.program)
	for _, name := range r.Names() {
		fmt.Fprintf(r.out, "  %-12s %s\n", name, r.cmds[name].Summary)
	}
	fmt.Fprintf(r.out, "\nRun '%s <command> -h' for command flags.\n", r.program)
}

// Execute runs the subcommand in args[0] with args[1:] as flag/positional arguments. Flags
// may follow positional arguments.
// Missing or unknown commands and flag errors are returned as usage ExitErrors; -h and
// "help" print usage and return nil.
func (r *Registry) Execute(args []string) error {
	if len(args) == 0 {
		r.PrintUsage()
		return Usage("missing command")
	}
	name := args[0]
	if name == "help" || name == "-h" || name == "--help" {
		r.PrintUsage()
		return nil
	}
	cmd, ok := r.cmds[name]
	if !ok {
		r.PrintUsage()
		return Usage("unknown command: %s", name)
	}
	positional, err := parseInterspersed(cmd.FlagSet, args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return Usage("%s: %v", name, err)
	}
	return cmd.Run(positional)
}

// parseInterspersed parses flags that appear before, between or after positional arguments.
// Everything after a "--" terminator is positional.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if consumed := len(args) - len(rest); consumed > 0 && args[consumed-1] == "--" {
			return append(positional, rest...), nil
		}
		if len(rest) == 0 {
			return positional, nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}
