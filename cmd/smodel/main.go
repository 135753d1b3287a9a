// Command smodel inspects, converts and views SimpleModel files.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"model-engine/internal/commands"
)

func main() {
	if err := run(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		code := 1
		var exit *commands.ExitError
		if errors.As(err, &exit) {
			code = exit.Code
		}
		fmt.Fprintf(os.Stderr, "smodel: %v\n", err)
		os.Exit(code)
	}
}

// run registers every subcommand and executes the one named in args.
func run(out, errOut io.Writer, args []string) error {
	reg := commands.NewRegistry("smodel", out)
	for _, c := range subcommands() {
		a := &app{out: out, errOut: errOut}
		flags := a.flagSet(c.name)
		exec := c.register(a, flags)
		reg.Register(c.name, c.summary, flags, func(args []string) error {
			defer a.close()
			return exec(args)
		})
	}
	return reg.Execute(args)
}
