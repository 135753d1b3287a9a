package commands

import (
	"bytes"
	"errors"
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(out *bytes.Buffer) (*Registry, *[]string, *bool) {
	r := NewRegistry("smodel", out)
	var got []string
	verbose := new(bool)
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	fs.BoolVar(verbose, "v", false, "verbose")
	r.Register("dump", "print a workspace", fs, func(args []string) error {
		got = args
		return nil
	})
	r.Register("fail", "always fails", flag.NewFlagSet("fail", flag.ContinueOnError), func([]string) error {
		return &ExitError{Code: 1, Message: "boom"}
	})
	return r, &got, verbose
}

func TestExecute_RunsWithPositionalArgs(t *testing.T) {
	var out bytes.Buffer
	r, got, verbose := newTestRegistry(&out)

	err := r.Execute([]string{"dump", "-v", "main.smdl", "extra"})

	require.NoError(t, err)
	assert.True(t, *verbose)
	assert.Equal(t, []string{"main.smdl", "extra"}, *got)
}

func TestExecute_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing", nil, "missing command"},
		{"unknown", []string{"frobnicate"}, "unknown command: frobnicate"},
		{"bad flag", []string{"dump", "-nope"}, "dump: flag provided but not defined: -nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			r, _, _ := newTestRegistry(&out)

			err := r.Execute(tt.args)

			var exit *ExitError
			require.True(t, errors.As(err, &exit))
			assert.Equal(t, 2, exit.Code)
			assert.Equal(t, tt.want, exit.Message)
		})
	}
}

func TestExecute_Help(t *testing.T) {
	var out bytes.Buffer
	r, _, _ := newTestRegistry(&out)

	require.NoError(t, r.Execute([]string{"help"}))

	assert.Contains(t, out.String(), "Usage: smodel <command>")
	assert.Contains(t, out.String(), "dump")
	assert.Contains(t, out.String(), "print a workspace")

	out.Reset()
	require.NoError(t, r.Execute([]string{"dump", "-h"}))
	assert.Contains(t, out.String(), "-v")
}

func TestExecute_PassesRunError(t *testing.T) {
	var out bytes.Buffer
	r, _, _ := newTestRegistry(&out)

	err := r.Execute([]string{"fail"})

	var exit *ExitError
	require.True(t, errors.As(err, &exit))
	assert.Equal(t, 1, exit.Code)
}

func TestNames(t *testing.T) {
	var out bytes.Buffer
	r, _, _ := newTestRegistry(&out)

	assert.Equal(t, []string{"dump", "fail"}, r.Names())
}

func TestExecute_FlagsAfterPositionalArgs(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantArgs    []string
		wantVerbose bool
	}{
		{"trailing flag", []string{"dump", "main.smdl", "out.a", "-v"}, []string{"main.smdl", "out.a"}, true},
		{"flag between", []string{"dump", "main.smdl", "-v", "out.a"}, []string{"main.smdl", "out.a"}, true},
		{"terminator", []string{"dump", "main.smdl", "--", "-v"}, []string{"main.smdl", "-v"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			r, got, verbose := newTestRegistry(&out)

			require.NoError(t, r.Execute(tt.args))

			assert.Equal(t, tt.wantArgs, *got)
			assert.Equal(t, tt.wantVerbose, *verbose)
		})
	}
}
