package main

import (
	"bytes"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type kongExit struct{ code int }

func TestCLIStructParsing(t *testing.T) {
	tests := []struct {
		name string
		args []string
		expectError bool
		errorMsg string
	}{
		{name: "help flag", args: []string{"--help"}},
		{name: "version command", args: []string{"version"}},
		{name: "list command", args: []string{"list"}},
		{name: "run requires engine", args: []string{"run", "hello"}, expectError: true, errorMsg: "engine"},
		{name: "shadow requires patch file and engine", args: []string{"shadow"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cli struct {
				Version VersionCmd `cmd:"" help:"Print version information."`
				List ListCmd `cmd:"" help:"List registered engines and embedders."`
				Run RunCmd `cmd:"" help:"Run one Evolution Runner request."`
				Propose ProposeCmd `cmd:"" help:"Generate candidate patches with the Proposer."`
				Shadow ShadowCmd `cmd:"" help:"Shadow-evaluate a patch against the Golden Set."`
				Commit CommitCmd `cmd:"" help:"Commit an approved patch onto the base branch."`
				Rollback RollbackCmd `cmd:"" help:"Revert a previously committed patch."`
			}

			var stdout bytes.Buffer
			didExit := false
			exitCode := -1

			parser, err := kong.New(&cli,
				kong.Name("evolv"),
				kong.Exit(func(code int) {
					didExit = true
					exitCode = code
					panic(kongExit{code: code})
				}),
			)
			require.NoError(t, err)
			parser.Stdout = &stdout
			parser.Stderr = &stdout

			var parseErr error
			func() {
				defer func() {
					if r := recover(); r != nil {
						if _, ok := r.(kongExit); ok {
							return
						}
						panic(r)
					}
				}()
				_, parseErr = parser.Parse(tt.args)
			}()

			if tt.expectError {
				assert.Error(t, parseErr)
				if tt.errorMsg != "" {
					assert.Contains(t, parseErr.Error(), tt.errorMsg)
				}
				return
			}

			assert.NoError(t, parseErr)
			if tt.name == "help flag" {
				assert.True(t, didExit)
				assert.Equal(t, 0, exitCode)
				assert.Contains(t, stdout.String(), "Usage: evolv")
			} else {
				assert.False(t, didExit)
			}
		})
	}
}
