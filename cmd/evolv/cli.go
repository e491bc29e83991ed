package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/evolvsys/evolv/internal/config"
	"github.com/evolvsys/evolv/pkg/metrics"
)

// globalMetrics accumulates run/proposal/commit counters across a single
// process's command invocations, exported over --metrics-addr.
var globalMetrics = &metrics.Metrics{}

// CLI is evolv's top-level command tree.
var CLI struct {
	Debug bool `help:"Enable debug mode." short:"d" env:"EVOLV_DEBUG"`
	LogLevel string `help:"Log level (debug, info, warn, error)." name:"log-level" default:"info" env:"EVOLV_LOG_LEVEL"`
	LogFormat string `help:"Log format (text, json)." name:"log-format" enum:"text,json" default:"text" env:"EVOLV_LOG_FORMAT"`
	MetricsAddr string `help:"Serve Prometheus metrics on this address (e.g. :9090) for the duration of the command." name:"metrics-addr" env:"EVOLV_METRICS_ADDR"`

	Version VersionCmd `cmd:"" help:"Print version information."`
	List ListCmd `cmd:"" help:"List registered engines and embedders."`
	Run RunCmd `cmd:"" help:"Run one Evolution Runner request."`
	Propose ProposeCmd `cmd:"" help:"Generate candidate patches with the Proposer."`
	Shadow ShadowCmd `cmd:"" help:"Shadow-evaluate a patch against the Golden Set."`
	Commit CommitCmd `cmd:"" help:"Commit an approved patch onto the base branch."`
	Rollback RollbackCmd `cmd:"" help:"Revert a previously committed patch."`
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (v *VersionCmd) Run() error {
	fmt.Printf("evolv %s\n", version)
	return nil
}

// loadConfig reads configPath, falling back to Default when empty.
func loadConfig(configPath string) (config.Config, error) {
	return config.Load(configPath)
}

// printJSON writes v to stdout as a single compact-ish JSON document.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", " ")
	return enc.Encode(v)
}
