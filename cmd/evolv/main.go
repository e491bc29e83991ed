package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/alecthomas/kong"

	"github.com/evolvsys/evolv/pkg/logging"
	"github.com/evolvsys/evolv/pkg/metrics"

	// Import for side effects: gateway engines and embedders register
	// themselves via init in these packages.
	_ "github.com/evolvsys/evolv/internal/embed"
	_ "github.com/evolvsys/evolv/internal/gateway"
)

const version = "0.1.0"

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("evolv"),
		kong.Description("evolv - meta-evolution engine for LM prompting"),
		kong.UsageOnError,
		kong.Vars{"version": version},
		kong.Exit(func(code int) {
			if code != 0 {
				os.Exit(2)
			}
			os.Exit(0)
		}),
	)

	logging.Configure(logging.ParseLevel(CLI.LogLevel), CLI.LogFormat, os.Stderr)

	if CLI.MetricsAddr != "" {
		exporter := metrics.NewPrometheusExporter(globalMetrics)
		mux := http.NewServeMux()
		mux.Handle("/metrics", exporter.Handler())
		go http.ListenAndServe(CLI.MetricsAddr, mux)
	}

	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
