package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/evolvsys/evolv/internal/sme/proposer"
)

// ProposeCmd generates candidate patches with the Proposer.
type ProposeCmd struct {
	Config string `help:"Path to YAML config file." name:"config" type:"existingfile"`
	Engine string `help:"Default engine name to use when the judge pool is empty." name:"engine"`
	N int `help:"Number of proposals to attempt." default:"1"`
	Format string `help:"Output format." enum:"table,json" default:"table" short:"f"`
	WriteDir string `help:"Directory to write each accepted patch's unified diff to." name:"write-dir"`
}

func (p *ProposeCmd) Run() error {
	cfg, err := loadConfig(p.Config)
	if err != nil {
		return err
	}

	pool, err := cfg.BuildJudgePool()
	if err != nil {
		return err
	}

	engineName := p.Engine
	if engineName == "" {
		engineName = cfg.SME.Proposer.EngineName
	}
	ec, ok := cfg.Engines[engineName]
	if !ok {
		return fmt.Errorf("propose: unknown engine %q", engineName)
	}

	prop := &proposer.Proposer{
		JudgePool: pool,
		DefaultEngineName: engineName,
		DefaultEngineConfig: ec.RegistryConfig(),
		Metrics: globalMetrics,
	}

	n := p.N
	if n <= 0 {
		n = cfg.SME.Proposer.BatchSize
	}

	resp := prop.Generate(context.Background(), n)

	if p.WriteDir != "" {
		if err := os.MkdirAll(p.WriteDir, 0o755); err != nil {
			return fmt.Errorf("propose: create write-dir: %w", err)
		}
		for _, patch := range resp.Patches {
			path := filepath.Join(p.WriteDir, patch.ID+".diff")
			if err := os.WriteFile(path, []byte(patch.UnifiedDiff), 0o644); err != nil {
				return fmt.Errorf("propose: write patch %s: %w", patch.ID, err)
			}
		}
	}

	if p.Format == "json" {
		return printJSON(resp)
	}

	fmt.Println("\nProposer Results")
	fmt.Println("================")
	fmt.Printf("generated: %d\n", resp.TotalGenerated)
	fmt.Printf("accepted: %d\n", len(resp.Patches))
	fmt.Printf("rejected: %d\n", len(resp.Rejected))
	fmt.Printf("elapsed_ms: %d\n", resp.ExecutionTimeMS)

	for _, patch := range resp.Patches {
		fmt.Printf("\n[%s] area=%s loc_delta=%+d\n%s\n", patch.ID, patch.Area, patch.LOCDelta, patch.Notes)
	}
	for _, rej := range resp.Rejected {
		fmt.Printf("\nrejected: %s (%s)\n", rej.Reason, rej.Detail)
	}
	return nil
}
