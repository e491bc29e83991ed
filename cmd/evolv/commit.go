package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/evolvsys/evolv/internal/sme/commit"
	"github.com/evolvsys/evolv/pkg/evoltypes"
)

// CommitCmd applies an approved patch onto the repository's base branch
// and records the resulting CommitArtifact.
type CommitCmd struct {
	Config string `help:"Path to YAML config file." name:"config" type:"existingfile"`
	PatchFile string `arg:"" help:"Unified diff file describing the patch to commit." type:"existingfile"`
	PatchID string `help:"Patch identifier (defaults to the diff file's base name)." name:"patch-id"`
	Area string `help:"Patch area." default:"prompt"`
	RewardDelta *float64 `help:"Observed shadow-eval reward delta, recorded on the artifact." name:"reward-delta"`
	Format string `help:"Output format." enum:"table,json" default:"table" short:"f"`
}

func (c *CommitCmd) Run() error {
	cfg, err := loadConfig(c.Config)
	if err != nil {
		return err
	}
	if !cfg.SME.Commit.Enabled {
		return fmt.Errorf("commit: sme.commit.enabled is false")
	}

	diffBytes, err := os.ReadFile(c.PatchFile)
	if err != nil {
		return fmt.Errorf("commit: read patch file: %w", err)
	}

	patchID := c.PatchID
	if patchID == "" {
		patchID = filepath.Base(c.PatchFile)
	}

	patch := evoltypes.MetaPatch{
		ID: patchID,
		Area: evoltypes.Area(c.Area),
		UnifiedDiff: string(diffBytes),
	}

	store, err := commit.NewStore(cfg.SME.Commit.StoreRoot)
	if err != nil {
		return err
	}

	artifact, err := commit.Commit(context.Background(), patch, commit.Options{
		RepoRoot: cfg.SME.Commit.RepoRoot,
		Store: store,
		RunTests: cfg.SME.Commit.RunTests,
		RewardDelta: c.RewardDelta,
		Metrics: globalMetrics,
	})

	if c.Format == "json" {
		if jsonErr := printJSON(artifact); jsonErr != nil {
			return jsonErr
		}
		return err
	}

	fmt.Println("\nCommit")
	fmt.Println("======")
	fmt.Printf("patch_id: %s\n", artifact.PatchID)
	fmt.Printf("status: %s\n", artifact.Status)
	fmt.Printf("commit_sha: %s\n", artifact.CommitSHA)
	if err != nil {
		fmt.Printf("error: %v\n", err)
	}
	return err
}

// RollbackCmd reverts a previously committed patch by SHA, recording an
// updated CommitArtifact.
type RollbackCmd struct {
	Config string `help:"Path to YAML config file." name:"config" type:"existingfile"`
	PatchID string `arg:"" help:"Patch identifier to roll back."`
	SHA string `arg:"" help:"Commit SHA to revert."`
	Format string `help:"Output format." enum:"table,json" default:"table" short:"f"`
}

func (r *RollbackCmd) Run() error {
	cfg, err := loadConfig(r.Config)
	if err != nil {
		return err
	}

	store, err := commit.NewStore(cfg.SME.Commit.StoreRoot)
	if err != nil {
		return err
	}

	artifact, err := commit.Rollback(context.Background(), r.PatchID, r.SHA, commit.Options{
		RepoRoot: cfg.SME.Commit.RepoRoot,
		Store: store,
	})

	if r.Format == "json" {
		if jsonErr := printJSON(artifact); jsonErr != nil {
			return jsonErr
		}
		return err
	}

	fmt.Println("\nRollback")
	fmt.Println("========")
	fmt.Printf("patch_id: %s\n", artifact.PatchID)
	fmt.Printf("status: %s\n", artifact.Status)
	fmt.Printf("rollback_sha: %s\n", artifact.RollbackSHA)
	if err != nil {
		fmt.Printf("error: %v\n", err)
	}
	return err
}
