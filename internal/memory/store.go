// Package memory implements Episodic Memory: post-run
// experience insertion with pollution guards and pre-run primer retrieval
// blending vector similarity, reward, and recency.
//
// Uses database/sql over modernc.org/sqlite for storage and scanning.
package memory

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/evolvsys/evolv/internal/embed"
	"github.com/evolvsys/evolv/pkg/evoltypes"
)

// Store is a SQLite-backed persistent episodic memory.
type Store struct {
	db *sql.DB
	cfg Config
}

// Open opens (or creates) the SQLite database at dbPath and ensures the
// experiences table and its indexes exist.
func Open(dbPath string, cfg Config) (*Store, error) {
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("memory: open %s: %w", dbPath, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("memory: enable WAL: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("memory: ensure schema: %w", err)
	}
	return &Store{db: db, cfg: cfg}, nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS experiences (
	id TEXT PRIMARY KEY,
	task_class TEXT NOT NULL,
	task_class_norm TEXT NOT NULL,
	input_hash TEXT NOT NULL,
	input_text TEXT NOT NULL,
	plan TEXT NOT NULL,
	operator_used TEXT NOT NULL,
	output_text TEXT NOT NULL,
	reward REAL NOT NULL,
	improvement_delta REAL NOT NULL,
	confidence_score REAL NOT NULL,
	judge_ai REAL NOT NULL,
	judge_semantic REAL NOT NULL,
	tokens_in INTEGER DEFAULT 0,
	tokens_out INTEGER DEFAULT 0,
	latency_ms INTEGER DEFAULT 0,
	embedding_json TEXT NOT NULL,
	created_at TEXT NOT NULL,
	last_used_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_experiences_task_class ON experiences(task_class);
CREATE INDEX IF NOT EXISTS idx_experiences_task_class_norm ON experiences(task_class_norm);
CREATE INDEX IF NOT EXISTS idx_experiences_reward ON experiences(reward DESC);
CREATE INDEX IF NOT EXISTS idx_experiences_input_hash ON experiences(input_hash);
`

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

// NewExperience builds an Experience from the inputs available at the end
// of an evolution iteration, computing input_hash, task_class_norm, and
// improvement_delta.
func NewExperience(taskClass, inputText, plan, operatorUsed, outputText string, reward, confidenceScore, judgeAI, judgeSemantic float64, tokensIn, tokensOut int, latencyMS int64, embedding []float64, baselineReward float64, now time.Time) evoltypes.Experience {
	sum := sha256.Sum256([]byte(inputText))
	return evoltypes.Experience{
		ID: uuid.NewString(),
		TaskClass: taskClass,
		NormalizedTaskClass: normalizeTaskClass(taskClass),
		InputHash: hex.EncodeToString(sum[:])[:16],
		InputText: inputText,
		Plan: plan,
		OperatorUsed: operatorUsed,
		OutputText: outputText,
		Reward: reward,
		ImprovementDelta: reward - baselineReward,
		ConfidenceScore: confidenceScore,
		JudgeAI: judgeAI,
		JudgeSemantic: judgeSemantic,
		TokensIn: tokensIn,
		TokensOut: tokensOut,
		LatencyMS: latencyMS,
		Embedding: embedding,
		CreatedAt: now,
	}
}

// Add inserts exp into the store, applying the insertion guard (:
// "Accept iff reward >= REWARD_FLOOR and confidence >= MIN_CONFIDENCE and
// input_hash is not already present") and the per-task-class LRU size cap.
// Returns (accepted, error); accepted is false when the guard rejected the
// experience, not an error condition.
func (s *Store) Add(ctx context.Context, exp evoltypes.Experience) (bool, error) {
	if s.cfg.PollutionGuard {
		if exp.Reward < s.cfg.RewardFloor || exp.ConfidenceScore < s.cfg.MinConfidence {
			return false, nil
		}
		dup, err := s.isDuplicate(ctx, exp.InputHash)
		if err != nil {
			return false, err
		}
		if dup {
			return false, nil
		}
	}

	if err := s.enforceSizeLimit(ctx, exp.NormalizedTaskClass); err != nil {
		return false, err
	}

	embJSON, err := json.Marshal(exp.Embedding)
	if err != nil {
		return false, fmt.Errorf("memory: marshal embedding: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO experiences (
			id, task_class, task_class_norm, input_hash, input_text, plan,
			operator_used, output_text, reward, improvement_delta,
			confidence_score, judge_ai, judge_semantic, tokens_in, tokens_out,
			latency_ms, embedding_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		exp.ID, exp.TaskClass, exp.NormalizedTaskClass, exp.InputHash, exp.InputText, exp.Plan,
		exp.OperatorUsed, exp.OutputText, exp.Reward, exp.ImprovementDelta,
		exp.ConfidenceScore, exp.JudgeAI, exp.JudgeSemantic, exp.TokensIn, exp.TokensOut,
		exp.LatencyMS, string(embJSON), exp.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return false, fmt.Errorf("memory: insert experience: %w", err)
	}
	return true, nil
}

func (s *Store) isDuplicate(ctx context.Context, inputHash string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM experiences WHERE input_hash = ? LIMIT 1`, inputHash).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("memory: duplicate check: %w", err)
	}
	return true, nil
}

// enforceSizeLimit evicts the oldest-by-coalesce(last_used_at,created_at)
// experiences for taskClassNorm once the per-class cap (StoreMaxSize/10,
// ) would otherwise be exceeded by one more insertion.
func (s *Store) enforceSizeLimit(ctx context.Context, taskClassNorm string) error {
	maxPerClass := s.cfg.StoreMaxSize / 10
	if maxPerClass <= 0 {
		maxPerClass = 1
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM experiences WHERE task_class_norm = ?`, taskClassNorm).Scan(&count); err != nil {
		return fmt.Errorf("memory: count task class: %w", err)
	}
	if count < maxPerClass {
		return nil
	}

	toRemove := count - maxPerClass + 1
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM experiences
		WHERE task_class_norm = ?
		AND id IN (
			SELECT id FROM experiences
			WHERE task_class_norm = ?
			ORDER BY COALESCE(last_used_at, created_at) ASC
			LIMIT ?
		)`, taskClassNorm, taskClassNorm, toRemove)
	if err != nil {
		return fmt.Errorf("memory: evict lru: %w", err)
	}
	return nil
}

// Touch refreshes last_used_at for the given experience ids, called after
// Search returns hits ("Touch last_used_at for returned items").
func (s *Store) Touch(ctx context.Context, ids []string, now time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE experiences SET last_used_at = ? WHERE id IN (` + placeholders(len(ids)) + `)`
	args := make([]any, 0, len(ids)+1)
	args = append(args, now.UTC().Format(time.RFC3339Nano))
	for _, id := range ids {
		args = append(args, id)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("memory: touch: %w", err)
	}
	return nil
}

func placeholders(n int) string {
	out := make([]byte, 0, n*2)
	for i := 0; i < n; i++ {
		if i > 0 {
			out = append(out, ',')
		}
		out = append(out, '?')
	}
	return string(out)
}

// Count returns the total number of stored experiences.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM experiences`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("memory: count: %w", err)
	}
	return n, nil
}

// Search retrieves up to k experiences relevant to queryEmbedding and
// taskClass. See score below for the ranking formula.
func (s *Store) Search(ctx context.Context, queryEmbedding []float64, taskClass string, k int, rewardFloor float64, now time.Time) ([]evoltypes.Experience, error) {
	candidates, err := s.candidates(ctx, taskClass)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	type scored struct {
		score float64
		exp evoltypes.Experience
	}
	ranked := make([]scored, 0, len(candidates))
	for _, exp := range candidates {
		if exp.Reward < rewardFloor {
			continue
		}
		ranked = append(ranked, scored{score: s.score(queryEmbedding, exp, now), exp: exp})
	}

	// Stable selection sort by score descending; candidate counts are
	// bounded at 100, so O(n^2) is fine and keeps ties in
	// the SQL-supplied (reward desc, created_at desc) order.
	for i := 0; i < len(ranked); i++ {
		best := i
		for j := i + 1; j < len(ranked); j++ {
			if ranked[j].score > ranked[best].score {
				best = j
			}
		}
		if best != i {
			top := ranked[best]
			copy(ranked[i+1:best+1], ranked[i:best])
			ranked[i] = top
		}
	}

	if k > 0 && k < len(ranked) {
		ranked = ranked[:k]
	}

	results := make([]evoltypes.Experience, 0, len(ranked))
	ids := make([]string, 0, len(ranked))
	for _, r := range ranked {
		r.exp.Touch(now)
		results = append(results, r.exp)
		ids = append(ids, r.exp.ID)
	}
	if err := s.Touch(ctx, ids, now); err != nil {
		return results, err
	}
	return results, nil
}

// score implements ranking formula:
// score = (alpha*cos(q,e) + (1-alpha)*reward_norm) * exp(-Δdays/DECAY_DAYS)
// with alpha = 1 - REWARD_WEIGHT.
func (s *Store) score(queryEmbedding []float64, exp evoltypes.Experience, now time.Time) float64 {
	alpha := 1 - s.cfg.RewardWeight
	similarity := embed.Cosine(queryEmbedding, exp.Embedding)
	rewardNorm := math.Max(0, math.Min(1, exp.Reward))

	ageFactor := 1.0
	if s.cfg.TimeDecay && !exp.CreatedAt.IsZero() {
		daysOld := now.Sub(exp.CreatedAt).Hours() / 24
		ageFactor = math.Exp(-daysOld / s.cfg.DecayDays)
	}

	return (alpha*similarity + (1-alpha)*rewardNorm) * ageFactor
}

func (s *Store) candidates(ctx context.Context, taskClass string) ([]evoltypes.Experience, error) {
	var rows *sql.Rows
	var err error
	if s.cfg.TaskClassFuzzy {
		norm := normalizeTaskClass(taskClass)
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, task_class, task_class_norm, input_hash, input_text, plan,
			 operator_used, output_text, reward, improvement_delta,
			 confidence_score, judge_ai, judge_semantic, tokens_in, tokens_out,
			 latency_ms, embedding_json, created_at, last_used_at
			FROM experiences
			WHERE task_class = ? OR task_class_norm = ?
			ORDER BY reward DESC, created_at DESC
			LIMIT ?`, taskClass, norm, DefaultCandidateLimit)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, task_class, task_class_norm, input_hash, input_text, plan,
			 operator_used, output_text, reward, improvement_delta,
			 confidence_score, judge_ai, judge_semantic, tokens_in, tokens_out,
			 latency_ms, embedding_json, created_at, last_used_at
			FROM experiences
			WHERE task_class = ?
			ORDER BY reward DESC, created_at DESC
			LIMIT ?`, taskClass, DefaultCandidateLimit)
	}
	if err != nil {
		return nil, fmt.Errorf("memory: query candidates: %w", err)
	}
	defer rows.Close()

	var out []evoltypes.Experience
	for rows.Next() {
		exp, err := scanExperience(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, exp)
	}
	return out, rows.Err()
}

func scanExperience(rows *sql.Rows) (evoltypes.Experience, error) {
	var exp evoltypes.Experience
	var embJSON, createdAt string
	var lastUsedAt sql.NullString
	err := rows.Scan(
		&exp.ID, &exp.TaskClass, &exp.NormalizedTaskClass, &exp.InputHash, &exp.InputText, &exp.Plan,
		&exp.OperatorUsed, &exp.OutputText, &exp.Reward, &exp.ImprovementDelta,
		&exp.ConfidenceScore, &exp.JudgeAI, &exp.JudgeSemantic, &exp.TokensIn, &exp.TokensOut,
		&exp.LatencyMS, &embJSON, &createdAt, &lastUsedAt,
	)
	if err != nil {
		return evoltypes.Experience{}, fmt.Errorf("memory: scan experience: %w", err)
	}
	if err := json.Unmarshal([]byte(embJSON), &exp.Embedding); err != nil {
		return evoltypes.Experience{}, fmt.Errorf("memory: unmarshal embedding: %w", err)
	}
	if exp.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return evoltypes.Experience{}, fmt.Errorf("memory: parse created_at: %w", err)
	}
	if lastUsedAt.Valid {
		if exp.LastUsedAt, err = time.Parse(time.RFC3339Nano, lastUsedAt.String); err != nil {
			return evoltypes.Experience{}, fmt.Errorf("memory: parse last_used_at: %w", err)
		}
	}
	return exp, nil
}
