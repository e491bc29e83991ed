// Package bandit selects mutation operators for the Evolution Runner.
//
// Two policies share one interface: epsilon-greedy, which forces untried
// arms first then exploits the running mean, and UCB1, which does a
// stratified warm-start pass before switching to the UCB1 formula.
package bandit

import (
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/evolvsys/evolv/pkg/recipe"
)

// Bandit selects an operator from a candidate set and folds reward
// observations back into the caller-owned stats map.
type Bandit interface {
	// Select returns the operator to pull next, given the current stats
	// for each candidate (entries may be absent for never-pulled operators).
	Select(operators []string, stats map[string]recipe.Stats) string
	// Update folds one reward observation into stats and returns the
	// updated map (the caller owns persistence).
	Update(operator string, reward float64, latencyMS int64, stats map[string]recipe.Stats) map[string]recipe.Stats
}

func sortedTiebreak(candidates []string) string {
	sort.Strings(candidates)
	return candidates[0]
}

func untried(operators []string, stats map[string]recipe.Stats) []string {
	var out []string
	for _, op := range operators {
		if s, ok := stats[op]; !ok || s.Pulls == 0 {
			out = append(out, op)
		}
	}
	return out
}

// EpsilonGreedy implements epsilon-greedy policy: force untried
// arms first (stratified exploration of cold arms), else explore with
// probability eps, else exploit argmax mean_payoff.
type EpsilonGreedy struct {
	Eps float64
	rnd *rand.Rand
	mu sync.Mutex
}

// NewEpsilonGreedy constructs an EpsilonGreedy bandit with the given
// exploration rate. A nil seed source uses the process RNG.
func NewEpsilonGreedy(eps float64, seed *int64) *EpsilonGreedy {
	src := rand.NewSource(time.Now().UnixNano())
	if seed != nil {
		src = rand.NewSource(*seed)
	}
	return &EpsilonGreedy{Eps: eps, rnd: rand.New(src)}
}

func (b *EpsilonGreedy) Select(operators []string, stats map[string]recipe.Stats) string {
	if len(operators) == 0 {
		return ""
	}
	if cold := untried(operators, stats); len(cold) > 0 {
		return sortedTiebreak(cold)
	}

	b.mu.Lock()
	roll := b.rnd.Float64()
	choice := b.rnd.Intn(len(operators))
	b.mu.Unlock()

	if roll < b.Eps {
		return operators[choice]
	}

	best := operators[0]
	bestMean := stats[best].MeanPayoff
	var tied []string
	for _, op := range operators {
		m := stats[op].MeanPayoff
		if m > bestMean {
			bestMean = m
			best = op
			tied = nil
		} else if m == bestMean {
			tied = append(tied, op)
		}
	}
	if len(tied) > 0 {
		tied = append(tied, best)
		return sortedTiebreak(tied)
	}
	return best
}

func (b *EpsilonGreedy) Update(operator string, reward float64, latencyMS int64, stats map[string]recipe.Stats) map[string]recipe.Stats {
	return applyUpdate(operator, reward, latencyMS, stats)
}

// UCB1 implements UCB1 policy with stratified first-pass and warm-start.
type UCB1 struct {
	C float64
	WarmStartMinPulls int
	StratifiedExplore bool

	mu sync.Mutex
	rnd *rand.Rand
	stratifiedOrder []string
	stratifiedIndex int
}

// NewUCB1 constructs a UCB1 bandit. c defaults to 2.0 and warmStartMinPulls
// to 1 when zero, matching the source's constructor defaults.
func NewUCB1(c float64, warmStartMinPulls int, stratifiedExplore bool, seed *int64) *UCB1 {
	if c == 0 {
		c = 2.0
	}
	if warmStartMinPulls == 0 {
		warmStartMinPulls = 1
	}
	src := rand.NewSource(time.Now().UnixNano())
	if seed != nil {
		src = rand.NewSource(*seed)
	}
	return &UCB1{
		C: c,
		WarmStartMinPulls: warmStartMinPulls,
		StratifiedExplore: stratifiedExplore,
		rnd: rand.New(src),
	}
}

func (b *UCB1) ensureStratifiedOrder(operators []string) {
	if b.stratifiedOrder != nil {
		return
	}
	order := append([]string(nil), operators...)
	if b.StratifiedExplore {
		b.mu.Lock()
		b.rnd.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		b.mu.Unlock()
	} else {
		sort.Strings(order)
	}
	b.stratifiedOrder = order
}

func (b *UCB1) Select(operators []string, stats map[string]recipe.Stats) string {
	if len(operators) == 0 {
		return ""
	}
	if len(operators) == 1 {
		return operators[0]
	}

	b.ensureStratifiedOrder(operators)

	// Single deterministic (or shuffled) pass until every operator has at
	// least WarmStartMinPulls pulls, round-robining through stratifiedOrder.
	for _, op := range b.stratifiedOrder {
		if stats[op].Pulls < b.WarmStartMinPulls {
			return op
		}
	}

	// Untried operators (never reached above because WarmStartMinPulls>=1
	// already routes them) score +Inf to guarantee exploration.
	if cold := untried(operators, stats); len(cold) > 0 {
		return sortedTiebreak(cold)
	}

	total := 0
	for _, op := range operators {
		total += stats[op].Pulls
	}
	lnTotal := math.Log(float64(total))

	best := operators[0]
	bestScore := math.Inf(-1)
	var tied []string
	for _, op := range operators {
		s := stats[op]
		score := s.MeanPayoff + b.C*math.Sqrt(lnTotal/float64(s.Pulls))
		if score > bestScore {
			bestScore = score
			best = op
			tied = nil
		} else if score == bestScore {
			tied = append(tied, op)
		}
	}
	if len(tied) > 0 {
		tied = append(tied, best)
		return sortedTiebreak(tied)
	}
	return best
}

func (b *UCB1) Update(operator string, reward float64, latencyMS int64, stats map[string]recipe.Stats) map[string]recipe.Stats {
	return applyUpdate(operator, reward, latencyMS, stats)
}

// Scores returns a diagnostic UCB1 score per operator, with untried
// operators reported as +Inf — mirrors the source's get_ucb_scores helper.
func (b *UCB1) Scores(operators []string, stats map[string]recipe.Stats) map[string]float64 {
	out := make(map[string]float64, len(operators))
	total := 0
	for _, op := range operators {
		total += stats[op].Pulls
	}
	lnTotal := math.Log(float64(total))
	for _, op := range operators {
		s := stats[op]
		if s.Pulls == 0 {
			out[op] = math.Inf(1)
			continue
		}
		out[op] = s.MeanPayoff + b.C*math.Sqrt(lnTotal/float64(s.Pulls))
	}
	return out
}

func applyUpdate(operator string, reward float64, latencyMS int64, stats map[string]recipe.Stats) map[string]recipe.Stats {
	if stats == nil {
		stats = make(map[string]recipe.Stats)
	}
	s := stats[operator]
	s.Update(reward, latencyMS, time.Now())
	stats[operator] = s
	return stats
}
