package ahocorasick

// nfa is the only imp implementation in this package: a trie over the
// supplied patterns with Aho-Corasick failure links, walked lazily (no
// precomputed dense goto table). Root is always state 0; a zero transition
// entry means "no explicit edge", which is resolved by following fail
// links back toward root at match time.
type nfa struct {
	states []nfaState
	patternCount int
	maxPatternLen int
	matchKind matchKind
}

type nfaState struct {
	trans [256]stateID
	fail stateID
	// matches holds every pattern that ends in this state, merged in from
	// every state reachable via fail links (the Aho-Corasick "output" set).
	matches []nfaMatch
}

type nfaMatch struct {
	pattern int
	patLen int
}

func buildNFA(patterns [][]byte, asciiCaseInsensitive bool, byteEquiv func(byte) []byte) *nfa {
	n := &nfa{states: []nfaState{{}}, patternCount: len(patterns)}

	for idx, pat := range patterns {
		if len(pat) > n.maxPatternLen {
			n.maxPatternLen = len(pat)
		}

		cur := stateID(0)
		for _, b := range pat {
			equiv := equivalentBytes(b, asciiCaseInsensitive, byteEquiv)

			var next stateID
			found := false
			for _, eb := range equiv {
				if t := n.states[cur].trans[eb]; t != 0 {
					next = t
					found = true
					break
				}
			}
			if !found {
				n.states = append(n.states, nfaState{})
				next = stateID(len(n.states) - 1)
			}
			for _, eb := range equiv {
				n.states[cur].trans[eb] = next
			}
			cur = next
		}
		n.states[cur].matches = append(n.states[cur].matches, nfaMatch{pattern: idx, patLen: len(pat)})
	}

	n.buildFailureLinks()
	return n
}

// equivalentBytes returns the set of bytes that should transition together
// at one trie position: the byte itself, plus whatever ByteEquivalence (or
// ASCII case folding) says should be treated the same way.
func equivalentBytes(b byte, asciiCaseInsensitive bool, byteEquiv func(byte) []byte) []byte {
	if byteEquiv != nil {
		return byteEquiv(b)
	}
	if asciiCaseInsensitive {
		if b >= 'A' && b <= 'Z' {
			return []byte{b, b + 32}
		}
		if b >= 'a' && b <= 'z' {
			return []byte{b, b - 32}
		}
	}
	return []byte{b}
}

// buildFailureLinks runs a BFS over the trie computing each state's failure
// link (the longest proper suffix of its prefix that is also a trie
// prefix) and merging output sets along the way, the standard Aho-Corasick
// automaton construction.
func (n *nfa) buildFailureLinks() {
	queue := make([]stateID, 0, len(n.states))

	for b := 0; b < 256; b++ {
		if s := n.states[0].trans[b]; s != 0 {
			n.states[s].fail = 0
			queue = append(queue, s)
		}
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for b := 0; b < 256; b++ {
			s := n.states[cur].trans[b]
			if s == 0 {
				continue
			}

			f := n.states[cur].fail
			for f != 0 && n.states[f].trans[b] == 0 {
				f = n.states[f].fail
			}
			if nf := n.states[f].trans[b]; nf != 0 && nf != s {
				n.states[s].fail = nf
			} else {
				n.states[s].fail = 0
			}

			n.states[s].matches = append(n.states[s].matches, n.states[n.states[s].fail].matches...)
			queue = append(queue, s)
		}
	}
}

// step computes the goto function lazily: follow an explicit edge if one
// exists, otherwise fall back through failure links until one does (root's
// missing edges resolve to root itself).
func (n *nfa) step(state stateID, b byte) stateID {
	for {
		if t := n.states[state].trans[b]; t != 0 || state == 0 {
			return t
		}
		state = n.states[state].fail
	}
}

func (n *nfa) MaxPatternLen() int  { return n.maxPatternLen }
func (n *nfa) StartState() stateID { return 0 }
func (n *nfa) PatternCount() int   { return n.patternCount }

// selectMatch picks the single reported match among the (possibly several)
// patterns ending at the current position, per matchKind.
func selectMatch(mk matchKind, ms []nfaMatch, endPos int) *Match {
	best := ms[0]
	switch mk {
	case LeftMostLongestMatch:
		for _, m := range ms[1:] {
			if m.patLen > best.patLen {
				best = m
			}
		}
	case LeftMostFirstMatch:
		for _, m := range ms[1:] {
			if m.pattern < best.pattern {
				best = m
			}
		}
	}
	return &Match{pattern: best.pattern, len: best.patLen, end: endPos}
}

// FindAtNoState scans forward from at with no carried-over automaton
// state, returning the first match selected according to the automaton's
// matchKind (StandardMatch and LeftMostFirstMatch stop at the first
// matching position; LeftMostLongestMatch keeps scanning to extend the
// match as long as its start doesn't move).
func (n *nfa) FindAtNoState(prestate *prefilterState, haystack []byte, at int) *Match {
	state := stateID(0)
	var best *Match
	for pos := at; pos < len(haystack); pos++ {
		state = n.step(state, haystack[pos])
		ms := n.states[state].matches
		if len(ms) == 0 {
			continue
		}

		cand := selectMatch(n.matchKind, ms, pos+1)
		if best == nil {
			best = cand
			if n.matchKind != LeftMostLongestMatch {
				return best
			}
			continue
		}
		if cand.Start() == best.Start() && cand.len > best.len {
			best = cand
		} else if cand.Start() > best.Start() {
			break
		}
	}
	return best
}

// OverlappingFindAt reports every match in turn, including ones that
// overlap or share an end position, draining all matches recorded at the
// current state before advancing.
func (n *nfa) OverlappingFindAt(prestate *prefilterState, haystack []byte, at int, state_id *stateID, match_index *int) *Match {
	state := *state_id
	pos := at
	for {
		ms := n.states[state].matches
		if *match_index < len(ms) {
			m := ms[*match_index]
			*match_index++
			*state_id = state
			return &Match{pattern: m.pattern, len: m.patLen, end: pos}
		}
		if pos >= len(haystack) {
			*state_id = state
			return nil
		}
		state = n.step(state, haystack[pos])
		pos++
		*match_index = 0
	}
}

// EarliestFindAt returns the first match found scanning forward from at,
// without applying leftmost-longest extension, useful when a caller only
// needs to know that some match exists past a point in the haystack.
func (n *nfa) EarliestFindAt(prestate *prefilterState, haystack []byte, at int, state_id *stateID) *Match {
	state := *state_id
	for pos := at; pos < len(haystack); pos++ {
		state = n.step(state, haystack[pos])
		if ms := n.states[state].matches; len(ms) > 0 {
			*state_id = state
			return &Match{pattern: ms[0].pattern, len: ms[0].patLen, end: pos + 1}
		}
	}
	*state_id = state
	return nil
}
