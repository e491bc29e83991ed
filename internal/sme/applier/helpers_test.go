package applier

import "github.com/evolvsys/evolv/pkg/evoltypes"

func evoltypesMetaPatch(id, diff string) evoltypes.MetaPatch {
	return evoltypes.MetaPatch{ID: id, Area: evoltypes.AreaBandit, UnifiedDiff: diff}
}
