package proposer

import (
	"strings"

	"github.com/evolvsys/evolv/pkg/evoltypes"
)

// areaPathPrefixes maps each allowed area to the path prefixes a patch
// touching that area is permitted to modify. Used both to infer an area
// from a diff's first modified path (when the model omits `area`) and to
// reject a patch whose paths spill outside its declared area.
var areaPathPrefixes = map[evoltypes.Area][]string{
	evoltypes.AreaPrompts: {"internal/operators/", "internal/evolution/prompt"},
	evoltypes.AreaBandit: {"internal/bandit/"},
	evoltypes.AreaASILite: {"internal/reward/", "internal/judge/"},
	evoltypes.AreaRAG: {"internal/rag/"},
	evoltypes.AreaMemoryPolicy: {"internal/memory/"},
	evoltypes.AreaUIMetrics: {"internal/realtime/", "internal/metrics/"},
}

// inferArea returns the area whose prefix table matches path, or ""
// if none match.
func inferArea(path string) evoltypes.Area {
	for area, prefixes := range areaPathPrefixes {
		for _, prefix := range prefixes {
			if strings.HasPrefix(path, prefix) {
				return area
			}
		}
	}
	return ""
}

// pathsWithinArea reports whether every path is covered by area's prefix
// table. An area with no registered prefixes allows anything (defensive
// default; every AllowedAreas entry above is in fact registered).
func pathsWithinArea(area evoltypes.Area, paths []string) bool {
	prefixes, ok := areaPathPrefixes[area]
	if !ok {
		return true
	}
	for _, p := range paths {
		matched := false
		for _, prefix := range prefixes {
			if strings.HasPrefix(p, prefix) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}
