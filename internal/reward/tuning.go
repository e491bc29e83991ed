package reward

import (
	"encoding/json"
	"os"
)

// TuningPath is the live-reread tuning file location, re-read on every
// call rather than cached, since operators tune it between runs. Uses
// stdlib encoding/json rather than koanf: this is an ad hoc runtime file,
// not the structured config surface koanf owns.
var TuningPath = "storage/tuning.json"

// Tuning holds the process/cost reward multipliers ("tuning
// multipliers read from a live tuning file (defaults 1.0, 1.0)").
type Tuning struct {
	ProcessMultiplier float64 `json:"process_multiplier"`
	CostMultiplier float64 `json:"cost_multiplier"`
}

// LoadTuning reads TuningPath, falling back to {1.0, 1.0} if the file is
// absent or malformed.
func LoadTuning() Tuning {
	t := Tuning{ProcessMultiplier: 1.0, CostMultiplier: 1.0}

	data, err := os.ReadFile(TuningPath)
	if err != nil {
		return t
	}

	var raw struct {
		ProcessMultiplier *float64 `json:"process_multiplier"`
		CostMultiplier *float64 `json:"cost_multiplier"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return t
	}
	if raw.ProcessMultiplier != nil {
		t.ProcessMultiplier = *raw.ProcessMultiplier
	}
	if raw.CostMultiplier != nil {
		t.CostMultiplier = *raw.CostMultiplier
	}
	return t
}
