package engine

import (
	"fmt"

	"github.com/ppsim/ppsim/sim/spatial"
	"github.com/ppsim/ppsim/sim/state"
)

// CheckExtinction builds a HaltingCondition that triggers once entity's
// count reaches zero (original_source/simulator.h's CheckExtinction).
func CheckExtinction(entity spatial.EntityID) HaltingCondition {
	return func(s *state.SimulationState) (bool, string) {
		if s.Count(entity) == 0 {
			return true, fmt.Sprintf("extinction of entity %d", entity)
		}
		return false, ""
	}
}
