package engine

import (
	"github.com/rxtech-lab/argo-gridsim/internal/config"
	"github.com/rxtech-lab/argo-gridsim/internal/types"
)

// GridLevel is a fixed price threshold at which an entry fill triggers. A
// long level triggers at or below its price, a short level at or above.
type GridLevel struct {
	Index int
	Price float64
}

// BuildGridLevels computes the ladder from the first observed price:
// n_positions levels compounding away from the reference by the spacing
// percentage. Levels are computed once per run and stay stable as price
// moves; they are never recomputed per step.
func BuildGridLevels(firstPrice float64, params config.GridParams, side types.Side) []GridLevel {
	if firstPrice <= 0 || params.NPositions <= 0 || params.EntryGridSpacingPct <= 0 {
		return nil
	}

	levels := make([]GridLevel, 0, params.NPositions)
	price := firstPrice

	for i := 0; i < params.NPositions; i++ {
		if side == types.SideShort {
			price *= 1 + params.EntryGridSpacingPct
		} else {
			price *= 1 - params.EntryGridSpacingPct
		}

		levels = append(levels, GridLevel{
			Index: i,
			Price: price,
		})
	}

	return levels
}

// Crossed reports whether the current price has crossed the level's trigger
// direction.
func (l GridLevel) Crossed(price float64, side types.Side) bool {
	if side == types.SideShort {
		return price >= l.Price
	}

	return price <= l.Price
}
