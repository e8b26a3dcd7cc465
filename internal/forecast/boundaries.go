package forecast

import (
	"fmt"
	"sort"
)

// BoundaryCase summarizes one delivery scenario built from historical days.
type BoundaryCase struct {
	ApplyStarts int     `json:"apply_starts"`
	Spend       float64 `json:"spend"`
	CPAS        float64 `json:"cpas"`
	DaysUsed    int     `json:"days_used"`
}

// DeliveryBoundaries reports the best-case and worst-case delivery a
// budget could buy based on the strongest and weakest historical days.
type DeliveryBoundaries struct {
	Budget       float64      `json:"budget"`
	DurationDays int          `json:"duration_days"`
	BestCase     BoundaryCase `json:"best_case"`
	WorstCase    BoundaryCase `json:"worst_case"`
}

// EstimateBoundaries selects the duration_days historically cheapest and
// most expensive days by CPAS, sums each group, and scales a group down
// proportionally when its spend exceeds the budget so the group's CPAS is
// preserved.
func (s *Service) EstimateBoundaries(budget float64, durationDays int) (*DeliveryBoundaries, error) {
	snap := s.store.Snapshot()

	if budget < s.cfg.MinBudget {
		budget = s.cfg.MinBudget
	}
	if durationDays < s.cfg.MinWindowDays {
		durationDays = s.cfg.MinWindowDays
	}

	h := s.buildHistory(snap)

	ranked := make([]dayCost, 0, len(h.days))
	for _, d := range h.days {
		if cpas, ok := d.CPAS(); ok {
			ranked = append(ranked, dayCost{cpas: cpas, spend: d.Spend, applies: d.ApplyStarts})
		}
	}
	if len(ranked) == 0 {
		return nil, fmt.Errorf("no historical days with apply-starts in reference month %s", snap.ReferenceMonth.Format("2006-01"))
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].cpas < ranked[j].cpas })

	n := durationDays
	if n > len(ranked) {
		n = len(ranked)
	}

	return &DeliveryBoundaries{
		Budget:       budget,
		DurationDays: durationDays,
		BestCase:     boundaryCase(ranked[:n], budget),
		WorstCase:    boundaryCase(ranked[len(ranked)-n:], budget),
	}, nil
}

type dayCost struct {
	cpas    float64
	spend   float64
	applies float64
}

func boundaryCase(days []dayCost, budget float64) BoundaryCase {
	spend, applies := 0.0, 0.0
	for _, d := range days {
		spend += d.spend
		applies += d.applies
	}
	if spend > budget && spend > 0 {
		ratio := budget / spend
		spend = budget
		applies *= ratio
	}
	return BoundaryCase{
		ApplyStarts: int(applies),
		Spend:       round2(spend),
		CPAS:        round2(safeDiv(spend, applies)),
		DaysUsed:    len(days),
	}
}
