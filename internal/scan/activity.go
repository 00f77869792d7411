package scan

import (
	"sort"
	"time"

	"InsiderScan/internal/domain/models"
)

// RecentActivity aggregates trailing-window activity per symbol as of a
// reference time and keeps only the symbols currently above the thresholds.
// Output is ordered by distinct actors, then total notional, descending.
func RecentActivity(events []models.TradeEvent, asOf time.Time, window time.Duration, minActors int, minNotional float64, filter EventFilter) []models.SymbolActivity {
	if filter == nil {
		filter = AllEvents
	}
	start := asOf.Add(-window)

	type acc struct {
		actors map[string]struct{}
		picked []models.TradeEvent
		last   time.Time
	}
	bySym := make(map[string]*acc)
	for _, e := range events {
		if e.EventTime.Before(start) || e.EventTime.After(asOf) {
			continue
		}
		if !filter(e) {
			continue
		}
		a := bySym[e.Symbol]
		if a == nil {
			a = &acc{actors: make(map[string]struct{})}
			bySym[e.Symbol] = a
		}
		a.actors[e.Actor] = struct{}{}
		a.picked = append(a.picked, e)
		if e.EventTime.After(a.last) {
			a.last = e.EventTime
		}
	}

	out := make([]models.SymbolActivity, 0, len(bySym))
	for sym, a := range bySym {
		sort.SliceStable(a.picked, func(i, j int) bool {
			return a.picked[i].EventTime.Before(a.picked[j].EventTime)
		})
		var total float64
		for _, e := range a.picked {
			total += e.Notional()
		}
		if len(a.actors) < minActors || total < minNotional {
			continue
		}
		out = append(out, models.SymbolActivity{
			Symbol:         sym,
			DistinctActors: len(a.actors),
			TotalNotional:  total,
			LastEventTime:  a.last,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].DistinctActors != out[j].DistinctActors {
			return out[i].DistinctActors > out[j].DistinctActors
		}
		if out[i].TotalNotional != out[j].TotalNotional {
			return out[i].TotalNotional > out[j].TotalNotional
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}
