package scan

import (
	"sort"
	"time"

	"InsiderScan/internal/domain/models"
)

// EventFilter decides whether an event participates in window aggregation.
// Exclusion rules are supplied by configuration, never hard-coded here.
type EventFilter func(models.TradeEvent) bool

// AllEvents admits every event.
func AllEvents(models.TradeEvent) bool { return true }

// ExcludeScheduledPlans drops pre-arranged-plan transactions from windows.
func ExcludeScheduledPlans(e models.TradeEvent) bool { return !e.ScheduledPlan }

// FilterFor returns the filter implied by the exclude flag.
func FilterFor(excludeScheduled bool) EventFilter {
	if excludeScheduled {
		return ExcludeScheduledPlans
	}
	return AllEvents
}

// Aggregate computes the trailing-window stat for one symbol at a reference
// time. The window is the closed interval [ref-window, ref]: inclusive on both
// ends, which decides the attribution of boundary events. Pure and
// deterministic: identical inputs always produce identical outputs.
func Aggregate(events []models.TradeEvent, symbol string, ref time.Time, window time.Duration, filter EventFilter) models.WindowStat {
	return aggregateWindow(events, symbol, ref, window, true, filter)
}

// AggregateBefore computes the same stat over the half-open interval
// [ref-window, ref): the "previous" window of the crossing test, which leaves
// out every event at exactly ref.
func AggregateBefore(events []models.TradeEvent, symbol string, ref time.Time, window time.Duration, filter EventFilter) models.WindowStat {
	return aggregateWindow(events, symbol, ref, window, false, filter)
}

func aggregateWindow(events []models.TradeEvent, symbol string, ref time.Time, window time.Duration, includeRef bool, filter EventFilter) models.WindowStat {
	if filter == nil {
		filter = AllEvents
	}
	start := ref.Add(-window)

	picked := make([]models.TradeEvent, 0, len(events))
	for _, e := range events {
		if e.Symbol != symbol {
			continue
		}
		if e.EventTime.Before(start) || e.EventTime.After(ref) {
			continue
		}
		if !includeRef && e.EventTime.Equal(ref) {
			continue
		}
		if !filter(e) {
			continue
		}
		picked = append(picked, e)
	}

	// Summation order is fixed by event time so repeated aggregation can never
	// drift; ties resolve by actor then source ref.
	sort.SliceStable(picked, func(i, j int) bool {
		if !picked[i].EventTime.Equal(picked[j].EventTime) {
			return picked[i].EventTime.Before(picked[j].EventTime)
		}
		if picked[i].Actor != picked[j].Actor {
			return picked[i].Actor < picked[j].Actor
		}
		return picked[i].SourceRef < picked[j].SourceRef
	})

	actors := make(map[string]struct{}, len(picked))
	var total float64
	for _, e := range picked {
		actors[e.Actor] = struct{}{}
		total += e.Notional()
	}
	return models.WindowStat{DistinctActors: len(actors), TotalNotional: total}
}
