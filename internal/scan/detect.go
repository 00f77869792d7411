package scan

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"InsiderScan/internal/domain/models"
)

// Config enumerates every detector tunable. There are no hidden constants.
type Config struct {
	Window           time.Duration // trailing interval for clustering
	MinActors        int           // minimum distinct insiders required
	MinNotional      float64       // minimum aggregate dollar value required
	ExcludeScheduled bool          // drop pre-arranged-plan transactions from windows
}

// Validate fails fast on missing or invalid threshold values.
func (c Config) Validate() error {
	if c.Window <= 0 {
		return fmt.Errorf("scan config: window must be positive, got %v", c.Window)
	}
	if c.MinActors < 1 {
		return fmt.Errorf("scan config: min_actors must be >= 1, got %d", c.MinActors)
	}
	if c.MinNotional < 0 {
		return fmt.Errorf("scan config: min_notional must be >= 0, got %v", c.MinNotional)
	}
	return nil
}

func (c Config) satisfied(s models.WindowStat) bool {
	return s.DistinctActors >= c.MinActors && s.TotalNotional >= c.MinNotional
}

// Detect finds, per symbol, the events at which the trailing-window statistics
// first satisfy the materiality conjunction having not satisfied it in the
// window that excludes the reference instant. Symbols are independent; the
// decross condition is re-derived from the previous window at every candidate
// rather than held as mutable state. The result is sorted by
// (event_time, symbol) and is identical across repeated calls.
func Detect(events []models.TradeEvent, cfg Config) ([]models.Signal, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	bySym := make(map[string][]models.TradeEvent)
	for _, e := range events {
		bySym[e.Symbol] = append(bySym[e.Symbol], e)
	}

	var signals []models.Signal
	for sym, evs := range bySym {
		signals = append(signals, detectSymbol(sym, evs, cfg)...)
	}
	sortSignals(signals)
	return signals, nil
}

// DetectParallel runs the crossing test over a pre-partitioned event set, one
// goroutine per symbol. Symbols share no state, so the only coordination is
// collecting results; output order matches Detect exactly.
func DetectParallel(bySymbol map[string][]models.TradeEvent, cfg Config) ([]models.Signal, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	type part struct{ signals []models.Signal }
	results := make([]part, len(bySymbol))
	var wg sync.WaitGroup
	i := 0
	for sym, evs := range bySymbol {
		wg.Add(1)
		go func(slot int, sym string, evs []models.TradeEvent) {
			defer wg.Done()
			results[slot] = part{signals: detectSymbol(sym, evs, cfg)}
		}(i, sym, evs)
		i++
	}
	wg.Wait()

	var signals []models.Signal
	for _, r := range results {
		signals = append(signals, r.signals...)
	}
	sortSignals(signals)
	return signals, nil
}

func sortSignals(signals []models.Signal) {
	sort.Slice(signals, func(i, j int) bool {
		if !signals[i].EventTime.Equal(signals[j].EventTime) {
			return signals[i].EventTime.Before(signals[j].EventTime)
		}
		return signals[i].Symbol < signals[j].Symbol
	})
}

// detectSymbol runs the sliding-window crossing test over one symbol's events.
// It keeps a deque of in-window events with a running notional sum and actor
// refcounts, so each event enters and leaves the window exactly once:
// amortized O(n) against the O(n^2) of re-aggregating per candidate. The
// "previous" evaluation subtracts the group of events at the candidate
// instant, which shares the same left edge as the current window.
func detectSymbol(symbol string, events []models.TradeEvent, cfg Config) []models.Signal {
	filter := FilterFor(cfg.ExcludeScheduled)
	evs := make([]models.TradeEvent, 0, len(events))
	for _, e := range events {
		if filter(e) {
			evs = append(evs, e)
		}
	}
	if len(evs) == 0 {
		return nil
	}
	sort.SliceStable(evs, func(i, j int) bool {
		if !evs[i].EventTime.Equal(evs[j].EventTime) {
			return evs[i].EventTime.Before(evs[j].EventTime)
		}
		if evs[i].Actor != evs[j].Actor {
			return evs[i].Actor < evs[j].Actor
		}
		return evs[i].SourceRef < evs[j].SourceRef
	})

	w := slidingWindow{refcount: make(map[string]int)}
	var signals []models.Signal

	// Candidates are distinct event times: events sharing a timestamp see the
	// same current and previous windows, so one evaluation covers them all and
	// at most one signal can fire per instant.
	for i := 0; i < len(evs); {
		t := evs[i].EventTime

		// Absorb the whole group at t into the window.
		j := i
		for j < len(evs) && evs[j].EventTime.Equal(t) {
			w.push(evs[j])
			j++
		}

		// Expire everything strictly before t-window; the left boundary itself
		// stays in (closed interval).
		start := t.Add(-cfg.Window)
		for len(w.deque) > 0 && w.deque[0].EventTime.Before(start) {
			w.pop()
		}

		current := w.stat()
		previous := w.statExcludingGroup(i, j, evs)

		if cfg.satisfied(current) && !cfg.satisfied(previous) {
			signals = append(signals, models.Signal{
				Symbol:         symbol,
				EventTime:      t,
				DistinctActors: current.DistinctActors,
				TotalNotional:  current.TotalNotional,
			})
		}
		i = j
	}
	return signals
}

// slidingWindow holds the events currently inside the trailing window with
// incremental distinct-actor bookkeeping.
type slidingWindow struct {
	deque    []models.TradeEvent
	refcount map[string]int
	distinct int
	notional float64
}

func (w *slidingWindow) push(e models.TradeEvent) {
	w.deque = append(w.deque, e)
	if w.refcount[e.Actor] == 0 {
		w.distinct++
	}
	w.refcount[e.Actor]++
	w.notional += e.Notional()
}

func (w *slidingWindow) pop() {
	e := w.deque[0]
	w.deque = w.deque[1:]
	w.refcount[e.Actor]--
	if w.refcount[e.Actor] == 0 {
		w.distinct--
		delete(w.refcount, e.Actor)
	}
	w.notional -= e.Notional()
}

func (w *slidingWindow) stat() models.WindowStat {
	return models.WindowStat{DistinctActors: w.distinct, TotalNotional: w.notional}
}

// statExcludingGroup evaluates the window as if the events evs[i:j] (the group
// at the candidate instant) were absent. Actors whose every in-window
// occurrence sits inside the group vanish from the previous count.
func (w *slidingWindow) statExcludingGroup(i, j int, evs []models.TradeEvent) models.WindowStat {
	groupActors := make(map[string]int, j-i)
	var groupNotional float64
	for _, e := range evs[i:j] {
		groupActors[e.Actor]++
		groupNotional += e.Notional()
	}
	gone := 0
	for actor, n := range groupActors {
		if w.refcount[actor] == n {
			gone++
		}
	}
	return models.WindowStat{
		DistinctActors: w.distinct - gone,
		TotalNotional:  w.notional - groupNotional,
	}
}
