package scan

import (
	"math/rand"
	"reflect"
	"testing"
	"time"

	"InsiderScan/internal/domain/models"
)

var day0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func ev(symbol, actor string, day int, notional float64) models.TradeEvent {
	return models.TradeEvent{
		Symbol:    symbol,
		Actor:     actor,
		Shares:    notional / 10,
		Price:     10,
		EventTime: day0.AddDate(0, 0, day),
	}
}

func defaultConfig() Config {
	return Config{
		Window:      14 * 24 * time.Hour,
		MinActors:   3,
		MinNotional: 300_000,
	}
}

// naiveDetect re-derives every signal from first principles with the window
// aggregators. The sliding-window implementation must agree with it exactly.
func naiveDetect(events []models.TradeEvent, cfg Config) []models.Signal {
	filter := FilterFor(cfg.ExcludeScheduled)
	bySym := make(map[string][]models.TradeEvent)
	for _, e := range events {
		if filter(e) {
			bySym[e.Symbol] = append(bySym[e.Symbol], e)
		}
	}

	var signals []models.Signal
	for sym, evs := range bySym {
		seen := make(map[time.Time]bool)
		var times []time.Time
		for _, e := range evs {
			if !seen[e.EventTime] {
				seen[e.EventTime] = true
				times = append(times, e.EventTime)
			}
		}
		for _, t := range times {
			cur := Aggregate(evs, sym, t, cfg.Window, filter)
			prev := AggregateBefore(evs, sym, t, cfg.Window, filter)
			if cfg.satisfied(cur) && !cfg.satisfied(prev) {
				signals = append(signals, models.Signal{
					Symbol:         sym,
					EventTime:      t,
					DistinctActors: cur.DistinctActors,
					TotalNotional:  cur.TotalNotional,
				})
			}
		}
	}
	sortSignals(signals)
	return signals
}

func TestDetectFirstCross(t *testing.T) {
	events := []models.TradeEvent{
		ev("ABC", "alice", 0, 200_000),
		ev("ABC", "bob", 3, 150_000),
		ev("ABC", "carol", 10, 100_000),
	}

	signals, err := Detect(events, defaultConfig())
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(signals) != 1 {
		t.Fatalf("expected 1 signal, got %d", len(signals))
	}
	s := signals[0]
	if s.Symbol != "ABC" || !s.EventTime.Equal(day0.AddDate(0, 0, 10)) {
		t.Fatalf("unexpected signal %+v", s)
	}
	if s.DistinctActors != 3 || s.TotalNotional != 450_000 {
		t.Fatalf("unexpected stats %+v", s)
	}
}

func TestDetectConjunctionRequired(t *testing.T) {
	// Three actors but below notional: no signal.
	events := []models.TradeEvent{
		ev("ABC", "alice", 0, 50_000),
		ev("ABC", "bob", 1, 50_000),
		ev("ABC", "carol", 2, 50_000),
	}
	signals, err := Detect(events, defaultConfig())
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(signals) != 0 {
		t.Fatalf("expected no signals, got %v", signals)
	}

	// Enough notional but one actor: still no signal.
	events = []models.TradeEvent{
		ev("ABC", "alice", 0, 200_000),
		ev("ABC", "alice", 1, 200_000),
	}
	signals, err = Detect(events, defaultConfig())
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(signals) != 0 {
		t.Fatalf("expected no signals, got %v", signals)
	}
}

func TestDetectNoRefireWhileSatisfied(t *testing.T) {
	events := []models.TradeEvent{
		ev("ABC", "alice", 0, 200_000),
		ev("ABC", "bob", 1, 150_000),
		ev("ABC", "carol", 2, 100_000),
		ev("ABC", "dave", 3, 100_000), // window still satisfied, no new signal
	}
	signals, err := Detect(events, defaultConfig())
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(signals) != 1 {
		t.Fatalf("expected 1 signal, got %d", len(signals))
	}
	if !signals[0].EventTime.Equal(day0.AddDate(0, 0, 2)) {
		t.Fatalf("signal at wrong time: %v", signals[0].EventTime)
	}
}

func TestDetectRefireAfterDecross(t *testing.T) {
	events := []models.TradeEvent{
		ev("ABC", "alice", 0, 200_000),
		ev("ABC", "bob", 1, 150_000),
		ev("ABC", "carol", 2, 100_000),
		// Quiet stretch longer than the window, then a fresh cluster.
		ev("ABC", "dave", 40, 200_000),
		ev("ABC", "erin", 41, 150_000),
		ev("ABC", "frank", 42, 100_000),
	}
	signals, err := Detect(events, defaultConfig())
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(signals) != 2 {
		t.Fatalf("expected 2 signals, got %d: %v", len(signals), signals)
	}
	if !signals[1].EventTime.Equal(day0.AddDate(0, 0, 42)) {
		t.Fatalf("second signal at wrong time: %v", signals[1].EventTime)
	}
}

func TestDetectWindowBoundaryInclusive(t *testing.T) {
	// The left edge t-window is inside the current window.
	cfg := Config{Window: 14 * 24 * time.Hour, MinActors: 2, MinNotional: 100_000}
	events := []models.TradeEvent{
		ev("ABC", "alice", 0, 60_000),
		ev("ABC", "bob", 14, 60_000),
	}
	signals, err := Detect(events, cfg)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(signals) != 1 {
		t.Fatalf("expected boundary event to count, got %d signals", len(signals))
	}

	// One day further and the first event has left the window.
	events[1] = ev("ABC", "bob", 15, 60_000)
	signals, err = Detect(events, cfg)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(signals) != 0 {
		t.Fatalf("expected no signals past the window, got %v", signals)
	}
}

func TestDetectSameInstantGroup(t *testing.T) {
	// A whole cluster at one timestamp fires at most one signal.
	events := []models.TradeEvent{
		ev("ABC", "alice", 5, 150_000),
		ev("ABC", "bob", 5, 150_000),
		ev("ABC", "carol", 5, 100_000),
	}
	signals, err := Detect(events, defaultConfig())
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(signals) != 1 {
		t.Fatalf("expected 1 signal for simultaneous cluster, got %d", len(signals))
	}
	if signals[0].DistinctActors != 3 {
		t.Fatalf("unexpected actors %d", signals[0].DistinctActors)
	}
}

func TestDetectExcludeScheduledPlans(t *testing.T) {
	cfg := defaultConfig()
	cfg.ExcludeScheduled = true

	events := []models.TradeEvent{
		ev("ABC", "alice", 0, 200_000),
		ev("ABC", "bob", 3, 150_000),
		ev("ABC", "carol", 10, 100_000),
	}
	events[2].ScheduledPlan = true

	signals, err := Detect(events, cfg)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(signals) != 0 {
		t.Fatalf("scheduled-plan event should be filtered, got %v", signals)
	}
}

func TestDetectSymbolsIndependent(t *testing.T) {
	events := []models.TradeEvent{
		ev("AAA", "alice", 0, 200_000),
		ev("AAA", "bob", 1, 150_000),
		ev("BBB", "carol", 2, 500_000),
	}
	signals, err := Detect(events, defaultConfig())
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(signals) != 0 {
		t.Fatalf("activity must not pool across symbols, got %v", signals)
	}
}

func TestDetectDeterministic(t *testing.T) {
	events := randomEvents(500, 3)
	cfg := defaultConfig()

	first, err := Detect(events, cfg)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := Detect(events, cfg)
		if err != nil {
			t.Fatalf("detect: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differed from first run", i)
		}
	}
}

func TestDetectMatchesNaive(t *testing.T) {
	for seed := int64(1); seed <= 8; seed++ {
		events := randomEventsSeed(400, 4, seed)
		cfg := Config{Window: 10 * 24 * time.Hour, MinActors: 2, MinNotional: 150_000}

		fast, err := Detect(events, cfg)
		if err != nil {
			t.Fatalf("detect: %v", err)
		}
		slow := naiveDetect(events, cfg)
		if !reflect.DeepEqual(fast, slow) {
			t.Fatalf("seed %d: sliding window disagrees with reference\nfast: %v\nslow: %v", seed, fast, slow)
		}
	}
}

func TestDetectParallelMatchesDetect(t *testing.T) {
	events := randomEvents(600, 5)
	cfg := defaultConfig()

	serial, err := Detect(events, cfg)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}

	bySym := make(map[string][]models.TradeEvent)
	for _, e := range events {
		bySym[e.Symbol] = append(bySym[e.Symbol], e)
	}
	parallel, err := DetectParallel(bySym, cfg)
	if err != nil {
		t.Fatalf("detect parallel: %v", err)
	}
	if !reflect.DeepEqual(serial, parallel) {
		t.Fatalf("parallel output differs from serial")
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []Config{
		{Window: 0, MinActors: 1, MinNotional: 0},
		{Window: time.Hour, MinActors: 0, MinNotional: 0},
		{Window: time.Hour, MinActors: 1, MinNotional: -1},
	}
	for i, cfg := range cases {
		if err := cfg.Validate(); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
	good := defaultConfig()
	if err := good.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func randomEvents(n, symbols int) []models.TradeEvent {
	return randomEventsSeed(n, symbols, 42)
}

func randomEventsSeed(n, symbols int, seed int64) []models.TradeEvent {
	rng := rand.New(rand.NewSource(seed))
	syms := []string{"AAA", "BBB", "CCC", "DDD", "EEE"}[:symbols]
	actors := []string{"alice", "bob", "carol", "dave", "erin", "frank"}

	events := make([]models.TradeEvent, 0, n)
	for i := 0; i < n; i++ {
		e := models.TradeEvent{
			Symbol:    syms[rng.Intn(len(syms))],
			Actor:     actors[rng.Intn(len(actors))],
			Shares:    float64(rng.Intn(20_000) + 100),
			Price:     float64(rng.Intn(90) + 10),
			EventTime: day0.Add(time.Duration(rng.Intn(60*24)) * time.Hour),
		}
		if rng.Intn(5) == 0 {
			e.ScheduledPlan = true
		}
		events = append(events, e)
	}
	return events
}
