package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"InsiderScan/internal/domain/models"
	pkgch "InsiderScan/pkg/clickhouse"
	applogger "InsiderScan/pkg/logger"
)

// CHEventArchive persists trade events to ClickHouse. The archive is an
// append-only audit trail behind the in-memory store; dedup stays the store's
// responsibility, the archive just records what was accepted.
type CHEventArchive struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

// NewCHEventArchive creates a ClickHouse-backed event archive.
func NewCHEventArchive(ch *pkgch.Client, table string) *CHEventArchive {
	return &CHEventArchive{db: ch.DB(), table: table}
}

// SetLogger injects a structured logger.
func (a *CHEventArchive) SetLogger(l *applogger.Logger) { a.l = l }

// StoreBatch inserts accepted events in chunks to limit round-trips.
func (a *CHEventArchive) StoreBatch(ctx context.Context, events []models.TradeEvent) error {
	if len(events) == 0 {
		return nil
	}
	const chunkSize = 2000
	for start := 0; start < len(events); start += chunkSize {
		end := start + chunkSize
		if end > len(events) {
			end = len(events)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*7)
		for _, e := range events[start:end] {
			if e.Symbol == "" || e.EventTime.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				e.Symbol,
				e.Actor,
				e.Shares,
				e.Price,
				e.ScheduledPlan,
				e.EventTime,
				e.SourceRef,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (symbol, actor, shares, price, scheduled_plan, event_time, source_ref) VALUES %s",
			a.table, strings.Join(values, ","))
		if _, err := a.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("archive batch: %w", err)
		}
	}
	return nil
}

// LoadAll streams the full archive back, ascending by (symbol, event_time),
// to warm the in-memory store on startup. The store re-dedupes, so replaying
// overlapping archives is harmless.
func (a *CHEventArchive) LoadAll(ctx context.Context) ([]models.TradeEvent, error) {
	start := time.Now()
	q := fmt.Sprintf(`SELECT symbol, actor, shares, price, scheduled_plan, event_time, source_ref
        FROM %s ORDER BY symbol, event_time`, a.table)
	rows, err := a.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("load archive: %w", err)
	}
	defer rows.Close()

	out := make([]models.TradeEvent, 0, 1024)
	for rows.Next() {
		var e models.TradeEvent
		if err := rows.Scan(&e.Symbol, &e.Actor, &e.Shares, &e.Price, &e.ScheduledPlan, &e.EventTime, &e.SourceRef); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if a.l != nil {
		a.l.Info("clickhouse archive loaded",
			applogger.String("table", a.table),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

// Health performs a connectivity check.
func (a *CHEventArchive) Health(ctx context.Context) error {
	return a.db.PingContext(ctx)
}
