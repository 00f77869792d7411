package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"InsiderScan/internal/domain/models"
	domrepo "InsiderScan/internal/domain/repository"
	pkgch "InsiderScan/pkg/clickhouse"
	applogger "InsiderScan/pkg/logger"
)

// CHPriceStore implements PriceProvider backed by a ClickHouse daily bars
// table. Bars come back ascending by session; gaps stay gaps.
type CHPriceStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

// NewCHPriceStore creates a ClickHouse price provider.
func NewCHPriceStore(ch *pkgch.Client, table string) *CHPriceStore {
	return &CHPriceStore{db: ch.DB(), table: table}
}

// SetLogger injects a structured logger.
func (s *CHPriceStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHPriceStore) DailyBars(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error) {
	start := time.Now()
	q := fmt.Sprintf(`SELECT session, open, adj_close FROM %s
        WHERE symbol = ? AND session >= ? AND session <= ?
        ORDER BY session ASC`, s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse daily_bars query error",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("daily bars: %w", err)
	}
	defer rows.Close()

	out := make([]models.PriceBar, 0, 256)
	for rows.Next() {
		var b models.PriceBar
		if err := rows.Scan(&b.Session, &b.Open, &b.AdjClose); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		b.Session = b.Session.UTC()
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse daily_bars ok",
			applogger.String("symbol", symbol),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

var _ domrepo.PriceProvider = (*CHPriceStore)(nil)
