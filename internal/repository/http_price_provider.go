package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"InsiderScan/internal/domain/models"
	domrepo "InsiderScan/internal/domain/repository"
	xhttp "InsiderScan/pkg/http"
)

// HTTPPriceProvider fetches daily bars from an external quote service when no
// ClickHouse price table is available.
type HTTPPriceProvider struct {
	baseURL string
	client  *xhttp.Client
}

// NewHTTPPriceProvider creates an HTTP-backed price provider.
func NewHTTPPriceProvider(baseURL string, timeout time.Duration) *HTTPPriceProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPPriceProvider{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type barsResp struct {
	Bars []struct {
		Session  string  `json:"session"`
		Open     float64 `json:"open"`
		AdjClose float64 `json:"adj_close"`
	} `json:"bars"`
}

func (p *HTTPPriceProvider) DailyBars(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error) {
	var br barsResp
	err := p.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    p.baseURL + "/bars",
		QueryParams: map[string][]string{
			"symbol": {symbol},
			"from":   {from.UTC().Format("2006-01-02")},
			"to":     {to.UTC().Format("2006-01-02")},
		},
	}, &br)
	if err != nil {
		return nil, fmt.Errorf("fetch bars %s: %w", symbol, err)
	}

	out := make([]models.PriceBar, 0, len(br.Bars))
	for _, b := range br.Bars {
		session, err := time.Parse("2006-01-02", b.Session)
		if err != nil {
			continue // skip unparseable rows, keep the series
		}
		out = append(out, models.PriceBar{Session: session.UTC(), Open: b.Open, AdjClose: b.AdjClose})
	}
	// The evaluator binary-searches; enforce ascending order here.
	sort.Slice(out, func(i, j int) bool { return out[i].Session.Before(out[j].Session) })
	return out, nil
}

var _ domrepo.PriceProvider = (*HTTPPriceProvider)(nil)
