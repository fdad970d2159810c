// Copyright (C) 2024  The zombie-bite Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/zombienet/zombie-bite/internal/logging"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

const (
	substratePrefix = "substrate_"

	// MajorSyncing is 1 while a node is still catching up with the network.
	MajorSyncing = "substrate_sub_libp2p_is_major_syncing"
	// BestBlock is the height of the best block a node knows of.
	BestBlock = `block_height{status="best"}`
)

var (
	ErrMetricNotFound = errors.New("metric not found")
	ErrInvalidQuery   = errors.New("invalid metric query")
)

// Query selects one sample by name and label values.
type Query struct {
	Name   string
	Labels map[string]string
}

// ParseQuery reads the name{label="value",...} form. The substrate_ prefix
// can be left out.
func ParseQuery(s string) (Query, error) {
	s = strings.TrimSpace(s)
	q := Query{Labels: map[string]string{}}

	name, rest, hasLabels := strings.Cut(s, "{")
	q.Name = strings.TrimSpace(name)
	if q.Name == "" {
		return Query{}, fmt.Errorf("%q: %w", s, ErrInvalidQuery)
	}
	if !hasLabels {
		return q, nil
	}
	if !strings.HasSuffix(rest, "}") {
		return Query{}, fmt.Errorf("%q: %w", s, ErrInvalidQuery)
	}
	for _, pair := range strings.Split(strings.TrimSuffix(rest, "}"), ",") {
		if strings.TrimSpace(pair) == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return Query{}, fmt.Errorf("%q: %w", s, ErrInvalidQuery)
		}
		q.Labels[strings.TrimSpace(k)] = strings.Trim(strings.TrimSpace(v), `"`)
	}
	return q, nil
}

func (q Query) String() string {
	if len(q.Labels) == 0 {
		return q.Name
	}
	pairs := make([]string, 0, len(q.Labels))
	for k, v := range q.Labels {
		pairs = append(pairs, fmt.Sprintf("%s=%q", k, v))
	}
	return q.Name + "{" + strings.Join(pairs, ",") + "}"
}

// Scraper reads the prometheus text exposition of a node.
type Scraper struct {
	log    *logging.Logger
	client *http.Client
}

func NewScraper(log *logging.Logger, timeout time.Duration) *Scraper {
	return &Scraper{
		log:    log.Named("scraper"),
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch downloads and parses every metric family exposed at url.
func (s *Scraper) Fetch(ctx context.Context, url string) (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s from %s", resp.Status, url)
	}

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("couldn't parse metrics from %s: %w", url, err)
	}
	return families, nil
}

// Read returns the value of the sample selected by query.
func (s *Scraper) Read(ctx context.Context, url, query string) (float64, error) {
	q, err := ParseQuery(query)
	if err != nil {
		return 0, err
	}
	families, err := s.Fetch(ctx, url)
	if err != nil {
		return 0, err
	}
	return Value(families, q)
}

// Value looks the query up in families, trying the substrate_ prefixed name
// when the bare one is missing.
func Value(families map[string]*dto.MetricFamily, q Query) (float64, error) {
	family, ok := families[q.Name]
	if !ok && !strings.HasPrefix(q.Name, substratePrefix) {
		family, ok = families[substratePrefix+q.Name]
	}
	if !ok {
		return 0, fmt.Errorf("%s: %w", q, ErrMetricNotFound)
	}

	for _, m := range family.GetMetric() {
		if !matches(m, q.Labels) {
			continue
		}
		switch family.GetType() {
		case dto.MetricType_COUNTER:
			return m.GetCounter().GetValue(), nil
		case dto.MetricType_GAUGE:
			return m.GetGauge().GetValue(), nil
		default:
			return m.GetUntyped().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("%s: %w", q, ErrMetricNotFound)
}

func matches(m *dto.Metric, labels map[string]string) bool {
	found := 0
	for _, l := range m.GetLabel() {
		if want, ok := labels[l.GetName()]; ok {
			if want != l.GetValue() {
				return false
			}
			found++
		}
	}
	return found == len(labels)
}

// WaitReady polls url with an exponential backoff until it answers or ctx
// is done.
func (s *Scraper) WaitReady(ctx context.Context, url string) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 0

	return backoff.Retry(
		func() error {
			_, err := s.Fetch(ctx, url)
			return err
		},
		backoff.WithContext(b, ctx),
	)
}

// WaitSync polls the major syncing flag of the node every interval and
// returns once it is no longer set. onTick, when set, is called on every
// poll. A failed read counts as synced.
func (s *Scraper) WaitSync(ctx context.Context, url string, interval time.Duration, onTick func()) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if onTick != nil {
			onTick()
		}
		v, err := s.Read(ctx, url, MajorSyncing)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Debug("couldn't read the sync state, assuming synced",
				logging.String("url", url),
				logging.Error(err),
			)
			return nil
		}
		if v != 1 {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
