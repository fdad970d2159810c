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
	"net/http"
	"sync"
	"time"

	"github.com/zombienet/zombie-bite/internal/logging"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// Gauge ...
	Gauge instrument = iota
	// Counter ...
	Counter
	// Histogram ...
	Histogram
)

const namespace = "zombie_bite"

var (
	// ErrInstrumentNotSupported signals the specified instrument is not yet supported
	ErrInstrumentNotSupported = errors.New("instrument type unsupported")
	// ErrInstrumentTypeMismatch signal the type of the instrument is not expected
	ErrInstrumentTypeMismatch = errors.New("instrument is not of the expected type")
)

var (
	setupOnce sync.Once
	setupErr  error

	// restarts issued by the monitor, per node
	restartCounter *prometheus.CounterVec
	// restarts that failed, per node
	restartFailureCounter *prometheus.CounterVec
	// warp sync duration, per chain
	syncDuration *prometheus.HistogramVec
	// size of the last snapshot, per chain
	snapshotBytes *prometheus.GaugeVec
	// best block seen by the monitor, per node
	bestBlock *prometheus.GaugeVec
)

// abstract prometheus types
type instrument int

// combine all possible prometheus options + way to differentiate between regular or vector type
type instrumentOpts struct {
	opts    prometheus.Opts
	buckets []float64
	vectors []string
}

type mi struct {
	gaugeV     *prometheus.GaugeVec
	counterV   *prometheus.CounterVec
	histogramV *prometheus.HistogramVec
}

// InstrumentOption - vararg for instrument options setting
type InstrumentOption func(o *instrumentOpts)

// Vectors - configuration used to create a vector of a given interface, slice of label names
func Vectors(labels ...string) InstrumentOption {
	return func(o *instrumentOpts) {
		o.vectors = labels
	}
}

// Help - set the help field on instrument
func Help(help string) InstrumentOption {
	return func(o *instrumentOpts) {
		o.opts.Help = help
	}
}

// Namespace - set namespace
func Namespace(ns string) InstrumentOption {
	return func(o *instrumentOpts) {
		o.opts.Namespace = ns
	}
}

// Buckets - specific to histogram type
func Buckets(b []float64) InstrumentOption {
	return func(o *instrumentOpts) {
		o.buckets = b
	}
}

// AddInstrument configures and registers a new vector instrument with reg.
func AddInstrument(reg prometheus.Registerer, t instrument, name string, opts ...InstrumentOption) (*mi, error) {
	var col prometheus.Collector
	ret := mi{}
	opt := instrumentOpts{
		opts: prometheus.Opts{
			Name: name,
		},
	}
	for _, o := range opts {
		o(&opt)
	}

	switch t {
	case Gauge:
		ret.gaugeV = prometheus.NewGaugeVec(prometheus.GaugeOpts(opt.opts), opt.vectors)
		col = ret.gaugeV
	case Counter:
		ret.counterV = prometheus.NewCounterVec(prometheus.CounterOpts(opt.opts), opt.vectors)
		col = ret.counterV
	case Histogram:
		ret.histogramV = prometheus.NewHistogramVec(opt.histogram(), opt.vectors)
		col = ret.histogramV
	default:
		return nil, ErrInstrumentNotSupported
	}

	if err := reg.Register(col); err != nil {
		return nil, err
	}
	return &ret, nil
}

func (i instrumentOpts) histogram() prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Name:        i.opts.Name,
		Namespace:   i.opts.Namespace,
		Subsystem:   i.opts.Subsystem,
		ConstLabels: i.opts.ConstLabels,
		Help:        i.opts.Help,
		Buckets:     i.buckets,
	}
}

// GaugeVec returns a prometheus GaugeVec instrument
func (m mi) GaugeVec() (*prometheus.GaugeVec, error) {
	if m.gaugeV == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.gaugeV, nil
}

// CounterVec returns a prometheus CounterVec instrument
func (m mi) CounterVec() (*prometheus.CounterVec, error) {
	if m.counterV == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.counterV, nil
}

func (m mi) HistogramVec() (*prometheus.HistogramVec, error) {
	if m.histogramV == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.histogramV, nil
}

// Setup registers the zombie-bite instruments with the default registry.
// It is safe to call more than once.
func Setup() error {
	setupOnce.Do(func() {
		setupErr = setupMetrics(prometheus.DefaultRegisterer)
	})
	return setupErr
}

// Start serves the default registry on conf.Address until ctx is done.
func Start(ctx context.Context, log *logging.Logger, conf Config) error {
	if !conf.Enabled {
		return nil
	}
	if err := Setup(); err != nil {
		return errors.Wrap(err, "could not set up metrics")
	}

	mux := http.NewServeMux()
	mux.Handle(conf.Path, promhttp.Handler())
	srv := &http.Server{
		Addr:              conf.Address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		log.Info("serving metrics",
			logging.String("address", conf.Address),
			logging.String("path", conf.Path),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", logging.Error(err))
		}
	}()
	return nil
}

func setupMetrics(reg prometheus.Registerer) error {
	h, err := AddInstrument(
		reg,
		Counter,
		"restarts_total",
		Namespace(namespace),
		Vectors("node"),
		Help("Number of node restarts issued by the monitor"),
	)
	if err != nil {
		return err
	}
	if restartCounter, err = h.CounterVec(); err != nil {
		return err
	}

	h, err = AddInstrument(
		reg,
		Counter,
		"restart_failures_total",
		Namespace(namespace),
		Vectors("node"),
		Help("Number of node restarts that failed"),
	)
	if err != nil {
		return err
	}
	if restartFailureCounter, err = h.CounterVec(); err != nil {
		return err
	}

	h, err = AddInstrument(
		reg,
		Histogram,
		"sync_duration_seconds",
		Namespace(namespace),
		Vectors("chain"),
		Buckets(prometheus.ExponentialBuckets(30, 2, 10)),
		Help("Time spent warp syncing a chain"),
	)
	if err != nil {
		return err
	}
	if syncDuration, err = h.HistogramVec(); err != nil {
		return err
	}

	h, err = AddInstrument(
		reg,
		Gauge,
		"snapshot_bytes",
		Namespace(namespace),
		Vectors("chain"),
		Help("Size of the last database snapshot"),
	)
	if err != nil {
		return err
	}
	if snapshotBytes, err = h.GaugeVec(); err != nil {
		return err
	}

	h, err = AddInstrument(
		reg,
		Gauge,
		"best_block",
		Namespace(namespace),
		Vectors("node"),
		Help("Best block reported by a monitored node"),
	)
	if err != nil {
		return err
	}
	bestBlock, err = h.GaugeVec()
	return err
}

// RestartCounterInc increments the restart counter of node.
func RestartCounterInc(node string) {
	if restartCounter == nil {
		return
	}
	restartCounter.WithLabelValues(node).Inc()
}

// RestartFailureCounterInc increments the failed restart counter of node.
func RestartFailureCounterInc(node string) {
	if restartFailureCounter == nil {
		return
	}
	restartFailureCounter.WithLabelValues(node).Inc()
}

func SyncDurationObserve(chain string, d time.Duration) {
	if syncDuration == nil {
		return
	}
	syncDuration.WithLabelValues(chain).Observe(d.Seconds())
}

func SnapshotBytesSet(chain string, n int64) {
	if snapshotBytes == nil {
		return
	}
	snapshotBytes.WithLabelValues(chain).Set(float64(n))
}

func BestBlockSet(node string, block float64) {
	if bestBlock == nil {
		return
	}
	bestBlock.WithLabelValues(node).Set(block)
}
