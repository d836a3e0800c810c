package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"runtime"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/vango-dev/depot/internal/config"
	"github.com/vango-dev/depot/pkg/plugins/metrics"
	"github.com/vango-dev/depot/pkg/plugins/tracing"
	"github.com/vango-dev/depot/pkg/reactive"
	"github.com/vango-dev/depot/pkg/store"
)

type benchOptions struct {
	profile    string
	iterations int
	jsonOutput string
	metrics    bool
	tracing    bool
}

func benchCmd(flags *globalFlags) *cobra.Command {
	opts := &benchOptions{}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run the store benchmark",
		Long: `Run a counter workload against a fresh registry.

Each profile creates a number of counter stores, attaches subscribers with
the profile's flush mode, and runs the increment action repeatedly with a
patch every few actions. The run is verified against the expected counts.

Examples:
  depot bench
  depot bench --profile=stress --metrics
  depot bench --profile=fast --json=report.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			return runBench(cmd.Context(), cmd.OutOrStdout(), newLogger(cfg, cmd.ErrOrStderr()), cfg, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.profile, "profile", "p", "", "Profile name (default from config)")
	cmd.Flags().IntVarP(&opts.iterations, "iterations", "n", 0, "Override the profile's iterations")
	cmd.Flags().StringVar(&opts.jsonOutput, "json", "", "Write the JSON report to a path ('-' for stdout)")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "Install the metrics plugin and print the collected metrics")
	cmd.Flags().BoolVar(&opts.tracing, "trace", false, "Install the tracing plugin")

	return cmd
}

type benchReport struct {
	Version    string         `json:"version"`
	Run        runInfo        `json:"run"`
	Workload   workloadInfo   `json:"workload"`
	LatencyUS  latencyInfo    `json:"latency_us"`
	Throughput throughputInfo `json:"throughput"`
	GC         gcInfo         `json:"gc"`
	Verified   bool           `json:"verified"`
}

type runInfo struct {
	Timestamp string `json:"timestamp"`
	Go        string `json:"go"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	CPUCount  int    `json:"cpu_count"`
}

type workloadInfo struct {
	Profile     string `json:"profile"`
	Stores      int    `json:"stores"`
	Iterations  int    `json:"iterations"`
	Subscribers int    `json:"subscribers"`
	PatchEvery  int    `json:"patch_every"`
	Flush       string `json:"flush"`
	Metrics     bool   `json:"metrics"`
	Tracing     bool   `json:"tracing"`
}

type latencyInfo struct {
	Min float64 `json:"min"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
	Max float64 `json:"max"`
}

type throughputInfo struct {
	Actions       uint64  `json:"actions"`
	Patches       uint64  `json:"patches"`
	Deliveries    uint64  `json:"deliveries"`
	DurationMS    float64 `json:"duration_ms"`
	ActionsPerSec float64 `json:"actions_per_sec"`
}

type gcInfo struct {
	AllocMB float64 `json:"alloc_mb"`
	NumGC   uint32  `json:"num_gc"`
}

// benchCounters accumulates the totals of one run.
type benchCounters struct {
	actions    uint64
	patches    uint64
	deliveries uint64
}

func runBench(ctx context.Context, w io.Writer, logger *slog.Logger, cfg *config.Config, opts *benchOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	name := opts.profile
	if name == "" {
		name = cfg.Bench.Profile
	}
	p, err := cfg.Profile(name)
	if err != nil {
		return err
	}
	if opts.iterations > 0 {
		p.Iterations = opts.iterations
	}
	mode, err := reactive.ParseFlushMode(p.Flush)
	if err != nil {
		return err
	}

	withMetrics := opts.metrics || cfg.Metrics.Enabled
	withTracing := opts.tracing || cfg.Tracing.Enabled

	r := store.NewRegistry(store.WithLogger(logger))
	defer r.Dispose()

	var promRegistry *prometheus.Registry
	if withMetrics {
		promRegistry = prometheus.NewRegistry()
		collector := metrics.New(
			metrics.WithNamespace(cfg.Metrics.Namespace),
			metrics.WithRegistry(promRegistry),
		)
		r.Use(collector.Plugin())
	}
	if withTracing {
		r.Use(tracing.Plugin(tracing.WithTracerName(cfg.Tracing.TracerName)))
	}

	logger.Info("bench started",
		"config", cfg.Path(),
		"profile", name,
		"stores", p.Stores,
		"iterations", p.Iterations,
		"flush", mode.String(),
	)

	var counters benchCounters
	stores := make([]*store.Store, p.Stores)
	for i := range stores {
		s := counterStore(fmt.Sprintf("counter-%d", i)).Use(r)
		for j := 0; j < p.Subscribers; j++ {
			s.Subscribe(func(store.Mutation, map[string]any) {
				counters.deliveries++
			}, store.WithFlush(mode))
		}
		stores[i] = s
	}

	var before runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)

	latencies := make([]time.Duration, 0, p.Stores*p.Iterations)
	start := time.Now()
	for i := 0; i < p.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, s := range stores {
			t0 := time.Now()
			if _, err := s.Call(ctx, "increment"); err != nil {
				return err
			}
			latencies = append(latencies, time.Since(t0))
			counters.actions++

			if p.PatchEvery > 0 && (i+1)%p.PatchEvery == 0 {
				s.PatchFunc(func(state *reactive.Object) {
					state.Set("n", asInt(state.Peek("n"))+1)
				})
				counters.patches++
			}
		}
		reactive.Flush()
	}
	elapsed := time.Since(start)

	var after runtime.MemStats
	runtime.ReadMemStats(&after)

	verified := true
	expected := p.Iterations
	if p.PatchEvery > 0 {
		expected += p.Iterations / p.PatchEvery
	}
	for _, s := range stores {
		if got := asInt(s.Get("n")); got != expected {
			logger.Error("counter mismatch", "store", s.ID(), "got", got, "want", expected)
			verified = false
		}
	}

	report := buildReport(name, p, mode, withMetrics, withTracing, latencies, elapsed, counters, before, after)
	report.Verified = verified

	writeSummary(w, report)
	if opts.jsonOutput != "" {
		if err := writeJSON(w, opts.jsonOutput, report); err != nil {
			return err
		}
	}
	if promRegistry != nil {
		if err := writeMetrics(w, promRegistry); err != nil {
			return err
		}
	}

	if !verified {
		return fmt.Errorf("bench: counters do not match the expected value %d", expected)
	}
	return nil
}

func buildReport(
	name string,
	p config.Profile,
	mode reactive.FlushMode,
	withMetrics, withTracing bool,
	latencies []time.Duration,
	elapsed time.Duration,
	counters benchCounters,
	before, after runtime.MemStats,
) benchReport {
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var lat latencyInfo
	if len(latencies) > 0 {
		lat = latencyInfo{
			Min: us(latencies[0]),
			P50: us(percentile(latencies, 0.50)),
			P95: us(percentile(latencies, 0.95)),
			P99: us(percentile(latencies, 0.99)),
			Max: us(latencies[len(latencies)-1]),
		}
	}

	perSec := 0.0
	if elapsed > 0 {
		perSec = float64(counters.actions) / elapsed.Seconds()
	}

	return benchReport{
		Version: version,
		Run: runInfo{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Go:        runtime.Version(),
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			CPUCount:  runtime.NumCPU(),
		},
		Workload: workloadInfo{
			Profile:     name,
			Stores:      p.Stores,
			Iterations:  p.Iterations,
			Subscribers: p.Subscribers,
			PatchEvery:  p.PatchEvery,
			Flush:       mode.String(),
			Metrics:     withMetrics,
			Tracing:     withTracing,
		},
		LatencyUS: lat,
		Throughput: throughputInfo{
			Actions:       counters.actions,
			Patches:       counters.patches,
			Deliveries:    counters.deliveries,
			DurationMS:    float64(elapsed) / float64(time.Millisecond),
			ActionsPerSec: perSec,
		},
		GC: gcInfo{
			AllocMB: float64(after.TotalAlloc-before.TotalAlloc) / (1024 * 1024),
			NumGC:   after.NumGC - before.NumGC,
		},
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := int(math.Ceil(float64(len(sorted))*p)) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func us(d time.Duration) float64 {
	return float64(d) / float64(time.Microsecond)
}

func writeSummary(w io.Writer, report benchReport) {
	fmt.Fprintln(w, "=== Depot Store Benchmark ===")
	fmt.Fprintf(w, "Profile: %s\n", report.Workload.Profile)
	fmt.Fprintf(w, "Stores: %d\n", report.Workload.Stores)
	fmt.Fprintf(w, "Iterations: %d\n", report.Workload.Iterations)
	fmt.Fprintf(w, "Subscribers per store: %d (flush %s)\n", report.Workload.Subscribers, report.Workload.Flush)
	if report.Workload.PatchEvery > 0 {
		fmt.Fprintf(w, "Patch every: %d actions\n", report.Workload.PatchEvery)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Actions: %d\n", report.Throughput.Actions)
	fmt.Fprintf(w, "Patches: %d\n", report.Throughput.Patches)
	fmt.Fprintf(w, "Deliveries: %d\n", report.Throughput.Deliveries)
	fmt.Fprintf(w, "Throughput: %.1f actions/s\n", report.Throughput.ActionsPerSec)
	fmt.Fprintf(w, "Verified: %t\n", report.Verified)
	fmt.Fprintln(w)

	if report.LatencyUS.Max == 0 {
		fmt.Fprintln(w, "No latency samples recorded.")
	} else {
		fmt.Fprintln(w, "Action latency:")
		fmt.Fprintf(w, "  min: %.2f µs\n", report.LatencyUS.Min)
		fmt.Fprintf(w, "  p50: %.2f µs\n", report.LatencyUS.P50)
		fmt.Fprintf(w, "  p95: %.2f µs\n", report.LatencyUS.P95)
		fmt.Fprintf(w, "  p99: %.2f µs\n", report.LatencyUS.P99)
		fmt.Fprintf(w, "  max: %.2f µs\n", report.LatencyUS.Max)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Go runtime / GC:")
	fmt.Fprintf(w, "  alloc:  %.2f MB\n", report.GC.AllocMB)
	fmt.Fprintf(w, "  num_gc: %d\n", report.GC.NumGC)
}

func writeJSON(stdout io.Writer, path string, report benchReport) error {
	out := stdout
	if path != "-" {
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		defer file.Close()
		out = file
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// writeMetrics prints the gathered families in the Prometheus text format.
func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
