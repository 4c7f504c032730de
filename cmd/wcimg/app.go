package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nvandessel/wcimg/internal/activity"
	"github.com/nvandessel/wcimg/internal/analysis"
	"github.com/nvandessel/wcimg/internal/config"
	"github.com/nvandessel/wcimg/internal/logging"
	"github.com/nvandessel/wcimg/internal/metrics"
	"github.com/nvandessel/wcimg/internal/store"
	"github.com/nvandessel/wcimg/internal/units"
)

// app is the per-invocation environment shared by the commands.
type app struct {
	cfg       *config.WcimgConfig
	params    *config.Params
	logger    *slog.Logger
	decisions *logging.DecisionLogger
	metrics   *metrics.Registry
}

// newApp loads configuration, applies flag overrides and sets up logging
// and metrics.
func newApp(cmd *cobra.Command) (*app, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPath(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := applyFlagOverrides(cmd, cfg); err != nil {
		return nil, err
	}

	params, err := cfg.Resolve()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	a := &app{
		cfg:       cfg,
		params:    params,
		logger:    logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr()),
		decisions: logging.NewDecisionLogger(cfg.Logging.Dir, cfg.Logging.Level),
	}
	if cfg.Metrics.Textfile != "" {
		a.metrics = metrics.NewRegistry()
	}
	return a, nil
}

// applyFlagOverrides copies explicitly set flags into cfg. Flags a command
// does not define are ignored.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.WcimgConfig) error {
	strFlags := map[string]*string{
		"log-level":        &cfg.Logging.Level,
		"metrics-textfile": &cfg.Metrics.Textfile,
		"store":            &cfg.Store.Path,
		"speed":            &cfg.Drift.Speed,
		"t0":               &cfg.Drift.T0,
		"tick":             &cfg.Signature.Tick,
		"focus":            &cfg.Signature.Focus,
		"sampling":         &cfg.Sampling.Strategy,
		"geom":             &cfg.Bee.Geom,
	}
	for name, dst := range strFlags {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			*dst = f.Value.String()
		}
	}

	floatFlags := map[string]*float64{
		"density":     &cfg.Sampling.Density,
		"value-scale": &cfg.Signature.ValueScale,
	}
	for name, dst := range floatFlags {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			v, err := strconv.ParseFloat(f.Value.String(), 64)
			if err != nil {
				return fmt.Errorf("--%s: %w", name, err)
			}
			*dst = v
		}
	}
	return nil
}

// close flushes metrics and closes the decision log.
func (a *app) close() {
	a.decisions.Close()
	if err := a.metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		a.logger.Warn("failed to write metrics", "error", err)
	}
}

func (a *app) runner(command string) *analysis.Runner {
	r := analysis.NewRunner(command, a.params, a.logger)
	r.Decisions = a.decisions
	r.Metrics = a.metrics
	return r
}

// openStore opens the run catalog at the configured path.
func (a *app) openStore() (*store.SQLiteRunStore, error) {
	path := a.cfg.Store.Path
	if path == "" {
		var err error
		if path, err = store.DefaultDBPath(); err != nil {
			return nil, err
		}
	}
	s, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return s, nil
}

// paramsSnapshot is the JSON record of the analysis settings of a run.
func (a *app) paramsSnapshot() string {
	data, err := json.Marshal(struct {
		Drift     config.DriftConfig     `json:"drift"`
		Signature config.SignatureConfig `json:"signature"`
		Sampling  config.SamplingConfig  `json:"sampling"`
	}{a.cfg.Drift, a.cfg.Signature, a.cfg.Sampling})
	if err != nil {
		return ""
	}
	return string(data)
}

func addDriftFlags(cmd *cobra.Command) {
	cmd.Flags().String("speed", "", "Drift speed, e.g. 1.6*mm/us; 0 keeps time coordinates")
	cmd.Flags().String("t0", "", "Time offset added before undrifting, e.g. 10*us")
}

func addSignatureFlags(cmd *cobra.Command) {
	cmd.Flags().String("tick", "", "Slice tick, e.g. 500*ns")
	cmd.Flags().String("focus", "", "Activity quantity: val or unc")
}

func addSamplingFlags(cmd *cobra.Command) {
	cmd.Flags().String("sampling", "", "Blob sampling: center or uniform")
	cmd.Flags().Float64("density", 0, "Uniform sampling density in points per cubic centimeter")
}

// writeOutput creates path and passes it to write.
func writeOutput(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// eventName labels an event as <file>[<graph>].
func eventName(ev analysis.Event) string {
	return fmt.Sprintf("%s[%d]", filepath.Base(ev.Source), ev.Graph)
}

// parseWindow parses a slice window "lo:hi". Empty means no window.
func parseWindow(s string) (*activity.Range, error) {
	if s == "" {
		return nil, nil
	}
	lo, hi, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("invalid slice window %q (want lo:hi)", s)
	}
	l, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return nil, fmt.Errorf("invalid slice window %q: %w", s, err)
	}
	h, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return nil, fmt.Errorf("invalid slice window %q: %w", s, err)
	}
	if h < l {
		return nil, fmt.Errorf("invalid slice window %q: hi < lo", s)
	}
	return &activity.Range{Lo: l, Hi: h}, nil
}

// parseVector parses "x,y,z" where each component is a unit expression.
func parseVector(s string) ([3]float64, error) {
	var v [3]float64
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return v, fmt.Errorf("invalid vector %q (want x,y,z)", s)
	}
	for i, p := range parts {
		f, err := units.Parse(strings.TrimSpace(p))
		if err != nil {
			return v, fmt.Errorf("invalid vector %q: %w", s, err)
		}
		v[i] = f
	}
	return v, nil
}
