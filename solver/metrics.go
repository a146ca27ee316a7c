package solver

import "github.com/prometheus/client_golang/prometheus"

// Prometheus bridge over the propagation counters, so that an embedding
// solver can export them alongside its own metrics.

type statsCollector struct {
	s     *Solver
	descs map[string]*prometheus.Desc
}

// NewStatsCollector returns a prometheus.Collector exposing the solver's
// propagation counters. The collector reads the counters without locking:
// it must be gathered from the goroutine driving the solver, or between
// solving phases.
func NewStatsCollector(s *Solver) prometheus.Collector {
	mk := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc("hypersat_"+name, help, nil, nil)
	}
	return &statsCollector{
		s: s,
		descs: map[string]*prometheus.Desc{
			"propagations":      mk("propagations_total", "Literals bound by enqueue operations."),
			"props_bin":         mk("props_bin_total", "Propagations through binary clauses."),
			"props_tri":         mk("props_tri_total", "Propagations through ternary clauses."),
			"props_long_irred":  mk("props_long_irred_total", "Propagations through long non-learnt clauses."),
			"props_long_red":    mk("props_long_red_total", "Propagations through long learnt clauses."),
			"bogo_props":        mk("bogo_props_total", "Platform-independent propagation effort."),
			"hyper_bin_added":   mk("hyper_bin_added_total", "Hyper-binary clauses synthesized during probing."),
			"useless_bin_found": mk("useless_bin_found_total", "Binary clauses found redundant during probing."),
			"failed_probes":     mk("failed_probes_total", "Probes that ended in a conflict."),
		},
	}
}

func (c *statsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.descs {
		ch <- d
	}
}

func (c *statsCollector) Collect(ch chan<- prometheus.Metric) {
	st := c.s.Stats
	counter := func(name string, v uint64) {
		ch <- prometheus.MustNewConstMetric(c.descs[name], prometheus.CounterValue, float64(v))
	}
	counter("propagations", st.Propagations)
	counter("props_bin", st.PropsBin)
	counter("props_tri", st.PropsTri)
	counter("props_long_irred", st.PropsLongIrred)
	counter("props_long_red", st.PropsLongRed)
	counter("bogo_props", st.BogoProps)
	counter("hyper_bin_added", st.HyperBinAdded)
	counter("useless_bin_found", st.UselessBinFound)
	counter("failed_probes", st.FailedProbes)
}
