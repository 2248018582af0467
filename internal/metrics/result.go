package metrics

import (
	"encoding/json"
	"sort"

	"github.com/talgya/swarmsim/internal/config"
)

// Value is the reduced outcome of one metric over a trajectory.
type Value struct {
	Mean    float64   // mean over windows, meaningful only when Defined
	Windows []float64 // per-window values, when requested
	Count   int       // number of windows evaluated
	Defined bool
	Reason  string // why the value is undefined
	Flags   Flags

	// Err is the error that left the value undefined, for errors.Is checks.
	Err error
}

// HasFlag reports whether the value carries f.
func (v Value) HasFlag(f Flag) bool {
	return v.Flags.Has(f)
}

type valueJSON struct {
	Mean    *float64  `json:"mean"`
	Windows []float64 `json:"windows,omitempty"`
	Count   int       `json:"count"`
	Defined bool      `json:"defined"`
	Reason  string    `json:"reason,omitempty"`
	Flags   Flags     `json:"flags,omitempty"`
}

// MarshalJSON encodes an undefined value with a null mean rather than a sentinel number.
func (v Value) MarshalJSON() ([]byte, error) {
	out := valueJSON{
		Windows: v.Windows,
		Count:   v.Count,
		Defined: v.Defined,
		Reason:  v.Reason,
		Flags:   v.Flags,
	}
	if v.Defined {
		m := v.Mean
		out.Mean = &m
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler. Err is not restored.
func (v *Value) UnmarshalJSON(b []byte) error {
	var in valueJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*v = Value{
		Windows: in.Windows,
		Count:   in.Count,
		Defined: in.Defined && in.Mean != nil,
		Reason:  in.Reason,
		Flags:   in.Flags,
	}
	if in.Mean != nil {
		v.Mean = *in.Mean
	}
	return nil
}

// Result is the metric record of one run, keyed by the run's identifying parameters.
type Result struct {
	Key    config.Key       `json:"key"`
	Length int              `json:"length"` // trajectory length
	Window int              `json:"window"`
	Values map[string]Value `json:"values"`
}

// Get returns the value of a metric and whether it was computed.
func (r Result) Get(name string) (Value, bool) {
	v, ok := r.Values[name]
	return v, ok
}

// Mean returns the mean of a metric and whether it is defined.
func (r Result) Mean(name string) (float64, bool) {
	v, ok := r.Values[name]
	if !ok || !v.Defined {
		return 0, false
	}
	return v.Mean, true
}

// Names returns the computed metric names, sorted.
func (r Result) Names() []string {
	out := make([]string, 0, len(r.Values))
	for name := range r.Values {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
