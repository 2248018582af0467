package metrics

import (
	"errors"
	"fmt"
)

// ErrInsufficientData matches every *InsufficientDataError.
var ErrInsufficientData = errors.New("insufficient data")

// ErrUnknownMetric is returned for names outside the registry.
var ErrUnknownMetric = errors.New("unknown metric")

// InsufficientDataError reports a trajectory shorter than the metric window. It marks one
// metric as undefined without affecting the others.
type InsufficientDataError struct {
	Metric string
	Length int
	Window int
}

func (e *InsufficientDataError) Error() string {
	if e.Metric == "" {
		return fmt.Sprintf("metrics: window %d exceeds trajectory length %d", e.Window, e.Length)
	}
	return fmt.Sprintf("metrics: %s: window %d exceeds trajectory length %d", e.Metric, e.Window, e.Length)
}

// Is reports whether target is ErrInsufficientData.
func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

// Flag annotates a metric value without invalidating it.
type Flag string

const (
	// FlagNumericInstability marks a covariance that was rank deficient or needed extra
	// regularisation before it could be factorised.
	FlagNumericInstability Flag = "numeric_instability"
	// FlagSaturated marks a saturation value within tolerance of its ceiling.
	FlagSaturated Flag = "saturated"
)

// Flags is a set of flags kept in first-seen order.
type Flags []Flag

// Has reports whether f is set.
func (fs Flags) Has(f Flag) bool {
	for _, x := range fs {
		if x == f {
			return true
		}
	}
	return false
}

// With returns fs plus f, unchanged when f is already present.
func (fs Flags) With(f Flag) Flags {
	if fs.Has(f) {
		return fs
	}
	return append(fs, f)
}

// Merge adds every flag of other.
func (fs Flags) Merge(other Flags) Flags {
	for _, f := range other {
		fs = fs.With(f)
	}
	return fs
}
