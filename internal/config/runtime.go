package config

import (
	"os"
	"runtime"
	"strconv"
)

// Runtime holds process-level settings for the command line tools. They never influence
// simulation results.
type Runtime struct {
	DBPath   string
	LogLevel string
	Workers  int
	Addr     string
}

// DefaultRuntime returns the runtime defaults with environment overrides applied.
func DefaultRuntime() Runtime {
	r := Runtime{
		DBPath:   "data/swarmsim.db",
		LogLevel: "info",
		Workers:  runtime.NumCPU(),
		Addr:     ":8080",
	}
	r.ApplyEnv()
	return r
}

// ApplyEnv overrides fields from SWARMSIM_DB, SWARMSIM_LOG_LEVEL, SWARMSIM_WORKERS and
// SWARMSIM_ADDR. Malformed worker counts are ignored.
func (r *Runtime) ApplyEnv() {
	if v := os.Getenv("SWARMSIM_DB"); v != "" {
		r.DBPath = v
	}
	if v := os.Getenv("SWARMSIM_LOG_LEVEL"); v != "" {
		r.LogLevel = v
	}
	if v := os.Getenv("SWARMSIM_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			r.Workers = n
		}
	}
	if v := os.Getenv("SWARMSIM_ADDR"); v != "" {
		r.Addr = v
	}
}
