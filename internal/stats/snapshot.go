package stats

import (
	stderrors "errors"
	"fmt"

	"github.com/rileyhilliard/livecharts/internal/logger"
)

// ParseMetrics parses every field of s. A malformed field leaves that field at
// zero without affecting the others; the field errors are joined and returned
// so the caller can report them.
func ParseMetrics(s RawSample) (Metrics, error) {
	var m Metrics
	var errs []error

	var err error
	if m.CPUPercent, err = ParsePercent(s.CPUPerc); err != nil {
		errs = append(errs, fmt.Errorf("CPUPerc: %w", err))
	}
	if m.MemPercent, err = ParsePercent(s.MemPerc); err != nil {
		errs = append(errs, fmt.Errorf("MemPerc: %w", err))
	}
	if m.MemUsageBytes, m.MemLimitBytes, err = ParseDualQuantity(s.MemUsage); err != nil {
		errs = append(errs, fmt.Errorf("MemUsage: %w", err))
	}
	if m.NetReadBytes, m.NetWriteBytes, err = ParseDualQuantity(s.NetIO); err != nil {
		errs = append(errs, fmt.Errorf("NetIO: %w", err))
	}
	if m.DiskReadBytes, m.DiskWriteBytes, err = ParseDualQuantity(s.BlockIO); err != nil {
		errs = append(errs, fmt.Errorf("BlockIO: %w", err))
	}

	return m, stderrors.Join(errs...)
}

// BuildSnapshot parses a batch of samples into a snapshot stamped with
// timestamp. When a name repeats within the batch the first sample wins.
// Field parse errors are logged and never drop the sample.
func BuildSnapshot(timestamp string, samples []RawSample, log logger.Logger) Snapshot {
	if log == nil {
		log = logger.Noop()
	}

	snap := Snapshot{
		Timestamp: timestamp,
		Metrics:   make(map[string]Metrics, len(samples)),
	}
	for _, s := range samples {
		if _, seen := snap.Metrics[s.Name]; seen {
			log.Debug("duplicate sample for %q at %s ignored", s.Name, timestamp)
			continue
		}
		m, err := ParseMetrics(s)
		if err != nil {
			log.Warn("malformed stats for %q: %v", s.Name, err)
		}
		snap.Metrics[s.Name] = m
	}
	return snap
}
