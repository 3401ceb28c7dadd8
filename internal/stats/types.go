// Package stats turns the text records printed by `docker stats` into numeric
// per-container metrics and timestamped snapshots.
package stats

import "time"

// Unavailable is what the docker CLI prints for a field it has no value for.
const Unavailable = "--"

// TimestampLayout formats snapshot timestamps as minute:second.
const TimestampLayout = "04:05"

// RawSample is one record of `docker stats --format '{{json .}}'`.
type RawSample struct {
	Name     string `json:"Name"`
	CPUPerc  string `json:"CPUPerc"`
	MemUsage string `json:"MemUsage"`
	MemPerc  string `json:"MemPerc"`
	NetIO    string `json:"NetIO"`
	BlockIO  string `json:"BlockIO"`
}

// UnavailableSample returns a sample for name with every field unavailable.
func UnavailableSample(name string) RawSample {
	return RawSample{
		Name:     name,
		CPUPerc:  Unavailable,
		MemUsage: Unavailable,
		MemPerc:  Unavailable,
		NetIO:    Unavailable,
		BlockIO:  Unavailable,
	}
}

// Metrics holds the parsed values of a RawSample. Sizes are in bytes.
type Metrics struct {
	CPUPercent     float64
	MemPercent     float64
	MemUsageBytes  float64
	MemLimitBytes  float64
	DiskReadBytes  float64
	DiskWriteBytes float64
	NetReadBytes   float64
	NetWriteBytes  float64
}

// Snapshot is one tick's metrics for all containers, keyed by container name.
// A snapshot is never modified after it is built.
type Snapshot struct {
	Timestamp string
	Metrics   map[string]Metrics
}

// MetricsFor returns the metrics recorded for name, or zero metrics when the
// container had no sample in this snapshot.
func (s Snapshot) MetricsFor(name string) Metrics {
	return s.Metrics[name]
}

// Has reports whether the snapshot carries a sample for name.
func (s Snapshot) Has(name string) bool {
	_, ok := s.Metrics[name]
	return ok
}

// Stamp formats t as a snapshot timestamp.
func Stamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
