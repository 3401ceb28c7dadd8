// Package charts turns a window of snapshots into chart datasets. It builds
// dots per device and container, merges them into totals for the overview
// mode, and caps the number of charts produced per pass.
package charts

import (
	"fmt"
	"strings"

	"github.com/rileyhilliard/livecharts/internal/errors"
	"github.com/rileyhilliard/livecharts/internal/registry"
	"github.com/rileyhilliard/livecharts/internal/stats"
)

// DeviceKey identifies what a device measures.
type DeviceKey string

const (
	CPU     DeviceKey = "cpu"
	Memory  DeviceKey = "memory"
	Disk    DeviceKey = "disk"
	Network DeviceKey = "network"
)

// DeviceKeys lists the known keys in their default display order.
var DeviceKeys = []DeviceKey{CPU, Memory, Disk, Network}

// byteUnits maps the display units of byte devices to their divisor.
var byteUnits = map[string]float64{
	"B":  1,
	"kB": 1e3,
	"MB": 1e6,
	"GB": 1e9,
}

// Device describes one measured resource and how to plot it.
type Device struct {
	Key   DeviceKey
	Name  string
	Unit  string
	Color string
}

// NewDevice validates and builds a device. cpu takes "%"; the byte devices
// take B, kB, MB or GB.
func NewDevice(key, name, unit, color string) (Device, error) {
	k, err := ParseDeviceKey(key)
	if err != nil {
		return Device{}, err
	}

	if k == CPU {
		if unit != "%" {
			return Device{}, errors.New(errors.ErrConfig,
				fmt.Sprintf("Unknown unit '%s' for device cpu", unit),
				"The cpu device is always measured in %")
		}
	} else if _, ok := byteUnits[unit]; !ok {
		return Device{}, errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown unit '%s' for device %s", unit, key),
			"Use one of: B, kB, MB, GB")
	}

	return Device{Key: k, Name: name, Unit: unit, Color: color}, nil
}

// ParseDeviceKey validates a device key.
func ParseDeviceKey(key string) (DeviceKey, error) {
	for _, k := range DeviceKeys {
		if string(k) == key {
			return k, nil
		}
	}
	return "", errors.New(errors.ErrConfig,
		fmt.Sprintf("Unknown device '%s'", key),
		"Use one of: cpu, memory, disk, network")
}

// DefaultDevices returns the stock devices: CPU in %, the rest in MB.
func DefaultDevices() []Device {
	return []Device{
		{Key: CPU, Name: "CPU", Unit: "%", Color: "#42a5f5"},
		{Key: Memory, Name: "Memory", Unit: "MB", Color: "#26a69a"},
		{Key: Disk, Name: "Disk", Unit: "MB", Color: "#9575cd"},
		{Key: Network, Name: "Network", Unit: "MB", Color: "#9e9d24"},
	}
}

// IsReadWrite reports whether the device plots a read/write pair.
func (d Device) IsReadWrite() bool {
	return d.Key == Disk || d.Key == Network
}

// TooltipTitle is the heading shown above a device's values.
func (d Device) TooltipTitle() string {
	if d.IsReadWrite() {
		return d.Name + " (read / write)"
	}
	return d.Name
}

// WithUnit returns a copy of d displayed in unit.
func (d Device) WithUnit(unit string) (Device, error) {
	return NewDevice(string(d.Key), d.Name, unit, d.Color)
}

func (d Device) fromBytes(v float64) float64 {
	div, ok := byteUnits[d.Unit]
	if !ok {
		return v
	}
	return v / div
}

// MakeDots builds the dots of container c for this device. cpu and memory
// give one default dot; disk and network give a read dot and a negated write
// dot sharing the container's label.
func (d Device) MakeDots(c registry.Container, m stats.Metrics, useContainerColor bool) []Dot {
	color := d.Color
	if useContainerColor {
		color = c.Color
	}

	switch d.Key {
	case CPU:
		return []Dot{NewDot(d, c.Name, color, m.CPUPercent, FlowDefault)}
	case Memory:
		return []Dot{NewDot(d, c.Name, color, d.fromBytes(m.MemUsageBytes), FlowDefault)}
	case Disk:
		return []Dot{
			NewDot(d, c.Name, color, d.fromBytes(m.DiskReadBytes), FlowRead),
			NewDot(d, c.Name, color, -d.fromBytes(m.DiskWriteBytes), FlowWrite),
		}
	case Network:
		return []Dot{
			NewDot(d, c.Name, color, d.fromBytes(m.NetReadBytes), FlowRead),
			NewDot(d, c.Name, color, -d.fromBytes(m.NetWriteBytes), FlowWrite),
		}
	}
	return nil
}

// SelectDevices picks devices from all by key, keeping the order of keys.
func SelectDevices(all []Device, keys []string) ([]Device, error) {
	out := make([]Device, 0, len(keys))
	for _, key := range keys {
		k, err := ParseDeviceKey(strings.TrimSpace(key))
		if err != nil {
			return nil, err
		}
		for _, d := range all {
			if d.Key == k {
				out = append(out, d)
				break
			}
		}
	}
	return out, nil
}
