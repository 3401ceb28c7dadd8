package charts

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/livecharts/internal/registry"
	"github.com/rileyhilliard/livecharts/internal/stats"
	"github.com/rileyhilliard/livecharts/internal/window"
)

func containers(n int) registry.Registry {
	cs := make([]registry.Container, n)
	for i := range cs {
		cs[i] = registry.Container{ID: fmt.Sprint(i), Name: fmt.Sprintf("c%02d", i), Color: "#000"}
	}
	return registry.New(cs...)
}

func windowWith(ts ...string) window.Window {
	w := window.New(0)
	for _, t := range ts {
		w = w.InsertUnique(stats.Snapshot{Timestamp: t, Metrics: map[string]stats.Metrics{}})
	}
	return w
}

func TestRecompute_EndToEndSplit(t *testing.T) {
	raw := stats.RawSample{
		Name:     "web",
		CPUPerc:  "12.50%",
		MemUsage: "100MiB / 1GiB",
		MemPerc:  "9.8%",
		NetIO:    "1kB / 2kB",
		BlockIO:  "--",
	}
	w := window.New(0).InsertUnique(stats.BuildSnapshot("00:01", []stats.RawSample{raw}, nil))
	sel := registry.New(registry.Container{ID: "abc", Name: "web", Color: "#6fbf73"})
	devs, err := SelectDevices(DefaultDevices(), []string{"cpu"})
	require.NoError(t, err)

	res, err := Recompute(Request{Window: w, Selected: sel, Devices: devs, Mode: Split})
	require.NoError(t, err)

	require.Len(t, res.Datasets, 1)
	ds := res.Datasets[0]
	require.Len(t, ds.Items, 1)
	assert.Equal(t, "00:01", ds.Items[0].Timestamp)
	require.Len(t, ds.Items[0].Dots, 1)
	assert.Equal(t, 12.5, ds.Items[0].Dots[0].Value)
	assert.Equal(t, "cpu:web", ds.UniqueKey)
	assert.False(t, res.LimitReached)
}

func TestRecompute_Overview(t *testing.T) {
	w := window.New(0).InsertUnique(stats.Snapshot{
		Timestamp: "00:01",
		Metrics: map[string]stats.Metrics{
			"a": {CPUPercent: 10, DiskReadBytes: 10e6, DiskWriteBytes: 5e6},
			"b": {CPUPercent: 2.5, DiskReadBytes: 3e6, DiskWriteBytes: 2e6},
		},
	})
	sel := registry.New(
		registry.Container{ID: "1", Name: "a"},
		registry.Container{ID: "2", Name: "b"},
	)
	devs, err := SelectDevices(DefaultDevices(), []string{"cpu", "disk"})
	require.NoError(t, err)

	res, err := Recompute(Request{Window: w, Selected: sel, Devices: devs, Mode: Overview})
	require.NoError(t, err)
	require.Len(t, res.Datasets, 2)

	cpu := res.Datasets[0].Items[0].Dots
	require.Len(t, cpu, 1)
	assert.Equal(t, 12.5, cpu[0].Value)
	assert.Equal(t, "cpu:CPU total", res.Datasets[0].UniqueKey)

	disk := res.Datasets[1].Items[0].Dots
	require.Len(t, disk, 2)
	assert.Equal(t, 13.0, disk[0].Value)
	assert.Equal(t, -7.0, disk[1].Value)
}

func TestRecompute_Combine(t *testing.T) {
	w := window.New(0).InsertUnique(stats.Snapshot{
		Timestamp: "00:01",
		Metrics: map[string]stats.Metrics{
			"a": {NetReadBytes: 1e6, NetWriteBytes: 1e6},
			"b": {NetReadBytes: 4e6},
		},
	})
	sel := registry.New(
		registry.Container{ID: "1", Name: "a", Color: "#aaa"},
		registry.Container{ID: "2", Name: "b", Color: "#bbb"},
	)
	devs, _ := SelectDevices(DefaultDevices(), []string{"network"})

	res, err := Recompute(Request{Window: w, Selected: sel, Devices: devs, Mode: Combine, UseContainerColor: true})
	require.NoError(t, err)
	require.Len(t, res.Datasets, 1)

	ds := res.Datasets[0]
	assert.Equal(t, "network:a,network:b", ds.UniqueKey)
	require.Len(t, ds.Items[0].Dots, 4)
	assert.Equal(t, "b", ds.Items[0].Dots[0].Label, "highest value first")
	assert.Equal(t, "#bbb", ds.Items[0].Dots[0].Color)
	assert.Len(t, ds.Series(), 4)
}

func TestRecompute_MissingSampleIsZero(t *testing.T) {
	w := windowWith("00:01", "00:02")
	sel := registry.New(registry.Container{ID: "1", Name: "ghost"})

	res, err := Recompute(Request{Window: w, Selected: sel, Devices: DefaultDevices()[:1], Mode: Split})
	require.NoError(t, err)
	require.Len(t, res.Datasets, 1)
	assert.Len(t, res.Datasets[0].Items, 2)
	assert.Equal(t, 0.0, res.Datasets[0].Items[0].Dots[0].Value)
}

func TestRecompute_Empty(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"no containers", Request{Window: windowWith("00:01"), Devices: DefaultDevices()}},
		{"no devices", Request{Window: windowWith("00:01"), Selected: containers(2)}},
		{"empty window", Request{Window: window.New(0), Selected: containers(2), Devices: DefaultDevices()}},
	}

	for _, tt := range tests {
		for _, mode := range Modes {
			t.Run(tt.name+"/"+mode.String(), func(t *testing.T) {
				tt.req.Mode = mode
				res, err := Recompute(tt.req)
				require.NoError(t, err)
				assert.Empty(t, res.Datasets)
				assert.False(t, res.LimitReached)
			})
		}
	}
}

func TestRecompute_ChartBounds(t *testing.T) {
	w := windowWith("00:01")

	tests := []struct {
		name         string
		containers   int
		devices      int
		mode         Mode
		wantCharts   int
		wantExceeded bool
	}{
		{"split under cap", 3, 4, Split, 12, false},
		{"split over cap", 4, 4, Split, 12, true},
		{"split small", 2, 1, Split, 2, false},
		{"combine", 30, 4, Combine, 4, false},
		{"overview", 30, 2, Overview, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Recompute(Request{
				Window:   w,
				Selected: containers(tt.containers),
				Devices:  DefaultDevices()[:tt.devices],
				Mode:     tt.mode,
			})
			require.NoError(t, err)
			assert.Len(t, res.Datasets, tt.wantCharts)
			assert.Equal(t, tt.wantExceeded, res.LimitReached)
			assert.LessOrEqual(t, len(res.Datasets), MaxCharts)
			if tt.mode == Split {
				assert.LessOrEqual(t, len(res.Datasets), tt.containers*tt.devices)
			} else {
				assert.LessOrEqual(t, len(res.Datasets), tt.devices)
			}
		})
	}
}

func TestRecompute_CustomCapKeepsDeviceOrder(t *testing.T) {
	res, err := Recompute(Request{
		Window:    windowWith("00:01"),
		Selected:  containers(2),
		Devices:   DefaultDevices(),
		Mode:      Split,
		MaxCharts: 3,
	})
	require.NoError(t, err)
	require.Len(t, res.Datasets, 3)
	assert.Equal(t, 8, res.Total)
	assert.True(t, res.LimitReached)

	assert.Equal(t, CPU, res.Datasets[0].Device.Key)
	assert.Equal(t, CPU, res.Datasets[1].Device.Key)
	assert.Equal(t, Memory, res.Datasets[2].Device.Key)
	assert.Equal(t, "cpu:c00", res.Datasets[0].UniqueKey)
	assert.Equal(t, "cpu:c01", res.Datasets[1].UniqueKey)
}

func TestRecompute_UnknownMode(t *testing.T) {
	_, err := Recompute(Request{Window: windowWith("00:01"), Selected: containers(1), Devices: DefaultDevices(), Mode: Mode(42)})
	require.Error(t, err)
}

func TestParseMode(t *testing.T) {
	for _, m := range Modes {
		got, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}

	_, err := ParseMode("stacked")
	assert.Error(t, err)
}

func TestModeNext(t *testing.T) {
	assert.Equal(t, Combine, Overview.Next())
	assert.Equal(t, Split, Combine.Next())
	assert.Equal(t, Overview, Split.Next())
}

func TestDatasetPoints(t *testing.T) {
	w := windowWith("00:01", "00:02")
	res, err := Recompute(Request{Window: w, Selected: containers(1), Devices: DefaultDevices()[2:3], Mode: Split})
	require.NoError(t, err)
	require.Len(t, res.Datasets, 1)

	ds := res.Datasets[0]
	points := ds.Points()
	require.Len(t, points, 4)
	assert.Equal(t, "00:01", points[0].Timestamp)
	assert.Equal(t, "MB", points[0].Unit)
	assert.Equal(t, "00:02", points[3].Timestamp)

	series := ds.Series()
	require.Len(t, series, 2)
	assert.Equal(t, []float64{0, 0}, ds.Values(series[0]))

	it, ok := ds.ItemAt("00:02")
	require.True(t, ok)
	assert.Equal(t, "00:02", it.Timestamp)
	_, ok = ds.ItemAt("09:09")
	assert.False(t, ok)

	latest, ok := ds.Latest()
	require.True(t, ok)
	assert.Equal(t, "00:02", latest.Timestamp)
	assert.Equal(t, "Disk (read / write)", ds.Title())
}

func TestNotice(t *testing.T) {
	var n Notice
	assert.False(t, n.Observe(false))
	assert.True(t, n.Observe(true), "first exceeded pass fires")
	assert.False(t, n.Observe(true), "later passes stay quiet")
	assert.False(t, n.Observe(false))
	assert.False(t, n.Observe(true), "no automatic re-arm")
	assert.True(t, n.Shown())

	n.Reset()
	assert.False(t, n.Shown())
	assert.True(t, n.Observe(true))
}

func TestNoticeText(t *testing.T) {
	assert.Equal(t, "Too many charts to display. Showing only 12 charts.", NoticeText(0))
	assert.Equal(t, "Too many charts to display. Showing only 5 charts.", NoticeText(5))
}
