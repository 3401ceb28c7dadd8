package charts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func device(t *testing.T, key DeviceKey) Device {
	t.Helper()
	for _, d := range DefaultDevices() {
		if d.Key == key {
			return d
		}
	}
	t.Fatalf("no default device %s", key)
	return Device{}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{12.5, 12.5},
		{1.005, 1.01},
		{1.004, 1},
		{0.1 + 0.2, 0.3},
		{-7, -7},
		{-1.234, -1.23},
		{104.857600, 104.86},
		{0, 0},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, round2(tt.in), 1e-9, "round2(%v)", tt.in)
	}
}

func TestItemAdd_SortsDescending(t *testing.T) {
	cpu := device(t, CPU)
	var it Item
	it.Add(NewDot(cpu, "a", "", 1, FlowDefault))
	it.Add(NewDot(cpu, "b", "", 5, FlowDefault))
	it.Add(NewDot(cpu, "c", "", 3, FlowDefault))
	it.Add(NewDot(cpu, "d", "", 5, FlowDefault))

	labels := make([]string, len(it.Dots))
	for i, d := range it.Dots {
		labels[i] = d.Label
	}
	assert.Equal(t, []string{"b", "d", "c", "a"}, labels)
}

func TestItemWriteSibling(t *testing.T) {
	disk := device(t, Disk)
	net := device(t, Network)

	var it Item
	it.Add(NewDot(disk, "web", "", 10, FlowRead))
	it.Add(NewDot(disk, "web", "", -5, FlowWrite))
	it.Add(NewDot(net, "web", "", -9, FlowWrite))
	it.Add(NewDot(disk, "db", "", -2, FlowWrite))

	w, ok := it.WriteSibling(it.Dots[0])
	require.True(t, ok)
	assert.Equal(t, -5.0, w.Value)
	assert.Equal(t, Disk, w.Device.Key)

	_, ok = it.WriteSibling(NewDot(disk, "cache", "", 1, FlowRead))
	assert.False(t, ok)
}

func TestItemMerge_ReadWrite(t *testing.T) {
	disk := device(t, Disk)
	it := Item{Timestamp: "00:01"}
	it.Add(NewDot(disk, "a", "#111", 10, FlowRead))
	it.Add(NewDot(disk, "a", "#111", -5, FlowWrite))
	it.Add(NewDot(disk, "b", "#222", 3, FlowRead))
	it.Add(NewDot(disk, "b", "#222", -2, FlowWrite))

	merged := it.Merge()

	require.Len(t, merged.Dots, 2)
	read, write := merged.Dots[0], merged.Dots[1]
	assert.Equal(t, FlowRead, read.Flow)
	assert.Equal(t, 13.0, read.Value)
	assert.Equal(t, FlowWrite, write.Flow)
	assert.Equal(t, -7.0, write.Value)
	assert.Equal(t, "Disk total", read.Label)
	assert.Equal(t, disk.Color, read.Color)
	assert.Equal(t, "00:01", merged.Timestamp)
	assert.Len(t, it.Dots, 4, "merge does not modify the source item")
}

func TestItemMerge_Default(t *testing.T) {
	mem := device(t, Memory)
	it := Item{}
	values := []float64{1.25, 2.5, 3.75, 10}
	for i, v := range values {
		it.Add(NewDot(mem, string(rune('a'+i)), "", v, FlowDefault))
	}

	merged := it.Merge()

	require.Len(t, merged.Dots, 1)
	assert.Equal(t, 17.5, merged.Dots[0].Value)
	assert.Equal(t, "Memory total", merged.Dots[0].Label)
	assert.Equal(t, FlowDefault, merged.Dots[0].Flow)
}

func TestItemMerge_OnlyReadsUnchanged(t *testing.T) {
	net := device(t, Network)
	it := Item{}
	it.Add(NewDot(net, "a", "", 1, FlowRead))

	assert.Equal(t, it, it.Merge())
	assert.Empty(t, Item{}.Merge().Dots)
}

func TestItemTooltipLines(t *testing.T) {
	net := device(t, Network)
	cpu := device(t, CPU)

	rw := Item{}
	rw.Add(NewDot(net, "web", "", 1.5, FlowRead))
	rw.Add(NewDot(net, "web", "", -0.25, FlowWrite))
	assert.Equal(t, []string{"web: 1.5 MB / 0.25 MB"}, rw.TooltipLines())

	single := Item{}
	single.Add(NewDot(cpu, "web", "", 12.5, FlowDefault))
	assert.Equal(t, []string{"web: 12.5 %"}, single.TooltipLines())
}

func TestFlowString(t *testing.T) {
	assert.Equal(t, "default", FlowDefault.String())
	assert.Equal(t, "read", FlowRead.String())
	assert.Equal(t, "write", FlowWrite.String())
}
