package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/livecharts/internal/charts"
	"github.com/rileyhilliard/livecharts/internal/errors"
	"github.com/rileyhilliard/livecharts/internal/pipeline"
	"github.com/rileyhilliard/livecharts/internal/registry"
)

// frameRunner publishes one frame per window length, then waits.
type frameRunner struct {
	sink    func(pipeline.Frame)
	lengths []int
}

func (r *frameRunner) Run(ctx context.Context) error {
	for _, n := range r.lengths {
		r.sink(pipeline.Frame{WindowLen: n, Timestamp: time.Duration(n).String()})
		time.Sleep(5 * time.Millisecond)
	}
	<-ctx.Done()
	return nil
}

func builder(lengths ...int) func(func(pipeline.Frame)) runner {
	return func(sink func(pipeline.Frame)) runner {
		return &frameRunner{sink: sink, lengths: lengths}
	}
}

func TestCollectFrame(t *testing.T) {
	f, err := collectFrame(context.Background(), builder(0, 1, 2, 3, 4), 3)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, f.WindowLen, 3)
}

func TestCollectFrame_TimeoutKeepsBest(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	f, err := collectFrame(ctx, builder(0, 1, 2), 5)
	require.NoError(t, err)
	assert.Equal(t, 2, f.WindowLen)
}

func TestCollectFrame_NoStats(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := collectFrame(ctx, builder(0), 1)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrFeed))
	assert.Contains(t, err.Error(), "No container stats arrived in time")
}

func diskFrame() pipeline.Frame {
	disk := charts.DefaultDevices()[2]
	var items []charts.Item
	for i, v := range []float64{1, 3, 2} {
		it := charts.Item{Timestamp: time.Duration(i).String()}
		it.Add(charts.NewDot(disk, "web", "#ff0000", v, charts.FlowRead))
		it.Add(charts.NewDot(disk, "web", "#ff0000", -v*2, charts.FlowWrite))
		items = append(items, it)
	}
	web := registry.Container{ID: "aaa", Name: "web", Color: "#ff0000"}
	return pipeline.Frame{
		Timestamp:  "12:00:03",
		Datasets:   []charts.Dataset{charts.NewDataset(disk, items)},
		Total:      1,
		MaxCharts:  charts.MaxCharts,
		Containers: []registry.Container{web},
		Selected:   registry.New(web),
		Mode:       charts.Combine,
		WindowLen:  3,
	}
}

func TestSummarize(t *testing.T) {
	s := summarize(diskFrame())

	assert.Equal(t, "12:00:03", s.Timestamp)
	assert.Equal(t, "combine", s.Mode)
	assert.Equal(t, 1, s.Containers)
	assert.Equal(t, 3, s.Samples)
	require.Len(t, s.Series, 2)

	read := s.Series[0]
	assert.Equal(t, "Disk (read / write)", read.Chart)
	assert.Equal(t, "read", read.Flow)
	assert.Equal(t, 2.0, read.Latest)
	assert.Equal(t, 1.0, read.Min)
	assert.Equal(t, 3.0, read.Max)
	assert.Equal(t, 2.0, read.Mean)

	write := s.Series[1]
	assert.Equal(t, "write", write.Flow)
	assert.Equal(t, 4.0, write.Latest, "writes report positive magnitudes")
	assert.Equal(t, 2.0, write.Min)
	assert.Equal(t, 6.0, write.Max)
}

func TestSummarize_Empty(t *testing.T) {
	s := summarize(pipeline.Frame{})
	assert.NotNil(t, s.Series)
	assert.Empty(t, s.Series)
}

func TestPrintSnapshot(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	f := diskFrame()
	f.LimitReached = true

	var buf bytes.Buffer
	printSnapshot(&buf, summarize(f), f)

	out := buf.String()
	assert.Contains(t, out, "mode combine")
	assert.Contains(t, out, "CHART")
	assert.Contains(t, out, "web (read)")
	assert.Contains(t, out, "web (write)")
	assert.Contains(t, out, "Too many charts to display")
}

func TestPrintSnapshot_NoCharts(t *testing.T) {
	var buf bytes.Buffer
	printSnapshot(&buf, summarize(pipeline.Frame{}), pipeline.Frame{})
	assert.Contains(t, buf.String(), "No charts")
}
