package feed

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"regexp"
	"sync"
)

var (
	clearScreen = []byte("\x1b[2J")
	cursorHome  = []byte("\x1b[H")

	// csi matches an ANSI control sequence: ESC [, parameter and
	// intermediate bytes, then one final byte.
	csi = regexp.MustCompile(`\x1b\[[0-?]*[ -/]*[@-~]`)
)

// maxBatchSize bounds one refresh of `docker stats` output.
const maxBatchSize = 4 << 20

// ScanBatches is a bufio.SplitFunc that frames `docker stats` output. A
// refresh starts with a clear-screen or a cursor-home escape (newer docker
// CLIs redraw in place and only home the cursor). The token is the text up
// to the next refresh with every control sequence removed. Refreshes that
// clean to nothing are skipped.
func ScanBatches(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	start := skipRefresh(data)
	if i := nextRefresh(data[start:]); i >= 0 {
		return start + i, nonEmpty(cleanBatch(data[start : start+i])), nil
	}
	if atEOF {
		return len(data), nonEmpty(cleanBatch(data[start:])), nil
	}
	return start, nil, nil
}

// skipRefresh returns the length of the run of refresh escapes at the
// start of data.
func skipRefresh(data []byte) int {
	start := 0
	for {
		switch {
		case bytes.HasPrefix(data[start:], clearScreen):
			start += len(clearScreen)
		case bytes.HasPrefix(data[start:], cursorHome):
			start += len(cursorHome)
		default:
			return start
		}
	}
}

func nextRefresh(data []byte) int {
	i := bytes.Index(data, clearScreen)
	if j := bytes.Index(data, cursorHome); j >= 0 && (i < 0 || j < i) {
		i = j
	}
	return i
}

func cleanBatch(b []byte) []byte {
	return bytes.TrimSpace(csi.ReplaceAll(b, nil))
}

func nonEmpty(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}

// process is a running command whose output carries stats batches.
type process interface {
	Output() io.Reader
	Wait() error
	Close() error
}

// processSubscription turns a process's output into a Subscription.
type processSubscription struct {
	proc    process
	batches chan []byte
	errs    chan error
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func newProcessSubscription(ctx context.Context, proc process) *processSubscription {
	s := &processSubscription{
		proc:    proc,
		batches: make(chan []byte),
		errs:    make(chan error, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.read()
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.stopped:
		}
	}()
	return s
}

func (s *processSubscription) read() {
	defer close(s.stopped)
	defer close(s.batches)
	defer close(s.errs)

	scanner := bufio.NewScanner(s.proc.Output())
	scanner.Buffer(make([]byte, 0, 64*1024), maxBatchSize)
	scanner.Split(ScanBatches)

	for scanner.Scan() {
		batch := scanner.Bytes()
		if len(batch) == 0 {
			continue
		}
		out := make([]byte, len(batch))
		copy(out, batch)
		select {
		case s.batches <- out:
		case <-s.done:
			_ = s.proc.Wait()
			return
		}
	}

	scanErr := scanner.Err()
	waitErr := s.proc.Wait()
	select {
	case <-s.done:
		return
	default:
	}
	if scanErr != nil {
		s.errs <- scanErr
	} else if waitErr != nil {
		s.errs <- waitErr
	} else {
		s.errs <- io.EOF
	}
}

func (s *processSubscription) Batches() <-chan []byte { return s.batches }
func (s *processSubscription) Errors() <-chan error   { return s.errs }

// Close stops the process and waits for the reader to finish.
func (s *processSubscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.proc.Close()
	})
	<-s.stopped
	return err
}
