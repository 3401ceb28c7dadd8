package feed

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/rileyhilliard/livecharts/internal/errors"
	"github.com/rileyhilliard/livecharts/internal/stats"
)

// DecodeBatch decodes newline-delimited stats records. One malformed line
// rejects the whole batch. Blank input decodes to no samples.
func DecodeBatch(data []byte) ([]stats.RawSample, error) {
	var out []stats.RawSample
	err := eachLine(data, func(line []byte) error {
		var s stats.RawSample
		if err := decodeLine(line, &s); err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeIdentities decodes newline-delimited `docker ps` records.
func DecodeIdentities(data []byte) ([]Identity, error) {
	var out []Identity
	err := eachLine(data, func(line []byte) error {
		var id Identity
		if err := decodeLine(line, &id); err != nil {
			return err
		}
		out = append(out, id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func eachLine(data []byte, fn func([]byte) error) error {
	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return errors.WrapWithCode(err, errors.ErrParse,
				fmt.Sprintf("Malformed record: %s", truncate(line, 80)), "")
		}
	}
	return nil
}

// decodeLine accepts a JSON object, or a JSON string holding one, which is
// what a quoted --format template prints.
func decodeLine(line []byte, v any) error {
	if line[0] == '"' {
		var inner string
		if err := json.Unmarshal(line, &inner); err != nil {
			return err
		}
		line = []byte(inner)
	}
	return json.Unmarshal(line, v)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
