// Package streaming resolves HTTP byte ranges against a stored object and
// writes the matching 200/206 responses.
package streaming

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrRangeNotSatisfiable covers malformed headers and windows outside the object.
var ErrRangeNotSatisfiable = errors.New("range not satisfiable")

var rangePattern = regexp.MustCompile(`^bytes=(\d+)-(\d*)$`)

// Window is an inclusive byte range [Start, End] of an object of Total bytes.
type Window struct {
	Start   int64
	End     int64
	Total   int64
	Partial bool
}

// Length is the number of bytes in the window.
func (w Window) Length() int64 {
	if w.Total == 0 {
		return 0
	}
	return w.End - w.Start + 1
}

// Offset is the 1-based position used by SQL substring.
func (w Window) Offset() int64 {
	return w.Start + 1
}

func (w Window) ContentRange() string {
	return fmt.Sprintf("bytes %d-%d/%d", w.Start, w.End, w.Total)
}

// Resolve maps a Range header onto an object of total bytes. An empty header
// selects the whole object. end is clamped to total-1; start at or past total
// and end before start are unsatisfiable.
func Resolve(header string, total int64) (Window, error) {
	if header == "" {
		if total <= 0 {
			return Window{Start: 0, End: -1, Total: 0}, nil
		}
		return Window{Start: 0, End: total - 1, Total: total}, nil
	}

	m := rangePattern.FindStringSubmatch(header)
	if m == nil {
		return Window{}, ErrRangeNotSatisfiable
	}

	start, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return Window{}, ErrRangeNotSatisfiable
	}
	if start >= total {
		return Window{}, ErrRangeNotSatisfiable
	}

	end := total - 1
	if m[2] != "" {
		requested, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			// Larger than int64: clamp like any other oversized end.
			requested = end
		}
		if requested < start {
			return Window{}, ErrRangeNotSatisfiable
		}
		end = min(requested, total-1)
	}

	return Window{Start: start, End: end, Total: total, Partial: true}, nil
}
