package streaming

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// WriteHeaders sets the framing headers and status. The whole-object
// response still carries Content-Range, which existing players rely on.
func WriteHeaders(rw http.ResponseWriter, win Window, mimeType string) {
	h := rw.Header()
	h.Set("Content-Type", mimeType)
	h.Set("Content-Length", strconv.FormatInt(win.Length(), 10))
	h.Set("Accept-Ranges", "bytes")
	if win.Total > 0 {
		h.Set("Content-Range", win.ContentRange())
	}

	if win.Partial {
		rw.WriteHeader(http.StatusPartialContent)
		return
	}
	rw.WriteHeader(http.StatusOK)
}

// WriteUnsatisfiable answers 416 with the total length and no body.
func WriteUnsatisfiable(rw http.ResponseWriter, total int64) {
	if total >= 0 {
		rw.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", total))
	}
	rw.Header().Set("Accept-Ranges", "bytes")
	rw.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
}

// Serve writes headers and exactly win.Length() bytes of body. A short body is
// an error; a write error means the client went away.
func Serve(rw http.ResponseWriter, win Window, mimeType string, body []byte) error {
	if int64(len(body)) < win.Length() {
		return fmt.Errorf("body has %d bytes, window needs %d: %w", len(body), win.Length(), io.ErrUnexpectedEOF)
	}

	WriteHeaders(rw, win, mimeType)
	if win.Length() == 0 {
		return nil
	}
	if _, err := rw.Write(body[:win.Length()]); err != nil {
		return fmt.Errorf("client write failed: %w", err)
	}
	return nil
}
