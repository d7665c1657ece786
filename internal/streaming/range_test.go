package streaming

import (
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		total   int64
		want    Window
		wantErr bool
	}{
		{name: "no header", header: "", total: 1000, want: Window{Start: 0, End: 999, Total: 1000}},
		{name: "explicit window", header: "bytes=200-299", total: 1000, want: Window{Start: 200, End: 299, Total: 1000, Partial: true}},
		{name: "open ended", header: "bytes=900-", total: 1000, want: Window{Start: 900, End: 999, Total: 1000, Partial: true}},
		{name: "end clamped", header: "bytes=0-5000", total: 1000, want: Window{Start: 0, End: 999, Total: 1000, Partial: true}},
		{name: "single byte", header: "bytes=999-999", total: 1000, want: Window{Start: 999, End: 999, Total: 1000, Partial: true}},
		{name: "huge end", header: "bytes=1-99999999999999999999999", total: 10, want: Window{Start: 1, End: 9, Total: 10, Partial: true}},
		{name: "malformed", header: "bytes=abc", total: 1000, wantErr: true},
		{name: "suffix form", header: "bytes=-500", total: 1000, wantErr: true},
		{name: "multi range", header: "bytes=0-1,5-6", total: 1000, wantErr: true},
		{name: "wrong unit", header: "items=0-1", total: 1000, wantErr: true},
		{name: "start past end of object", header: "bytes=1000-", total: 1000, wantErr: true},
		{name: "end before start", header: "bytes=10-5", total: 1000, wantErr: true},
		{name: "empty object with range", header: "bytes=0-", total: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.header, tt.total)
			if tt.wantErr {
				if !errors.Is(err, ErrRangeNotSatisfiable) {
					t.Fatalf("Resolve(%q) error = %v, want ErrRangeNotSatisfiable", tt.header, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q) unexpected error: %v", tt.header, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %+v, want %+v", tt.header, got, tt.want)
			}
		})
	}
}

func TestResolve_WindowProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 2000; i++ {
		total := rng.Int63n(5000) + 1
		start := rng.Int63n(total + 10)
		var header string
		if rng.Intn(3) == 0 {
			header = fmt.Sprintf("bytes=%d-", start)
		} else {
			header = fmt.Sprintf("bytes=%d-%d", start, start+rng.Int63n(6000)-100)
		}

		win, err := Resolve(header, total)
		if err != nil {
			continue
		}
		if win.Start < 0 || win.Start > win.End || win.End > total-1 {
			t.Fatalf("%s over %d: bad window %+v", header, total, win)
		}
		if win.Length() != win.End-win.Start+1 {
			t.Fatalf("%s over %d: Length() = %d", header, total, win.Length())
		}
		if win.Offset() != win.Start+1 {
			t.Fatalf("%s: Offset() = %d", header, win.Offset())
		}
	}
}

func content(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}

func TestServe_Partial(t *testing.T) {
	data := content(1000)
	win, err := Resolve("bytes=200-299", int64(len(data)))
	if err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	if err := Serve(rec, win, "video/mp4", data[win.Start:win.End+1]); err != nil {
		t.Fatal(err)
	}

	if rec.Code != http.StatusPartialContent {
		t.Errorf("status = %d, want 206", rec.Code)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes 200-299/1000" {
		t.Errorf("Content-Range = %q", got)
	}
	if got := rec.Header().Get("Content-Length"); got != "100" {
		t.Errorf("Content-Length = %q", got)
	}
	if got := rec.Header().Get("Accept-Ranges"); got != "bytes" {
		t.Errorf("Accept-Ranges = %q", got)
	}
	if rec.Body.Len() != 100 {
		t.Fatalf("body length = %d, want 100", rec.Body.Len())
	}
	if string(rec.Body.Bytes()) != string(data[200:300]) {
		t.Error("body does not match the requested window")
	}
}

func TestServe_Whole(t *testing.T) {
	data := content(1000)
	win, _ := Resolve("", int64(len(data)))

	rec := httptest.NewRecorder()
	if err := Serve(rec, win, "video/webm", data); err != nil {
		t.Fatal(err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes 0-999/1000" {
		t.Errorf("Content-Range = %q", got)
	}
	if got := rec.Header().Get("Content-Length"); got != "1000" {
		t.Errorf("Content-Length = %q", got)
	}
	if string(rec.Body.Bytes()) != string(data) {
		t.Error("body does not round trip")
	}
}

func TestServe_EmptyObject(t *testing.T) {
	win, _ := Resolve("", 0)
	rec := httptest.NewRecorder()
	if err := Serve(rec, win, "video/mp4", nil); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
		t.Errorf("status %d, body %d bytes", rec.Code, rec.Body.Len())
	}
	if rec.Header().Get("Content-Range") != "" {
		t.Error("empty object must not advertise a range")
	}
}

func TestServe_ShortBody(t *testing.T) {
	win, _ := Resolve("bytes=0-99", 1000)
	rec := httptest.NewRecorder()
	if err := Serve(rec, win, "video/mp4", make([]byte, 10)); err == nil {
		t.Fatal("expected error for short body")
	}
	if rec.Body.Len() != 0 {
		t.Error("nothing should be written for a short body")
	}
}

func TestWriteUnsatisfiable(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteUnsatisfiable(rec, 1000)
	if rec.Code != http.StatusRequestedRangeNotSatisfiable {
		t.Errorf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes */1000" {
		t.Errorf("Content-Range = %q", got)
	}
	if rec.Body.Len() != 0 {
		t.Error("416 must have no body")
	}
}
