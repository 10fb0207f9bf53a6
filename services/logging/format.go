// services/logging/format.go
package logging

import "fmt"

const lineEnd = "\r\n"

// boundedWriter accepts bytes until the limit and silently drops the rest.
// fmt writes through it so a long message never grows the scratch buffer.
type boundedWriter struct {
	buf   []byte
	limit int
}

func (w *boundedWriter) Write(p []byte) (int, error) {
	if room := w.limit - len(w.buf); room > 0 {
		if len(p) > room {
			w.buf = append(w.buf, p[:room]...)
		} else {
			w.buf = append(w.buf, p...)
		}
	}
	// Report everything as consumed; truncation is not an error.
	return len(p), nil
}

func (w *boundedWriter) WriteString(s string) {
	if room := w.limit - len(w.buf); room > 0 {
		if len(s) > room {
			s = s[:room]
		}
		w.buf = append(w.buf, s...)
	}
}

// formatLine renders prefix, message and terminator into scratch and
// returns the used part. The caller must hold the producer lock.
func formatLine(scratch []byte, level Level, feature Feature, format string, args []any) []byte {
	if cap(scratch) < len(lineEnd) {
		return nil
	}
	w := boundedWriter{buf: scratch[:0], limit: cap(scratch) - len(lineEnd)}
	if feature != FeatureRaw {
		w.WriteString(level.Prefix())
		w.WriteString(feature.Prefix())
	}
	fmt.Fprintf(&w, format, args...)

	b := w.buf
	if n := len(b); n > 0 && b[n-1] == '\n' {
		b = b[:n-1]
	}
	if n := len(b); n > 0 && b[n-1] == '\r' {
		b = b[:n-1]
	}
	return append(b, lineEnd...)
}
