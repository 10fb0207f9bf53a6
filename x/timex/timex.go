package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// ForBytes is the whole-millisecond time needed to clock n bytes out of a
// serial line at baud bits per second, 8 bits per byte. baud < 8 yields 0.
func ForBytes(n, baud int) time.Duration {
	cps := baud / 8
	if n <= 0 || cps <= 0 {
		return 0
	}
	return time.Duration((1000*n)/cps) * time.Millisecond
}
