package orders

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatNumber renders PREFIX-YY-N.
func FormatNumber(prefix string, at time.Time, seq int64) string {
	return fmt.Sprintf("%s-%02d-%d", prefix, at.Year()%100, seq)
}

// NextSequence returns the numeric suffix of last plus one, or base when
// last is empty or has no numeric suffix.
func NextSequence(last string, base int64) int64 {
	idx := strings.LastIndex(last, "-")
	if idx < 0 || idx == len(last)-1 {
		return base
	}
	n, err := strconv.ParseInt(last[idx+1:], 10, 64)
	if err != nil || n < 0 {
		return base
	}
	return n + 1
}
