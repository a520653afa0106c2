// Package format renders values for display.
package format

import (
	"strconv"
)

var byteUnits = []string{"Bytes", "KB", "MB", "GB", "TB"}

// Bytes formats n with up to two decimals, e.g. 1536 -> "1.5 KB".
func Bytes(n int64) string {
	return BytesPrec(n, 2)
}

// BytesPrec formats n in binary units with at most decimals digits after
// the point. Trailing zeros are dropped.
func BytesPrec(n int64, decimals int) string {
	if n == 0 {
		return "0 Bytes"
	}
	if n < 0 {
		// -(n+1) stays in range for math.MinInt64
		return "-" + formatBytes(uint64(-(n+1))+1, decimals)
	}
	return formatBytes(uint64(n), decimals)
}

func formatBytes(n uint64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}

	i := 0
	div := uint64(1)
	for i < len(byteUnits)-1 && n >= div*1024 {
		div *= 1024
		i++
	}

	v := float64(n) / float64(div)
	rounded, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', decimals, 64), 64)
	return strconv.FormatFloat(rounded, 'f', -1, 64) + " " + byteUnits[i]
}
