package shared

import (
	"fmt"
	"math"
	"strings"

	"github.com/docker/go-units"
	"github.com/dustin/go-humanize"
)

// Size units understood by [ConvertSize]. Multiples are binary (1 KB = 1024 B).
const (
	UnitBytes = "b"
	UnitKB    = "kb"
	UnitMB    = "mb"
	UnitGB    = "gb"
)

// UnitToBytes scales size expressed in unit to bytes. Units other than
// kb, mb and gb are treated as bytes already.
func UnitToBytes(unit string, size float64) float64 {
	return size * float64(unitFactor(unit))
}

// ConvertSize converts a human readable size such as "2.4 mb" or "22 KB"
// into unit, rounded to dec decimal places.
func ConvertSize(size, unit string, dec int) (float64, error) {
	n, err := units.RAMInBytes(strings.TrimSpace(size))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, size)
	}
	return ConvertBytes(n, unit, dec), nil
}

// ConvertBytes converts a byte count into unit, rounded to dec decimal places.
func ConvertBytes(n int64, unit string, dec int) float64 {
	factor := unitFactor(unit)
	if factor == 1 {
		return float64(n)
	}
	p := math.Pow(10, float64(dec))
	return math.Round(float64(n)/float64(factor)*p) / p
}

// FormatSize renders n bytes in IEC units, e.g. "512 B" or "3.5 MiB".
func FormatSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

func unitFactor(unit string) int64 {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case UnitKB, "k", "kib":
		return units.KiB
	case UnitMB, "m", "mib":
		return units.MiB
	case UnitGB, "g", "gib":
		return units.GiB
	default:
		return 1
	}
}
