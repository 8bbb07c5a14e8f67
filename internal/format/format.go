// Package format renders on-chain values for people: token amounts, short
// addresses, timestamps and relative durations.
package format

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/params"
)

// TimestampLayout is used for evidence and answer timestamps.
const TimestampLayout = "Jan 2, 2006 15:04:05"

// Ether converts a base-10 wei amount into a decimal string with three
// fractional digits. Unparseable input yields "0.000".
func Ether(wei string) string {
	n, ok := new(big.Int).SetString(strings.TrimSpace(wei), 10)
	if !ok {
		return "0.000"
	}
	f := new(big.Float).SetPrec(256).SetInt(n)
	f.Quo(f, new(big.Float).SetPrec(256).SetInt64(params.Ether))
	return f.Text('f', 3)
}

// ShortAddress abbreviates a hex address as 0x1234...abcd. ENS names and
// strings too short to abbreviate are returned unchanged.
func ShortAddress(addr string) string {
	if strings.Contains(addr, ".eth") || len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

// Timestamp formats t in UTC using TimestampLayout.
func Timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimestampLayout)
}

// Relative describes t relative to now, e.g. "in 3 hours" or "5 minutes ago".
// With suffix false only the distance is returned.
func Relative(t, now time.Time, suffix bool) string {
	d := t.Sub(now)
	future := d > 0
	if d < 0 {
		d = -d
	}
	dist := Distance(d)
	if !suffix {
		return dist
	}
	if future {
		return "in " + dist
	}
	return dist + " ago"
}

// Distance renders a duration in the largest sensible unit.
func Distance(d time.Duration) string {
	switch {
	case d < 45*time.Second:
		return "less than a minute"
	case d < 90*time.Second:
		return "1 minute"
	case d < 45*time.Minute:
		return plural(int(d.Round(time.Minute)/time.Minute), "minute")
	case d < 90*time.Minute:
		return "about 1 hour"
	case d < 24*time.Hour:
		return "about " + plural(int(d.Round(time.Hour)/time.Hour), "hour")
	case d < 48*time.Hour:
		return "1 day"
	case d < 30*24*time.Hour:
		return plural(int(d/(24*time.Hour)), "day")
	case d < 365*24*time.Hour:
		return plural(int(d/(30*24*time.Hour)), "month")
	default:
		return plural(int(d/(365*24*time.Hour)), "year")
	}
}

// Countdown renders a remaining duration as "1d 2h 3m" with zero units
// dropped; a non-positive duration reads "ended".
func Countdown(d time.Duration) string {
	if d <= 0 {
		return "ended"
	}
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	return strings.Join(parts, " ")
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
