package ledger

import (
	"fmt"
	"time"

	"github.com/Veraticus/tally/internal/common"
)

// DefaultEditWindow is how long a transaction stays editable after creation.
const DefaultEditWindow = 12 * time.Hour

// EditWindow limits updates to recently created transactions. It is measured
// from the immutable creation timestamp, never the business date.
type EditWindow struct {
	Length time.Duration
}

// Check returns an error wrapping common.ErrEditWindowExpired when a
// transaction created at createdAt can no longer be edited at now.
func (w EditWindow) Check(createdAt, now time.Time) error {
	age := now.Sub(createdAt)
	if age <= w.Length {
		return nil
	}
	return fmt.Errorf("%w: transactions can only be edited within %s of creation; this one was created %s ago",
		common.ErrEditWindowExpired, humanizeDuration(w.Length), humanizeDuration(age))
}

// Remaining reports how much longer a transaction created at createdAt stays editable.
func (w EditWindow) Remaining(createdAt, now time.Time) time.Duration {
	remaining := w.Length - now.Sub(createdAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func humanizeDuration(d time.Duration) string {
	switch {
	case d >= 48*time.Hour:
		return plural(int(d/(24*time.Hour)), "day")
	case d >= time.Hour:
		return plural(int(d/time.Hour), "hour")
	case d >= time.Minute:
		return plural(int(d/time.Minute), "minute")
	default:
		return plural(int(d/time.Second), "second")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
