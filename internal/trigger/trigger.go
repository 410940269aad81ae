// Package trigger holds the pure time math behind forecast deliveries:
// converting a user-local hour to a UTC cron expression and back, and
// asking the cron parser when an expression fires next.
//
// The wire format is seven space-separated fields,
// "0 {minutes} {hourUtc} * * * *" (seconds, minutes, hour, day-of-month,
// month, day-of-week, year wildcard), firing once daily at hourUtc:minutes.
package trigger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrBadExpression reports a persisted trigger that does not match the
// seven-field wire format.
var ErrBadExpression = errors.New("trigger: malformed cron expression")

// The year field is outside what the cron parser understands; expressions
// are validated as seven fields and evaluated on the first six.
var parser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// UTCHour converts a user-local hour into the UTC hour a trigger stores.
//
// The upper clamp is intentionally "> 24", not ">= 24": that is the rule the
// already-persisted triggers were produced under, so a result of exactly 24
// is left as-is and later surfaces as an evaluator error instead of being
// silently moved to midnight. See DESIGN.md before changing this.
func UTCHour(localHour, offset int) int {
	h := localHour - offset
	if h < 0 {
		return h + 24
	}
	if h > 24 {
		return h - 24
	}
	return h
}

// LocalHour is the inverse of UTCHour under the same clamping rule. It
// recovers the user-local hour from a stored trigger given the offset the
// trigger was built with.
func LocalHour(utcHour, offset int) int {
	h := utcHour + offset
	if h > 24 {
		return h - 24
	}
	if h < 0 {
		return h + 24
	}
	return h
}

// Build encodes a daily fire time as the seven-field wire format.
func Build(minutes, hourUTC int) string {
	return fmt.Sprintf("0 %d %d * * * *", minutes, hourUTC)
}

// Decode extracts the minutes and UTC hour from a stored expression.
func Decode(expr string) (minutes, hourUTC int, err error) {
	fields := strings.Fields(expr)
	if len(fields) != 7 {
		return 0, 0, fmt.Errorf("%w: %q has %d fields, want 7", ErrBadExpression, expr, len(fields))
	}
	minutes, err = strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: minutes %q", ErrBadExpression, fields[1])
	}
	hourUTC, err = strconv.Atoi(fields[2])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: hour %q", ErrBadExpression, fields[2])
	}
	return minutes, hourUTC, nil
}

// NextFire returns the next UTC instant expr fires after now.
func NextFire(expr string) (time.Time, error) {
	return NextFireAfter(expr, time.Now().UTC())
}

// NextFireAfter returns the next UTC instant expr fires strictly after t.
func NextFireAfter(expr string, t time.Time) (time.Time, error) {
	fields := strings.Fields(expr)
	if len(fields) != 7 {
		return time.Time{}, fmt.Errorf("%w: %q has %d fields, want 7", ErrBadExpression, expr, len(fields))
	}
	sched, err := parser.Parse(strings.Join(fields[:6], " "))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrBadExpression, err)
	}
	next := sched.Next(t.UTC())
	if next.IsZero() {
		return time.Time{}, fmt.Errorf("%w: %q never fires", ErrBadExpression, expr)
	}
	return next, nil
}
