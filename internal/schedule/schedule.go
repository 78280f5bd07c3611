// Package schedule interprets the refresh cron expression stamped into the
// library document as nextUpdate.
package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate checks that expr is a five-field cron expression or a descriptor
// such as "@daily".
func Validate(expr string) error {
	_, err := parse(expr)
	return err
}

// Next returns the first activation strictly after from. An empty expression
// means no schedule and returns ok=false.
func Next(expr string, from time.Time) (next time.Time, ok bool, err error) {
	if strings.TrimSpace(expr) == "" {
		return time.Time{}, false, nil
	}
	sched, err := parse(expr)
	if err != nil {
		return time.Time{}, false, err
	}
	next = sched.Next(from)
	if next.IsZero() {
		return time.Time{}, false, nil
	}
	return next, true, nil
}

// Describe returns a human-readable description of a cron expression.
func Describe(expr string) string {
	switch strings.TrimSpace(expr) {
	case "":
		return "Not scheduled"
	case "0 * * * *", "@hourly":
		return "Every hour at :00"
	case "0 */6 * * *":
		return "Every 6 hours"
	case "0 */12 * * *":
		return "Every 12 hours"
	case "0 0 * * *", "@daily", "@midnight":
		return "Daily at midnight"
	case "0 0 * * 0", "@weekly":
		return "Weekly on Sunday at midnight"
	case "0 0 1 * *", "@monthly":
		return "Monthly on the 1st at midnight"
	default:
		return "Custom schedule: " + expr
	}
}

func parse(expr string) (cron.Schedule, error) {
	sched, err := parser.Parse(strings.TrimSpace(expr))
	if err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", expr, err)
	}
	return sched, nil
}
