package cronsched

import (
	"fmt"
	"time"

	"github.com/adhocore/gronx"
)

// ScheduleInput is the tagged variant a caller supplies to Schedule: exactly
// one constructor below should be used to build it (spec §4.1, design notes
// "polymorphism over schedule input").
type ScheduleInput struct {
	cron   string
	atMS   int64
	hasAt  bool
	isCron bool
}

// Cron schedules a recurring job from a standard 5- or 6-field cron
// expression, parsed by the cron-parser adapter at schedule time and after
// every firing.
func Cron(expr string) ScheduleInput {
	return ScheduleInput{cron: expr, isCron: true}
}

// At schedules a one-shot job for an absolute instant in milliseconds since
// the Unix epoch.
func At(epochMS int64) ScheduleInput {
	return ScheduleInput{atMS: epochMS, hasAt: true}
}

// AtDate schedules a one-shot job for the given wall-clock instant.
func AtDate(t time.Time) ScheduleInput {
	return At(t.UnixMilli())
}

// resolvedSchedule is the internal, validated (cron|specific_time, next_run)
// pair computed from a ScheduleInput (spec §4.1 output).
type resolvedSchedule struct {
	cronExpr     *string
	specificTime *int64
	nextRun      int64
}

var gronxParser = gronx.New()

func cronNext(expr string, afterMS int64) (int64, error) {
	after := msToTime(afterMS)
	next, err := gronx.NextTickAfter(expr, after, false)
	if err != nil {
		return 0, err
	}
	return next.UnixMilli(), nil
}

// resolve validates and normalises a ScheduleInput against now, never
// partially persisting anything on failure (spec §4.1).
func (s ScheduleInput) resolve(nowMS int64) (resolvedSchedule, error) {
	switch {
	case s.isCron:
		if !gronxParser.IsValid(s.cron) {
			return resolvedSchedule{}, newErr(KindConfig, "schedule", fmt.Errorf("invalid cron expression %q", s.cron))
		}
		next, err := cronNext(s.cron, nowMS)
		if err != nil {
			return resolvedSchedule{}, newErr(KindConfig, "schedule", fmt.Errorf("invalid cron expression %q: %w", s.cron, err))
		}
		expr := s.cron
		return resolvedSchedule{cronExpr: &expr, nextRun: next}, nil

	case s.hasAt:
		if s.atMS <= nowMS {
			return resolvedSchedule{}, newErr(KindConfig, "schedule", fmt.Errorf("specific time %d is not in the future (now=%d)", s.atMS, nowMS))
		}
		at := s.atMS
		return resolvedSchedule{specificTime: &at, nextRun: at}, nil

	default:
		return resolvedSchedule{}, newErr(KindConfig, "schedule", fmt.Errorf("empty schedule input"))
	}
}
