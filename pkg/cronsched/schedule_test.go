package cronsched

import "testing"

func TestScheduleInput_CronValid(t *testing.T) {
	now := int64(1_700_000_000_000)
	resolved, err := Cron("*/5 * * * * *").resolve(now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.cronExpr == nil || resolved.specificTime != nil {
		t.Fatalf("expected exclusivity: cron set, specificTime nil; got %+v", resolved)
	}
	if resolved.nextRun <= now {
		t.Errorf("nextRun = %d, want > now (%d)", resolved.nextRun, now)
	}
}

func TestScheduleInput_CronInvalid(t *testing.T) {
	_, err := Cron("not a cron expr").resolve(0)
	if !IsKind(err, KindConfig) {
		t.Fatalf("expected KindConfig error, got %v", err)
	}
}

func TestScheduleInput_AtFuture(t *testing.T) {
	now := int64(1_700_000_000_000)
	resolved, err := At(now + 1000).resolve(now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.specificTime == nil || resolved.cronExpr != nil {
		t.Fatalf("expected exclusivity: specificTime set, cron nil; got %+v", resolved)
	}
	if resolved.nextRun != now+1000 {
		t.Errorf("nextRun = %d, want %d", resolved.nextRun, now+1000)
	}
}

func TestScheduleInput_AtInPast(t *testing.T) {
	now := int64(1_700_000_000_000)
	_, err := At(now - 1).resolve(now)
	if !IsKind(err, KindConfig) {
		t.Fatalf("expected KindConfig error (TIME_IN_PAST), got %v", err)
	}
}

func TestScheduleInput_AtEqualNowIsPast(t *testing.T) {
	now := int64(1_700_000_000_000)
	_, err := At(now).resolve(now)
	if !IsKind(err, KindConfig) {
		t.Fatalf("expected KindConfig error for value == now, got %v", err)
	}
}

func TestScheduleInput_AtDate(t *testing.T) {
	now := int64(1_700_000_000_000)
	future := msToTime(now + 5000)
	resolved, err := AtDate(future).resolve(now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.nextRun != now+5000 {
		t.Errorf("nextRun = %d, want %d", resolved.nextRun, now+5000)
	}
}
