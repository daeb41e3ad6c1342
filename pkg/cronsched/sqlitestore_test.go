package cronsched

import (
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *sqliteStore {
	t.Helper()
	st, err := newSQLiteStore(filepath.Join(t.TempDir(), "cron.db"))
	if err != nil {
		t.Fatalf("newSQLiteStore: %v", err)
	}
	if err := st.init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() { _ = st.close() })
	return st
}

func sampleJob(identifier string, nextRun int64) *Job {
	at := nextRun
	return &Job{
		ID:           newJobID(),
		Identifier:   identifier,
		SpecificTime: &at,
		Status:       StatusActive,
		NextRun:      nextRun,
		CreatedAt:    1,
		UpdatedAt:    1,
	}
}

func TestSQLiteStore_UpsertAndGet(t *testing.T) {
	st := newTestStore(t)
	job := sampleJob("job-a", 1000)

	if err := st.upsert(job); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, ok, err := st.getByIdentifier("job-a")
	if err != nil || !ok {
		t.Fatalf("getByIdentifier: ok=%v err=%v", ok, err)
	}
	if got.ID != job.ID || got.NextRun != 1000 {
		t.Errorf("got %+v, want matching id/next_run", got)
	}
}

func TestSQLiteStore_UpsertOnConflictReplacesSchedulingState(t *testing.T) {
	st := newTestStore(t)
	job := sampleJob("job-a", 1000)
	if err := st.upsert(job); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	job.NextRun = 2000
	job.RunCount = 5
	if err := st.upsert(job); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, ok, err := st.getByIdentifier("job-a")
	if err != nil || !ok {
		t.Fatalf("getByIdentifier: ok=%v err=%v", ok, err)
	}
	if got.NextRun != 2000 || got.RunCount != 5 {
		t.Errorf("got %+v, want next_run=2000 run_count=5", got)
	}
	if got.ID != job.ID {
		t.Errorf("id changed across upsert on same identifier: got %s want %s", got.ID, job.ID)
	}
}

func TestSQLiteStore_ApplyPostExecutionGatedOnActive(t *testing.T) {
	st := newTestStore(t)
	job := sampleJob("job-a", 1000)
	job.Status = StatusPaused
	if err := st.upsert(job); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	applied, err := st.applyPostExecution("job-a", 2000, nil, 3000, 1, StatusActive, 2000)
	if err != nil {
		t.Fatalf("applyPostExecution: %v", err)
	}
	if applied {
		t.Fatal("expected applyPostExecution to be gated out for a non-active job")
	}

	got, _, _ := st.getByIdentifier("job-a")
	if got.RunCount != 0 || got.Status != StatusPaused {
		t.Errorf("expected paused job untouched, got %+v", got)
	}
}

func TestSQLiteStore_WindowQueryOrdersAndLimits(t *testing.T) {
	st := newTestStore(t)
	for i, nr := range []int64{500, 100, 300, 700, 900} {
		job := sampleJob(string(rune('a'+i)), nr)
		if err := st.upsert(job); err != nil {
			t.Fatalf("upsert %d: %v", i, err)
		}
	}

	jobs, err := st.windowQuery(0, 1000, 3)
	if err != nil {
		t.Fatalf("windowQuery: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("len(jobs) = %d, want 3", len(jobs))
	}
	want := []int64{100, 300, 500}
	for i, j := range jobs {
		if j.NextRun != want[i] {
			t.Errorf("jobs[%d].NextRun = %d, want %d", i, j.NextRun, want[i])
		}
	}
}

func TestSQLiteStore_WindowQueryIncludesPastDueExcludesBeyondWindowEnd(t *testing.T) {
	st := newTestStore(t)
	if err := st.upsert(sampleJob("at-now", 500)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := st.upsert(sampleJob("past-due", 100)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := st.upsert(sampleJob("past-window", 1500)); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	jobs, err := st.windowQuery(500, 1000, 10)
	if err != nil {
		t.Fatalf("windowQuery: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("len(jobs) = %d, want 2 (at-now and past-due included, past-window excluded)", len(jobs))
	}
	got := map[string]bool{}
	for _, j := range jobs {
		got[j.Identifier] = true
	}
	if !got["at-now"] || !got["past-due"] {
		t.Errorf("expected at-now and past-due to be returned, got %+v", jobs)
	}
	if got["past-window"] {
		t.Errorf("expected past-window (next_run=1500 > window_end=1000) to be excluded")
	}
}

func TestSQLiteStore_CountByStatusAndAggregates(t *testing.T) {
	st := newTestStore(t)
	active := sampleJob("a", 100)
	paused := sampleJob("b", 200)
	paused.Status = StatusPaused
	completed := sampleJob("c", 300)
	completed.Status = StatusCompleted
	completed.RunCount = 7

	for _, j := range []*Job{active, paused, completed} {
		if err := st.upsert(j); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	counts, err := st.countByStatus()
	if err != nil {
		t.Fatalf("countByStatus: %v", err)
	}
	if counts.Active != 1 || counts.Paused != 1 || counts.Completed != 1 || counts.Cancelled != 0 {
		t.Errorf("counts = %+v, want 1 active/paused/completed, 0 cancelled", counts)
	}

	total, err := st.sumRunCount()
	if err != nil {
		t.Fatalf("sumRunCount: %v", err)
	}
	if total != 7 {
		t.Errorf("sumRunCount = %d, want 7", total)
	}
}

func TestSQLiteStore_DeleteTerminalRespectsStatusAndCutoff(t *testing.T) {
	st := newTestStore(t)
	old := sampleJob("old", 100)
	old.Status = StatusCompleted
	old.UpdatedAt = 100
	recent := sampleJob("recent", 200)
	recent.Status = StatusCompleted
	recent.UpdatedAt = 9000

	for _, j := range []*Job{old, recent} {
		if err := st.upsert(j); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	n, err := st.deleteTerminal(StatusCompleted, 5000)
	if err != nil {
		t.Fatalf("deleteTerminal: %v", err)
	}
	if n != 1 {
		t.Fatalf("deleted = %d, want 1", n)
	}
	if _, ok, _ := st.getByIdentifier("old"); ok {
		t.Error("expected old job to be deleted")
	}
	if _, ok, _ := st.getByIdentifier("recent"); !ok {
		t.Error("expected recent job to survive")
	}
}
