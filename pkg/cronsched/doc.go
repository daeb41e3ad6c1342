// Package cronsched is a persistent, single-process cron-style job
// scheduler. Callers register named jobs tied to either a recurring cron
// expression or a one-shot absolute timestamp; the scheduler fires each
// job's in-process handler at the right wall-clock moment, persists job
// state across restarts, retries transient handler failures with
// exponential backoff, and garbage-collects terminal jobs on a retention
// schedule.
//
// Handler functions are never persisted — only the job's schedule and
// execution bookkeeping survive a restart. Callers must re-register
// handlers for every identifier after constructing a new Scheduler against
// an existing store.
package cronsched
