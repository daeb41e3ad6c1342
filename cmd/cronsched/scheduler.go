package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/nextlevelbuilder/cronsched/pkg/cronsched"
)

// openScheduler builds a Scheduler from either --config or --db. It does not
// call Start: callers that only need a one-off store operation (cancel,
// status, stats) never spin up the background loops.
func openScheduler() (*cronsched.Scheduler, error) {
	cfg := cronsched.DefaultConfig()
	var opts []cronsched.Option
	if configPath != "" {
		loaded, err := cronsched.LoadConfigFile(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
		opts = append(opts, cronsched.WithConfigWatch(configPath))
	} else {
		cfg.DB = dbPath
	}
	return cronsched.New(cfg, opts...)
}

// shellHandler runs command through the shell whenever the job fires,
// mirroring the optional shell-command action the jobs this CLI schedules
// are modelled on.
func shellHandler(command string) cronsched.JobHandler {
	return func(identifier string) error {
		cmd := exec.Command("sh", "-c", command)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("command failed: %w", err)
		}
		return nil
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
