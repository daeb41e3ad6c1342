package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/cronsched/pkg/cronsched"
)

func scheduleCmd() *cobra.Command {
	var (
		id      string
		cron    string
		at      string
		command string
	)
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Schedule a job that runs a shell command",
		Run: func(cmd *cobra.Command, args []string) {
			if id == "" {
				fatalf("--id is required")
			}
			if command == "" {
				fatalf("--command is required")
			}
			if (cron == "") == (at == "") {
				fatalf("exactly one of --cron or --at must be set")
			}

			var input cronsched.ScheduleInput
			if cron != "" {
				input = cronsched.Cron(cron)
			} else {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					fatalf("invalid --at timestamp (want RFC3339): %v", err)
				}
				input = cronsched.AtDate(t)
			}

			s, err := openScheduler()
			if err != nil {
				fatalf("open scheduler: %v", err)
			}
			defer s.Destroy()

			jobID, err := s.Schedule(input, id, shellHandler(command))
			if err != nil {
				fatalf("schedule: %v", err)
			}
			fmt.Printf("scheduled %s (job id %s)\n", id, jobID)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "unique job identifier")
	cmd.Flags().StringVar(&cron, "cron", "", "cron expression for a recurring job")
	cmd.Flags().StringVar(&at, "at", "", "RFC3339 timestamp for a one-shot job")
	cmd.Flags().StringVar(&command, "command", "", "shell command to run when the job fires")
	return cmd
}
