package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func cancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel [id]",
		Short: "Cancel a scheduled job",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			s, err := openScheduler()
			if err != nil {
				fatalf("open scheduler: %v", err)
			}
			defer s.Destroy()

			affected, err := s.Cancel(args[0])
			if err != nil {
				fatalf("cancel: %v", err)
			}
			if !affected {
				fatalf("no job with identifier %q", args[0])
			}
			fmt.Printf("cancelled %s\n", args[0])
		},
	}
}

func pauseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pause [id]",
		Short: "Pause a scheduled job",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			s, err := openScheduler()
			if err != nil {
				fatalf("open scheduler: %v", err)
			}
			defer s.Destroy()

			affected, err := s.Pause(args[0])
			if err != nil {
				fatalf("pause: %v", err)
			}
			if !affected {
				fatalf("no job with identifier %q", args[0])
			}
			fmt.Printf("paused %s\n", args[0])
		},
	}
}

func resumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume [id]",
		Short: "Resume a paused job",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			s, err := openScheduler()
			if err != nil {
				fatalf("open scheduler: %v", err)
			}
			defer s.Destroy()

			affected, err := s.Resume(args[0])
			if err != nil {
				fatalf("resume: %v", err)
			}
			if !affected {
				fatalf("no job with identifier %q", args[0])
			}
			fmt.Printf("resumed %s\n", args[0])
		},
	}
}

func triggerCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "trigger [id]",
		Short: "Manually run a job now",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			s, err := openScheduler()
			if err != nil {
				fatalf("open scheduler: %v", err)
			}
			defer s.Destroy()

			ran, reason, err := s.TriggerNow(args[0], force)
			if err != nil {
				fatalf("trigger: %v", err)
			}
			if !ran {
				fatalf("did not run: %s", reason)
			}
			fmt.Printf("triggered %s\n", args[0])
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "run even if the job is not yet due")
	return cmd
}
