package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

func startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Run the scheduler engine in the foreground until interrupted",
		Long: `Run the scheduler engine in the foreground until interrupted.

Handlers are registered in process memory only, so a job scheduled by a
separate "cronsched schedule" invocation has no handler here — start is
meant for embedding in a long-running application that schedules its own
jobs against the same Scheduler before calling Start.`,
		Run: func(cmd *cobra.Command, args []string) {
			s, err := openScheduler()
			if err != nil {
				fatalf("open scheduler: %v", err)
			}
			defer s.Destroy()

			if err := s.Start(); err != nil {
				fatalf("start: %v", err)
			}
			fmt.Println("cronsched running, press Ctrl+C to stop")

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()
			<-ctx.Done()

			fmt.Println("stopping...")
			s.Stop()
		},
	}
}
