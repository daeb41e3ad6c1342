package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func cleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Run one retention cleanup pass using the configured thresholds",
		Run: func(cmd *cobra.Command, args []string) {
			s, err := openScheduler()
			if err != nil {
				fatalf("open scheduler: %v", err)
			}
			defer s.Destroy()

			counts, err := s.TriggerAutoCleanup()
			if err != nil {
				fatalf("cleanup: %v", err)
			}
			fmt.Printf("deleted %d completed, %d cancelled\n", counts.Completed, counts.Cancelled)
		},
	}
}
