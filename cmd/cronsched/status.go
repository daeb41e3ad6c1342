package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "status [id]",
		Short: "Show a job's durable record",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			s, err := openScheduler()
			if err != nil {
				fatalf("open scheduler: %v", err)
			}
			defer s.Destroy()

			job, ok, err := s.Get(args[0])
			if err != nil {
				fatalf("get: %v", err)
			}
			if !ok {
				fatalf("no job with identifier %q", args[0])
			}

			if jsonOutput {
				data, _ := json.MarshalIndent(job, "", "  ")
				fmt.Println(string(data))
				return
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "IDENTIFIER\t%s\n", job.Identifier)
			fmt.Fprintf(tw, "STATUS\t%s\n", job.Status)
			schedule := "one-shot"
			if job.IsRecurring() {
				schedule = *job.CronExpression
			}
			fmt.Fprintf(tw, "SCHEDULE\t%s\n", schedule)
			fmt.Fprintf(tw, "NEXT RUN\t%s\n", time.UnixMilli(job.NextRun).Format(time.DateTime))
			lastRun := "never"
			if job.LastRun != nil {
				lastRun = time.UnixMilli(*job.LastRun).Format(time.DateTime)
			}
			fmt.Fprintf(tw, "LAST RUN\t%s\n", lastRun)
			fmt.Fprintf(tw, "RUN COUNT\t%d\n", job.RunCount)
			if job.LastError != nil {
				fmt.Fprintf(tw, "LAST ERROR\t%s\n", *job.LastError)
			}
			tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func statsCmd() *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate scheduler statistics",
		Run: func(cmd *cobra.Command, args []string) {
			s, err := openScheduler()
			if err != nil {
				fatalf("open scheduler: %v", err)
			}
			defer s.Destroy()

			stats, err := s.GetJobStats()
			if err != nil {
				fatalf("stats: %v", err)
			}

			if jsonOutput {
				data, _ := json.MarshalIndent(stats, "", "  ")
				fmt.Println(string(data))
				return
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "ACTIVE\t%d\n", stats.ByStatus.Active)
			fmt.Fprintf(tw, "PAUSED\t%d\n", stats.ByStatus.Paused)
			fmt.Fprintf(tw, "CANCELLED\t%d\n", stats.ByStatus.Cancelled)
			fmt.Fprintf(tw, "COMPLETED\t%d\n", stats.ByStatus.Completed)
			fmt.Fprintf(tw, "ACTIVE DUE SOON\t%d\n", stats.ActiveDue)
			fmt.Fprintf(tw, "TOTAL RUNS\t%d\n", stats.TotalRuns)
			tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}
