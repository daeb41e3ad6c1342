// Command cronsched is a standalone CLI front end for the cronsched
// scheduler library. It schedules jobs whose action is a shell command
// (the Payload.Command shape the jobs this was modelled on support),
// manages their lifecycle, and can run the engine in the foreground.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "cronsched",
		Short: "Persistent cron-style job scheduler",
	}
	root.PersistentFlags().StringVar(&dbPath, "db", "cronsched.db", "path to the sqlite job store")
	root.PersistentFlags().StringVar(&configPath, "config", "", "optional YAML config file (overrides --db)")

	root.AddCommand(scheduleCmd())
	root.AddCommand(cancelCmd())
	root.AddCommand(pauseCmd())
	root.AddCommand(resumeCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(statsCmd())
	root.AddCommand(triggerCmd())
	root.AddCommand(cleanupCmd())
	root.AddCommand(startCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	dbPath     string
	configPath string
)
