package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/buildwatch/buildwatch/internal/buildwatch/config"
	"github.com/buildwatch/buildwatch/internal/buildwatch/history"
	"github.com/buildwatch/buildwatch/internal/buildwatch/watcher/socket"
	"github.com/buildwatch/buildwatch/internal/log"
)

var (
	historyLimit  int
	historyEvents bool
	historyJSON   bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent builds and watcher events",
	Long: `Print the most recent builds recorded in the history database, newest
first. With --events it prints the raw watcher event decisions instead.

A running watcher is queried over its control socket; otherwise the
database is read directly.`,
	Example: `  # Last ten builds
  buildwatch history

  # More builds, machine readable
  buildwatch history --limit 50 --json

  # Watcher event decisions
  buildwatch history --events`,
	Run: func(_ *cobra.Command, _ []string) {
		files := config.StateFiles(projectRoot())

		if historyEvents {
			events, err := fetchEvents(files)
			if err != nil {
				log.Fatal("Failed to read history: ", err)
			}
			if historyJSON {
				printJSON(events)
				return
			}
			renderEvents(events)
			return
		}

		builds, err := fetchBuilds(files)
		if err != nil {
			log.Fatal("Failed to read history: ", err)
		}
		if historyJSON {
			printJSON(builds)
			return
		}
		renderBuilds(builds)
	},
}

// fetchBuilds prefers the live watcher so the answer includes builds not
// yet visible to a second database connection.
func fetchBuilds(files config.State) ([]history.Build, error) {
	client := socket.NewClient(files.SocketFile)
	if resp, err := client.History(historyLimit); err == nil && resp.Success {
		var builds []history.Build
		if remarshal(resp.Data, &builds) == nil {
			return builds, nil
		}
	}

	db := history.New(files.DatabaseFile)
	if err := db.Init(); err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	return db.RecentBuilds(historyLimit)
}

func fetchEvents(files config.State) ([]history.Event, error) {
	client := socket.NewClient(files.SocketFile)
	if resp, err := client.Events(historyLimit); err == nil && resp.Success {
		var events []history.Event
		if remarshal(resp.Data, &events) == nil {
			return events, nil
		}
	}

	db := history.New(files.DatabaseFile)
	if err := db.Init(); err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	return db.RecentEvents(historyLimit)
}

// remarshal converts generically decoded socket data into a typed slice.
func remarshal(data interface{}, into interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, into)
}

func renderBuilds(builds []history.Build) {
	log.Info("Recent builds")
	if len(builds) == 0 {
		log.InfoH2("No builds recorded yet")
		return
	}
	for _, b := range builds {
		stamp := b.StartedAt.Local().Format("2006-01-02 15:04:05")
		if b.Succeeded {
			log.InfoH2("%s  %s  success  %s  (%s)", stamp, b.Target, b.Duration.Round(time.Millisecond), b.Trigger)
			for _, artifact := range b.Artifacts {
				log.InfoH3("artifact: %s", artifact)
			}
		} else {
			log.InfoH2("%s  %s  FAILED   %s  (%s)", stamp, b.Target, b.Duration.Round(time.Millisecond), b.Trigger)
			if b.FailureReason != "" {
				log.InfoH3("%s", b.FailureReason)
			}
		}
	}
}

func renderEvents(events []history.Event) {
	log.Info("Recent watcher events")
	if len(events) == 0 {
		log.InfoH2("No events recorded yet")
		return
	}
	for _, e := range events {
		stamp := e.Timestamp.Local().Format("2006-01-02 15:04:05")
		log.InfoH2("%s  %-6s  %s  %s", stamp, e.Op, e.Path, e.Decision)
	}
}

func printJSON(v interface{}) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatal("Failed to encode history: ", err)
	}
	fmt.Println(string(out))
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of entries to show")
	historyCmd.Flags().BoolVar(&historyEvents, "events", false, "Show watcher event decisions instead of builds")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output in JSON format")
}
