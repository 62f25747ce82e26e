package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/buildwatch/buildwatch/internal/buildwatch/config"
	"github.com/buildwatch/buildwatch/internal/buildwatch/vcs"
	"github.com/buildwatch/buildwatch/internal/buildwatch/watcher/daemon"
	"github.com/buildwatch/buildwatch/internal/buildwatch/watcher/socket"
	"github.com/buildwatch/buildwatch/internal/log"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show watcher and repository status",
	Long: `Display the watcher process state, the live supervisor state when one
is running, and the git branch of the project.`,
	Example: `  # Show status
  buildwatch status

  # Machine readable output
  buildwatch status --json`,
	Run: func(_ *cobra.Command, _ []string) {
		report := collectStatus(projectRoot())

		if statusJSON {
			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				log.Fatal("Failed to encode status: ", err)
			}
			fmt.Println(string(out))
			return
		}
		renderStatus(report)
	},
}

// statusReport aggregates everything the status command shows.
type statusReport struct {
	Process daemon.ProcessState    `json:"process"`
	Watcher map[string]interface{} `json:"watcher,omitempty"`
	VCS     *vcs.Snapshot          `json:"vcs,omitempty"`
}

// collectStatus probes the PID file, asks a live watcher for its state over
// the control socket and snapshots the repository. Every part is optional;
// missing pieces are simply absent from the report.
func collectStatus(root string) statusReport {
	files := config.StateFiles(root)
	report := statusReport{Process: daemon.Probe(files.PIDFile)}

	if report.Process.Running {
		client := socket.NewClient(files.SocketFile)
		if resp, err := client.Status(); err == nil && resp.Success {
			if data, ok := resp.Data.(map[string]interface{}); ok {
				report.Watcher = data
			}
		}
	}

	if snap, err := vcs.New(root).Snapshot(); err == nil {
		report.VCS = snap
	}
	return report
}

func renderStatus(report statusReport) {
	log.Info("Watcher status")

	if report.Process.Running {
		log.InfoH2("Process: running (PID %d)", report.Process.PID)
	} else {
		log.InfoH2("Process: %s", report.Process.State)
	}
	if report.Process.Message != "" {
		log.InfoH3("%s", report.Process.Message)
	}

	if report.Watcher != nil {
		if state, ok := report.Watcher["state"].(string); ok {
			log.InfoH2("State: %s", state)
		}
		if target, ok := report.Watcher["target"].(string); ok {
			log.InfoH2("Target: %s", target)
		}
		if ns, ok := report.Watcher["uptime"].(float64); ok {
			log.InfoH2("Uptime: %s", time.Duration(int64(ns)).Round(time.Second))
		}
		if last, ok := report.Watcher["last_trigger"].(string); ok {
			log.InfoH2("Last trigger: %s", last)
		}
		if outcome, ok := report.Watcher["last_outcome"].(map[string]interface{}); ok {
			renderLastBuild(outcome)
		}
	}

	if report.VCS != nil {
		if report.VCS.Clean {
			log.InfoH2("Branch: %s (clean)", report.VCS.Branch)
		} else {
			log.InfoH2("Branch: %s (%d changed files)", report.VCS.Branch, report.VCS.ChangedFiles)
		}
	}
}

// renderLastBuild prints the decoded outcome map a live watcher reports.
func renderLastBuild(outcome map[string]interface{}) {
	target, _ := outcome["target"].(string)
	duration := ""
	if ns, ok := outcome["duration"].(float64); ok {
		duration = " in " + time.Duration(int64(ns)).Round(time.Millisecond).String()
	}

	if succeeded, _ := outcome["succeeded"].(bool); succeeded {
		log.InfoH2("Last build: %s succeeded%s", target, duration)
	} else {
		log.InfoH2("Last build: %s failed%s", target, duration)
		if reason, ok := outcome["failure_reason"].(string); ok && reason != "" {
			log.InfoH3("%s", reason)
		}
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output status in JSON format")
}
