package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/buildwatch/buildwatch/internal/buildwatch/config"
	"github.com/buildwatch/buildwatch/internal/buildwatch/errors"
	"github.com/buildwatch/buildwatch/internal/buildwatch/watcher/daemon"
	"github.com/buildwatch/buildwatch/internal/buildwatch/watcher/socket"
	"github.com/buildwatch/buildwatch/internal/log"
)

// stopExitWait bounds how long stop waits after a socket acknowledgement
// before escalating to signals.
const stopExitWait = 5 * time.Second

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running watcher",
	Long: `Stop the watcher for this project.

The watcher is asked to shut down over its control socket first, which lets
it finish cleanup. If that fails the process is signaled through its PID
file. Stopping a watcher that is not running is not an error.`,
	Example: `  # Stop the watcher
  buildwatch stop`,
	Run: func(_ *cobra.Command, _ []string) {
		root := projectRoot()
		files := config.StateFiles(root)

		log.Info("Stopping watcher...")
		if stopViaSocket(files) {
			log.Info("Watcher stopped")
			return
		}

		err := daemon.StopProcess(files.PIDFile)
		switch {
		case err == nil:
			log.Info("Watcher stopped")
		case errors.Is(err, errors.ErrWatcherNotRunning):
			log.Info("Watcher is not running")
		default:
			log.Error("Failed to stop watcher: %v", err)
		}
	},
}

// stopViaSocket asks a running watcher to shut down over the control socket
// and waits for its process to exit. It reports false when the socket is
// unreachable or the process lingers, so the caller can escalate.
func stopViaSocket(files config.State) bool {
	client := socket.NewClient(files.SocketFile)
	resp, err := client.Stop()
	if err != nil || !resp.Success {
		return false
	}

	deadline := time.Now().Add(stopExitWait)
	for time.Now().Before(deadline) {
		if state := daemon.Probe(files.PIDFile); !state.Running {
			return true
		}
		time.Sleep(100 * time.Millisecond)
	}
	return false
}

func init() {
	rootCmd.AddCommand(stopCmd)
}
