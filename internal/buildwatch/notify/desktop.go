package notify

import (
	"fmt"
	"io"

	"github.com/gen2brain/beeep"
)

// desktopSender raises a transient OS notification. When the platform
// notification service is unavailable it degrades to a console line, so
// this channel never fails.
type desktopSender struct {
	console io.Writer
	display func(event Event) error
}

func newDesktopSender(console io.Writer) *desktopSender {
	return &desktopSender{console: console, display: displayDesktop}
}

// displayDesktop shows the toast, with an audible alert for failures.
func displayDesktop(event Event) error {
	if event.Failed {
		return beeep.Alert(event.Title, event.Message, "")
	}
	return beeep.Notify(event.Title, event.Message, "")
}

func (d *desktopSender) name() string { return "desktop" }

func (d *desktopSender) send(event Event) error {
	if err := d.display(event); err != nil {
		fmt.Fprintf(d.console, "%s: %s\n", event.Title, event.Message)
	}
	return nil
}
