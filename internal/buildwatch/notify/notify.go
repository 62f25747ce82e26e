// Package notify reports build outcomes to the user. The desktop channel
// is always on and degrades to a console line; Discord, webhook, and email
// channels join when configured. Delivery failure never propagates.
package notify

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/buildwatch/buildwatch/internal/buildwatch/config"
	"github.com/buildwatch/buildwatch/internal/buildwatch/dispatch"
	"github.com/buildwatch/buildwatch/internal/log"
)

// maxReasonChars caps how much of a captured failure tail lands in a
// notification body.
const maxReasonChars = 300

// Event is a rendered notification ready for delivery.
type Event struct {
	Title   string
	Message string
	Failed  bool
}

// sender delivers one event over a single channel.
type sender interface {
	name() string
	send(event Event) error
}

// Notifier fans build outcomes out to the configured channels.
type Notifier struct {
	senders []sender
}

// New assembles the channels for a configuration.
func New(cfg *config.Config) *Notifier {
	n := &Notifier{senders: []sender{newDesktopSender(os.Stdout)}}

	if url := cfg.Notifications.DiscordWebhook; url != "" {
		s, err := newDiscordSender(url)
		if err != nil {
			log.Error("Discord notifications disabled: %v", err)
		} else {
			n.senders = append(n.senders, s)
		}
	}
	if url := cfg.Notifications.WebhookURL; url != "" {
		n.senders = append(n.senders, newWebhookSender(url))
	}
	if email := cfg.Notifications.Email; email != nil && email.SMTPHost != "" && email.To != "" {
		n.senders = append(n.senders, newEmailSender(*email))
	}
	return n
}

// Notify reports an outcome when the notification toggles ask for it.
// Channel errors are logged and swallowed.
func (n *Notifier) Notify(outcome *dispatch.Outcome, cfg *config.Config) {
	if outcome == nil || !cfg.Notifications.Enabled {
		return
	}
	if outcome.Succeeded && !cfg.Notifications.ShowBuildComplete {
		return
	}
	if !outcome.Succeeded && !cfg.Notifications.ShowBuildError {
		return
	}

	event := render(outcome)
	for _, s := range n.senders {
		if err := s.send(event); err != nil {
			log.DebugH2("%s notification failed: %v", s.name(), err)
		}
	}
}

// render summarizes an outcome as a notification title and message.
func render(outcome *dispatch.Outcome) Event {
	duration := outcome.Duration.Round(time.Millisecond)
	if outcome.Succeeded {
		message := fmt.Sprintf("Target %q finished in %s", outcome.Target, duration)
		if len(outcome.Artifacts) > 0 {
			message += fmt.Sprintf(" (%d artifacts)", len(outcome.Artifacts))
		}
		return Event{Title: "Build Complete", Message: message}
	}
	return Event{
		Title:   "Build Failed",
		Message: fmt.Sprintf("Target %q failed after %s: %s", outcome.Target, duration, reasonSummary(outcome.FailureReason)),
		Failed:  true,
	}
}

// reasonSummary trims a captured output tail to something a toast can show.
func reasonSummary(reason string) string {
	reason = strings.TrimSpace(reason)
	if len(reason) > maxReasonChars {
		reason = "..." + reason[len(reason)-maxReasonChars:]
	}
	return reason
}
