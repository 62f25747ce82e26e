package notify

import (
	"fmt"
	"time"

	"github.com/imroc/req/v3"
)

// webhookSender posts the event as a small JSON document to an arbitrary
// HTTP endpoint.
type webhookSender struct {
	client *req.Client
	url    string
}

type webhookPayload struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func newWebhookSender(url string) *webhookSender {
	client := req.C().
		SetUserAgent("buildwatch").
		SetTimeout(10 * time.Second)
	return &webhookSender{client: client, url: url}
}

func (w *webhookSender) name() string { return "webhook" }

func (w *webhookSender) send(event Event) error {
	status := "success"
	if event.Failed {
		status = "failure"
	}
	resp, err := w.client.R().
		SetBodyJsonMarshal(webhookPayload{
			Title:   event.Title,
			Message: event.Message,
			Status:  status,
		}).
		Post(w.url)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, resp.String())
	}
	return nil
}
