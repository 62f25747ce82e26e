package socket

import (
	"encoding/json"
	"net"
	"time"

	"github.com/buildwatch/buildwatch/internal/buildwatch/errors"
)

// Client talks to a running watcher over its control socket.
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for the given socket path.
func NewClient(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    30 * time.Second,
	}
}

// SetTimeout adjusts the connection and exchange deadline.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
}

// Send delivers one command and returns the watcher's response.
func (c *Client) Send(action string, data map[string]interface{}) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, errors.Wrapf(err, "connecting to watcher socket %s", c.socketPath)
	}
	defer func() {
		_ = conn.Close()
	}()

	_ = conn.SetDeadline(time.Now().Add(c.timeout))

	if err := json.NewEncoder(conn).Encode(Command{Action: action, Data: data}); err != nil {
		return nil, errors.Wrap(err, "sending command")
	}

	var response Response
	if err := json.NewDecoder(conn).Decode(&response); err != nil {
		return nil, errors.Wrap(err, "decoding response")
	}
	return &response, nil
}

// Status queries the watcher state.
func (c *Client) Status() (*Response, error) {
	return c.Send(ActionStatus, nil)
}

// Stop asks the watcher to shut down gracefully.
func (c *Client) Stop() (*Response, error) {
	return c.Send(ActionStop, nil)
}

// Reload asks the watcher to reread its configuration.
func (c *Client) Reload() (*Response, error) {
	return c.Send(ActionReload, nil)
}

// History fetches recent build records.
func (c *Client) History(limit int) (*Response, error) {
	return c.Send(ActionHistory, map[string]interface{}{"limit": limit})
}

// Events fetches recent watch decisions.
func (c *Client) Events(limit int) (*Response, error) {
	return c.Send(ActionEvents, map[string]interface{}{"limit": limit})
}

// IsRunning reports whether a watcher answers on the socket.
func (c *Client) IsRunning() bool {
	response, err := c.Status()
	return err == nil && response.Success
}
