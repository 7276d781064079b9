package ipc

import (
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

const dialTimeout = 2 * time.Second

// Client talks to a running daemon over its control socket. Calls block
// until the daemon answers; Sync returns once the whole run has finished.
type Client struct {
	rpc *rpc.Client
}

// Dial connects to the daemon socket at path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, dialTimeout)
	if err != nil {
		return nil, err
	}
	return &Client{rpc: jsonrpc.NewClient(conn)}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	if c == nil || c.rpc == nil {
		return nil
	}
	return c.rpc.Close()
}

func call[Req, Resp any](c *Client, method string, req Req) (*Resp, error) {
	var resp Resp
	if err := c.rpc.Call(ServiceName+"."+method, req, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return &resp, nil
}

// Status reports whether the daemon is running, its schedule and the last run.
func (c *Client) Status() (*StatusResponse, error) {
	return call[StatusRequest, StatusResponse](c, "Status", StatusRequest{})
}

// Sync asks the daemon for a sync. A run already in progress is joined
// rather than duplicated.
func (c *Client) Sync(full bool) (*SyncResponse, error) {
	return call[SyncRequest, SyncResponse](c, "Sync", SyncRequest{Full: full})
}

// TestNotification publishes a test message through the daemon's ntfy topic.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	return call[TestNotificationRequest, TestNotificationResponse](c, "TestNotification", TestNotificationRequest{})
}

// Stop asks the daemon to shut down.
func (c *Client) Stop() (*StopResponse, error) {
	return call[StopRequest, StopResponse](c, "Stop", StopRequest{})
}
