// Package api speaks the daemon's control-plane protocol: JSON-RPC style
// requests POSTed over HTTP to a node's api_port.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client issues control-plane calls to a single node daemon.
type Client struct {
	url  string
	http *http.Client
}

// NewClient returns a Client for the daemon listening on addr. The timeout
// bounds each individual call, connection included.
func NewClient(addr string, timeout time.Duration) *Client {
	return &Client{
		url: fmt.Sprintf("http://%s/rpc", addr),
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

// Call sends one method invocation and returns the raw result. Daemon-side
// errors come back as *Error.
func (c *Client) Call(method string, params []string) (json.RawMessage, error) {
	if params == nil {
		params = []string{}
	}

	body, err := json.Marshal(Request{
		Method: method,
		Params: params,
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Post(c.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("control plane returned status %s", resp.Status)
	}

	var out Response
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}

	if out.Error != nil {
		return nil, out.Error
	}

	return out.Result, nil
}
