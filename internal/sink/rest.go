// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/relabs-tech/vitals_relay/internal/vitals"
)

// RESTClient writes JSON documents to a Firebase Realtime Database style
// REST endpoint, authenticating with a static key in the query string.
type RESTClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewRESTClient uses http.DefaultClient when hc is nil.
func NewRESTClient(baseURL, apiKey string, hc *http.Client) *RESTClient {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &RESTClient{baseURL: baseURL, apiKey: apiKey, http: hc}
}

// endpoint builds <baseURL><nodePath>.json?auth=<key>.
func (c *RESTClient) endpoint(nodePath string) (string, error) {
	u, err := url.Parse(c.baseURL + nodePath + ".json")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedURL, err)
	}
	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrMalformedURL, c.baseURL+nodePath)
	}
	u.RawQuery = url.Values{"auth": {c.apiKey}}.Encode()
	return u.String(), nil
}

// PostData POSTs data as a JSON object under nodePath. It makes exactly one
// request and succeeds only on a 2xx status; the response body is ignored.
func (c *RESTClient) PostData(ctx context.Context, nodePath string, data map[string]any) error {
	endpoint, err := c.endpoint(nodePath)
	if err != nil {
		return err
	}

	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s: %w", nodePath, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedURL, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

// Node returns a submitter that posts every record under nodePath.
func (c *RESTClient) Node(nodePath string) *Node {
	return &Node{client: c, path: nodePath}
}

type Node struct {
	client *RESTClient
	path   string
}

func (n *Node) Submit(ctx context.Context, rec vitals.Record) error {
	return n.client.PostData(ctx, n.path, rec.Fields())
}
