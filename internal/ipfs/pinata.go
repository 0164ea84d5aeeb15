// Package ipfs wraps the Pinata pinning HTTP API. Only the two pin
// operations the platform needs are implemented.
package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

// PinResult is what both pin operations return.
type PinResult struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
	URL       string `json:"-"` // gateway URL, filled in by the client
}

// Client talks to a Pinata-compatible pinning service.
type Client struct {
	baseURL string
	gateway string
	jwt     string
	http    *http.Client
}

// NewClient builds a pinning client. gateway is the public read URL
// prefix, e.g. "https://gateway.pinata.cloud/ipfs".
func NewClient(baseURL, gateway, jwt string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		gateway: strings.TrimRight(gateway, "/"),
		jwt:     jwt,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Configured reports whether credentials are present. Upload routes
// refuse early instead of sending doomed requests.
func (c *Client) Configured() bool {
	return c.jwt != ""
}

type pinataError struct {
	Error struct {
		Reason  string `json:"reason"`
		Details string `json:"details"`
	} `json:"error"`
}

// PinFile uploads file content with pinata metadata and returns the
// content hash and gateway URL.
func (c *Client) PinFile(ctx context.Context, r io.Reader, filename string) (*PinResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("copy file: %w", err)
	}

	meta, _ := json.Marshal(map[string]interface{}{
		"name": filename,
		"keyvalues": map[string]string{
			"uploadedAt": time.Now().UTC().Format(time.RFC3339),
			"fileType":   strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), "."),
		},
	})
	if err := mw.WriteField("pinataMetadata", string(meta)); err != nil {
		return nil, fmt.Errorf("write metadata field: %w", err)
	}

	opts, _ := json.Marshal(map[string]interface{}{
		"cidVersion":        1,
		"wrapWithDirectory": false,
	})
	if err := mw.WriteField("pinataOptions", string(opts)); err != nil {
		return nil, fmt.Errorf("write options field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pinning/pinFileToIPFS", &body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.jwt)

	return c.do(req)
}

// PinJSON uploads a JSON document (NFT metadata) and returns the
// content hash and gateway URL.
func (c *Client) PinJSON(ctx context.Context, v interface{}) (*PinResult, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pinning/pinJSONToIPFS", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.jwt)

	return c.do(req)
}

func (c *Client) do(req *http.Request) (*PinResult, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pinning service: %w", err)
	}
	defer resp.Body.Close()

	// bound the body read; upstream errors are summarized, never
	// forwarded verbatim
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var pe pinataError
		if json.Unmarshal(data, &pe) == nil && pe.Error.Reason != "" {
			return nil, fmt.Errorf("pinning service: %s (status %d)", pe.Error.Reason, resp.StatusCode)
		}
		return nil, fmt.Errorf("pinning service: status %d", resp.StatusCode)
	}

	var result PinResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	result.URL = c.gateway + "/" + result.IpfsHash
	return &result, nil
}
