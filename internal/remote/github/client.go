// Package github implements remote.Platform for GitHub, over the REST API
// or through the gh command line tool.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ralt/metasync/internal/models"
	"github.com/ralt/metasync/internal/utils"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultAPIURL is the public GitHub REST endpoint
	DefaultAPIURL = "https://api.github.com"

	apiVersion     = "2022-11-28"
	defaultTimeout = 30 * time.Second
	userAgent      = "metasync"
)

// client is a JSON REST client sharing one connection pool across calls
type client struct {
	http    *http.Client
	baseURL string
	token   string
}

func newClient(baseURL, token string, httpClient *http.Client) *client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost:   8,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 15 * time.Second,
				// gzip is requested and decoded explicitly
				DisableCompression: true,
			},
		}
	}
	return &client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

// do sends a request with an optional JSON body and decodes a JSON response
// into out. field tags any returned ReconcileError.
func (c *client) do(ctx context.Context, method, path string, field models.Field, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	logrus.WithFields(logrus.Fields{
		"method": method,
		"url":    url,
	}).Debug("GitHub API request")

	resp, err := c.http.Do(req)
	if err != nil {
		return models.NewError(models.ErrRemoteUnavailable, field, err)
	}
	defer resp.Body.Close()

	payload, err := readBody(resp)
	if err != nil {
		return models.NewError(models.ErrRemoteUnavailable, field, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rateLimited := resp.Header.Get("X-RateLimit-Remaining") == "0" || resp.Header.Get("Retry-After") != ""
		return classifyStatus(field, &StatusError{
			Method:      method,
			URL:         url,
			StatusCode:  resp.StatusCode,
			Message:     errorMessage(payload),
			RateLimited: rateLimited,
		})
	}

	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return models.NewError(models.ErrRemoteUnavailable, field, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

func readBody(resp *http.Response) ([]byte, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		return data, nil
	}
	return utils.GzipDecompress(data)
}

func errorMessage(payload []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &body); err == nil && body.Message != "" {
		return body.Message
	}
	msg := strings.TrimSpace(string(payload))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
