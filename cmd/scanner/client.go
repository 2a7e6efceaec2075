package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const exitCommand = "exit"

type scanClient struct {
	url  string
	http *http.Client
}

func newScanClient(url string, timeout time.Duration) *scanClient {
	return &scanClient{
		url:  url,
		http: &http.Client{Timeout: timeout},
	}
}

// scanResult is the decoded backend reply together with its HTTP status.
type scanResult struct {
	Status int
	Body   map[string]any
}

func (r scanResult) OK() bool {
	return r.Status == http.StatusOK
}

func (c *scanClient) Send(ctx context.Context, code string) (scanResult, error) {
	payload, err := json.Marshal(map[string]string{"barcode": code})
	if err != nil {
		return scanResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return scanResult{}, fmt.Errorf("building scan request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return scanResult{}, fmt.Errorf("posting scan: %w", err)
	}
	defer resp.Body.Close()

	result := scanResult{Status: resp.StatusCode}
	if err := json.NewDecoder(resp.Body).Decode(&result.Body); err != nil {
		return result, fmt.Errorf("decoding scan response (status %d): %w", resp.StatusCode, err)
	}
	return result, nil
}

// capture reads one code per line until EOF or the exit command.
func capture(ctx context.Context, in io.Reader, out io.Writer, client *scanClient) error {
	fmt.Fprintf(out, "Waiting for barcode scan... (Type '%s' to quit)\n", exitCommand)

	lines := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "Scan a barcode: ")
		if !lines.Scan() {
			fmt.Fprintln(out)
			return lines.Err()
		}

		code := strings.TrimSpace(lines.Text())
		if strings.EqualFold(code, exitCommand) {
			fmt.Fprintln(out, "Exiting...")
			return nil
		}
		if code == "" {
			continue
		}

		result, err := client.Send(ctx, code)
		switch {
		case err != nil:
			fmt.Fprintf(out, "Error sending barcode to backend: %v\n", err)
		case result.OK():
			fmt.Fprintf(out, "Success: %v\n", result.Body)
		default:
			fmt.Fprintf(out, "Failed: %v\n", result.Body)
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}
