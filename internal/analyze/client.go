// Package analyze is the client for the remote contract-analysis
// service. The service is an opaque collaborator: it accepts a file
// body and returns a structured risk report.
package analyze

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"subtext/internal/report"
)

// ErrService marks any failure after transmission was attempted:
// unreachable host, non-2xx response, or a response that is not a
// valid report. Callers distinguish it from client-side validation,
// which never reaches this package.
var ErrService = errors.New("analysis service failure")

type Client struct {
	baseURL string
	http    *http.Client
}

// New creates an analysis client. Analysis of a large contract can
// take a while, so the request timeout is generous; the per-call
// context still cancels earlier if the caller goes away.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Minute},
	}
}

// Analyze streams the document to the service and parses the returned
// report. onProgress, if non-nil, receives the percentage of document
// bytes handed to the transport, monotonically non-decreasing from 0
// to 100.
func (c *Client) Analyze(ctx context.Context, filename string, data []byte, onProgress func(int)) (report.Report, error) {
	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	go func() {
		part, err := form.CreateFormFile("file", filename)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		src := newProgressReader(data, onProgress)
		if _, err := io.Copy(part, src); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(form.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", pr)
	if err != nil {
		return report.Report{}, fmt.Errorf("build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return report.Report{}, ctx.Err()
		}
		return report.Report{}, fmt.Errorf("%w: %v", ErrService, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return report.Report{}, fmt.Errorf("%w: read response: %v", ErrService, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return report.Report{}, fmt.Errorf("%w: status %d", ErrService, resp.StatusCode)
	}

	r, err := report.Parse(body)
	if err != nil {
		return report.Report{}, fmt.Errorf("%w: %v", ErrService, err)
	}
	return r, nil
}
