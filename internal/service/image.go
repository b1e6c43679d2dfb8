// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"
)

// imageFormField is the multipart field carrying the prompt.
const imageFormField = "text"

// maxErrorBody caps how much of a failed response is logged.
const maxErrorBody = 4 << 10

// GeneratedImage references an image saved by GenerateImage.
type GeneratedImage struct {
	Path string
	Size int64
}

// GenerateImage posts prompt to the image endpoint and saves the response
// body to a new temporary file. On any failure the result is nil, the
// diagnostic is logged, and a *ClientError is returned. The caller owns the
// file.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (*GeneratedImage, error) {
	url := c.ImageURL()
	start := time.Now()

	img, err := c.generateImage(ctx, url, prompt)
	if err != nil {
		c.metrics.imageRequest("failure")
		c.logger.Error().
			Err(err).
			Str("url", url).
			Dur("elapsed", time.Since(start)).
			Msg("image generation failed")
		return nil, err
	}

	c.metrics.imageRequest("success")
	c.logger.Info().
		Str("url", url).
		Str("path", img.Path).
		Int64("bytes", img.Size).
		Dur("elapsed", time.Since(start)).
		Msg("image saved")
	return img, nil
}

func (c *Client) generateImage(ctx context.Context, url, prompt string) (*GeneratedImage, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}
	if url == "" {
		return nil, ErrNotConfigured
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField(imageFormField, prompt); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidRequest, Message: "failed to build form", Cause: err}
	}
	if err := form.Close(); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidRequest, Message: "failed to build form", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidRequest, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("User-Agent", c.config.UserAgent)

	c.logger.Debug().Str("url", url).Msg("starting image request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, &ClientError{Type: ErrTypeTimeout, Message: "image request timed out", Cause: err}
		}
		return nil, &ClientError{Type: ErrTypeConnection, Message: "image request failed", Cause: err}
	}
	defer resp.Body.Close()

	c.logger.Debug().Int("status", resp.StatusCode).Msg("image response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("body", string(detail)).
			Msg("image backend returned an error")
		return nil, &ClientError{
			Type:       ErrTypeStatus,
			Message:    "image request failed",
			StatusCode: resp.StatusCode,
		}
	}
	if resp.ContentLength == 0 {
		return nil, ErrEmptyResponse
	}

	return c.saveImage(resp.Body)
}

// saveImage streams r to a fresh temp file. Empty results are removed.
func (c *Client) saveImage(r io.Reader) (*GeneratedImage, error) {
	f, err := os.CreateTemp(c.config.TempDir, "generated_*.jpg")
	if err != nil {
		return nil, &ClientError{Type: ErrTypeUnknown, Message: "failed to create image file", Cause: err}
	}
	path := f.Name()

	n, copyErr := io.Copy(f, r)
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		os.Remove(path)
		if isTimeout(copyErr) {
			return nil, &ClientError{Type: ErrTypeTimeout, Message: "image download timed out", Cause: copyErr}
		}
		return nil, &ClientError{Type: ErrTypeConnection, Message: "image download failed", Cause: copyErr}
	case closeErr != nil:
		os.Remove(path)
		return nil, &ClientError{Type: ErrTypeUnknown, Message: "failed to write image file", Cause: closeErr}
	case n == 0:
		os.Remove(path)
		return nil, ErrEmptyResponse
	}

	return &GeneratedImage{Path: path, Size: n}, nil
}

// isTimeout reports whether err is a network timeout.
func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
