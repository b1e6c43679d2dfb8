// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package service

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newImageServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.ImageURL = url
	cfg.TempDir = t.TempDir()
	return NewClient(cfg, WithMetrics(NewMetrics()))
}

func TestGenerateImage_Success(t *testing.T) {
	payload := bytes.Repeat([]byte{0xFF, 0xD8, 0x01}, 1000)
	var gotPrompt string

	srv := newImageServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		gotPrompt = r.FormValue("text")
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(payload)
	})

	client := newTestClient(t, srv.URL)
	img, err := client.GenerateImage(context.Background(), "a red fox")
	require.NoError(t, err)
	require.NotNil(t, img)

	assert.Equal(t, "a red fox", gotPrompt)
	assert.Equal(t, int64(len(payload)), img.Size)
	assert.True(t, strings.HasPrefix(filepath.Base(img.Path), "generated_"))
	assert.Equal(t, ".jpg", filepath.Ext(img.Path))

	data, err := os.ReadFile(img.Path)
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	assert.Equal(t, 1.0, testutil.ToFloat64(client.Metrics().imageRequests.WithLabelValues("success")))
}

func TestGenerateImage_ServerError(t *testing.T) {
	srv := newImageServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusInternalServerError)
	})

	client := newTestClient(t, srv.URL)
	img, err := client.GenerateImage(context.Background(), "anything")
	assert.Nil(t, img)
	require.Error(t, err)

	var ce *ClientError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, ErrTypeStatus, ce.Type)
	assert.Equal(t, http.StatusInternalServerError, ce.StatusCode)
	assert.Equal(t, 1.0, testutil.ToFloat64(client.Metrics().imageRequests.WithLabelValues("failure")))
}

func TestGenerateImage_EmptyBody(t *testing.T) {
	srv := newImageServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	client := newTestClient(t, srv.URL)
	img, err := client.GenerateImage(context.Background(), "anything")
	assert.Nil(t, img)
	assert.True(t, errors.Is(err, ErrEmptyResponse))

	entries, err := os.ReadDir(client.Config().TempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no image file should be left behind")
}

func TestGenerateImage_EmptyChunkedBody(t *testing.T) {
	srv := newImageServer(t, func(w http.ResponseWriter, r *http.Request) {
		// Flushing before writing forces chunked encoding with an unknown length.
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
	})

	client := newTestClient(t, srv.URL)
	img, err := client.GenerateImage(context.Background(), "anything")
	assert.Nil(t, img)
	assert.True(t, errors.Is(err, ErrEmptyResponse))
}

func TestGenerateImage_InvalidInput(t *testing.T) {
	client := newTestClient(t, "")

	img, err := client.GenerateImage(context.Background(), "prompt")
	assert.Nil(t, img)
	assert.True(t, errors.Is(err, ErrNotConfigured))

	client.SetImageURL("http://127.0.0.1:1")
	img, err = client.GenerateImage(context.Background(), "   ")
	assert.Nil(t, img)
	assert.True(t, errors.Is(err, ErrEmptyPrompt))
}

func TestGenerateImage_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := newTestClient(t, url)
	img, err := client.GenerateImage(context.Background(), "prompt")
	assert.Nil(t, img)

	var ce *ClientError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, ErrTypeConnection, ce.Type)
}

func TestGenerateImage_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := newImageServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	cfg := DefaultConfig()
	cfg.ImageURL = srv.URL
	cfg.TempDir = t.TempDir()
	cfg.ConnectTimeout = 50 * time.Millisecond
	cfg.ReadTimeout = 50 * time.Millisecond
	cfg.WriteTimeout = 50 * time.Millisecond
	client := NewClient(cfg)

	img, err := client.GenerateImage(context.Background(), "prompt")
	assert.Nil(t, img)
	assert.True(t, errors.Is(err, ErrTimeout), "want timeout error, got %v", err)
}
