// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package service

import "context"

// Service pairs a Client with its text Stream so callers hold one value
// for every backend interaction.
type Service struct {
	client *Client
	stream *Stream
}

// New creates a client and an unconnected stream sharing its logger and
// metrics.
func New(config *ClientConfig, streamCfg StreamConfig, opts ...Option) *Service {
	client := NewClient(config, opts...)
	return &Service{client: client, stream: client.NewStream(streamCfg)}
}

// Client returns the HTTP client.
func (s *Service) Client() *Client { return s.client }

// Stream returns the text stream.
func (s *Service) Stream() *Stream { return s.stream }

// GenerateImage see Client.GenerateImage.
func (s *Service) GenerateImage(ctx context.Context, prompt string) (*GeneratedImage, error) {
	return s.client.GenerateImage(ctx, prompt)
}

// SetImageURL see Client.SetImageURL.
func (s *Service) SetImageURL(url string) { s.client.SetImageURL(url) }

// Connect see Stream.Connect.
func (s *Service) Connect(ctx context.Context, endpoint Endpoint, listener Listener) error {
	return s.stream.Connect(ctx, endpoint, listener)
}

// Send see Stream.Send.
func (s *Service) Send(ctx context.Context, req PromptRequest) error {
	return s.stream.Send(ctx, req)
}

// Disconnect see Stream.Disconnect.
func (s *Service) Disconnect() { s.stream.Disconnect() }

// Close stops the stream and waits for its goroutines to exit.
func (s *Service) Close() { s.stream.Close() }

// State returns the stream state.
func (s *Service) State() State { return s.stream.State() }

// WaitOpen see Stream.WaitOpen.
func (s *Service) WaitOpen(ctx context.Context) error { return s.stream.WaitOpen(ctx) }
