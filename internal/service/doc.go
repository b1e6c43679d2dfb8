// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package service is the network client for the deepcog AI backends.
//
// A single Client owns the shared HTTP client (connect/read/write timeouts,
// structured logging, metrics) and mediates every interaction with a
// configured backend:
//
//   - GenerateImage posts a multipart form to the image backend and saves the
//     returned bytes to a temporary file.
//   - Stream keeps one persistent WebSocket to the text backend, writes
//     PromptRequest frames and turns inbound frames into typed Events.
//
// # Key Types
//
//   - Client: shared HTTP client and image generation
//   - Stream: duplex text stream with a Unconnected/Connecting/Open/Closed state machine
//   - Endpoint: resolved backend address; SocketURL derives the ws:// address
//   - Event: tagged stream event (Token, Complete, Error) delivered to a Listener
//   - ClientError: typed error returned across the client boundary
//
// # Usage
//
//	client := service.NewClient(service.DefaultConfig(), service.WithLogger(log))
//	stream := client.NewStream(service.DefaultStreamConfig())
//	stream.Connect(ctx, service.Endpoint{Kind: service.KindText, BaseURL: "http://10.0.0.5:8000"},
//	    func(ev service.Event) {
//	        switch ev.Kind {
//	        case service.EventToken:
//	            fmt.Print(ev.Text)
//	        case service.EventComplete:
//	            fmt.Println()
//	        case service.EventError:
//	            fmt.Println("error:", ev.Err)
//	        }
//	    })
//	defer stream.Close()
//	if err := stream.WaitOpen(ctx); err != nil {
//	    return err
//	}
//	stream.Send(ctx, service.PromptRequest{Prompt: "Hello", Model: "top-ai"})
//
// # Error Delivery
//
// Backend "error" frames and transport failures reach the Listener as
// EventError unless StreamConfig.SuppressErrors is set, in which case they are
// only logged. An idle timeout after a prompt is reported the same way.
package service
