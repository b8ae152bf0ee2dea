// Copyright 2025 The Go AgentSvc Authors
// SPDX-License-Identifier: Apache-2.0

// Package client implements the agent service session: one-shot and
// streaming invocation, feedback submission, and history retrieval against
// a remote agent service, with every failure mode collapsed into a single
// [*Error] type.
//
// # Basic Usage
//
//	ctx := context.Background()
//	c, err := client.New(ctx,
//		client.WithBaseURL("http://localhost:8080"),
//		client.WithAgent("research-assistant"),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	msg, err := c.Invoke(ctx, "Tell me a joke?")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(msg.Content)
//
// # Streaming
//
// Stream returns a lazy pull iterator over decoded events. Lines are read
// from the transport only as events are consumed, and the response body is
// released on every exit path:
//
//	stream, err := c.Stream(ctx, "Share a quick fun fact?")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer stream.Close()
//
//	for {
//		ev, err := stream.Recv(ctx)
//		if err == io.EOF {
//			break
//		}
//		if err != nil {
//			log.Fatal(err)
//		}
//		if ev.Type == agentsvc.StreamEventToken {
//			fmt.Print(ev.Content)
//		}
//	}
//
// Mid-stream decode failures and server-reported errors arrive as in-band
// error events and never end the stream; only the termination marker or
// transport close does.
//
// # Errors
//
// Every failure surfaces as a [*Error] with a stable, human-readable
// message. The originating cause is distinguished internally for logging
// and can be inspected with the Is* helpers:
//
//	if _, err := c.Invoke(ctx, "hi"); client.IsNoAgentSelected(err) {
//		// select an agent first
//	}
//
// A Client is a single-owner session: its selected agent and cached
// metadata are mutated only through its own methods and are not safe for
// concurrent reselection.
package client
