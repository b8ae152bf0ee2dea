// Copyright 2025 The Go AgentSvc Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/go-agentsvc/agentsvc"
)

// Stream is a lazy, forward-only, non-restartable sequence of decoded
// events from a streaming response. No line is read from the transport
// until the consumer asks for the next event, so memory is bounded to one
// line regardless of response length.
//
// Per-line decode failures and server-reported errors are surfaced as
// in-band error events and do not end the stream; only the termination
// marker or transport close does. The caller must Close the stream;
// Recv-to-exhaustion and ForEach close it on every exit path.
type Stream struct {
	client    *Client
	requestID string
	resp      *http.Response
	reader    *bufio.Reader

	mu      sync.Mutex
	closed  bool
	pending bool // transport hit EOF; the next Recv reports exhaustion

	// done is closed in Close so the Events goroutine can bail out of a
	// blocked send when the consumer abandons the channel.
	done chan struct{}
}

// newStream wraps an open streaming response body.
func newStream(c *Client, requestID string, resp *http.Response) *Stream {
	return &Stream{
		client:    c,
		requestID: requestID,
		resp:      resp,
		reader:    bufio.NewReader(resp.Body),
		done:      make(chan struct{}),
	}
}

// Close releases the underlying response body. It is safe to call multiple
// times and after exhaustion.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	return s.resp.Body.Close()
}

// Recv returns the next event from the stream. It returns [io.EOF] once the
// stream ends — via the termination marker or transport close — and
// [ErrStreamClosed] after Close. Blank keep-alive lines are skipped
// silently; a line that fails to decode is returned as an error event, not
// an error.
func (s *Stream) Recv(ctx context.Context) (*agentsvc.StreamEvent, error) {
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return nil, ErrStreamClosed
		}
		if s.pending {
			s.mu.Unlock()
			s.Close()
			return nil, io.EOF
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			s.Close()
			return nil, ctx.Err()
		default:
		}

		line, err := s.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			readErr := s.client.connectionFailed(ctx, s.resp.Request.URL.String(), err)
			s.Close()
			return nil, readErr
		}
		atEOF := err == io.EOF

		ev, terminal := agentsvc.DecodeLine(line)
		if terminal || (atEOF && ev == nil) {
			s.Close()
			return nil, io.EOF
		}
		if ev == nil {
			continue
		}

		if atEOF {
			s.mu.Lock()
			s.pending = true
			s.mu.Unlock()
		}
		if ev.Type == agentsvc.StreamEventError {
			// The decoder is pure; the session owns the logging.
			s.client.logger.ErrorContext(ctx, "error event in stream",
				"request_id", s.requestID, "content", ev.Content)
		}
		return ev, nil
	}
}

// ForEach applies fn to each event until the stream ends, fn returns an
// error, or the context is cancelled. The stream is closed on return.
func (s *Stream) ForEach(ctx context.Context, fn func(agentsvc.StreamEvent) error) error {
	defer s.Close()

	for {
		ev, err := s.Recv(ctx)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if err := fn(*ev); err != nil {
			return err
		}
	}
}

// Events returns a channel surface over the same protocol logic, for
// consumers that prefer select loops. The channel is unbuffered; events are
// read from the transport only as they are received from the channel. On
// clean termination a final end event is delivered before the channel
// closes; a transport failure is delivered as a final error event instead,
// since the channel has no error return. The stream is closed when the
// channel closes, and closing the stream releases the producer even when
// the consumer has stopped receiving.
func (s *Stream) Events(ctx context.Context) <-chan agentsvc.StreamEvent {
	ch := make(chan agentsvc.StreamEvent)

	go func() {
		defer close(ch)
		defer s.Close()

		for {
			ev, err := s.Recv(ctx)
			if err != nil {
				final := agentsvc.StreamEvent{Type: agentsvc.StreamEventEnd}
				if err != io.EOF && err != ErrStreamClosed {
					final = agentsvc.StreamEvent{
						Type:    agentsvc.StreamEventError,
						Content: err.Error(),
					}
				}
				select {
				case ch <- final:
				case <-ctx.Done():
				case <-s.done:
				}
				return
			}

			select {
			case ch <- *ev:
			case <-ctx.Done():
				return
			case <-s.done:
				return
			}
		}
	}()

	return ch
}

// StreamResult is the aggregated outcome of consuming a stream to the end.
type StreamResult struct {
	// Answer is the concatenation of all token events.
	Answer string

	// Messages holds the complete messages received, decoded and
	// validated, in order.
	Messages []agentsvc.ChatMessage

	// Errs holds the contents of any in-band error events.
	Errs []string
}

// Collect consumes the stream to exhaustion and aggregates it. Message
// events that fail schema validation are recorded as in-band errors rather
// than aborting collection.
func (s *Stream) Collect(ctx context.Context) (*StreamResult, error) {
	var (
		answer strings.Builder
		result StreamResult
	)

	err := s.ForEach(ctx, func(ev agentsvc.StreamEvent) error {
		switch ev.Type {
		case agentsvc.StreamEventToken:
			answer.WriteString(ev.Content)
		case agentsvc.StreamEventMessage:
			msg, err := ev.DecodeMessage()
			if err != nil {
				result.Errs = append(result.Errs, err.Error())
				return nil
			}
			result.Messages = append(result.Messages, *msg)
		case agentsvc.StreamEventError:
			result.Errs = append(result.Errs, ev.Content)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Answer = answer.String()
	return &result, nil
}
