// Copyright 2025 The Go AgentSvc Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-json-experiment/json"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-agentsvc/agentsvc"
	"github.com/go-agentsvc/agentsvc/auth"
)

var testInfo = agentsvc.ServiceMetadata{
	Agents: []agentsvc.AgentInfo{
		{Key: "chatbot", Description: "A simple chatbot."},
		{Key: "research-assistant", Description: "A research assistant with web search."},
	},
	DefaultAgent: "chatbot",
	Models:       []string{"gpt-4o", "claude-3-5-haiku"},
}

// infoHandler answers GET /info with the fixture metadata and fails the
// test on anything else.
func infoHandler(t *testing.T) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != agentsvc.InfoPath {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.MarshalWrite(w, &testInfo); err != nil {
			t.Fatal(err)
		}
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestClient(t *testing.T, handler http.Handler, opts ...Option) *Client {
	t.Helper()
	t.Setenv(auth.EnvAuthSecret, "")

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	opts = append([]Option{
		WithBaseURL(srv.URL),
		WithLogger(testLogger()),
	}, opts...)

	c, err := New(t.Context(), opts...)
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	c := newTestClient(t, infoHandler(t))

	assert.Equal(t, "chatbot", c.Agent(), "should fall back to the default agent")
	require.NotNil(t, c.Info())
	if diff := cmp.Diff(&testInfo, c.Info()); diff != "" {
		t.Errorf("Info() mismatch (-want +got):\n%s", diff)
	}
}

func TestNew_WithAgent(t *testing.T) {
	c := newTestClient(t, infoHandler(t), WithAgent("research-assistant"))
	assert.Equal(t, "research-assistant", c.Agent())
}

func TestNew_WithUnknownAgent(t *testing.T) {
	t.Setenv(auth.EnvAuthSecret, "")
	srv := httptest.NewServer(infoHandler(t))
	defer srv.Close()

	_, err := New(t.Context(),
		WithBaseURL(srv.URL),
		WithLogger(testLogger()),
		WithAgent("ghost"),
	)
	require.Error(t, err)
	assert.True(t, IsUnknownAgent(err))
	assert.Equal(t, "Agent ghost not found in available agents: chatbot, research-assistant", err.Error())
}

func TestNew_WithoutInfoFetch(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request during offline construction: %s %s", r.Method, r.URL.Path)
	})
	c := newTestClient(t, handler, WithInfoFetch(false), WithAgent("chatbot"))

	assert.Equal(t, "chatbot", c.Agent(), "offline agent selection is applied unverified")
	assert.Nil(t, c.Info())
}

func TestNew_ConnectionRefused(t *testing.T) {
	t.Setenv(auth.EnvAuthSecret, "")
	srv := httptest.NewServer(infoHandler(t))
	srv.Close() // nothing is listening anymore

	_, err := New(t.Context(), WithBaseURL(srv.URL), WithLogger(testLogger()))
	require.Error(t, err)
	assert.True(t, IsConnectionFailed(err))
	assert.Equal(t, "Error connecting to agent service: Connection refused", err.Error())
}

func TestRetrieveInfo_FallbackWhenSelectionRemoved(t *testing.T) {
	info := testInfo
	mux := http.NewServeMux()
	mux.HandleFunc(agentsvc.InfoPath, func(w http.ResponseWriter, r *http.Request) {
		if err := json.MarshalWrite(w, &info); err != nil {
			t.Fatal(err)
		}
	})

	c := newTestClient(t, mux, WithAgent("research-assistant"))
	require.Equal(t, "research-assistant", c.Agent())

	// The service drops the selected agent from its roster.
	info = agentsvc.ServiceMetadata{
		Agents:       []agentsvc.AgentInfo{{Key: "chatbot"}},
		DefaultAgent: "chatbot",
	}
	require.NoError(t, c.RetrieveInfo(t.Context()))
	assert.Equal(t, "chatbot", c.Agent(), "a stale selection falls back to the default agent")
}

func TestRetrieveInfo_HTTPStatus(t *testing.T) {
	t.Setenv(auth.EnvAuthSecret, "")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := New(t.Context(), WithBaseURL(srv.URL), WithLogger(testLogger()))
	require.Error(t, err)
	assert.True(t, IsHTTPStatus(err))
	assert.Equal(t, "Agent service returned HTTP 503", err.Error())
}

func TestRetrieveInfo_DecodeFailed(t *testing.T) {
	t.Setenv(auth.EnvAuthSecret, "")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html>definitely not json</html>")
	}))
	defer srv.Close()

	_, err := New(t.Context(), WithBaseURL(srv.URL), WithLogger(testLogger()))
	require.Error(t, err)
	assert.True(t, IsDecodeFailed(err))
	assert.Equal(t, "Error decoding response from agent service", err.Error())
}

func TestRetrieveInfo_ValidationFailed(t *testing.T) {
	t.Setenv(auth.EnvAuthSecret, "")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"agents":[],"default_agent":""}`)
	}))
	defer srv.Close()

	_, err := New(t.Context(), WithBaseURL(srv.URL), WithLogger(testLogger()))
	require.Error(t, err)
	assert.True(t, IsValidationFailed(err))
	assert.Contains(t, err.Error(), "ServiceMetadata.Agents")
}

func TestUpdateAgent(t *testing.T) {
	c := newTestClient(t, infoHandler(t))

	require.NoError(t, c.UpdateAgent(t.Context(), "research-assistant"))
	assert.Equal(t, "research-assistant", c.Agent())

	// Re-selecting the current agent is a no-op success.
	require.NoError(t, c.UpdateAgent(t.Context(), "research-assistant"))
	assert.Equal(t, "research-assistant", c.Agent())

	err := c.UpdateAgent(t.Context(), "ghost")
	require.Error(t, err)
	assert.True(t, IsUnknownAgent(err))
	assert.Equal(t, "research-assistant", c.Agent(), "a failed selection leaves the current one intact")
}

func TestUpdateAgent_LazyInfoFetch(t *testing.T) {
	c := newTestClient(t, infoHandler(t), WithInfoFetch(false))
	require.Nil(t, c.Info())

	require.NoError(t, c.UpdateAgent(t.Context(), "research-assistant"))
	assert.NotNil(t, c.Info(), "verification fetches the metadata on demand")
	assert.Equal(t, "research-assistant", c.Agent())
}

func TestSetAgent(t *testing.T) {
	c := newTestClient(t, infoHandler(t))

	c.SetAgent("ghost")
	assert.Equal(t, "ghost", c.Agent(), "SetAgent skips verification")
}

func TestInvoke(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(agentsvc.InfoPath, infoHandler(t))
	mux.HandleFunc("/chatbot/invoke", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var input agentsvc.UserInput
		require.NoError(t, json.UnmarshalRead(r.Body, &input))
		assert.Equal(t, "Tell me a joke?", input.Message)
		assert.Equal(t, "gpt-4o", input.Model)
		assert.Equal(t, "thread-1", input.ThreadID)

		msg := agentsvc.NewAssistantMessage("Why did the gopher cross the road?")
		if err := json.MarshalWrite(w, &msg); err != nil {
			t.Fatal(err)
		}
	})

	c := newTestClient(t, mux)

	got, err := c.Invoke(t.Context(), "Tell me a joke?",
		WithModel("gpt-4o"), WithThreadID("thread-1"))
	require.NoError(t, err)

	want := agentsvc.NewAssistantMessage("Why did the gopher cross the road?")
	if diff := cmp.Diff(&want, got); diff != "" {
		t.Errorf("Invoke() mismatch (-want +got):\n%s", diff)
	}
}

func TestInvoke_NoAgentSelected(t *testing.T) {
	c := newTestClient(t, infoHandler(t), WithInfoFetch(false))

	_, err := c.Invoke(t.Context(), "hello")
	require.Error(t, err)
	assert.True(t, IsNoAgentSelected(err))
	assert.Equal(t, "No agent selected. Use UpdateAgent to select an agent.", err.Error())
}

func TestInvoke_HTTPStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(agentsvc.InfoPath, infoHandler(t))
	mux.HandleFunc("/chatbot/invoke", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	})

	c := newTestClient(t, mux)

	_, err := c.Invoke(t.Context(), "hello")
	require.Error(t, err)
	assert.True(t, IsHTTPStatus(err))
	assert.Equal(t, "Agent service returned HTTP 500", err.Error())
}

func TestInvoke_InvalidResponse(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(agentsvc.InfoPath, infoHandler(t))
	mux.HandleFunc("/chatbot/invoke", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"role":"oracle","content":"hi"}`)
	})

	c := newTestClient(t, mux)

	_, err := c.Invoke(t.Context(), "hello")
	require.Error(t, err)
	assert.True(t, IsValidationFailed(err))
	assert.Contains(t, err.Error(), "ChatMessage.Role")
}

func TestCreateFeedback(t *testing.T) {
	const runID = "847c6285-8fc9-4560-a83f-4e6285809254"

	mux := http.NewServeMux()
	mux.HandleFunc(agentsvc.InfoPath, infoHandler(t))
	mux.HandleFunc(agentsvc.FeedbackPath, func(w http.ResponseWriter, r *http.Request) {
		var fb agentsvc.Feedback
		require.NoError(t, json.UnmarshalRead(r.Body, &fb))
		assert.Equal(t, runID, fb.RunID)
		assert.Equal(t, "human-feedback-stars", fb.Key)
		assert.Equal(t, 0.8, fb.Score)
		assert.Equal(t, map[string]any{"comment": "great"}, fb.Kwargs)
		io.WriteString(w, `{}`)
	})

	c := newTestClient(t, mux)

	err := c.CreateFeedback(t.Context(), runID, "human-feedback-stars", 0.8,
		map[string]any{"comment": "great"})
	require.NoError(t, err)
}

func TestCreateFeedback_InvalidRunID(t *testing.T) {
	c := newTestClient(t, infoHandler(t))

	err := c.CreateFeedback(t.Context(), "not-a-uuid", "stars", 1, nil)
	require.Error(t, err)
	assert.True(t, IsValidationFailed(err))
	assert.Contains(t, err.Error(), "Feedback.RunID")
}

func TestGetHistory(t *testing.T) {
	want := agentsvc.ChatHistory{
		Messages: []agentsvc.ChatMessage{
			agentsvc.NewUserMessage("What is the weather in Tokyo?"),
			agentsvc.NewAssistantMessage("The weather in Tokyo is 70 degrees."),
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc(agentsvc.InfoPath, infoHandler(t))
	mux.HandleFunc(agentsvc.HistoryPath, func(w http.ResponseWriter, r *http.Request) {
		var input agentsvc.ChatHistoryInput
		require.NoError(t, json.UnmarshalRead(r.Body, &input))
		assert.Equal(t, "thread-1", input.ThreadID)
		if err := json.MarshalWrite(w, &want); err != nil {
			t.Fatal(err)
		}
	})

	c := newTestClient(t, mux)

	got, err := c.GetHistory(t.Context(), "thread-1")
	require.NoError(t, err)
	if diff := cmp.Diff(&want, got); diff != "" {
		t.Errorf("GetHistory() mismatch (-want +got):\n%s", diff)
	}
}

func TestGetHistory_EmptyThreadID(t *testing.T) {
	c := newTestClient(t, infoHandler(t))

	_, err := c.GetHistory(t.Context(), "")
	require.Error(t, err)
	assert.True(t, IsValidationFailed(err))
	assert.Contains(t, err.Error(), "ChatHistoryInput.ThreadID")
}

func TestSetHeaders_Bearer(t *testing.T) {
	var gotAuth string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		infoHandler(t)(w, r)
	})

	newTestClient(t, handler, WithCredential(auth.Bearer("s3cr3t")))
	assert.Equal(t, "Bearer s3cr3t", gotAuth)
}

func TestSetHeaders_NoCredential(t *testing.T) {
	var gotAuth string
	var sawRequest bool
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawRequest = true
		gotAuth = r.Header.Get("Authorization")
		infoHandler(t)(w, r)
	})

	newTestClient(t, handler)
	require.True(t, sawRequest)
	assert.Empty(t, gotAuth, "no Authorization header without a credential")
}

func TestSetHeaders_FromEnv(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		infoHandler(t)(w, r)
	}))
	defer srv.Close()

	t.Setenv(auth.EnvAuthSecret, "env-secret")
	_, err := New(context.Background(),
		WithBaseURL(srv.URL),
		WithLogger(testLogger()),
	)
	require.NoError(t, err)
	assert.Equal(t, "Bearer env-secret", gotAuth)
}
