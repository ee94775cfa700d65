package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dashboard "github.com/agrik/agrik-dashboard/components/dashboard"
)

func TestHTTPClientAsk(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "What is the soil humidity?", payload["prompt"])
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "55%"})
	}))
	t.Cleanup(server.Close)

	client, err := NewHTTPClient(HTTPConfig{Endpoint: server.URL, APIKey: "secret"})
	require.NoError(t, err)
	reply, err := client.Ask(context.Background(), "What is the soil humidity?")
	require.NoError(t, err)
	assert.Equal(t, "55%", reply)
}

func TestHTTPClientCustomHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.Header.Get("X-Field-Key"))
		assert.Empty(t, r.Header.Get("x-api-key"))
		_, _ = w.Write([]byte(`{"response":"ok"}`))
	}))
	t.Cleanup(server.Close)

	client, err := NewHTTPClient(HTTPConfig{Endpoint: server.URL, APIKey: "k", APIKeyHeader: "X-Field-Key"})
	require.NoError(t, err)
	_, err = client.Ask(context.Background(), "hi")
	require.NoError(t, err)
}

func TestHTTPClientStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client, err := NewHTTPClient(HTTPConfig{Endpoint: server.URL})
	require.NoError(t, err)
	_, err = client.Ask(context.Background(), "What is the soil humidity?")
	require.Error(t, err)
	assert.ErrorIs(t, err, dashboard.ErrAssistantStatus)
	assert.True(t, IsStatus(err, http.StatusInternalServerError))
	assert.Equal(t, dashboard.FailureStatus, dashboard.ClassifyFailure(err))
}

func TestHTTPClientMalformedResponses(t *testing.T) {
	bodies := map[string]string{
		"not json":      `<html>oops</html>`,
		"missing field": `{"answer":"55%"}`,
		"wrong type":    `{"response":55}`,
		"not an object": `["55%"]`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			t.Cleanup(server.Close)

			client, err := NewHTTPClient(HTTPConfig{Endpoint: server.URL})
			require.NoError(t, err)
			_, err = client.Ask(context.Background(), "hi")
			assert.ErrorIs(t, err, dashboard.ErrAssistantMalformed)
			assert.Equal(t, dashboard.FailureMalformed, dashboard.ClassifyFailure(err))
		})
	}
}

func TestHTTPClientTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(server.Close)

	client, err := NewHTTPClient(HTTPConfig{Endpoint: server.URL, Timeout: 20 * time.Millisecond})
	require.NoError(t, err)
	_, err = client.Ask(context.Background(), "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, dashboard.ErrAssistantTransport)
	assert.Equal(t, dashboard.FailureTransport, dashboard.ClassifyFailure(err))
}

func TestNewHTTPClientRequiresEndpoint(t *testing.T) {
	_, err := NewHTTPClient(HTTPConfig{})
	require.Error(t, err)
}

func TestMockClient(t *testing.T) {
	client := DefaultMockClient()
	reply, err := client.Ask(context.Background(), "  what is the soil humidity?  ")
	require.NoError(t, err)
	assert.Equal(t, "55%", reply)

	reply, err = client.Ask(context.Background(), "unknown")
	require.NoError(t, err)
	assert.NotEmpty(t, reply)
	assert.Len(t, client.Prompts(), 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.Ask(ctx, "hi")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestHTTPClientFailureReplacesPreviousReplyInView(t *testing.T) {
	var mode atomic.Value
	mode.Store("ok")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch mode.Load().(string) {
		case "status":
			http.Error(w, "upstream exploded", http.StatusBadGateway)
		case "malformed":
			_, _ = w.Write([]byte(`{"answer":`))
		default:
			_, _ = w.Write([]byte(`{"response":"55%"}`))
		}
	}))
	t.Cleanup(server.Close)

	client, err := NewHTTPClient(HTTPConfig{Endpoint: server.URL})
	require.NoError(t, err)
	svc := dashboard.NewService(dashboard.Options{Assistant: client})
	ctx := context.Background()
	id, err := svc.EnsureSession(ctx, dashboard.ViewerContext{Locale: "fr"})
	require.NoError(t, err)
	require.NoError(t, svc.UpdateChatPrompt(ctx, id, "Quelle est l'humidité du sol ?"))

	submit := func() dashboard.View {
		t.Helper()
		ticket, err := svc.SubmitChatPrompt(ctx, id)
		require.NoError(t, err)
		select {
		case <-ticket.Done:
		case <-time.After(2 * time.Second):
			t.Fatalf("chat request %d did not settle", ticket.Seq)
		}
		view, err := svc.Render(ctx, id)
		require.NoError(t, err)
		return view
	}

	view := submit()
	require.Equal(t, "55%", view.Chat.StatusText)

	labels := dashboard.CatalogLabels(dashboard.LanguageFR)
	for _, tc := range []struct {
		mode   string
		reason dashboard.FailureReason
		label  string
	}{
		{"status", dashboard.FailureStatus, dashboard.LabelChatErrStatus},
		{"malformed", dashboard.FailureMalformed, dashboard.LabelChatErrMalformed},
	} {
		mode.Store("ok")
		require.Equal(t, "55%", submit().Chat.StatusText)

		mode.Store(tc.mode)
		view := submit()
		state, err := svc.ChatState(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, dashboard.ChatFailed, state.Status, tc.mode)
		assert.Equal(t, tc.reason, state.Reason, tc.mode)
		assert.Empty(t, state.Response, tc.mode)
		assert.True(t, view.Chat.Failed, tc.mode)
		assert.Equal(t, labels.Get(tc.label), view.Chat.StatusText, tc.mode)
		assert.NotEqual(t, "55%", view.Chat.StatusText, tc.mode)
	}
}
