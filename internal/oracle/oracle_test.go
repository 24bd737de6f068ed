package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hyperjump/triage/internal/models"
)

func TestAnthropicClient_Invoke(t *testing.T) {
	var got anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"{\"items\":"},{"type":"text","text":"[]}"}]}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient("test-key", srv.URL, "claude-test")
	out, err := c.Invoke(context.Background(), "sys", "user text", 512)
	require.NoError(t, err)
	assert.Equal(t, `{"items":[]}`, out)
	assert.Equal(t, "sys", got.System)
	assert.Equal(t, 512, got.MaxTokens)
	assert.Equal(t, "claude-test", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user text", got.Messages[0].Content)
	assert.Equal(t, "anthropic:claude-test", c.Name())
}

func TestAnthropicClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, `oops`, ErrUnavailable},
		{"rate limited", http.StatusTooManyRequests, `slow down`, ErrUnavailable},
		{"api error body", http.StatusOK, `{"error":{"type":"x","message":"bad"}}`, ErrUnavailable},
		{"empty completion", http.StatusOK, `{"content":[]}`, ErrUnavailable},
		{"not json", http.StatusOK, `<html>`, ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewAnthropicClient("k", srv.URL, "m").Invoke(context.Background(), "", "u", 10)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := NewAnthropicClient("", "", "m").Invoke(context.Background(), "", "u", 10)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGuard_TimeoutBecomesErrTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	o := Guard(NewAnthropicClient("k", srv.URL, "m"), 50*time.Millisecond, zap.NewNop())
	_, err := o.Invoke(context.Background(), "", "u", 10)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestGuard_ScriptedDelay(t *testing.T) {
	s := NewScripted(Slow(time.Second, "late"))
	_, err := Guard(s, 20*time.Millisecond, nil).Invoke(context.Background(), "", "", 1)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestGuard_ClassifiesPlainErrors(t *testing.T) {
	o := Guard(Func(func(context.Context, string, string, int) (string, error) {
		return "", errors.New("connection refused")
	}), 0, nil)
	_, err := o.Invoke(context.Background(), "", "", 1)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, "func", o.Name())
}

func TestScriptedOracle(t *testing.T) {
	s := NewScripted(Reply("one"), Fail(ErrTimeout))
	ctx := context.Background()

	out, err := s.Invoke(ctx, "sys", "first", 100)
	require.NoError(t, err)
	assert.Equal(t, "one", out)

	_, err = s.Invoke(ctx, "sys", "second", 100)
	assert.ErrorIs(t, err, ErrTimeout)

	_, err = s.Invoke(ctx, "sys", "third", 100)
	assert.ErrorIs(t, err, ErrUnavailable)

	s.Push(Reply("four"))
	out, err = s.Invoke(ctx, "sys", "fourth", 100)
	require.NoError(t, err)
	assert.Equal(t, "four", out)

	calls := s.Calls()
	require.Len(t, calls, 4)
	assert.Equal(t, "second", calls[1].User)
	assert.Equal(t, 4, s.CallCount())
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	o, err := New(ctx, Settings{Provider: ProviderOffline}, nil)
	require.NoError(t, err)
	_, err = o.Invoke(ctx, "", "", 1)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, "offline", o.Name())

	o, err = New(ctx, Settings{Provider: ProviderAnthropic, APIKey: "k", Model: "m"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "anthropic:m", o.Name())

	var cfgErr *models.ConfigurationError
	_, err = New(ctx, Settings{Provider: "openai"}, nil)
	assert.ErrorAs(t, err, &cfgErr)

	_, err = New(ctx, Settings{Provider: ProviderAnthropic}, nil)
	assert.ErrorAs(t, err, &cfgErr)
}
