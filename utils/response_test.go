package utils

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordedRequest struct {
	method string
	path   string
	body   map[string]any
}

// stubTransport answers every Discord API call with a fixed status and body.
type stubTransport struct {
	mu       sync.Mutex
	status   int
	body     string
	requests []recordedRequest
}

func (t *stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rec := recordedRequest{method: req.Method, path: req.URL.Path}
	if req.Body != nil {
		raw, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(raw, &rec.body)
	}
	t.mu.Lock()
	t.requests = append(t.requests, rec)
	t.mu.Unlock()

	return &http.Response{
		StatusCode: t.status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(t.body)),
		Request:    req,
	}, nil
}

func (t *stubTransport) last() recordedRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.requests) == 0 {
		return recordedRequest{}
	}
	return t.requests[len(t.requests)-1]
}

func newTestReplier(t *testing.T, transport *stubTransport) (*Replier, *observer.ObservedLogs) {
	t.Helper()
	s, err := discordgo.New("Bot test-token")
	require.NoError(t, err)
	s.Client = &http.Client{Transport: transport}

	core, logs := observer.New(zapcore.DebugLevel)
	return NewReplier(s, NewDedupeCache(16, time.Minute), zap.New(core)), logs
}

func TestDeferredResponseIsEphemeral(t *testing.T) {
	resp := deferredResponse(true)
	assert.Equal(t, discordgo.InteractionResponseDeferredChannelMessageWithSource, resp.Type)
	require.NotNil(t, resp.Data)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)

	assert.Nil(t, deferredResponse(false).Data)
}

func TestDeferAcknowledgesInteraction(t *testing.T) {
	transport := &stubTransport{status: http.StatusNoContent}
	r, _ := newTestReplier(t, transport)

	ok := r.Defer(&discordgo.Interaction{ID: "i1", AppID: "app", Token: "tok"})
	require.True(t, ok)

	req := transport.last()
	assert.Equal(t, http.MethodPost, req.method)
	assert.True(t, strings.HasSuffix(req.path, "/interactions/i1/tok/callback"), req.path)
	assert.EqualValues(t, discordgo.InteractionResponseDeferredChannelMessageWithSource, req.body["type"])
	data, ok := req.body["data"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, discordgo.MessageFlagsEphemeral, data["flags"])
}

func TestDeferReportsFailure(t *testing.T) {
	transport := &stubTransport{status: http.StatusNotFound, body: `{"message":"Unknown interaction","code":10062}`}
	r, logs := newTestReplier(t, transport)

	assert.False(t, r.Defer(&discordgo.Interaction{ID: "i1", AppID: "app", Token: "tok"}))
	assert.Equal(t, 1, logs.FilterMessage("Failed to defer interaction").Len())
}

func TestEditErrorReplacesOriginalResponse(t *testing.T) {
	transport := &stubTransport{status: http.StatusOK, body: `{"id":"m1"}`}
	r, _ := newTestReplier(t, transport)

	r.EditError(&discordgo.Interaction{ID: "i1", AppID: "app", Token: "tok"}, "nope")

	req := transport.last()
	assert.Equal(t, http.MethodPatch, req.method)
	assert.True(t, strings.HasSuffix(req.path, "/webhooks/app/tok/messages/@original"), req.path)
	assert.Equal(t, "❌ nope", req.body["content"])
}

func TestDeleteAfterLogsFailedDelete(t *testing.T) {
	transport := &stubTransport{status: http.StatusNotFound, body: `{"message":"Unknown Message","code":10008}`}
	r, logs := newTestReplier(t, transport)

	r.deleteAfter(&discordgo.Message{ID: "m1", ChannelID: "c1"}, time.Millisecond)

	assert.Eventually(t, func() bool {
		return logs.FilterMessage("Failed to delete temporary reply").Len() == 1
	}, time.Second, 10*time.Millisecond)

	entry := logs.FilterMessage("Failed to delete temporary reply").All()[0]
	assert.Equal(t, zapcore.DebugLevel, entry.Level)
	assert.Equal(t, "c1", entry.ContextMap()["channel_id"])
	assert.Equal(t, http.MethodDelete, transport.last().method)
}
