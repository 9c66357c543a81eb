package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kairodev/kairo/internal/agent"
	"github.com/kairodev/kairo/internal/config"
	"github.com/kairodev/kairo/internal/runstream"
	"github.com/kairodev/kairo/internal/skill"
	"github.com/kairodev/kairo/internal/timeline"
)

// fakeService replays a scripted primitive stream per run.
type fakeService struct {
	prims []runstream.Primitive
	fail  bool
}

func (f *fakeService) Run(ctx context.Context, threadID, text string, _ ...agent.RunOption) runstream.Source {
	pipe := runstream.NewPipe(len(f.prims) + 1)
	go func() {
		if f.fail {
			pipe.Fail(assertError{})
			return
		}
		for _, prim := range f.prims {
			if err := pipe.Send(ctx, prim); err != nil {
				return
			}
		}
		pipe.CloseSend()
	}()
	return pipe
}

func (f *fakeService) SystemPrompt() string { return "You are a test agent." }

type assertError struct{}

func (assertError) Error() string { return "boom" }

func scriptedPrims() []runstream.Primitive {
	return []runstream.Primitive{
		runstream.NewPrimitive(runstream.PrimThinkingDelta, map[string]any{"content": "Thinking..."}),
		runstream.NewPrimitive(runstream.PrimToolCall, map[string]any{
			"id": "tool-1", "name": "load_skill",
			"args": map[string]any{"skill_name": "news-extractor"},
		}),
		runstream.NewPrimitive(runstream.PrimToolResult, map[string]any{
			"tool_use_id": "tool-1", "name": "load_skill",
			"content": "[OK]\n\nloaded", "success": true,
		}),
		runstream.NewPrimitive(runstream.PrimTextDelta, map[string]any{"content": "Done."}),
		runstream.NewPrimitive(runstream.PrimDone, map[string]any{"response": "Done."}),
	}
}

func newTestServer(svc Service) (*Server, *timeline.Manager) {
	skills := skill.NewRegistry()
	skills.Register(&skill.Skill{
		Name:        "news-extractor",
		Description: "Extract article content from news links",
		Path:        "/tmp/skills/news-extractor",
	})

	cfg := config.Config{}
	cfg.Models.Default = "test-model"
	cfg.Models.Registry = []config.ModelRegistry{
		{Name: "test-model", Provider: "anthropic", APIKey: "key"},
	}

	timelines := timeline.NewManager()
	return NewServer(cfg, svc, skills, timelines), timelines
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(&fakeService{})
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "ok", payload["status"])
	assert.Equal(t, true, payload["api_credentials_configured"])
}

func TestSkillsEndpoint(t *testing.T) {
	server, _ := newTestServer(&fakeService{})
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/skills", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var payload struct {
		Skills []struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		} `json:"skills"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Skills, 1)
	assert.Equal(t, "news-extractor", payload.Skills[0].Name)
}

func TestPromptEndpoint(t *testing.T) {
	server, _ := newTestServer(&fakeService{})
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/prompt", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "You are a test agent.", payload["prompt"])
}

func TestChatStreamEmitsFrames(t *testing.T) {
	server, _ := newTestServer(&fakeService{prims: scriptedPrims()})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/chat/stream?message=hello&thread_id=t-1", nil)
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "event: thinking")
	assert.Contains(t, body, "event: tool_call")
	assert.Contains(t, body, "event: tool_result")
	assert.Contains(t, body, "event: text")
	assert.Contains(t, body, "event: done")
	assert.Contains(t, body, `"skill_name":"news-extractor"`)
}

func TestChatStreamFramePayloadsAreJSON(t *testing.T) {
	server, _ := newTestServer(&fakeService{prims: scriptedPrims()})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/chat/stream?message=hello", nil)
	server.Handler().ServeHTTP(rec, req)

	scanner := bufio.NewScanner(rec.Body)
	dataLines := 0
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		dataLines++
		var payload map[string]any
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &payload))
	}
	assert.Positive(t, dataLines)
}

func TestChatStreamFoldsTimeline(t *testing.T) {
	server, timelines := newTestServer(&fakeService{prims: scriptedPrims()})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/chat/stream?message=hello&thread_id=t-1", nil)
	server.Handler().ServeHTTP(rec, req)

	thread, err := timelines.Lookup("t-1")
	require.NoError(t, err)
	entries := thread.Snapshot()
	require.Len(t, entries, 2)
	assert.Equal(t, "hello", entries[0].Text)

	asst := entries[1]
	assert.Equal(t, timeline.PhaseDone, asst.Phase)
	assert.Equal(t, "Done.", asst.Response)
	require.Len(t, asst.Tools, 1)
	assert.Equal(t, timeline.ToolSuccess, asst.Tools[0].Status)
	assert.Equal(t, "news-extractor", thread.ActiveSkill())
	assert.False(t, thread.Active())
}

func TestChatStreamRequiresMessage(t *testing.T) {
	server, _ := newTestServer(&fakeService{})
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chat/stream", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatStreamBusyThreadConflicts(t *testing.T) {
	server, timelines := newTestServer(&fakeService{})
	_, err := timelines.Thread("t-1").Submit("earlier run")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/chat/stream?message=hello&thread_id=t-1", nil)
	server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestChatStreamWrapsTransportFailure(t *testing.T) {
	server, _ := newTestServer(&fakeService{fail: true})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/chat/stream?message=explode", nil)
	server.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	assert.Contains(t, body, "event: agent_error")
	assert.Contains(t, body, "boom")
}
