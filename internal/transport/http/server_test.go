package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cmp-dialogue/internal/app"
	"cmp-dialogue/internal/ratelimit"
	"cmp-dialogue/internal/transport/http/handler"
	"cmp-dialogue/internal/transport/http/response"
)

type stubDialogue struct {
	answer string
	err    error
	calls  int
}

func (s *stubDialogue) turn(context.Context, string) (string, error) {
	s.calls++
	return s.answer, s.err
}

func (s *stubDialogue) AskTeacher(ctx context.Context, q string) (string, error) {
	return s.turn(ctx, q)
}

func (s *stubDialogue) MeetingWithTeacher(ctx context.Context, q string) (string, error) {
	return s.turn(ctx, q)
}

func (s *stubDialogue) StudentAskTeacher(ctx context.Context, q string) (string, error) {
	return s.turn(ctx, q)
}

func (s *stubDialogue) Summarize(ctx context.Context, text string) (string, error) {
	return s.turn(ctx, text)
}

func (s *stubDialogue) ExtractQuestions(string) []string {
	return []string{"NextJS là gì?"}
}

type stubSources struct {
	links    []string
	err      error
	count    int
	offset   int
	contents []string
}

func (s *stubSources) FindSources(_ context.Context, _ string, count, offset int) ([]string, error) {
	s.count, s.offset = count, offset
	return s.links, s.err
}

func (s *stubSources) FetchContent(context.Context, string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "nội dung", nil
}

func (s *stubSources) FetchContents(context.Context, []string) ([]string, error) {
	return s.contents, s.err
}

func newTestEngine(d *stubDialogue, s *stubSources, normalLimit int) *gin.Engine {
	return NewEngine(Deps{
		GinMode:    gin.TestMode,
		Dialogue:   d,
		Sources:    s,
		Health:     handler.NewHealthHandler("cmp-dialogue", "test", time.Now(), nil),
		Limiter:    ratelimit.NewMemoryLimiter(),
		Normal:     ratelimit.Normal(normalLimit, time.Minute),
		Privileged: ratelimit.Privileged(30, time.Minute),
	})
}

func post(t *testing.T, r *gin.Engine, path, body string) (int, response.Envelope) {
	t.Helper()
	w := postFrom(t, r, path, body, "")
	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w.Code, env
}

func postFrom(t *testing.T, r *gin.Engine, path, body, forwardedFor string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(nethttp.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	req.RemoteAddr = "10.0.0.1:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSearchGoogleDefaults(t *testing.T) {
	src := &stubSources{links: []string{"https://nextjs.org/docs"}}
	r := newTestEngine(&stubDialogue{}, src, 30)

	code, env := post(t, r, "/cmp-actions/search-google", `{"query":"NextJS là gì?"}`)
	assert.Equal(t, nethttp.StatusOK, code)
	assert.True(t, env.Success)
	assert.Equal(t, []interface{}{"https://nextjs.org/docs"}, env.Result)
	assert.Equal(t, 5, src.count)
	assert.Equal(t, 0, src.offset)

	_, _ = post(t, r, "/cmp-actions/search-google", `{"query":"q","start_num":10,"num_results":3}`)
	assert.Equal(t, 3, src.count)
	assert.Equal(t, 10, src.offset)
}

func TestSearchGoogleNoLinks(t *testing.T) {
	r := newTestEngine(&stubDialogue{}, &stubSources{err: app.ErrNoLinks}, 30)
	code, env := post(t, r, "/cmp-actions/search-google", `{"query":"q"}`)
	assert.Equal(t, nethttp.StatusOK, code)
	assert.False(t, env.Success)
	assert.Equal(t, response.MsgNoLinks, env.Result)
}

func TestContentEndpoints(t *testing.T) {
	r := newTestEngine(&stubDialogue{}, &stubSources{contents: []string{"một", ""}}, 30)

	_, env := post(t, r, "/cmp-actions/get-content-from-url", `{"url":"https://a.dev"}`)
	assert.True(t, env.Success)
	assert.Equal(t, "nội dung", env.Result)

	_, env = post(t, r, "/cmp-actions/get-content-from-urls", `{"urls":["https://a.dev","https://b.dev"]}`)
	assert.True(t, env.Success)
	assert.Equal(t, []interface{}{"một", ""}, env.Result)

	r = newTestEngine(&stubDialogue{}, &stubSources{err: app.ErrNoContent}, 30)
	_, env = post(t, r, "/cmp-actions/get-content-from-url", `{"url":"https://a.dev"}`)
	assert.False(t, env.Success)
	assert.Equal(t, response.MsgNoContent, env.Result)
}

func TestDialogueEndpoints(t *testing.T) {
	d := &stubDialogue{answer: "Chào em"}
	r := newTestEngine(d, &stubSources{}, 30)

	for _, path := range []string{"/cmp-actions/ask-teacher", "/cmp-actions/meeting-with-teacher", "/cmp-actions/student-ask-teacher"} {
		code, env := post(t, r, path, `{"question":"NextJS là gì?"}`)
		assert.Equal(t, nethttp.StatusOK, code, path)
		assert.True(t, env.Success, path)
		assert.Equal(t, "Chào em", env.Result, path)
	}
	assert.Equal(t, 3, d.calls)

	_, env := post(t, r, "/cmp-actions/extract-questions", `{"text":"Xin chào. NextJS là gì?"}`)
	assert.Equal(t, []interface{}{"NextJS là gì?"}, env.Result)
}

func TestFailureEnvelope(t *testing.T) {
	r := newTestEngine(&stubDialogue{err: errors.New("llm unavailable")}, &stubSources{}, 30)

	code, env := post(t, r, "/cmp-actions/ask-teacher", `{"question":"q"}`)
	assert.Equal(t, nethttp.StatusOK, code)
	assert.False(t, env.Success)
	assert.Equal(t, "Error processing request: llm unavailable", env.Result)

	code, env = post(t, r, "/cmp-actions/summarize", `{}`)
	assert.Equal(t, nethttp.StatusBadRequest, code)
	assert.False(t, env.Success)
}

func TestRateLimitRejectsBeforeHandler(t *testing.T) {
	d := &stubDialogue{answer: "tóm tắt"}
	r := newTestEngine(d, &stubSources{}, 2)

	for i := 0; i < 2; i++ {
		code, _ := post(t, r, "/cmp-actions/summarize", `{"text":"x"}`)
		assert.Equal(t, nethttp.StatusOK, code)
	}
	code, env := post(t, r, "/cmp-actions/summarize", `{"text":"x"}`)
	assert.Equal(t, nethttp.StatusTooManyRequests, code)
	assert.False(t, env.Success)
	assert.Equal(t, response.MsgTooManyRequests, env.Result)
	assert.Equal(t, 2, d.calls, "rejected request never reaches the service")

	code, _ = post(t, r, "/cmp-actions/ask-teacher", `{"question":"q"}`)
	assert.Equal(t, nethttp.StatusOK, code, "privileged routes have their own budget")
}

func TestRateLimitIgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	r := newTestEngine(&stubDialogue{answer: "tóm tắt"}, &stubSources{}, 1)

	var codes []int
	for _, xff := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3", "4.4.4.4"} {
		codes = append(codes, postFrom(t, r, "/cmp-actions/summarize", `{"text":"x"}`, xff).Code)
	}
	assert.Equal(t, []int{200, 429, 429, 429}, codes)
}

func TestRateLimitHonoursForwardedForFromTrustedProxy(t *testing.T) {
	r := NewEngine(Deps{
		GinMode:        gin.TestMode,
		TrustedProxies: []string{"10.0.0.0/8"},
		Dialogue:       &stubDialogue{answer: "tóm tắt"},
		Sources:        &stubSources{},
		Health:         handler.NewHealthHandler("cmp-dialogue", "test", time.Now(), nil),
		Limiter:        ratelimit.NewMemoryLimiter(),
		Normal:         ratelimit.Normal(1, time.Minute),
		Privileged:     ratelimit.Privileged(1, time.Minute),
	})

	assert.Equal(t, nethttp.StatusOK, postFrom(t, r, "/cmp-actions/summarize", `{"text":"x"}`, "1.1.1.1").Code)
	assert.Equal(t, nethttp.StatusOK, postFrom(t, r, "/cmp-actions/summarize", `{"text":"x"}`, "2.2.2.2").Code)
	assert.Equal(t, nethttp.StatusTooManyRequests, postFrom(t, r, "/cmp-actions/summarize", `{"text":"x"}`, "1.1.1.1").Code)
}

func TestRateLimitRetryAfterIsTimeLeftInWindow(t *testing.T) {
	r := newTestEngine(&stubDialogue{answer: "tóm tắt"}, &stubSources{}, 1)

	_ = postFrom(t, r, "/cmp-actions/summarize", `{"text":"x"}`, "")
	w := postFrom(t, r, "/cmp-actions/summarize", `{"text":"x"}`, "")
	require.Equal(t, nethttp.StatusTooManyRequests, w.Code)

	secs, err := strconv.Atoi(w.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, secs, 1)
	assert.LessOrEqual(t, secs, 60)
}

func TestRootAndHealth(t *testing.T) {
	r := newTestEngine(&stubDialogue{}, &stubSources{}, 30)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(nethttp.MethodGet, "/", nil))
	assert.Equal(t, nethttp.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Hello World"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(nethttp.MethodGet, "/healthz", nil))
	assert.Equal(t, nethttp.StatusOK, w.Code)
}

func TestHealthReportsFailingDependency(t *testing.T) {
	h := handler.NewHealthHandler("cmp-dialogue", "test", time.Now(), map[string]handler.Probe{
		"postgres": func(context.Context) error { return errors.New("refused") },
		"redis":    nil,
	})
	r := NewEngine(Deps{
		GinMode:  gin.TestMode,
		Dialogue: &stubDialogue{},
		Sources:  &stubSources{},
		Health:   h,
		Limiter:  ratelimit.NewMemoryLimiter(),
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(nethttp.MethodGet, "/healthz", nil))
	assert.Equal(t, nethttp.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "refused")
}
