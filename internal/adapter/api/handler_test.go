package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"campusgreen/internal/adapter/store"
	"campusgreen/internal/config"
	"campusgreen/internal/domain/entity"
	"campusgreen/internal/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	generate func(ctx context.Context, gen entity.Generation) (string, error)
}

func (s *stubGenerator) Generate(ctx context.Context, gen entity.Generation) (string, error) {
	return s.generate(ctx, gen)
}

func reply(text string, err error) *stubGenerator {
	return &stubGenerator{generate: func(context.Context, entity.Generation) (string, error) {
		return text, err
	}}
}

type brokenGuard struct{}

func (brokenGuard) Acquire(context.Context, string) (string, bool, error) {
	return "", false, errors.New("redis: connection refused")
}

func (brokenGuard) Release(context.Context, string, string) error { return nil }

func newTestApp(gen *stubGenerator, guard *store.MemoryInFlight) *fiber.App {
	app := fiber.New()
	handler := NewAdviceHandler(usecase.NewAdvisor(gen), guard)
	SetupRouter(app, handler, config.ServerConfig{AppVersion: "test", Env: "test"})
	return app
}

func postJSON(t *testing.T, app *fiber.App, path, body string, headers map[string]string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp.StatusCode, decode(t, resp)
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &out), "body: %s", raw)
	return out
}

func TestHandleAdvice(t *testing.T) {
	app := newTestApp(reply("Turn off the lights.", nil), store.NewMemoryInFlight(time.Minute))

	status, body := postJSON(t, app, "/v1/advice", `{"query":"dorm energy tips"}`, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Turn off the lights.", body["text"])
	assert.Equal(t, true, body["from_model"])
}

func TestHandleAdvice_FallbackIsStillOK(t *testing.T) {
	app := newTestApp(reply("", errors.New("401 API key not valid")), store.NewMemoryInFlight(time.Minute))

	status, body := postJSON(t, app, "/v1/advice", `{"query":"dorm energy tips"}`, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, usecase.FreeformFallback, body["text"])
	assert.Equal(t, false, body["from_model"])
}

func TestHandleAdvice_BlankQuery(t *testing.T) {
	app := newTestApp(reply("unused", nil), store.NewMemoryInFlight(time.Minute))

	for _, body := range []string{`{"query":"   "}`, `{}`, `not json`} {
		status, resp := postJSON(t, app, "/v1/advice", body, nil)
		assert.Equal(t, http.StatusBadRequest, status, body)
		assert.Contains(t, resp["error"], "query is required")
	}
}

func TestHandleDailyTip(t *testing.T) {
	var prompt string
	gen := &stubGenerator{generate: func(_ context.Context, g entity.Generation) (string, error) {
		prompt = g.Prompt
		return "", errors.New("boom")
	}}
	app := newTestApp(gen, store.NewMemoryInFlight(time.Minute))

	status, body := postJSON(t, app, "/v1/tips/daily", `{"completed_challenges":["bike-to-campus","recycle-run"]}`, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, usecase.DailyTipErrorFallback, body["text"])
	assert.Contains(t, prompt, "bike-to-campus, recycle-run")

	req := httptest.NewRequest(http.MethodPost, "/v1/tips/daily", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.Contains(t, prompt, "none yet")
}

func TestHandlePolishCaption_EchoesDraftOnFailure(t *testing.T) {
	app := newTestApp(reply("", errors.New("deadline exceeded")), store.NewMemoryInFlight(time.Minute))

	status, body := postJSON(t, app, "/v1/captions/polish", `{"text":"I recycled today"}`, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "I recycled today", body["text"])
}

func TestHandleQuestSuggestion(t *testing.T) {
	app := newTestApp(reply("Wow! Love a campus swap meet.", nil), store.NewMemoryInFlight(time.Minute))

	status, body := postJSON(t, app, "/v1/quests/suggestions", `{"suggestion":"Campus swap meet"}`, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Wow! Love a campus swap meet.", body["text"])

	status, _ = postJSON(t, app, "/v1/quests/suggestions", `{"suggestion":""}`, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func scanRequest(t *testing.T, image []byte, contentType string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="capture.jpg"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(image)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/scans", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestHandleScan(t *testing.T) {
	var sent entity.Generation
	gen := &stubGenerator{generate: func(_ context.Context, g entity.Generation) (string, error) {
		sent = g
		return `{"category":"Recycle","advice":"Empty and rinse the bottle first."}`, nil
	}}
	app := newTestApp(gen, store.NewMemoryInFlight(time.Minute))

	resp, err := app.Test(scanRequest(t, []byte{0xff, 0xd8, 0xff}, "image/jpeg"), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "Recycle", body["category"])
	assert.Equal(t, "Empty and rinse the bottle first.", body["advice"])

	require.NotNil(t, sent.Image)
	assert.Equal(t, "image/jpeg", sent.Image.MIMEType)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff}, sent.Image.Data)
}

func TestHandleScan_FailureIsNotDefaulted(t *testing.T) {
	app := newTestApp(reply("I think this is landfill", nil), store.NewMemoryInFlight(time.Minute))

	resp, err := app.Test(scanRequest(t, []byte{0xff, 0xd8}, "image/jpeg"), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, scanFailedMessage, body["error"])
	assert.Equal(t, scanFailedCode, body["code"])
	assert.NotContains(t, body, "category")
	assert.NotContains(t, body, "reason")
}

func TestHandleScan_UpstreamErrorStaysServerSide(t *testing.T) {
	upstream := errors.New("googleapi: Error 403: API key AIza-secret-123 revoked for project 99887")
	app := newTestApp(reply("", upstream), store.NewMemoryInFlight(time.Minute))

	resp, err := app.Test(scanRequest(t, []byte{0xff, 0xd8}, "image/jpeg"), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "googleapi")
	assert.NotContains(t, string(raw), "AIza-secret-123")

	body := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, map[string]any{"error": scanFailedMessage, "code": scanFailedCode}, body)
}

func TestHandleScan_MissingImage(t *testing.T) {
	app := newTestApp(reply("unused", nil), store.NewMemoryInFlight(time.Minute))

	status, _ := postJSON(t, app, "/v1/scans", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestInFlightRequestIsRejected(t *testing.T) {
	guard := store.NewMemoryInFlight(time.Minute)
	app := newTestApp(reply("tip", nil), guard)

	token, ok, err := guard.Acquire(context.Background(), "student-7:"+entity.OpDailyTip)
	require.NoError(t, err)
	require.True(t, ok)

	headers := map[string]string{"X-User-ID": "student-7"}
	status, body := postJSON(t, app, "/v1/tips/daily", `{}`, headers)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, entity.ErrRequestInFlight.Error(), body["error"])

	// Other operations and other students are unaffected.
	status, _ = postJSON(t, app, "/v1/advice", `{"query":"hi"}`, headers)
	assert.Equal(t, http.StatusOK, status)
	status, _ = postJSON(t, app, "/v1/tips/daily", `{}`, map[string]string{"X-User-ID": "student-8"})
	assert.Equal(t, http.StatusOK, status)

	require.NoError(t, guard.Release(context.Background(), "student-7:"+entity.OpDailyTip, token))
	status, _ = postJSON(t, app, "/v1/tips/daily", `{}`, headers)
	assert.Equal(t, http.StatusOK, status)
}

func TestFlagIsReleasedAfterCall(t *testing.T) {
	guard := store.NewMemoryInFlight(time.Minute)
	app := newTestApp(reply("", errors.New("boom")), guard)
	headers := map[string]string{"X-User-ID": "student-9"}

	for i := 0; i < 3; i++ {
		status, _ := postJSON(t, app, "/v1/advice", `{"query":"hi"}`, headers)
		assert.Equal(t, http.StatusOK, status)
	}
}

func TestGuardErrorIsInternal(t *testing.T) {
	app := fiber.New()
	SetupRouter(app, NewAdviceHandler(usecase.NewAdvisor(reply("x", nil)), brokenGuard{}), config.ServerConfig{})

	status, body := postJSON(t, app, "/v1/advice", `{"query":"hi"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal gateway error", body["error"])
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(reply("x", nil), store.NewMemoryInFlight(time.Minute))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test", body["version"])
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
