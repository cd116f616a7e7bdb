package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autorfp-ai/autorfp/pkg/artifact"
	"github.com/autorfp-ai/autorfp/pkg/cache"
	"github.com/autorfp-ai/autorfp/pkg/llm"
	"github.com/autorfp-ai/autorfp/pkg/pipeline"
	"github.com/autorfp-ai/autorfp/pkg/plan"
	"github.com/autorfp-ai/autorfp/pkg/prompts"
	"github.com/autorfp-ai/autorfp/pkg/reader"
	"github.com/autorfp-ai/autorfp/pkg/store"
)

type stubProvider struct {
	completions []string
}

func (s *stubProvider) Complete(ctx context.Context, req llm.Request) ([]string, error) {
	return s.completions, nil
}

func (s *stubProvider) Close() error { return nil }

func validPlanYAML(t *testing.T) string {
	t.Helper()
	p := plan.Plan{
		ProjectName: "Acme Portal",
		Modules: []plan.Module{{
			Module: "Auth",
			Tasks: []plan.Task{{
				Task:        "Login",
				Description: "Email login",
				Categories: []plan.SubtaskEstimate{
					{Category: plan.CategoryFrontend, Hours: 8, Subtask: "Login form"},
					{Category: plan.CategoryBackend, Hours: 12, Subtask: "Session API"},
				},
			}},
		}},
	}
	out, err := artifact.ToYAML(p)
	require.NoError(t, err)
	return out
}

func newTestServer(t *testing.T, completions []string) (*Server, *pipeline.Pipeline) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	p := pipeline.New(&stubProvider{completions: completions}, cache.New(store.NewMemoryDB()), prompts.New(""), pipeline.Config{})
	return NewServer(p, reader.NewRegistry()), p
}

func do(s *Server, method, path string, body string) *httptest.ResponseRecorder {
	var rdr *bytes.Reader
	if body == "" {
		rdr = bytes.NewReader(nil)
	} else {
		rdr = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, nil)
	w := do(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestGenerateAndFetch(t *testing.T) {
	s, p := newTestServer(t, []string{validPlanYAML(t)})

	w := do(s, http.MethodPost, "/v1/plans", `{"text": "build a portal"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp generateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Fingerprint)
	assert.False(t, resp.Cached)
	assert.Equal(t, "Acme Portal", resp.Plan.ProjectName)
	p.Flush()

	w = do(s, http.MethodGet, "/v1/plans/"+resp.Fingerprint, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(s, http.MethodGet, "/v1/plans/"+resp.Fingerprint+"?format=yaml", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "project_name: Acme Portal")

	w = do(s, http.MethodGet, "/v1/plans/"+resp.Fingerprint+"?format=csv", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "module,task,description,category,hours,subtask"))

	w = do(s, http.MethodGet, "/v1/plans/"+resp.Fingerprint+"?format=xml", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateSecondCallIsCached(t *testing.T) {
	s, p := newTestServer(t, []string{validPlanYAML(t)})

	w := do(s, http.MethodPost, "/v1/plans", `{"text": "build a portal"}`)
	require.Equal(t, http.StatusOK, w.Code)
	p.Flush()

	w = do(s, http.MethodPost, "/v1/plans", `{"text": "build a portal"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp generateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Cached)
}

func TestGenerateRequiresInput(t *testing.T) {
	s, _ := newTestServer(t, []string{validPlanYAML(t)})
	w := do(s, http.MethodPost, "/v1/plans", `{"text": "   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateUnparseableCandidates(t *testing.T) {
	s, _ := newTestServer(t, []string{"not: [ yaml"})
	w := do(s, http.MethodPost, "/v1/plans", `{"text": "build a portal"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestGenerateFromUnsupportedPath(t *testing.T) {
	s, _ := newTestServer(t, nil)
	w := do(s, http.MethodPost, "/v1/plans", `{"path": "/tmp/sow.docx"}`)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestSummary(t *testing.T) {
	s, p := newTestServer(t, []string{validPlanYAML(t)})
	w := do(s, http.MethodPost, "/v1/plans", `{"text": "build a portal"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp generateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	p.Flush()

	w = do(s, http.MethodGet, fmt.Sprintf("/v1/plans/%s/summary", resp.Fingerprint), "")
	require.Equal(t, http.StatusOK, w.Code)
	var summary planSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, "acme-portal", summary.Slug)
	assert.Equal(t, 20.0, summary.Hours)
	assert.Equal(t, 2, summary.SubtaskCount)
	require.Len(t, summary.Modules, 1)
	assert.Equal(t, "Auth", summary.Modules[0].Module)
}

func TestDelete(t *testing.T) {
	s, p := newTestServer(t, []string{validPlanYAML(t)})
	w := do(s, http.MethodPost, "/v1/plans", `{"text": "build a portal"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp generateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	p.Flush()

	w = do(s, http.MethodDelete, "/v1/plans/"+resp.Fingerprint, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(s, http.MethodGet, "/v1/plans/"+resp.Fingerprint, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(s, http.MethodDelete, "/v1/plans/"+resp.Fingerprint, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetMissingPlan(t *testing.T) {
	s, _ := newTestServer(t, nil)
	w := do(s, http.MethodGet, "/v1/plans/deadbeef", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
