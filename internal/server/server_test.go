package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/auth"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/config"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/domain"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/engine"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/logger"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/testutil"
)

const testSecret = "test-secret"

type testServer struct {
	*httptest.Server
	Engine engine.Engine
	token  string
}

func newTestServer(t *testing.T, authCfg AuthConfig) *testServer {
	t.Helper()
	conn := testutil.NewTestDB(t)
	e := engine.New(conn, config.Default(), logger.NewNop())
	handler, err := New(Config{Engine: e, Auth: authCfg})
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, Engine: e}
}

func newOpenServer(t *testing.T) *testServer {
	return newTestServer(t, AuthConfig{Disabled: true})
}

func (s *testServer) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader = http.NoBody
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	res, err := s.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, data
}

func (s *testServer) decode(t *testing.T, method, path string, body any, status int, out any) {
	t.Helper()
	res, data := s.do(t, method, path, body)
	require.Equal(t, status, res.StatusCode, string(data))
	if out != nil {
		require.NoError(t, json.Unmarshal(data, out), string(data))
	}
}

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func (s *testServer) expectError(t *testing.T, method, path string, body any, status int, code string) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	s.decode(t, method, path, body, status, &env)
	assert.Equal(t, code, env.Error.Code)
	return env
}

func (s *testServer) seedMilestone(t *testing.T, titles ...string) (domain.Milestone, []domain.Activity) {
	t.Helper()
	var subject domain.Subject
	s.decode(t, http.MethodPost, "/api/subjects", map[string]any{"name": "French"}, http.StatusCreated, &subject)
	var m domain.Milestone
	s.decode(t, http.MethodPost, "/api/milestones", map[string]any{"subjectId": subject.ID, "title": "Unit 1"}, http.StatusCreated, &m)
	acts := make([]domain.Activity, 0, len(titles))
	for _, title := range titles {
		var a domain.Activity
		s.decode(t, http.MethodPost, "/api/activities", map[string]any{"milestoneId": m.ID, "title": title}, http.StatusCreated, &a)
		acts = append(acts, a)
	}
	return m, acts
}

func titles(acts []domain.Activity) []string {
	out := make([]string, len(acts))
	for i, a := range acts {
		out[i] = a.Title
	}
	return out
}

func TestHealthIsOpen(t *testing.T) {
	srv := newTestServer(t, AuthConfig{JWTSecret: testSecret})
	var body map[string]string
	srv.decode(t, http.MethodGet, "/api/health", nil, http.StatusOK, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestNewRequiresSecret(t *testing.T) {
	conn := testutil.NewTestDB(t)
	_, err := New(Config{Engine: engine.New(conn, config.Default(), logger.NewNop())})
	require.Error(t, err)
}

func TestAuthentication(t *testing.T) {
	srv := newTestServer(t, AuthConfig{JWTSecret: testSecret})

	srv.expectError(t, http.MethodGet, "/api/subjects", nil, http.StatusUnauthorized, "unauthorized")

	srv.token = "not-a-jwt"
	srv.expectError(t, http.MethodGet, "/api/subjects", nil, http.StatusUnauthorized, "invalid_credentials")

	forged, err := auth.Issue("other-secret", "teacher-1", time.Hour, time.Now())
	require.NoError(t, err)
	srv.token = forged
	srv.expectError(t, http.MethodGet, "/api/subjects", nil, http.StatusUnauthorized, "invalid_credentials")

	token, err := auth.Issue(testSecret, "teacher-1", time.Hour, time.Now())
	require.NoError(t, err)
	srv.token = token
	var subject domain.Subject
	srv.decode(t, http.MethodPost, "/api/subjects", map[string]any{"name": "Math"}, http.StatusCreated, &subject)

	var page EventsPage
	srv.decode(t, http.MethodGet, "/api/events", nil, http.StatusOK, &page)
	require.NotEmpty(t, page.Items)
	assert.Equal(t, "teacher-1", page.Items[0].ActorID)
}

func TestRequestIDHeader(t *testing.T) {
	srv := newOpenServer(t)
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/health", nil)
	require.NoError(t, err)
	req.Header.Set(requestIDHeader, "trace-123")
	res, err := srv.Client().Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, "trace-123", res.Header.Get(requestIDHeader))

	res, _ = srv.do(t, http.MethodGet, "/api/health", nil)
	assert.NotEmpty(t, res.Header.Get(requestIDHeader))
}

func TestReorderActivities(t *testing.T) {
	srv := newOpenServer(t)
	m, acts := srv.seedMilestone(t, "A", "B", "C")
	a, b, c := acts[0], acts[1], acts[2]

	var ordered []domain.Activity
	srv.decode(t, http.MethodPatch, "/api/activities/reorder", ReorderRequest{
		MilestoneID: m.ID,
		ActivityIDs: []int64{c.ID, a.ID, b.ID},
	}, http.StatusOK, &ordered)
	assert.Equal(t, []string{"C", "A", "B"}, titles(ordered))
	for i, act := range ordered {
		assert.Equal(t, i, act.Position)
	}

	var listed []domain.Activity
	srv.decode(t, http.MethodGet, fmt.Sprintf("/api/milestones/%d/activities", m.ID), nil, http.StatusOK, &listed)
	assert.Equal(t, []string{"C", "A", "B"}, titles(listed))

	_, other := srv.seedMilestone(t, "X")
	env := srv.expectError(t, http.MethodPatch, "/api/activities/reorder", ReorderRequest{
		MilestoneID: m.ID,
		ActivityIDs: []int64{c.ID, a.ID, other[0].ID},
	}, http.StatusUnprocessableEntity, "invalid_reference")
	assert.Contains(t, env.Error.Details, "foreign")

	srv.expectError(t, http.MethodPatch, "/api/activities/reorder", ReorderRequest{
		MilestoneID: m.ID,
		ActivityIDs: []int64{c.ID, c.ID, a.ID},
	}, http.StatusBadRequest, "bad_request")

	srv.expectError(t, http.MethodPatch, "/api/activities/reorder", ReorderRequest{
		MilestoneID: 9999,
		ActivityIDs: []int64{a.ID},
	}, http.StatusNotFound, "not_found")

	srv.decode(t, http.MethodGet, fmt.Sprintf("/api/milestones/%d/activities", m.ID), nil, http.StatusOK, &listed)
	assert.Equal(t, []string{"C", "A", "B"}, titles(listed))
}

func TestMalformedRequests(t *testing.T) {
	srv := newOpenServer(t)
	srv.expectError(t, http.MethodPatch, "/api/activities/reorder", `{"milestoneId":`, http.StatusBadRequest, "bad_request")
	srv.expectError(t, http.MethodPatch, "/api/activities/reorder", map[string]any{"milestoneId": 1}, http.StatusBadRequest, "bad_request")
	srv.expectError(t, http.MethodGet, "/api/activities/abc", nil, http.StatusBadRequest, "bad_request")
	srv.expectError(t, http.MethodPost, "/api/subjects", map[string]any{"name": "  "}, http.StatusBadRequest, "bad_request")
	srv.expectError(t, http.MethodGet, "/api/outcomes/coverage?grade=first", nil, http.StatusBadRequest, "bad_request")
	srv.expectError(t, http.MethodGet, "/api/outcomes/coverage?cursor=nope", nil, http.StatusBadRequest, "bad_request")
	srv.expectError(t, http.MethodGet, "/api/events?cursor=-4", nil, http.StatusBadRequest, "bad_request")
}

func TestCompletionToggle(t *testing.T) {
	srv := newOpenServer(t)
	m, acts := srv.seedMilestone(t, "A", "B")
	path := fmt.Sprintf("/api/activities/%d/complete", acts[0].ID)

	var res engine.CompletionResult
	srv.decode(t, http.MethodPut, path, CompletionRequest{Completed: true}, http.StatusOK, &res)
	require.NotNil(t, res.Activity.CompletedAt)
	assert.True(t, res.ShowNotePrompt)
	assert.Equal(t, domain.MilestoneProgress{MilestoneID: m.ID, Completed: 1, Total: 2, Percent: 50}, res.MilestoneProgress)

	var progress domain.MilestoneProgress
	srv.decode(t, http.MethodGet, fmt.Sprintf("/api/milestones/%d/progress", m.ID), nil, http.StatusOK, &progress)
	assert.Equal(t, 50, progress.Percent)

	srv.decode(t, http.MethodPut, path, CompletionRequest{Completed: false}, http.StatusOK, &res)
	assert.Nil(t, res.Activity.CompletedAt)
	assert.False(t, res.ShowNotePrompt)
	assert.Equal(t, 0, res.MilestoneProgress.Percent)

	srv.decode(t, http.MethodPut, path, CompletionRequest{Completed: true, Note: "went well"}, http.StatusOK, &res)
	assert.False(t, res.ShowNotePrompt)

	srv.expectError(t, http.MethodPut, "/api/activities/424242/complete", CompletionRequest{Completed: true}, http.StatusNotFound, "not_found")
}

func TestCoveragePaging(t *testing.T) {
	srv := newOpenServer(t)
	ctx := context.Background()
	codes := []string{"CO.1", "CO.2", "CO.3", "CO.4", "CO.5"}
	var catalog []domain.Outcome
	for _, code := range codes {
		catalog = append(catalog, testutil.NewTestOutcome(code))
	}
	catalog = append(catalog, testutil.NewTestOutcome("MA.1", testutil.WithSubject("MATH")))
	_, err := srv.Engine.ImportOutcomes(ctx, catalog, "tester")
	require.NoError(t, err)

	m, _ := srv.seedMilestone(t)
	var act domain.Activity
	srv.decode(t, http.MethodPost, "/api/activities", map[string]any{
		"milestoneId": m.ID,
		"title":       "Read aloud",
		"outcomeIds":  []string{"CO.2", "CO.4"},
	}, http.StatusCreated, &act)

	var seen []domain.OutcomeCoverage
	cursor := ""
	pages := 0
	for {
		path := "/api/outcomes/coverage?subject=FRA&limit=2"
		if cursor != "" {
			path += "&cursor=" + cursor
		}
		var page engine.CoveragePage
		srv.decode(t, http.MethodGet, path, nil, http.StatusOK, &page)
		pages++
		assert.Equal(t, domain.CoverageSummary{Total: 5, Covered: 2, Percent: 40}, page.Summary)
		seen = append(seen, page.Items...)
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
		require.Less(t, pages, 10)
	}
	assert.Equal(t, 3, pages)
	require.Len(t, seen, len(codes))
	for i, item := range seen {
		assert.Equal(t, codes[i], item.Code)
		assert.Equal(t, item.Code == "CO.2" || item.Code == "CO.4", item.IsCovered)
	}
	assert.Equal(t, []domain.ActivityRef{{ID: act.ID, Title: "Read aloud"}}, seen[1].CoveredBy)

	var all engine.CoveragePage
	srv.decode(t, http.MethodGet, "/api/outcomes/coverage", nil, http.StatusOK, &all)
	assert.Len(t, all.Items, len(catalog))
	assert.Empty(t, all.NextCursor)

	var outcomes OutcomesResponse
	srv.decode(t, http.MethodGet, "/api/outcomes?subject=MATH", nil, http.StatusOK, &outcomes)
	require.Len(t, outcomes.Items, 1)
	assert.Equal(t, "MA.1", outcomes.Items[0].Code)

	srv.expectError(t, http.MethodPost, "/api/activities", map[string]any{
		"milestoneId": m.ID,
		"title":       "Ghost",
		"outcomeIds":  []string{"NOPE"},
	}, http.StatusUnprocessableEntity, "invalid_reference")
}

func TestSubjectLifecycle(t *testing.T) {
	srv := newOpenServer(t)
	m, acts := srv.seedMilestone(t, "A")
	srv.decode(t, http.MethodPut, fmt.Sprintf("/api/activities/%d/complete", acts[0].ID), CompletionRequest{Completed: true, Note: "done"}, http.StatusOK, nil)

	var subjects []engine.SubjectSummary
	srv.decode(t, http.MethodGet, "/api/subjects", nil, http.StatusOK, &subjects)
	require.Len(t, subjects, 1)
	assert.Equal(t, 100, subjects[0].Progress.Percent)

	var renamed domain.Subject
	srv.decode(t, http.MethodPut, fmt.Sprintf("/api/subjects/%d", m.SubjectID), map[string]any{"name": "Français"}, http.StatusOK, &renamed)
	assert.Equal(t, "Français", renamed.Name)

	res, body := srv.do(t, http.MethodDelete, fmt.Sprintf("/api/subjects/%d", m.SubjectID), nil)
	require.Equal(t, http.StatusNoContent, res.StatusCode, string(body))
	srv.expectError(t, http.MethodGet, fmt.Sprintf("/api/milestones/%d", m.ID), nil, http.StatusNotFound, "not_found")
	srv.expectError(t, http.MethodGet, fmt.Sprintf("/api/activities/%d", acts[0].ID), nil, http.StatusNotFound, "not_found")
}

func TestSuggestions(t *testing.T) {
	srv := newOpenServer(t)
	m, acts := srv.seedMilestone(t, "A", "B")
	srv.decode(t, http.MethodPut, fmt.Sprintf("/api/activities/%d/complete", acts[0].ID), CompletionRequest{Completed: true}, http.StatusOK, nil)

	var suggestions []domain.Suggestion
	srv.decode(t, http.MethodGet, fmt.Sprintf("/api/planner/suggestions?subjectId=%d", m.SubjectID), nil, http.StatusOK, &suggestions)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "B", suggestions[0].Activity.Title)

	srv.expectError(t, http.MethodGet, "/api/planner/suggestions?subjectId=777", nil, http.StatusNotFound, "not_found")
}

func TestEventsPaging(t *testing.T) {
	srv := newOpenServer(t)
	srv.seedMilestone(t, "A", "B")

	var first EventsPage
	srv.decode(t, http.MethodGet, "/api/events?limit=2", nil, http.StatusOK, &first)
	require.Len(t, first.Items, 2)
	require.NotEmpty(t, first.NextCursor)
	assert.Equal(t, "activity.created", first.Items[0].Type)
	assert.Greater(t, first.Items[0].ID, first.Items[1].ID)

	var rest EventsPage
	srv.decode(t, http.MethodGet, "/api/events?cursor="+first.NextCursor, nil, http.StatusOK, &rest)
	assert.Len(t, rest.Items, 2)
	assert.Empty(t, rest.NextCursor)
	assert.Less(t, rest.Items[0].ID, first.Items[1].ID)
}

func TestOpenAPIDocument(t *testing.T) {
	srv := newTestServer(t, AuthConfig{JWTSecret: testSecret})
	var doc map[string]any
	srv.decode(t, http.MethodGet, "/api/openapi.json", nil, http.StatusOK, &doc)
	paths, ok := doc["paths"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, paths, "/api/activities/reorder")
	assert.Contains(t, paths, "/api/outcomes/coverage")
}

func TestOpenAPIDocumentServedConcurrently(t *testing.T) {
	srv := newTestServer(t, AuthConfig{JWTSecret: testSecret})
	const n = 8
	bodies := make([][]byte, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := srv.Client().Get(srv.URL + "/api/openapi.json")
			if err != nil {
				errs[i] = err
				return
			}
			defer res.Body.Close()
			bodies[i], errs[i] = io.ReadAll(res.Body)
		}()
	}
	wg.Wait()

	for i := range n {
		require.NoError(t, errs[i])
		require.NotEmpty(t, bodies[i])
		assert.Equal(t, bodies[0], bodies[i])
	}
	var doc map[string]any
	require.NoError(t, json.Unmarshal(bodies[0], &doc))
	assert.Contains(t, doc, "components")
}
