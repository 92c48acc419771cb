// Package teachsdk is the Go client of the Teaching Engine HTTP API. Reads go
// through a Cache that mutations invalidate; Board layers optimistic
// reordering and completion on top of one milestone's activity list.
package teachsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Client is a Teaching Engine HTTP API client.
type Client struct {
	// BaseURL includes the API base path, e.g. http://127.0.0.1:8080/api.
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	Cache      *Cache
	// MaxRetries bounds retries of reads that failed transiently. Mutations
	// are never retried.
	MaxRetries    uint
	RetryInterval time.Duration
	// OnUnauthorized runs after a 401 response, once the token has been
	// cleared and the cache reset.
	OnUnauthorized func()

	mu    sync.Mutex
	token string
}

// New creates a client with sane defaults.
func New(baseURL, token string) *Client {
	return &Client{
		BaseURL:       baseURL,
		Timeout:       10 * time.Second,
		Cache:         NewCache(DefaultCacheSize),
		MaxRetries:    3,
		RetryInterval: 200 * time.Millisecond,
		token:         token,
	}
}

func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// EndSession clears credentials and every cached view.
func (c *Client) EndSession() {
	c.SetToken("")
	if c.Cache != nil {
		c.Cache.Reset()
	}
}

func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "health", nil, nil)
}

// Subjects

func (c *Client) ListSubjects(ctx context.Context) ([]Subject, error) {
	return load(ctx, c.Cache, Key{Kind: CacheSubjects}, func(ctx context.Context) ([]Subject, error) {
		var resp []Subject
		err := c.get(ctx, "subjects", nil, &resp)
		return resp, err
	})
}

func (c *Client) CreateSubject(ctx context.Context, name string) (Subject, error) {
	var resp Subject
	if err := c.send(ctx, http.MethodPost, "subjects", map[string]any{"name": name}, &resp); err != nil {
		return Subject{}, err
	}
	c.invalidateKinds(CacheSubjects)
	return resp, nil
}

func (c *Client) GetSubject(ctx context.Context, id int64) (Subject, error) {
	var resp Subject
	err := c.get(ctx, fmt.Sprintf("subjects/%d", id), nil, &resp)
	return resp, err
}

func (c *Client) RenameSubject(ctx context.Context, id int64, name string) (Subject, error) {
	var resp Subject
	if err := c.send(ctx, http.MethodPut, fmt.Sprintf("subjects/%d", id), map[string]any{"name": name}, &resp); err != nil {
		return Subject{}, err
	}
	c.invalidateKinds(CacheSubjects)
	return resp, nil
}

// DeleteSubject removes the subject with its milestones and activities.
func (c *Client) DeleteSubject(ctx context.Context, id int64) error {
	if err := c.send(ctx, http.MethodDelete, fmt.Sprintf("subjects/%d", id), nil, nil); err != nil {
		return err
	}
	c.invalidatePlanning()
	return nil
}

func (c *Client) SubjectProgress(ctx context.Context, id int64) (SubjectProgress, error) {
	return load(ctx, c.Cache, idKey(CacheSubjectProgress, id), func(ctx context.Context) (SubjectProgress, error) {
		var resp SubjectProgress
		err := c.get(ctx, fmt.Sprintf("subjects/%d/progress", id), nil, &resp)
		return resp, err
	})
}

// Milestones

// ListMilestones lists milestones with progress. subjectID 0 lists all.
func (c *Client) ListMilestones(ctx context.Context, subjectID int64) ([]Milestone, error) {
	return load(ctx, c.Cache, idKey(CacheMilestones, subjectID), func(ctx context.Context) ([]Milestone, error) {
		q := url.Values{}
		if subjectID > 0 {
			q.Set("subjectId", strconv.FormatInt(subjectID, 10))
		}
		var resp []Milestone
		err := c.get(ctx, "milestones", q, &resp)
		return resp, err
	})
}

func (c *Client) CreateMilestone(ctx context.Context, in MilestoneInput) (Milestone, error) {
	var resp Milestone
	if err := c.send(ctx, http.MethodPost, "milestones", in, &resp); err != nil {
		return Milestone{}, err
	}
	c.invalidateKinds(CacheMilestones, CacheSubjects, CacheSubjectProgress, CacheSuggestions)
	return resp, nil
}

func (c *Client) GetMilestone(ctx context.Context, id int64) (Milestone, error) {
	var resp Milestone
	err := c.get(ctx, fmt.Sprintf("milestones/%d", id), nil, &resp)
	return resp, err
}

func (c *Client) UpdateMilestone(ctx context.Context, id int64, in MilestoneUpdate) (Milestone, error) {
	var resp Milestone
	if err := c.send(ctx, http.MethodPut, fmt.Sprintf("milestones/%d", id), in, &resp); err != nil {
		return Milestone{}, err
	}
	c.invalidateKinds(CacheMilestones, CacheSuggestions)
	return resp, nil
}

func (c *Client) DeleteMilestone(ctx context.Context, id int64) error {
	if err := c.send(ctx, http.MethodDelete, fmt.Sprintf("milestones/%d", id), nil, nil); err != nil {
		return err
	}
	c.invalidatePlanning()
	return nil
}

func (c *Client) MilestoneProgress(ctx context.Context, id int64) (MilestoneProgress, error) {
	return load(ctx, c.Cache, idKey(CacheMilestoneProgress, id), func(ctx context.Context) (MilestoneProgress, error) {
		var resp MilestoneProgress
		err := c.get(ctx, fmt.Sprintf("milestones/%d/progress", id), nil, &resp)
		return resp, err
	})
}

// Activities

// ListActivities returns the milestone's activities in stored order. The
// slice is shared with the cache and must not be modified.
func (c *Client) ListActivities(ctx context.Context, milestoneID int64) ([]Activity, error) {
	return load(ctx, c.Cache, idKey(CacheActivities, milestoneID), func(ctx context.Context) ([]Activity, error) {
		var resp []Activity
		err := c.get(ctx, fmt.Sprintf("milestones/%d/activities", milestoneID), nil, &resp)
		return resp, err
	})
}

func (c *Client) CreateActivity(ctx context.Context, in ActivityInput) (Activity, error) {
	var resp Activity
	if err := c.send(ctx, http.MethodPost, "activities", in, &resp); err != nil {
		return Activity{}, err
	}
	c.afterActivityChange(resp.MilestoneID)
	return resp, nil
}

func (c *Client) GetActivity(ctx context.Context, id int64) (Activity, error) {
	var resp Activity
	err := c.get(ctx, fmt.Sprintf("activities/%d", id), nil, &resp)
	return resp, err
}

func (c *Client) UpdateActivity(ctx context.Context, id int64, in ActivityUpdate) (Activity, error) {
	var resp Activity
	if err := c.send(ctx, http.MethodPut, fmt.Sprintf("activities/%d", id), in, &resp); err != nil {
		return Activity{}, err
	}
	if in.MilestoneID != nil {
		// the source milestone is unknown here
		c.invalidateKinds(CacheActivities)
	}
	c.afterActivityChange(resp.MilestoneID)
	return resp, nil
}

func (c *Client) DeleteActivity(ctx context.Context, id int64) error {
	if err := c.send(ctx, http.MethodDelete, fmt.Sprintf("activities/%d", id), nil, nil); err != nil {
		return err
	}
	c.invalidateKinds(CacheActivities)
	c.afterActivityChange(0)
	return nil
}

// ReorderActivities submits the complete new order of a milestone and
// returns the order the server stored.
func (c *Client) ReorderActivities(ctx context.Context, milestoneID int64, activityIDs []int64) ([]Activity, error) {
	body := map[string]any{"milestoneId": milestoneID, "activityIds": activityIDs}
	var resp []Activity
	if err := c.send(ctx, http.MethodPatch, "activities/reorder", body, &resp); err != nil {
		return nil, err
	}
	c.invalidate(idKey(CacheActivities, milestoneID))
	c.invalidateKinds(CacheSuggestions)
	return resp, nil
}

// SetCompletion marks an activity complete or incomplete. The note is only
// recorded when completing.
func (c *Client) SetCompletion(ctx context.Context, id int64, completed bool, note string) (CompletionResult, error) {
	body := map[string]any{"completed": completed}
	if note != "" {
		body["note"] = note
	}
	var resp CompletionResult
	if err := c.send(ctx, http.MethodPut, fmt.Sprintf("activities/%d/complete", id), body, &resp); err != nil {
		return CompletionResult{}, err
	}
	m := resp.Activity.MilestoneID
	c.invalidate(idKey(CacheActivities, m), idKey(CacheMilestoneProgress, m))
	c.invalidateKinds(CacheSubjectProgress, CacheSubjects, CacheMilestones, CacheSuggestions)
	return resp, nil
}

// Outcomes

func (c *Client) ListOutcomes(ctx context.Context, f OutcomeFilter) ([]Outcome, error) {
	q := filterQuery(f)
	return load(ctx, c.Cache, Key{Kind: CacheOutcomes, Scope: q.Encode()}, func(ctx context.Context) ([]Outcome, error) {
		var resp struct {
			Items []Outcome `json:"items"`
		}
		err := c.get(ctx, "outcomes", q, &resp)
		return resp.Items, err
	})
}

// Coverage fetches one page of the coverage report. limit 0 asks for every
// matching outcome at once.
func (c *Client) Coverage(ctx context.Context, f OutcomeFilter, limit int, cursor string) (CoveragePage, error) {
	q := filterQuery(f)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	var resp CoveragePage
	err := c.get(ctx, "outcomes/coverage", q, &resp)
	return resp, err
}

// CoverageAll follows cursors until the filtered catalog is exhausted. The
// summary is the one reported with the last page.
func (c *Client) CoverageAll(ctx context.Context, f OutcomeFilter, pageSize int) (CoveragePage, error) {
	scope := filterQuery(f).Encode() + "|" + strconv.Itoa(pageSize)
	return load(ctx, c.Cache, Key{Kind: CacheCoverage, Scope: scope}, func(ctx context.Context) (CoveragePage, error) {
		var all CoveragePage
		all.Items = []OutcomeCoverage{}
		cursor := ""
		for {
			page, err := c.Coverage(ctx, f, pageSize, cursor)
			if err != nil {
				return CoveragePage{}, err
			}
			all.Items = append(all.Items, page.Items...)
			all.Summary = page.Summary
			if page.NextCursor == "" {
				return all, nil
			}
			if page.NextCursor == cursor {
				return CoveragePage{}, fmt.Errorf("coverage cursor %q did not advance", cursor)
			}
			cursor = page.NextCursor
		}
	})
}

// Planner and events

// Suggestions returns next activities to teach. subjectID 0 spans every
// subject; limit 0 uses the server default.
func (c *Client) Suggestions(ctx context.Context, subjectID int64, limit int) ([]Suggestion, error) {
	q := url.Values{}
	if subjectID > 0 {
		q.Set("subjectId", strconv.FormatInt(subjectID, 10))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return load(ctx, c.Cache, Key{Kind: CacheSuggestions, Scope: q.Encode()}, func(ctx context.Context) ([]Suggestion, error) {
		var resp []Suggestion
		err := c.get(ctx, "planner/suggestions", q, &resp)
		return resp, err
	})
}

// EventsPage returns a paginated event listing, newest first.
func (c *Client) EventsPage(ctx context.Context, limit int, cursor string) (PaginatedEvents, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	var resp PaginatedEvents
	err := c.get(ctx, "events", q, &resp)
	return resp, err
}

func filterQuery(f OutcomeFilter) url.Values {
	q := url.Values{}
	if f.Subject != "" {
		q.Set("subject", f.Subject)
	}
	if f.Grade != nil {
		q.Set("grade", strconv.Itoa(*f.Grade))
	}
	if f.Domain != "" {
		q.Set("domain", f.Domain)
	}
	return q
}

func (c *Client) invalidate(keys ...Key) {
	if c.Cache != nil {
		c.Cache.Invalidate(keys...)
	}
}

func (c *Client) invalidateKinds(kinds ...CacheKind) {
	if c.Cache != nil {
		c.Cache.InvalidateKinds(kinds...)
	}
}

func (c *Client) afterActivityChange(milestoneID int64) {
	if milestoneID > 0 {
		c.invalidate(idKey(CacheActivities, milestoneID), idKey(CacheMilestoneProgress, milestoneID))
	} else {
		c.invalidateKinds(CacheMilestoneProgress)
	}
	c.invalidateKinds(CacheSubjectProgress, CacheSubjects, CacheMilestones, CacheSuggestions, CacheCoverage)
}

// invalidatePlanning drops everything except the outcome catalog.
func (c *Client) invalidatePlanning() {
	c.invalidateKinds(CacheSubjects, CacheSubjectProgress, CacheMilestones, CacheMilestoneProgress,
		CacheActivities, CacheCoverage, CacheSuggestions)
}

// get retries transient failures with exponential backoff.
func (c *Client) get(ctx context.Context, endpoint string, q url.Values, out any) error {
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	b := backoff.NewExponentialBackOff()
	if c.RetryInterval > 0 {
		b.InitialInterval = c.RetryInterval
	}
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := c.do(ctx, http.MethodGet, endpoint, nil, out)
		if err != nil && !IsTransient(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(c.MaxRetries+1))
	return err
}

func (c *Client) send(ctx context.Context, method, endpoint string, body, out any) error {
	return c.do(ctx, method, endpoint, body, out)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &APIError{Kind: KindTransient, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		apiErr := decodeAPIError(resp.StatusCode, b)
		if apiErr.Kind == KindUnauthorized {
			c.unauthorized()
		}
		return apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s %s: %w", method, endpoint, err)
	}
	return nil
}

func (c *Client) unauthorized() {
	c.EndSession()
	if c.OnUnauthorized != nil {
		c.OnUnauthorized()
	}
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
