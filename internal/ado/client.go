// Package ado is a minimal Azure DevOps REST client covering the
// operations the query tools need: project and team listing, WIQL
// query execution, and work-item CRUD.
//
// Compiled WIQL from the converter is forwarded verbatim; result
// limits are applied here, after the query, never spliced into the
// query text.
package ado

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

const apiVersion = "7.1"

// DefaultTop caps query results when the caller does not say.
const DefaultTop = 100

var (
	ErrUnauthorized = errors.New("authentication failed, check the personal access token")
	ErrForbidden    = errors.New("access denied, check the token's scopes")
	ErrNotFound     = errors.New("resource not found")
	ErrNoProject    = errors.New("no project specified and the client has no default")
)

// APIError is any other non-success response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api request failed with status %d: %s", e.Status, e.Body)
}

// Client talks to one organization. Safe for concurrent use.
type Client struct {
	base    string
	pat     string
	project string
	http    *http.Client
	limiter *rate.Limiter
	cache   *gocache.Cache
}

// Option configures a Client.
type Option func(*Client)

// WithProject sets the default project for calls that take none.
func WithProject(project string) Option {
	return func(c *Client) { c.project = project }
}

// WithHTTPClient substitutes the transport, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), int(rps)+1) }
}

// NewClient builds a client for an organization, given either a bare
// organization name or a full https URL, and a personal access token.
func NewClient(organization, pat string, opts ...Option) *Client {
	org := strings.TrimRight(organization, "/")
	if !strings.Contains(org, "://") {
		org = "https://dev.azure.com/" + org
	}
	c := &Client{
		base:    org,
		pat:     pat,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(10), 15),
		cache:   gocache.New(5*time.Minute, 10*time.Minute),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Organization returns the resolved organization URL.
func (c *Client) Organization() string { return c.base }

func (c *Client) resolveProject(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if c.project != "" {
		return c.project, nil
	}
	return "", ErrNoProject
}

// apiURL builds an _apis URL, project-scoped when project is set.
func (c *Client) apiURL(project, path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api-version", apiVersion)

	var b strings.Builder
	b.WriteString(c.base)
	if project != "" {
		b.WriteString("/")
		b.WriteString(url.PathEscape(project))
	}
	b.WriteString("/_apis/")
	b.WriteString(path)
	b.WriteString("?")
	b.WriteString(query.Encode())
	return b.String()
}

func (c *Client) do(ctx context.Context, method, rawURL, contentType string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return err
	}
	auth := base64.StdEncoding.EncodeToString([]byte(":" + c.pat))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		return ErrForbidden
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 400:
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(text))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type listEnvelope[T any] struct {
	Count int `json:"count"`
	Value []T `json:"value"`
}

// ListProjects returns the organization's projects, cached briefly
// since project sets change rarely and every suggestion round trips
// here otherwise.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	if hit, ok := c.cache.Get("projects"); ok {
		return hit.([]Project), nil
	}
	var env listEnvelope[Project]
	if err := c.do(ctx, http.MethodGet, c.apiURL("", "projects", nil), "", nil, &env); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	c.cache.SetDefault("projects", env.Value)
	return env.Value, nil
}

// GetProject fetches one project by name.
func (c *Client) GetProject(ctx context.Context, name string) (Project, error) {
	var p Project
	u := c.apiURL("", "projects/"+url.PathEscape(name), nil)
	if err := c.do(ctx, http.MethodGet, u, "", nil, &p); err != nil {
		return Project{}, fmt.Errorf("get project %q: %w", name, err)
	}
	return p, nil
}

// GetTeams returns the teams of a project, cached like ListProjects.
func (c *Client) GetTeams(ctx context.Context, project string) ([]Team, error) {
	project, err := c.resolveProject(project)
	if err != nil {
		return nil, err
	}
	key := "teams/" + project
	if hit, ok := c.cache.Get(key); ok {
		return hit.([]Team), nil
	}
	var env listEnvelope[Team]
	u := c.apiURL("", "projects/"+url.PathEscape(project)+"/teams", nil)
	if err := c.do(ctx, http.MethodGet, u, "", nil, &env); err != nil {
		return nil, fmt.Errorf("get teams for %q: %w", project, err)
	}
	c.cache.SetDefault(key, env.Value)
	return env.Value, nil
}

// GetWorkItem fetches one work item by id.
func (c *Client) GetWorkItem(ctx context.Context, id int, project string) (WorkItem, error) {
	project, err := c.resolveProject(project)
	if err != nil {
		return WorkItem{}, err
	}
	var wire wireWorkItem
	u := c.apiURL(project, "wit/workitems/"+strconv.Itoa(id), nil)
	if err := c.do(ctx, http.MethodGet, u, "", nil, &wire); err != nil {
		return WorkItem{}, fmt.Errorf("get work item %d: %w", id, err)
	}
	return wire.toWorkItem(), nil
}

// GetWorkItems batch-fetches work items by id, preserving id order.
func (c *Client) GetWorkItems(ctx context.Context, ids []int, project string) ([]WorkItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	project, err := c.resolveProject(project)
	if err != nil {
		return nil, err
	}

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	query := url.Values{"ids": []string{strings.Join(parts, ",")}}

	var env listEnvelope[wireWorkItem]
	u := c.apiURL(project, "wit/workitems", query)
	if err := c.do(ctx, http.MethodGet, u, "", nil, &env); err != nil {
		return nil, fmt.Errorf("get work items: %w", err)
	}
	items := make([]WorkItem, len(env.Value))
	for i, w := range env.Value {
		items[i] = w.toWorkItem()
	}
	return items, nil
}

// QueryWorkItems executes a WIQL query and fetches the full work items
// behind the returned references. top caps the result count after the
// query runs; zero means DefaultTop.
func (c *Client) QueryWorkItems(ctx context.Context, wiql, project string, top int) (QueryResult, error) {
	project, err := c.resolveProject(project)
	if err != nil {
		return QueryResult{}, err
	}
	if top <= 0 {
		top = DefaultTop
	}
	start := time.Now()

	var queryResp struct {
		WorkItems []struct {
			ID int `json:"id"`
		} `json:"workItems"`
	}
	u := c.apiURL(project, "wit/wiql", nil)
	payload := map[string]string{"query": wiql}
	if err := c.do(ctx, http.MethodPost, u, "application/json", payload, &queryResp); err != nil {
		return QueryResult{}, fmt.Errorf("execute query: %w", err)
	}

	refs := queryResp.WorkItems
	if len(refs) > top {
		refs = refs[:top]
	}
	if len(refs) == 0 {
		return QueryResult{Query: wiql, Elapsed: time.Since(start)}, nil
	}

	ids := make([]int, len(refs))
	for i, ref := range refs {
		ids[i] = ref.ID
	}
	items, err := c.GetWorkItems(ctx, ids, project)
	if err != nil {
		return QueryResult{}, err
	}
	return QueryResult{
		Items:   items,
		Total:   len(items),
		Query:   wiql,
		Elapsed: time.Since(start),
	}, nil
}

// patchOp is one JSON-patch operation; work-item writes use the
// json-patch media type.
type patchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

const patchContentType = "application/json-patch+json"

func fieldPath(name string) string {
	if strings.HasPrefix(name, "/fields/") {
		return name
	}
	return "/fields/" + name
}

// CreateWorkItem creates a work item of the given type with a title
// and optional extra fields, keyed by canonical reference.
func (c *Client) CreateWorkItem(ctx context.Context, workItemType, title string, extra map[string]any, project string) (WorkItem, error) {
	project, err := c.resolveProject(project)
	if err != nil {
		return WorkItem{}, err
	}

	patch := []patchOp{{Op: "add", Path: "/fields/System.Title", Value: title}}
	for _, name := range sortedKeys(extra) {
		patch = append(patch, patchOp{Op: "add", Path: fieldPath(name), Value: extra[name]})
	}

	var wire wireWorkItem
	u := c.apiURL(project, "wit/workitems/$"+url.PathEscape(workItemType), nil)
	if err := c.do(ctx, http.MethodPost, u, patchContentType, patch, &wire); err != nil {
		return WorkItem{}, fmt.Errorf("create %s: %w", workItemType, err)
	}
	return wire.toWorkItem(), nil
}

// UpdateWorkItem replaces field values on an existing work item.
func (c *Client) UpdateWorkItem(ctx context.Context, id int, updates map[string]any, project string) (WorkItem, error) {
	project, err := c.resolveProject(project)
	if err != nil {
		return WorkItem{}, err
	}
	if len(updates) == 0 {
		return WorkItem{}, errors.New("no fields to update")
	}

	var patch []patchOp
	for _, name := range sortedKeys(updates) {
		patch = append(patch, patchOp{Op: "replace", Path: fieldPath(name), Value: updates[name]})
	}

	var wire wireWorkItem
	u := c.apiURL(project, "wit/workitems/"+strconv.Itoa(id), nil)
	if err := c.do(ctx, http.MethodPatch, u, patchContentType, patch, &wire); err != nil {
		return WorkItem{}, fmt.Errorf("update work item %d: %w", id, err)
	}
	return wire.toWorkItem(), nil
}

// DeleteWorkItem moves a work item to the recycle bin.
func (c *Client) DeleteWorkItem(ctx context.Context, id int, project string) error {
	project, err := c.resolveProject(project)
	if err != nil {
		return err
	}
	u := c.apiURL(project, "wit/workitems/"+strconv.Itoa(id), nil)
	if err := c.do(ctx, http.MethodDelete, u, "", nil, nil); err != nil {
		return fmt.Errorf("delete work item %d: %w", id, err)
	}
	return nil
}

// TestConnection verifies the organization URL and token by listing
// projects.
func (c *Client) TestConnection(ctx context.Context) (int, error) {
	projects, err := c.ListProjects(ctx)
	if err != nil {
		return 0, fmt.Errorf("connect to %s: %w", c.base, err)
	}
	return len(projects), nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// deterministic patch documents make request logs diffable
	sort.Strings(keys)
	return keys
}
