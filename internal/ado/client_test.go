package ado

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientOrganizationForms(t *testing.T) {
	assert.Equal(t, "https://dev.azure.com/acme", NewClient("acme", "x").Organization())
	assert.Equal(t, "https://dev.azure.com/acme", NewClient("acme/", "x").Organization())
	assert.Equal(t, "https://dev.azure.com/acme", NewClient("https://dev.azure.com/acme", "x").Organization())
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "secret-pat", WithProject("Fabrikam"))
}

func TestQueryWorkItems(t *testing.T) {
	var wiqlBody map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// PAT goes out as basic auth with an empty username
		assert.Equal(t, "Basic OnNlY3JldC1wYXQ=", r.Header.Get("Authorization"))
		assert.Equal(t, "7.1", r.URL.Query().Get("api-version"))

		switch r.URL.Path {
		case "/Fabrikam/_apis/wit/wiql":
			require.Equal(t, http.MethodPost, r.Method)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&wiqlBody))
			w.Write([]byte(`{"workItems":[{"id":7},{"id":8},{"id":9}]}`))
		case "/Fabrikam/_apis/wit/workitems":
			assert.Equal(t, "7,8", r.URL.Query().Get("ids"))
			w.Write([]byte(`{"count":2,"value":[
				{"id":7,"fields":{"System.Title":"Crash on save","System.WorkItemType":"Bug","System.State":"Active",
					"Microsoft.VSTS.Common.Priority":2,"System.Tags":"perf; regression",
					"System.AssignedTo":{"id":"u1","displayName":"John Doe","uniqueName":"john@fabrikam.test"},
					"System.CreatedDate":"2024-01-08T09:30:00Z"}},
				{"id":8,"fields":{"System.Title":"Slow load","System.WorkItemType":"Bug","System.State":"New"}}
			]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	got, err := c.QueryWorkItems(context.Background(), "SELECT [System.Id] FROM WorkItems", "", 2)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"query": "SELECT [System.Id] FROM WorkItems"}, wiqlBody)
	require.Len(t, got.Items, 2)
	assert.Equal(t, 2, got.Total)

	first := got.Items[0]
	assert.Equal(t, 7, first.ID)
	assert.Equal(t, "Crash on save", first.Title)
	assert.Equal(t, "Bug", first.Type)
	assert.Equal(t, 2, first.Priority)
	assert.Equal(t, []string{"perf", "regression"}, first.Tags)
	require.NotNil(t, first.AssignedTo)
	assert.Equal(t, "John Doe", first.AssignedTo.DisplayName)
	assert.Equal(t, 2024, first.CreatedDate.Year())

	assert.Nil(t, got.Items[1].AssignedTo)
	assert.Nil(t, got.Items[1].Tags)
}

func TestQueryWorkItemsEmptyResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"workItems":[]}`))
	})
	got, err := c.QueryWorkItems(context.Background(), "SELECT [System.Id] FROM WorkItems", "", 0)
	require.NoError(t, err)
	assert.Empty(t, got.Items)
	assert.Zero(t, got.Total)
}

func TestCreateWorkItemPatchDocument(t *testing.T) {
	var (
		contentType string
		patch       []map[string]any
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Fabrikam/_apis/wit/workitems/$Bug", r.URL.Path)
		contentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&patch))
		w.Write([]byte(`{"id":42,"fields":{"System.Title":"New bug","System.WorkItemType":"Bug","System.State":"New"}}`))
	})

	got, err := c.CreateWorkItem(context.Background(), "Bug", "New bug", map[string]any{
		"Microsoft.VSTS.Common.Priority": 1,
		"System.AreaPath":                "Fabrikam\\Web",
	}, "")
	require.NoError(t, err)
	assert.Equal(t, 42, got.ID)

	assert.Equal(t, "application/json-patch+json", contentType)
	require.Len(t, patch, 3)
	assert.Equal(t, "add", patch[0]["op"])
	assert.Equal(t, "/fields/System.Title", patch[0]["path"])
	// extra fields follow in sorted order
	assert.Equal(t, "/fields/Microsoft.VSTS.Common.Priority", patch[1]["path"])
	assert.Equal(t, "/fields/System.AreaPath", patch[2]["path"])
}

func TestUpdateWorkItemUsesReplace(t *testing.T) {
	var patch []map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/Fabrikam/_apis/wit/workitems/42", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&patch))
		w.Write([]byte(`{"id":42,"fields":{"System.State":"Resolved"}}`))
	})

	got, err := c.UpdateWorkItem(context.Background(), 42, map[string]any{"System.State": "Resolved"}, "")
	require.NoError(t, err)
	assert.Equal(t, "Resolved", got.State)
	require.Len(t, patch, 1)
	assert.Equal(t, "replace", patch[0]["op"])

	_, err = c.UpdateWorkItem(context.Background(), 42, nil, "")
	assert.Error(t, err)
}

func TestStatusErrorMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
	}
	for _, tc := range cases {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		})
		_, err := c.GetWorkItem(context.Background(), 1, "")
		assert.ErrorIs(t, err, tc.want, "status %d", tc.status)
	}

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad wiql", http.StatusBadRequest)
	})
	_, err := c.QueryWorkItems(context.Background(), "nonsense", "", 0)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, apiErr.Body, "bad wiql")
}

func TestNoProject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()
	c := NewClient(srv.URL, "x") // no default project
	_, err := c.GetWorkItem(context.Background(), 1, "")
	assert.ErrorIs(t, err, ErrNoProject)
}

func TestListProjectsCaches(t *testing.T) {
	hits := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`{"count":1,"value":[{"id":"p1","name":"Fabrikam"}]}`))
	})

	for i := 0; i < 3; i++ {
		got, err := c.ListProjects(context.Background())
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Fabrikam", got[0].Name)
	}
	assert.Equal(t, 1, hits)

	n, err := c.TestConnection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, hits)
}
