package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and captures output.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errBuf bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errBuf.String(), err
}

func TestRootRejectsUnknownFormat(t *testing.T) {
	_, _, err := execute(t, "--format", "xml", "convert", "bugs")
	assert.Error(t, err)
}

func TestConvertCommand(t *testing.T) {
	stdout, stderr, err := execute(t,
		"convert", "--now", "2024-01-10", "list", "tasks", "created", "this", "week")
	require.NoError(t, err)
	assert.Contains(t, stdout, "[System.WorkItemType] = 'Task'")
	assert.Contains(t, stdout, "[System.CreatedDate] >= '2024-01-08'")
	assert.Empty(t, stderr)
}

func TestConvertCommandJSON(t *testing.T) {
	stdout, _, err := execute(t,
		"--format", "json", "convert", "--now", "2024-01-10", "bugs assigned to me")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)

	data := resp.Data.(map[string]any)
	assert.Contains(t, data["wiql"], "[System.AssignedTo] = '@Me'")
}

func TestConvertDiagnosticsGoToStderr(t *testing.T) {
	stdout, stderr, err := execute(t, "convert", "show items with frobnicate high")
	require.NoError(t, err)
	assert.Contains(t, stderr, "warning: unknown field")
	assert.Contains(t, stdout, "CONTAINS 'frobnicate high'")
	assert.NotContains(t, stdout, "warning")
}

func TestConvertBadNowFlag(t *testing.T) {
	_, _, err := execute(t, "convert", "--now", "yesterday-ish", "bugs")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestFieldsCommand(t *testing.T) {
	stdout, _, err := execute(t, "fields")
	require.NoError(t, err)
	assert.Contains(t, stdout, "System.AssignedTo")
	assert.Contains(t, stdout, "assignee")

	stdout, _, err = execute(t, "fields", "--for-ref", "System.AssignedTo")
	require.NoError(t, err)
	assert.Contains(t, stdout, "assigned to")
	assert.Contains(t, stdout, "owner")

	_, _, err = execute(t, "fields", "--for-ref", "No.Such.Field")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestSuggestCommand(t *testing.T) {
	stdout, _, err := execute(t, "suggest", "high", "pr")
	require.NoError(t, err)
	assert.Contains(t, stdout, "high priority bugs")

	stdout, _, err = execute(t, "suggest")
	require.NoError(t, err)
	assert.Contains(t, stdout, "bugs assigned to me")
}

func TestSaveAndSavedLifecycle(t *testing.T) {
	db := filepath.Join(t.TempDir(), "queries.db")

	stdout, _, err := execute(t, "save", "--db", db, "my-bugs", "bugs", "assigned", "to", "me")
	require.NoError(t, err)
	assert.Contains(t, stdout, `Saved "my-bugs".`)

	stdout, _, err = execute(t, "saved", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "my-bugs")
	assert.Contains(t, stdout, "bugs assigned to me")

	stdout, _, err = execute(t, "saved", "show", "--db", db, "my-bugs")
	require.NoError(t, err)
	assert.Contains(t, stdout, "[System.AssignedTo] = '@Me'")

	_, _, err = execute(t, "saved", "delete", "--db", db, "my-bugs")
	require.NoError(t, err)

	_, _, err = execute(t, "saved", "show", "--db", db, "my-bugs")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func newQueryServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/Fabrikam/_apis/wit/wiql":
			w.Write([]byte(`{"workItems":[{"id":7}]}`))
		case "/Fabrikam/_apis/wit/workitems":
			w.Write([]byte(`{"count":1,"value":[{"id":7,"fields":{
				"System.Title":"Crash on save","System.WorkItemType":"Bug","System.State":"Active",
				"System.AssignedTo":{"displayName":"John Doe"}}}]}`))
		case "/_apis/projects":
			w.Write([]byte(`{"count":1,"value":[{"id":"p1","name":"Fabrikam","state":"wellFormed"}]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	t.Cleanup(srv.Close)

	t.Setenv("QUARRY_ORG", srv.URL)
	t.Setenv("QUARRY_PAT", "test-pat")
	t.Setenv("QUARRY_PROJECT", "Fabrikam")
	return srv
}

func TestRunCommand(t *testing.T) {
	newQueryServer(t)

	stdout, _, err := execute(t, "run", "active", "bugs")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Crash on save")
	assert.Contains(t, stdout, "John Doe")
}

func TestRunCommandNeedsCredentials(t *testing.T) {
	t.Setenv("QUARRY_ORG", "")
	t.Setenv("QUARRY_PAT", "")
	_, _, err := execute(t, "run", "bugs")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSavedRunCommand(t *testing.T) {
	newQueryServer(t)
	db := filepath.Join(t.TempDir(), "queries.db")

	_, _, err := execute(t, "save", "--db", db, "active-bugs", "active", "bugs")
	require.NoError(t, err)

	stdout, _, err := execute(t, "saved", "run", "--db", db, "active-bugs")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Crash on save")
}

func TestProjectsCommand(t *testing.T) {
	newQueryServer(t)

	stdout, _, err := execute(t, "projects")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Fabrikam")

	stdout, _, err = execute(t, "projects", "--check")
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 projects")
}
