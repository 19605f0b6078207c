package ado

import (
	"strings"
	"time"
)

// Project is an organization project.
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	State       string `json:"state,omitempty"`
	Visibility  string `json:"visibility,omitempty"`
}

// Team is a project team.
type Team struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ProjectID   string `json:"projectId,omitempty"`
}

// User is an identity reference as the service embeds it in work-item
// fields.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	UniqueName  string `json:"uniqueName"`
}

// WorkItem is a work item with the commonly used fields lifted out of
// the raw field map. Fields keeps everything the service returned, so
// callers can reach fields this struct does not name.
type WorkItem struct {
	ID            int
	Title         string
	Type          string
	State         string
	URL           string
	AssignedTo    *User
	CreatedBy     *User
	CreatedDate   time.Time
	ChangedDate   time.Time
	AreaPath      string
	IterationPath string
	Description   string
	Tags          []string
	Priority      int
	Severity      string
	StoryPoints   float64
	Effort        float64
	Fields        map[string]any
}

// QueryResult is the outcome of one executed query.
type QueryResult struct {
	Items   []WorkItem
	Total   int
	Query   string
	Elapsed time.Duration
}

// wireWorkItem is the service's JSON shape for a single work item.
type wireWorkItem struct {
	ID     int            `json:"id"`
	URL    string         `json:"url"`
	Fields map[string]any `json:"fields"`
}

func (w wireWorkItem) toWorkItem() WorkItem {
	f := w.Fields
	return WorkItem{
		ID:            w.ID,
		URL:           w.URL,
		Title:         stringField(f, "System.Title"),
		Type:          stringField(f, "System.WorkItemType"),
		State:         stringField(f, "System.State"),
		AssignedTo:    userField(f, "System.AssignedTo"),
		CreatedBy:     userField(f, "System.CreatedBy"),
		CreatedDate:   dateField(f, "System.CreatedDate"),
		ChangedDate:   dateField(f, "System.ChangedDate"),
		AreaPath:      stringField(f, "System.AreaPath"),
		IterationPath: stringField(f, "System.IterationPath"),
		Description:   stringField(f, "System.Description"),
		Tags:          tagsField(f, "System.Tags"),
		Priority:      intField(f, "Microsoft.VSTS.Common.Priority"),
		Severity:      stringField(f, "Microsoft.VSTS.Common.Severity"),
		StoryPoints:   floatField(f, "Microsoft.VSTS.Scheduling.StoryPoints"),
		Effort:        floatField(f, "Microsoft.VSTS.Scheduling.Effort"),
		Fields:        f,
	}
}

func stringField(fields map[string]any, name string) string {
	s, _ := fields[name].(string)
	return s
}

func intField(fields map[string]any, name string) int {
	// JSON numbers decode as float64
	n, _ := fields[name].(float64)
	return int(n)
}

func floatField(fields map[string]any, name string) float64 {
	n, _ := fields[name].(float64)
	return n
}

func userField(fields map[string]any, name string) *User {
	m, ok := fields[name].(map[string]any)
	if !ok {
		return nil
	}
	u := &User{}
	u.ID, _ = m["id"].(string)
	u.DisplayName, _ = m["displayName"].(string)
	u.UniqueName, _ = m["uniqueName"].(string)
	return u
}

func dateField(fields map[string]any, name string) time.Time {
	s, ok := fields[name].(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// tagsField splits the service's semicolon-joined tag string.
func tagsField(fields map[string]any, name string) []string {
	s, ok := fields[name].(string)
	if !ok || s == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(s, ";") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
