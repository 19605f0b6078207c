package fields

import "github.com/mdalton/quarry/internal/intent"

// Canonical references used across packages. Extractors never spell
// these out; they go through Resolve or use these shared constants.
const (
	RefID           intent.FieldRef = "System.Id"
	RefTitle        intent.FieldRef = "System.Title"
	RefDescription  intent.FieldRef = "System.Description"
	RefState        intent.FieldRef = "System.State"
	RefWorkItemType intent.FieldRef = "System.WorkItemType"
	RefAssignedTo   intent.FieldRef = "System.AssignedTo"
	RefCreatedBy    intent.FieldRef = "System.CreatedBy"
	RefCreatedDate  intent.FieldRef = "System.CreatedDate"
	RefChangedDate  intent.FieldRef = "System.ChangedDate"
	RefClosedDate   intent.FieldRef = "Microsoft.VSTS.Common.ClosedDate"
	RefResolvedDate intent.FieldRef = "Microsoft.VSTS.Common.ResolvedDate"
	RefTags         intent.FieldRef = "System.Tags"
	RefAreaPath     intent.FieldRef = "System.AreaPath"
	RefIteration    intent.FieldRef = "System.IterationPath"
	RefPriority     intent.FieldRef = "Microsoft.VSTS.Common.Priority"
	RefSeverity     intent.FieldRef = "Microsoft.VSTS.Common.Severity"
	RefStoryPoints  intent.FieldRef = "Microsoft.VSTS.Scheduling.StoryPoints"
	RefEffort       intent.FieldRef = "Microsoft.VSTS.Scheduling.Effort"
)

// priorityEnum maps textual levels and bare ordinals to the priority
// ordinal. "high priority" and "priority 2" land on the same literal.
func priorityEnum() map[string]intent.Literal {
	return map[string]intent.Literal{
		"critical": intent.Int(1),
		"high":     intent.Int(2),
		"medium":   intent.Int(3),
		"low":      intent.Int(4),
		"1":        intent.Int(1),
		"2":        intent.Int(2),
		"3":        intent.Int(3),
		"4":        intent.Int(4),
	}
}

// severityEnum maps textual levels to the service's severity strings.
func severityEnum() map[string]intent.Literal {
	return map[string]intent.Literal{
		"critical": intent.String("1 - Critical"),
		"high":     intent.String("2 - High"),
		"medium":   intent.String("3 - Medium"),
		"low":      intent.String("4 - Low"),
		"1":        intent.String("1 - Critical"),
		"2":        intent.String("2 - High"),
		"3":        intent.String("3 - Medium"),
		"4":        intent.String("4 - Low"),
	}
}

// DefaultRows is the built-in field table: the system fields plus the
// common Microsoft.VSTS fields, with type-scoped aliases for fields
// that only exist on particular work-item types.
func DefaultRows() []Mapping {
	bug := []intent.WorkItemType{intent.TypeBug}
	task := []intent.WorkItemType{intent.TypeTask}
	story := []intent.WorkItemType{intent.TypeUserStory}
	portfolio := []intent.WorkItemType{intent.TypeFeature, intent.TypeEpic}
	testCase := []intent.WorkItemType{intent.TypeTestCase}

	return []Mapping{
		{Alias: "id", Ref: RefID, Kind: KindInt},
		{Alias: "title", Ref: RefTitle, Kind: KindString},
		{Alias: "description", Ref: RefDescription, Kind: KindString},
		{Alias: "state", Ref: RefState, Kind: KindString},
		{Alias: "status", Ref: RefState, Kind: KindString},
		{Alias: "type", Ref: RefWorkItemType, Kind: KindString},
		{Alias: "work item type", Ref: RefWorkItemType, Kind: KindString},
		{Alias: "assigned to", Ref: RefAssignedTo, Kind: KindString},
		{Alias: "assignee", Ref: RefAssignedTo, Kind: KindString},
		{Alias: "owner", Ref: RefAssignedTo, Kind: KindString},
		{Alias: "created by", Ref: RefCreatedBy, Kind: KindString},
		{Alias: "author", Ref: RefCreatedBy, Kind: KindString},
		{Alias: "created", Ref: RefCreatedDate, Kind: KindDate},
		{Alias: "created date", Ref: RefCreatedDate, Kind: KindDate},
		{Alias: "changed", Ref: RefChangedDate, Kind: KindDate},
		{Alias: "changed date", Ref: RefChangedDate, Kind: KindDate},
		{Alias: "updated", Ref: RefChangedDate, Kind: KindDate},
		{Alias: "modified", Ref: RefChangedDate, Kind: KindDate},
		{Alias: "closed", Ref: RefClosedDate, Kind: KindDate},
		{Alias: "closed date", Ref: RefClosedDate, Kind: KindDate},
		{Alias: "resolved", Ref: RefResolvedDate, Kind: KindDate},
		{Alias: "resolved date", Ref: RefResolvedDate, Kind: KindDate},
		{Alias: "tags", Ref: RefTags, Kind: KindString},
		{Alias: "tag", Ref: RefTags, Kind: KindString},
		{Alias: "area", Ref: RefAreaPath, Kind: KindString},
		{Alias: "area path", Ref: RefAreaPath, Kind: KindString},
		{Alias: "iteration", Ref: RefIteration, Kind: KindString},
		{Alias: "iteration path", Ref: RefIteration, Kind: KindString},
		{Alias: "sprint", Ref: RefIteration, Kind: KindString},

		{Alias: "priority", Ref: RefPriority, Kind: KindEnum, Enum: priorityEnum()},
		{Alias: "severity", Ref: RefSeverity, Kind: KindEnum, Enum: severityEnum(), Types: bug},
		{Alias: "risk", Ref: "Microsoft.VSTS.Common.Risk", Kind: KindString, Types: story},
		{Alias: "value area", Ref: "Microsoft.VSTS.Common.ValueArea", Kind: KindString},
		{Alias: "business value", Ref: "Microsoft.VSTS.Common.BusinessValue", Kind: KindInt},
		{Alias: "stack rank", Ref: "Microsoft.VSTS.Common.StackRank", Kind: KindInt},
		{Alias: "acceptance criteria", Ref: "Microsoft.VSTS.Common.AcceptanceCriteria", Kind: KindString, Types: story},
		{Alias: "activity", Ref: "Microsoft.VSTS.Common.Activity", Kind: KindString, Types: task},
		{Alias: "resolution", Ref: "Microsoft.VSTS.Common.Resolution", Kind: KindString},

		{Alias: "story points", Ref: RefStoryPoints, Kind: KindInt, Types: story},
		{Alias: "points", Ref: RefStoryPoints, Kind: KindInt, Types: story},
		{Alias: "effort", Ref: RefEffort, Kind: KindInt, Types: portfolio},
		{Alias: "remaining work", Ref: "Microsoft.VSTS.Scheduling.RemainingWork", Kind: KindInt, Types: task},
		{Alias: "completed work", Ref: "Microsoft.VSTS.Scheduling.CompletedWork", Kind: KindInt, Types: task},
		{Alias: "original estimate", Ref: "Microsoft.VSTS.Scheduling.OriginalEstimate", Kind: KindInt, Types: task},
		{Alias: "start date", Ref: "Microsoft.VSTS.Scheduling.StartDate", Kind: KindDate},
		{Alias: "finish date", Ref: "Microsoft.VSTS.Scheduling.FinishDate", Kind: KindDate},
		{Alias: "due date", Ref: "Microsoft.VSTS.Scheduling.DueDate", Kind: KindDate},
		{Alias: "target date", Ref: "Microsoft.VSTS.Scheduling.TargetDate", Kind: KindDate, Types: portfolio},

		{Alias: "repro steps", Ref: "Microsoft.VSTS.TCM.ReproSteps", Kind: KindString, Types: bug},
		{Alias: "system info", Ref: "Microsoft.VSTS.TCM.SystemInfo", Kind: KindString, Types: bug},
		{Alias: "found in", Ref: "Microsoft.VSTS.Build.FoundIn", Kind: KindString, Types: bug},
		{Alias: "integration build", Ref: "Microsoft.VSTS.Build.IntegrationBuild", Kind: KindString, Types: bug},
		{Alias: "steps", Ref: "Microsoft.VSTS.TCM.Steps", Kind: KindString, Types: testCase},
		{Alias: "automated test name", Ref: "Microsoft.VSTS.TCM.AutomatedTestName", Kind: KindString, Types: testCase},
	}
}

// Default builds the built-in table. The row set is static, so a build
// failure here is a programming error.
func Default() *Table {
	t, err := NewTable(DefaultRows())
	if err != nil {
		panic("fields: default table invalid: " + err.Error())
	}
	return t
}
