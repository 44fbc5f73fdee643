package services

import (
	"fmt"
	"strings"
)

// Canonical usage operations. Callers speak their own vocabulary (see
// canonicalActions); everything inside the usage service runs on these.
const (
	OpCreateProject    = "create_project"
	OpInviteMember     = "invite_member"
	OpCreateTeam       = "create_team"
	OpCreateAIWorkflow = "create_ai_workflow"
	OpAIWorkflowRuns   = "ai_workflow_runs"
	OpAIChat           = "ai_chat"
	OpAITask           = "ai_task"
	OpStorageUpload    = "storage_upload"
	OpStorageDelete    = "storage_delete"
)

// usageMetric binds an operation to the subscription counter it moves.
// A nil DefaultDelta means the caller must supply an explicit delta (storage
// operations, measured in GB).
type usageMetric struct {
	Column       string
	DefaultDelta *float64
}

func defaultDelta(v float64) *float64 { return &v }

// actionMetrics is the metric registry. Operations absent from this table
// are never limited or recorded; unknown actions are a permissive no-op.
var actionMetrics = map[string]usageMetric{
	OpCreateProject:    {Column: "current_projects", DefaultDelta: defaultDelta(1)},
	OpInviteMember:     {Column: "current_members", DefaultDelta: defaultDelta(1)},
	OpCreateTeam:       {Column: "current_teams", DefaultDelta: defaultDelta(1)},
	OpCreateAIWorkflow: {Column: "current_ai_workflow", DefaultDelta: defaultDelta(1)},
	OpAIWorkflowRuns:   {Column: "current_ai_workflow", DefaultDelta: defaultDelta(1)},
	OpAIChat:           {Column: "current_ai_chat", DefaultDelta: defaultDelta(1)},
	OpAITask:           {Column: "current_ai_task", DefaultDelta: defaultDelta(1)},
	OpStorageUpload:    {Column: "current_storage_gb"},
	OpStorageDelete:    {Column: "current_storage_gb"},
}

// actionKey is a caller-vocabulary pair: the entity a feature mutated and
// the action it performed on it.
type actionKey struct {
	Entity string
	Action string
}

// canonicalActions translates caller vocabulary to canonical operations.
// When a pair is absent, the raw action type is tried against the registry
// directly as a fallback.
var canonicalActions = map[actionKey]string{
	{Entity: "projects", Action: "createProject"}: OpCreateProject,
	{Entity: "projects", Action: "deleteProject"}: OpCreateProject,
	{Entity: "members", Action: "inviteMember"}:   OpInviteMember,
	{Entity: "members", Action: "removeMember"}:   OpInviteMember,
	{Entity: "teams", Action: "createTeam"}:       OpCreateTeam,
	{Entity: "teams", Action: "deleteTeam"}:       OpCreateTeam,
	{Entity: "workflows", Action: "createWorkflow"}: OpCreateAIWorkflow,
	{Entity: "workflows", Action: "runWorkflow"}:    OpAIWorkflowRuns,
	{Entity: "chat", Action: "sendMessage"}:         OpAIChat,
	{Entity: "tasks", Action: "aiAssist"}:           OpAITask,
	{Entity: "storage", Action: "upload"}:           OpStorageUpload,
	{Entity: "storage", Action: "delete"}:           OpStorageDelete,
}

// limitColumns maps each known usage column to its plan limit column.
// Metrics outside this table fall back to prefix substitution.
var limitColumns = map[string]string{
	"current_projects":    "max_projects",
	"current_members":     "max_members",
	"current_teams":       "max_teams",
	"current_ai_chat":     "max_ai_chat",
	"current_ai_task":     "max_ai_task",
	"current_ai_workflow": "max_ai_workflow",
	"current_storage_gb":  "max_storage_gb",
}

// freeTierColumns maps canonical operations onto the free-tier usage row.
// AI and storage operations have no free-tier counter.
var freeTierColumns = map[string]string{
	OpCreateProject: "projects",
	OpInviteMember:  "members",
	OpCreateTeam:    "teams",
}

// resolveOperation translates (entityType, actionType) to a canonical
// operation, falling back to the raw action type.
func resolveOperation(entityType, actionType string) string {
	if op, ok := canonicalActions[actionKey{Entity: entityType, Action: actionType}]; ok {
		return op
	}
	return actionType
}

// limitColumnFor derives the plan limit column for a usage column.
func limitColumnFor(usageColumn string) string {
	if col, ok := limitColumns[usageColumn]; ok {
		return col
	}
	return strings.Replace(usageColumn, "current_", "max_", 1)
}

// metricDisplayName turns a usage column into the name shown in denial
// messages: prefix stripped, underscores to spaces, words title-cased.
func metricDisplayName(usageColumn string) string {
	name := strings.TrimPrefix(usageColumn, "current_")
	words := strings.Split(name, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// validateActionTables checks the static tables against each other. Run at
// startup so a typo in one table cannot silently strand an operation.
func validateActionTables() error {
	for key, op := range canonicalActions {
		if _, ok := actionMetrics[op]; !ok {
			return fmt.Errorf("action (%s, %s) maps to unregistered operation %q", key.Entity, key.Action, op)
		}
	}
	for op, metric := range actionMetrics {
		if _, ok := limitColumns[metric.Column]; !ok {
			return fmt.Errorf("operation %q uses usage column %q with no limit column", op, metric.Column)
		}
	}
	for op, column := range freeTierColumns {
		if _, ok := actionMetrics[op]; !ok {
			return fmt.Errorf("free-tier column %q bound to unregistered operation %q", column, op)
		}
	}
	return nil
}
