package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveOperation(t *testing.T) {
	tests := []struct {
		name       string
		entityType string
		actionType string
		expected   string
	}{
		{"project creation", "projects", "createProject", OpCreateProject},
		{"project deletion shares the counter", "projects", "deleteProject", OpCreateProject},
		{"member invite", "members", "inviteMember", OpInviteMember},
		{"workflow run", "workflows", "runWorkflow", OpAIWorkflowRuns},
		{"chat message", "chat", "sendMessage", OpAIChat},
		{"storage upload", "storage", "upload", OpStorageUpload},
		{"unmapped pair falls back to the raw action", "billing", "create_project", "create_project"},
		{"unknown pair passes through", "widgets", "spin", "spin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, resolveOperation(tt.entityType, tt.actionType))
		})
	}
}

func TestLimitColumnFor(t *testing.T) {
	assert.Equal(t, "max_projects", limitColumnFor("current_projects"))
	assert.Equal(t, "max_storage_gb", limitColumnFor("current_storage_gb"))

	// Columns outside the table derive by prefix substitution
	assert.Equal(t, "max_foo_bar", limitColumnFor("current_foo_bar"))
}

func TestMetricDisplayName(t *testing.T) {
	assert.Equal(t, "Projects", metricDisplayName("current_projects"))
	assert.Equal(t, "Ai Chat", metricDisplayName("current_ai_chat"))
	assert.Equal(t, "Storage Gb", metricDisplayName("current_storage_gb"))
}

func TestValidateActionTables(t *testing.T) {
	assert.NoError(t, validateActionTables())
}

func TestActionMetrics_StorageRequiresExplicitDelta(t *testing.T) {
	assert.Nil(t, actionMetrics[OpStorageUpload].DefaultDelta)
	assert.Nil(t, actionMetrics[OpStorageDelete].DefaultDelta)
	assert.NotNil(t, actionMetrics[OpCreateProject].DefaultDelta)
}

func TestActionMetrics_WorkflowOpsShareColumn(t *testing.T) {
	assert.Equal(t, actionMetrics[OpCreateAIWorkflow].Column, actionMetrics[OpAIWorkflowRuns].Column)
}
