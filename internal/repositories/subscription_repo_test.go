package repositories

import (
	"context"
	"testing"
	"time"

	"taskhive/internal/models"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type SubscriptionRepoTestSuite struct {
	suite.Suite
	mock    pgxmock.PgxPoolIface
	repo    SubscriptionRepository
	subID   uuid.UUID
	userID  uuid.UUID
	planID  uuid.UUID
	context context.Context
}

func (suite *SubscriptionRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewSubscriptionRepository(mock)
	suite.subID = uuid.New()
	suite.userID = uuid.New()
	suite.planID = uuid.New()
	suite.context = context.Background()
}

func (suite *SubscriptionRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestSubscriptionRepoTestSuite(t *testing.T) {
	suite.Run(t, new(SubscriptionRepoTestSuite))
}

func (suite *SubscriptionRepoTestSuite) subscriptionRows() *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows([]string{
		"id", "user_id", "plan_id", "provider_subscription_id", "status", "start_date", "end_date", "auto_renew",
		"current_projects", "current_members", "current_teams", "current_ai_chat", "current_ai_task", "current_ai_workflow", "current_storage_gb",
		"created_at", "updated_at",
	}).AddRow(
		suite.subID, suite.userID, suite.planID, nil, models.SubscriptionActive, now, nil, true,
		int64(2), int64(1), int64(1), int64(0), int64(0), int64(0), 0.5,
		now, now,
	)
}

func (suite *SubscriptionRepoTestSuite) TestGetActiveByUserID() {
	suite.mock.ExpectQuery(`SELECT .+ FROM user_subscription_plan\s+WHERE user_id = \$1 AND status = \$2\s+ORDER BY end_date DESC NULLS FIRST\s+LIMIT 1`).
		WithArgs(suite.userID, models.SubscriptionActive).
		WillReturnRows(suite.subscriptionRows())

	sub, err := suite.repo.GetActiveByUserID(suite.context, suite.userID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.subID, sub.ID)
	assert.Equal(suite.T(), int64(2), sub.CurrentProjects)
	assert.Equal(suite.T(), 0.5, sub.CurrentStorageGB)
}

func (suite *SubscriptionRepoTestSuite) TestGetActiveByUserID_NotFound() {
	suite.mock.ExpectQuery(`SELECT .+ FROM user_subscription_plan`).
		WithArgs(suite.userID, models.SubscriptionActive).
		WillReturnError(pgx.ErrNoRows)

	sub, err := suite.repo.GetActiveByUserID(suite.context, suite.userID)
	assert.Nil(suite.T(), sub)
	assert.True(suite.T(), IsNotFound(err))
}

func (suite *SubscriptionRepoTestSuite) TestIncrementCounter_ClampsAtZero() {
	// The clamp lives in the SQL: GREATEST keeps the counter non-negative
	suite.mock.ExpectQuery(`UPDATE user_subscription_plan\s+SET current_projects = GREATEST\(0, current_projects \+ \$2\), updated_at = NOW\(\)\s+WHERE id = \$1\s+RETURNING current_projects`).
		WithArgs(suite.subID, -5.0).
		WillReturnRows(pgxmock.NewRows([]string{"current_projects"}).AddRow(0.0))

	newValue, err := suite.repo.IncrementCounter(suite.context, suite.subID, "current_projects", -5.0)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0.0, newValue)
}

func (suite *SubscriptionRepoTestSuite) TestIncrementCounter_UnknownColumnRejected() {
	_, err := suite.repo.IncrementCounter(suite.context, suite.subID, "current_bogus; DROP TABLE", 1.0)
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "unknown usage column")
}

func (suite *SubscriptionRepoTestSuite) TestConsumeCapacity_WithinLimit() {
	suite.mock.ExpectQuery(`UPDATE user_subscription_plan s\s+SET current_ai_chat = GREATEST\(0, s\.current_ai_chat \+ \$2\), updated_at = NOW\(\)\s+FROM subscription_plan p\s+WHERE s\.id = \$1 AND p\.id = s\.plan_id\s+AND \(p\.max_ai_chat IS NULL OR s\.current_ai_chat \+ \$2 <= p\.max_ai_chat\)\s+RETURNING s\.current_ai_chat`).
		WithArgs(suite.subID, 1.0).
		WillReturnRows(pgxmock.NewRows([]string{"current_ai_chat"}).AddRow(7.0))

	newValue, consumed, err := suite.repo.ConsumeCapacity(suite.context, suite.subID, "current_ai_chat", 1.0)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), consumed)
	assert.Equal(suite.T(), 7.0, newValue)
}

func (suite *SubscriptionRepoTestSuite) TestConsumeCapacity_LimitExhausted() {
	// No row matches the guard, so nothing is consumed and no error surfaces
	suite.mock.ExpectQuery(`UPDATE user_subscription_plan s`).
		WithArgs(suite.subID, 1.0).
		WillReturnError(pgx.ErrNoRows)

	_, consumed, err := suite.repo.ConsumeCapacity(suite.context, suite.subID, "current_ai_chat", 1.0)
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), consumed)
}

func (suite *SubscriptionRepoTestSuite) TestResetMonthlyCounters() {
	suite.mock.ExpectExec(`UPDATE user_subscription_plan\s+SET current_ai_chat = 0, current_ai_task = 0, current_ai_workflow = 0, updated_at = NOW\(\)\s+WHERE status = \$1`).
		WithArgs(models.SubscriptionActive).
		WillReturnResult(pgxmock.NewResult("UPDATE", 4))

	count, err := suite.repo.ResetMonthlyCounters(suite.context)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(4), count)
}

func (suite *SubscriptionRepoTestSuite) TestExpireOverdue() {
	suite.mock.ExpectExec(`UPDATE user_subscription_plan\s+SET status = \$1, updated_at = NOW\(\)\s+WHERE status = \$2 AND auto_renew = false AND end_date IS NOT NULL AND end_date < NOW\(\)`).
		WithArgs(models.SubscriptionExpired, models.SubscriptionActive).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	count, err := suite.repo.ExpireOverdue(suite.context)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(2), count)
}
