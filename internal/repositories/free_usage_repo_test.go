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

type FreeUsageRepoTestSuite struct {
	suite.Suite
	mock    pgxmock.PgxPoolIface
	repo    FreeUsageRepository
	userID  uuid.UUID
	context context.Context
}

func (suite *FreeUsageRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewFreeUsageRepository(mock)
	suite.userID = uuid.New()
	suite.context = context.Background()
}

func (suite *FreeUsageRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestFreeUsageRepoTestSuite(t *testing.T) {
	suite.Run(t, new(FreeUsageRepoTestSuite))
}

func (suite *FreeUsageRepoTestSuite) TestGetByUserID() {
	now := time.Now()
	rowID := uuid.New()
	suite.mock.ExpectQuery(`SELECT id, user_id, projects, members, teams, created_at, updated_at\s+FROM user_usage\s+WHERE user_id = \$1`).
		WithArgs(suite.userID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "projects", "members", "teams", "created_at", "updated_at"}).
			AddRow(rowID, suite.userID, int64(2), int64(0), int64(1), now, now))

	usage, err := suite.repo.GetByUserID(suite.context, suite.userID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), rowID, usage.ID)
	assert.Equal(suite.T(), int64(2), usage.Projects)
	assert.Equal(suite.T(), int64(1), usage.Teams)
}

func (suite *FreeUsageRepoTestSuite) TestGetByUserID_NotFound() {
	suite.mock.ExpectQuery(`SELECT id, user_id, projects, members, teams, created_at, updated_at\s+FROM user_usage`).
		WithArgs(suite.userID).
		WillReturnError(pgx.ErrNoRows)

	usage, err := suite.repo.GetByUserID(suite.context, suite.userID)
	assert.Nil(suite.T(), usage)
	assert.True(suite.T(), IsNotFound(err))
}

func (suite *FreeUsageRepoTestSuite) TestInsert() {
	usage := &models.FreeTierUsage{
		ID:       uuid.New(),
		UserID:   suite.userID,
		Projects: 1,
	}
	suite.mock.ExpectExec(`INSERT INTO user_usage \(id, user_id, projects, members, teams, created_at, updated_at\)\s+VALUES \(\$1, \$2, \$3, \$4, \$5, NOW\(\), NOW\(\)\)`).
		WithArgs(usage.ID, usage.UserID, usage.Projects, usage.Members, usage.Teams).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(suite.T(), suite.repo.Insert(suite.context, usage))
}

func (suite *FreeUsageRepoTestSuite) TestIncrementCounter() {
	suite.mock.ExpectQuery(`UPDATE user_usage\s+SET projects = GREATEST\(0, projects \+ \$2\), updated_at = NOW\(\)\s+WHERE user_id = \$1\s+RETURNING projects`).
		WithArgs(suite.userID, 1.0).
		WillReturnRows(pgxmock.NewRows([]string{"projects"}).AddRow(3.0))

	newValue, err := suite.repo.IncrementCounter(suite.context, suite.userID, "projects", 1.0)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 3.0, newValue)
}

func (suite *FreeUsageRepoTestSuite) TestIncrementCounter_ClampsAtZero() {
	suite.mock.ExpectQuery(`UPDATE user_usage\s+SET teams = GREATEST\(0, teams \+ \$2\)`).
		WithArgs(suite.userID, -4.0).
		WillReturnRows(pgxmock.NewRows([]string{"teams"}).AddRow(0.0))

	newValue, err := suite.repo.IncrementCounter(suite.context, suite.userID, "teams", -4.0)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0.0, newValue)
}

func (suite *FreeUsageRepoTestSuite) TestIncrementCounter_UnknownColumnRejected() {
	_, err := suite.repo.IncrementCounter(suite.context, suite.userID, "current_ai_chat", 1.0)
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "unknown free-tier usage column")
}
