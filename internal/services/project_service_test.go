package services

import (
	"context"
	"errors"
	"testing"

	"taskhive/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockProjectRepository struct {
	mock.Mock
}

func (m *MockProjectRepository) Create(ctx context.Context, project *models.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *MockProjectRepository) Update(ctx context.Context, project *models.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProjectRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*models.Project, error) {
	args := m.Called(ctx, ownerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Project), args.Error(1)
}

type MockUsageService struct {
	mock.Mock
}

func (m *MockUsageService) CheckLimit(ctx context.Context, userID uuid.UUID, actionType string, deltaValue *float64) *LimitDecision {
	args := m.Called(ctx, userID, actionType, deltaValue)
	return args.Get(0).(*LimitDecision)
}

func (m *MockUsageService) TrackUsage(ctx context.Context, data UsageData) *TrackResult {
	args := m.Called(ctx, data)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*TrackResult)
}

func (m *MockUsageService) ConsumeCapacity(ctx context.Context, userID uuid.UUID, actionType string, deltaValue *float64) (*LimitDecision, error) {
	args := m.Called(ctx, userID, actionType, deltaValue)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*LimitDecision), args.Error(1)
}

func (m *MockUsageService) GetUsageSnapshot(ctx context.Context, userID uuid.UUID) (*models.UsageSnapshot, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UsageSnapshot), args.Error(1)
}

func (m *MockUsageService) ResetMonthlyCounters(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type ProjectServiceTestSuite struct {
	suite.Suite
	projectRepo *MockProjectRepository
	usageSvc    *MockUsageService
	service     ProjectService

	ownerID uuid.UUID
}

func (suite *ProjectServiceTestSuite) SetupTest() {
	suite.projectRepo = &MockProjectRepository{}
	suite.usageSvc = &MockUsageService{}
	suite.service = NewProjectService(suite.projectRepo, suite.usageSvc)
	suite.ownerID = uuid.New()

	suite.projectRepo.Test(suite.T())
	suite.usageSvc.Test(suite.T())
}

func (suite *ProjectServiceTestSuite) TearDownTest() {
	suite.projectRepo.AssertExpectations(suite.T())
	suite.usageSvc.AssertExpectations(suite.T())
}

func TestProjectServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ProjectServiceTestSuite))
}

func (suite *ProjectServiceTestSuite) TestCreate_Success() {
	ctx := context.Background()
	current := 3.0
	suite.usageSvc.On("ConsumeCapacity", ctx, suite.ownerID, OpCreateProject, (*float64)(nil)).
		Return(&LimitDecision{Allowed: true, CurrentValue: &current}, nil)
	suite.projectRepo.On("Create", ctx, mock.AnythingOfType("*models.Project")).Return(nil)

	project, err := suite.service.Create(ctx, suite.ownerID, &models.Project{Name: "Launch"})
	assert.NoError(suite.T(), err)
	assert.NotNil(suite.T(), project)
	assert.Equal(suite.T(), suite.ownerID, project.OwnerID)
	assert.Equal(suite.T(), models.ProjectActive, project.Status)
	assert.NotEqual(suite.T(), uuid.Nil, project.ID)
}

func (suite *ProjectServiceTestSuite) TestCreate_LimitReached() {
	ctx := context.Background()
	suite.usageSvc.On("ConsumeCapacity", ctx, suite.ownerID, OpCreateProject, (*float64)(nil)).
		Return(&LimitDecision{Allowed: false, Reason: "You have reached your Projects limit (3). Please upgrade your plan to continue."}, nil)

	project, err := suite.service.Create(ctx, suite.ownerID, &models.Project{Name: "Launch"})
	assert.Nil(suite.T(), project)

	var limitErr *LimitReachedError
	assert.ErrorAs(suite.T(), err, &limitErr)
	assert.Contains(suite.T(), limitErr.Error(), "Projects limit")
}

func (suite *ProjectServiceTestSuite) TestCreate_RepoFailureReleasesCapacity() {
	ctx := context.Background()
	suite.usageSvc.On("ConsumeCapacity", ctx, suite.ownerID, OpCreateProject, (*float64)(nil)).
		Return(&LimitDecision{Allowed: true}, nil)
	suite.projectRepo.On("Create", ctx, mock.AnythingOfType("*models.Project")).Return(errors.New("insert failed"))
	suite.usageSvc.On("TrackUsage", ctx, mock.MatchedBy(func(data UsageData) bool {
		return data.EntityType == "projects" && data.DeltaValue != nil && *data.DeltaValue == -1.0
	})).Return(&TrackResult{Success: true})

	project, err := suite.service.Create(ctx, suite.ownerID, &models.Project{Name: "Launch"})
	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), project)
}

func (suite *ProjectServiceTestSuite) TestDelete_DecrementsUsage() {
	ctx := context.Background()
	projectID := uuid.New()
	suite.projectRepo.On("GetByID", ctx, projectID).Return(&models.Project{ID: projectID, OwnerID: suite.ownerID}, nil)
	suite.projectRepo.On("Delete", ctx, projectID).Return(nil)
	suite.usageSvc.On("TrackUsage", ctx, mock.MatchedBy(func(data UsageData) bool {
		return data.ActionType == "deleteProject" && data.DeltaValue != nil && *data.DeltaValue == -1.0
	})).Return(&TrackResult{Success: true, NewValue: 2})

	err := suite.service.Delete(ctx, suite.ownerID, projectID)
	assert.NoError(suite.T(), err)
}

func (suite *ProjectServiceTestSuite) TestDelete_WrongOwnerRejected() {
	ctx := context.Background()
	projectID := uuid.New()
	suite.projectRepo.On("GetByID", ctx, projectID).Return(&models.Project{ID: projectID, OwnerID: uuid.New()}, nil)

	err := suite.service.Delete(ctx, suite.ownerID, projectID)
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "does not belong")
}
