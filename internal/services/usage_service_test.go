package services

import (
	"context"
	"errors"
	"testing"

	"taskhive/internal/models"
	"taskhive/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockSubscriptionRepository struct {
	mock.Mock
}

func (m *MockSubscriptionRepository) Create(ctx context.Context, sub *models.Subscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) GetActiveByUserID(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) GetByProviderID(ctx context.Context, providerID string) (*models.Subscription, error) {
	args := m.Called(ctx, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) Update(ctx context.Context, sub *models.Subscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) List(ctx context.Context, limit, offset int) ([]*models.Subscription, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) IncrementCounter(ctx context.Context, id uuid.UUID, column string, delta float64) (float64, error) {
	args := m.Called(ctx, id, column, delta)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockSubscriptionRepository) ConsumeCapacity(ctx context.Context, id uuid.UUID, column string, delta float64) (float64, bool, error) {
	args := m.Called(ctx, id, column, delta)
	return args.Get(0).(float64), args.Bool(1), args.Error(2)
}

func (m *MockSubscriptionRepository) ResetMonthlyCounters(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSubscriptionRepository) ExpireOverdue(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSubscriptionRepository) ListDueForRenewal(ctx context.Context) ([]*models.Subscription, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

type MockPlanRepository struct {
	mock.Mock
}

func (m *MockPlanRepository) Create(ctx context.Context, plan *models.Plan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockPlanRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *MockPlanRepository) GetByType(ctx context.Context, planType string) (*models.Plan, error) {
	args := m.Called(ctx, planType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *MockPlanRepository) Update(ctx context.Context, plan *models.Plan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockPlanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPlanRepository) List(ctx context.Context) ([]*models.Plan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Plan), args.Error(1)
}

type MockFreeUsageRepository struct {
	mock.Mock
}

func (m *MockFreeUsageRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.FreeTierUsage, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FreeTierUsage), args.Error(1)
}

func (m *MockFreeUsageRepository) Insert(ctx context.Context, usage *models.FreeTierUsage) error {
	args := m.Called(ctx, usage)
	return args.Error(0)
}

func (m *MockFreeUsageRepository) IncrementCounter(ctx context.Context, userID uuid.UUID, column string, delta float64) (float64, error) {
	args := m.Called(ctx, userID, column, delta)
	return args.Get(0).(float64), args.Error(1)
}

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

func (m *MockNotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Notification, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Notification), args.Error(1)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func intLimit(v int64) *int64 { return &v }

func floatLimit(v float64) *float64 { return &v }

type UsageServiceTestSuite struct {
	suite.Suite
	subRepo   *MockSubscriptionRepository
	planRepo  *MockPlanRepository
	freeRepo  *MockFreeUsageRepository
	notifRepo *MockNotificationRepository
	service   UsageService

	userID uuid.UUID
	planID uuid.UUID
	subID  uuid.UUID
}

func (suite *UsageServiceTestSuite) SetupTest() {
	suite.subRepo = &MockSubscriptionRepository{}
	suite.planRepo = &MockPlanRepository{}
	suite.freeRepo = &MockFreeUsageRepository{}
	suite.notifRepo = &MockNotificationRepository{}
	suite.service = NewUsageService(suite.subRepo, suite.planRepo, suite.freeRepo, suite.notifRepo, nil)

	suite.userID = uuid.New()
	suite.planID = uuid.New()
	suite.subID = uuid.New()

	suite.subRepo.Test(suite.T())
	suite.planRepo.Test(suite.T())
	suite.freeRepo.Test(suite.T())
	suite.notifRepo.Test(suite.T())
}

func (suite *UsageServiceTestSuite) TearDownTest() {
	suite.subRepo.AssertExpectations(suite.T())
	suite.planRepo.AssertExpectations(suite.T())
	suite.freeRepo.AssertExpectations(suite.T())
	suite.notifRepo.AssertExpectations(suite.T())
}

func TestUsageServiceTestSuite(t *testing.T) {
	suite.Run(t, new(UsageServiceTestSuite))
}

func (suite *UsageServiceTestSuite) activeSubscription(projects int64) *models.Subscription {
	return &models.Subscription{
		ID:              suite.subID,
		UserID:          suite.userID,
		PlanID:          suite.planID,
		Status:          models.SubscriptionActive,
		CurrentProjects: projects,
	}
}

func (suite *UsageServiceTestSuite) paidPlan(maxProjects int64) *models.Plan {
	return &models.Plan{
		ID:          suite.planID,
		Name:        "Pro",
		PlanType:    models.PlanTypePaid,
		MaxProjects: intLimit(maxProjects),
	}
}

func (suite *UsageServiceTestSuite) TestCheckLimit_AllowedBelowLimit() {
	ctx := context.Background()
	suite.subRepo.On("GetActiveByUserID", ctx, suite.userID).Return(suite.activeSubscription(4), nil)
	suite.planRepo.On("GetByID", ctx, suite.planID).Return(suite.paidPlan(5), nil)

	decision := suite.service.CheckLimit(ctx, suite.userID, OpCreateProject, nil)
	assert.True(suite.T(), decision.Allowed)
	assert.Empty(suite.T(), decision.Reason)
}

func (suite *UsageServiceTestSuite) TestCheckLimit_DeniedAtExactLimit() {
	// current == limit, so one more unit exceeds it
	ctx := context.Background()
	suite.subRepo.On("GetActiveByUserID", ctx, suite.userID).Return(suite.activeSubscription(5), nil)
	suite.planRepo.On("GetByID", ctx, suite.planID).Return(suite.paidPlan(5), nil)

	decision := suite.service.CheckLimit(ctx, suite.userID, OpCreateProject, nil)
	assert.False(suite.T(), decision.Allowed)
	assert.Contains(suite.T(), decision.Reason, "Projects limit")
	assert.Contains(suite.T(), decision.Reason, "upgrade your plan")
	assert.Equal(suite.T(), 5.0, *decision.CurrentValue)
	assert.Equal(suite.T(), 5.0, *decision.Limit)
}

func (suite *UsageServiceTestSuite) TestCheckLimit_ExactlyReachingLimitAllowed() {
	// current + delta == limit is still within the plan
	ctx := context.Background()
	sub := suite.activeSubscription(0)
	sub.CurrentAIChat = 99
	plan := suite.paidPlan(5)
	plan.MaxAIChat = intLimit(100)
	suite.subRepo.On("GetActiveByUserID", ctx, suite.userID).Return(sub, nil)
	suite.planRepo.On("GetByID", ctx, suite.planID).Return(plan, nil)

	decision := suite.service.CheckLimit(ctx, suite.userID, OpAIChat, nil)
	assert.True(suite.T(), decision.Allowed)
}

func (suite *UsageServiceTestSuite) TestCheckLimit_UnknownActionAllowed() {
	decision := suite.service.CheckLimit(context.Background(), suite.userID, "export_pdf", nil)
	assert.True(suite.T(), decision.Allowed)
}

func (suite *UsageServiceTestSuite) TestCheckLimit_NegativeDeltaAllowed() {
	delta := -0.5
	decision := suite.service.CheckLimit(context.Background(), suite.userID, OpStorageDelete, &delta)
	assert.True(suite.T(), decision.Allowed)
}

func (suite *UsageServiceTestSuite) TestCheckLimit_StorageWithoutDeltaAllowed() {
	// Storage has no default delta, so there is nothing to check
	decision := suite.service.CheckLimit(context.Background(), suite.userID, OpStorageUpload, nil)
	assert.True(suite.T(), decision.Allowed)
}

func (suite *UsageServiceTestSuite) TestCheckLimit_NilLimitUnlimited() {
	ctx := context.Background()
	plan := &models.Plan{ID: suite.planID, Name: "Enterprise", PlanType: models.PlanTypePaid}
	suite.subRepo.On("GetActiveByUserID", ctx, suite.userID).Return(suite.activeSubscription(100000), nil)
	suite.planRepo.On("GetByID", ctx, suite.planID).Return(plan, nil)

	decision := suite.service.CheckLimit(ctx, suite.userID, OpCreateProject, nil)
	assert.True(suite.T(), decision.Allowed)
}

func (suite *UsageServiceTestSuite) TestCheckLimit_LookupFailureDeniesWithoutError() {
	ctx := context.Background()
	suite.subRepo.On("GetActiveByUserID", ctx, suite.userID).Return(nil, errors.New("connection refused"))

	decision := suite.service.CheckLimit(ctx, suite.userID, OpCreateProject, nil)
	assert.False(suite.T(), decision.Allowed)
	assert.Equal(suite.T(), "Could not find an active subscription plan.", decision.Reason)
}

func (suite *UsageServiceTestSuite) TestCheckLimit_PlanLookupFailureDenies() {
	ctx := context.Background()
	suite.subRepo.On("GetActiveByUserID", ctx, suite.userID).Return(suite.activeSubscription(0), nil)
	suite.planRepo.On("GetByID", ctx, suite.planID).Return(nil, errors.New("connection refused"))

	decision := suite.service.CheckLimit(ctx, suite.userID, OpCreateProject, nil)
	assert.False(suite.T(), decision.Allowed)
	assert.Equal(suite.T(), "Plan data not found", decision.Reason)
}

func (suite *UsageServiceTestSuite) TestCheckLimit_FreeTierFallsThroughToFreePlan() {
	ctx := context.Background()
	freePlan := &models.Plan{
		ID:          uuid.New(),
		Name:        "Free",
		PlanType:    models.PlanTypeFree,
		MaxProjects: intLimit(3),
	}
	suite.subRepo.On("GetActiveByUserID", ctx, suite.userID).Return(nil, repositories.ErrNotFound)
	suite.planRepo.On("GetByType", ctx, models.PlanTypeFree).Return(freePlan, nil)
	suite.freeRepo.On("GetByUserID", ctx, suite.userID).Return(&models.FreeTierUsage{
		UserID:   suite.userID,
		Projects: 3,
	}, nil)

	decision := suite.service.CheckLimit(ctx, suite.userID, OpCreateProject, nil)
	assert.False(suite.T(), decision.Allowed)
	assert.Contains(suite.T(), decision.Reason, "Projects limit (3)")
}

func (suite *UsageServiceTestSuite) TestCheckLimit_FreeTierMissingUsageRowCountsAsZero() {
	ctx := context.Background()
	freePlan := &models.Plan{
		ID:          uuid.New(),
		Name:        "Free",
		PlanType:    models.PlanTypeFree,
		MaxProjects: intLimit(3),
	}
	suite.subRepo.On("GetActiveByUserID", ctx, suite.userID).Return(nil, repositories.ErrNotFound)
	suite.planRepo.On("GetByType", ctx, models.PlanTypeFree).Return(freePlan, nil)
	suite.freeRepo.On("GetByUserID", ctx, suite.userID).Return(nil, repositories.ErrNotFound)

	decision := suite.service.CheckLimit(ctx, suite.userID, OpCreateProject, nil)
	assert.True(suite.T(), decision.Allowed)
}

func (suite *UsageServiceTestSuite) TestCheckLimit_FreePlanMissingDenies() {
	ctx := context.Background()
	suite.subRepo.On("GetActiveByUserID", ctx, suite.userID).Return(nil, repositories.ErrNotFound)
	suite.planRepo.On("GetByType", ctx, models.PlanTypeFree).Return(nil, repositories.ErrNotFound)

	decision := suite.service.CheckLimit(ctx, suite.userID, OpCreateProject, nil)
	assert.False(suite.T(), decision.Allowed)
	assert.Equal(suite.T(), "Could not find an active subscription plan.", decision.Reason)
}

func (suite *UsageServiceTestSuite) TestTrackUsage_IncrementsSubscriptionCounter() {
	ctx := context.Background()
	suite.subRepo.On("GetActiveByUserID", ctx, suite.userID).Return(suite.activeSubscription(2), nil)
	suite.subRepo.On("IncrementCounter", ctx, suite.subID, "current_projects", 1.0).Return(3.0, nil)
	suite.planRepo.On("GetByID", ctx, suite.planID).Return(suite.paidPlan(5), nil)

	result := suite.service.TrackUsage(ctx, UsageData{
		UserID:     suite.userID,
		EntityType: "projects",
		ActionType: "createProject",
	})
	assert.NotNil(suite.T(), result)
	assert.True(suite.T(), result.Success)
	assert.Equal(suite.T(), 3.0, result.NewValue)
	assert.Equal(suite.T(), 5.0, *result.Limit)
}

func (suite *UsageServiceTestSuite) TestTrackUsage_UnknownActionIsNoOp() {
	result := suite.service.TrackUsage(context.Background(), UsageData{
		UserID:     suite.userID,
		EntityType: "reports",
		ActionType: "exportReport",
	})
	assert.Nil(suite.T(), result)
}

func (suite *UsageServiceTestSuite) TestTrackUsage_StorageWithoutDeltaIsNoOp() {
	// Storage operations need an explicit delta; without one nothing moves
	result := suite.service.TrackUsage(context.Background(), UsageData{
		UserID:     suite.userID,
		EntityType: "storage",
		ActionType: "upload",
	})
	assert.Nil(suite.T(), result)
}

func (suite *UsageServiceTestSuite) TestTrackUsage_StorageWithDelta() {
	ctx := context.Background()
	delta := 0.25
	suite.subRepo.On("GetActiveByUserID", ctx, suite.userID).Return(suite.activeSubscription(0), nil)
	suite.subRepo.On("IncrementCounter", ctx, suite.subID, "current_storage_gb", 0.25).Return(1.5, nil)
	plan := suite.paidPlan(5)
	plan.MaxStorageGB = floatLimit(10)
	suite.planRepo.On("GetByID", ctx, suite.planID).Return(plan, nil)

	result := suite.service.TrackUsage(ctx, UsageData{
		UserID:     suite.userID,
		EntityType: "storage",
		ActionType: "upload",
		DeltaValue: &delta,
	})
	assert.NotNil(suite.T(), result)
	assert.Equal(suite.T(), 1.5, result.NewValue)
	assert.Equal(suite.T(), 10.0, *result.Limit)
}

func (suite *UsageServiceTestSuite) TestTrackUsage_PersistenceFailureReturnsNil() {
	ctx := context.Background()
	suite.subRepo.On("GetActiveByUserID", ctx, suite.userID).Return(suite.activeSubscription(2), nil)
	suite.subRepo.On("IncrementCounter", ctx, suite.subID, "current_projects", 1.0).Return(0.0, errors.New("deadlock detected"))

	result := suite.service.TrackUsage(ctx, UsageData{
		UserID:     suite.userID,
		EntityType: "projects",
		ActionType: "createProject",
	})
	assert.Nil(suite.T(), result)
}

func (suite *UsageServiceTestSuite) TestTrackUsage_FreeTierIncrementsUsageRow() {
	ctx := context.Background()
	suite.subRepo.On("GetActiveByUserID", ctx, suite.userID).Return(nil, repositories.ErrNotFound)
	suite.freeRepo.On("GetByUserID", ctx, suite.userID).Return(&models.FreeTierUsage{UserID: suite.userID, Projects: 1}, nil)
	suite.freeRepo.On("IncrementCounter", ctx, suite.userID, "projects", 1.0).Return(2.0, nil)

	result := suite.service.TrackUsage(ctx, UsageData{
		UserID:     suite.userID,
		EntityType: "projects",
		ActionType: "createProject",
	})
	assert.NotNil(suite.T(), result)
	assert.Equal(suite.T(), 2.0, result.NewValue)
	assert.Nil(suite.T(), result.Limit)
}

func (suite *UsageServiceTestSuite) TestTrackUsage_FreeTierInsertsMissingRow() {
	ctx := context.Background()
	suite.subRepo.On("GetActiveByUserID", ctx, suite.userID).Return(nil, repositories.ErrNotFound)
	suite.freeRepo.On("GetByUserID", ctx, suite.userID).Return(nil, repositories.ErrNotFound)
	suite.freeRepo.On("Insert", ctx, mock.AnythingOfType("*models.FreeTierUsage")).Return(nil).Run(func(args mock.Arguments) {
		usage := args.Get(1).(*models.FreeTierUsage)
		assert.Equal(suite.T(), suite.userID, usage.UserID)
		assert.Equal(suite.T(), int64(1), usage.Projects)
	})

	result := suite.service.TrackUsage(ctx, UsageData{
		UserID:     suite.userID,
		EntityType: "projects",
		ActionType: "createProject",
	})
	assert.NotNil(suite.T(), result)
	assert.Equal(suite.T(), 1.0, result.NewValue)
}

func (suite *UsageServiceTestSuite) TestTrackUsage_FreeTierDecrementOnMissingRowClampsToZero() {
	ctx := context.Background()
	delta := -1.0
	suite.subRepo.On("GetActiveByUserID", ctx, suite.userID).Return(nil, repositories.ErrNotFound)
	suite.freeRepo.On("GetByUserID", ctx, suite.userID).Return(nil, repositories.ErrNotFound)
	suite.freeRepo.On("Insert", ctx, mock.AnythingOfType("*models.FreeTierUsage")).Return(nil).Run(func(args mock.Arguments) {
		usage := args.Get(1).(*models.FreeTierUsage)
		assert.Equal(suite.T(), int64(0), usage.Projects)
	})

	result := suite.service.TrackUsage(ctx, UsageData{
		UserID:     suite.userID,
		EntityType: "projects",
		ActionType: "deleteProject",
		DeltaValue: &delta,
	})
	assert.NotNil(suite.T(), result)
	assert.Equal(suite.T(), 0.0, result.NewValue)
}

func (suite *UsageServiceTestSuite) TestTrackUsage_FreeTierHasNoAICounter() {
	ctx := context.Background()
	suite.subRepo.On("GetActiveByUserID", ctx, suite.userID).Return(nil, repositories.ErrNotFound)

	result := suite.service.TrackUsage(ctx, UsageData{
		UserID:     suite.userID,
		EntityType: "chat",
		ActionType: "sendMessage",
	})
	assert.Nil(suite.T(), result)
}

func (suite *UsageServiceTestSuite) TestConsumeCapacity_Allowed() {
	ctx := context.Background()
	suite.subRepo.On("GetActiveByUserID", ctx, suite.userID).Return(suite.activeSubscription(2), nil)
	suite.subRepo.On("ConsumeCapacity", ctx, suite.subID, "current_projects", 1.0).Return(3.0, true, nil)

	decision, err := suite.service.ConsumeCapacity(ctx, suite.userID, OpCreateProject, nil)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), decision.Allowed)
	assert.Equal(suite.T(), 3.0, *decision.CurrentValue)
}

func (suite *UsageServiceTestSuite) TestConsumeCapacity_DeniedRaisesNotification() {
	ctx := context.Background()
	suite.subRepo.On("GetActiveByUserID", ctx, suite.userID).Return(suite.activeSubscription(5), nil)
	suite.subRepo.On("ConsumeCapacity", ctx, suite.subID, "current_projects", 1.0).Return(0.0, false, nil)
	suite.planRepo.On("GetByID", ctx, suite.planID).Return(suite.paidPlan(5), nil)
	suite.notifRepo.On("Create", ctx, mock.AnythingOfType("*models.Notification")).Return(nil).Run(func(args mock.Arguments) {
		n := args.Get(1).(*models.Notification)
		assert.Equal(suite.T(), models.NotificationLimitReached, n.Type)
		assert.Equal(suite.T(), suite.userID, n.UserID)
	})

	decision, err := suite.service.ConsumeCapacity(ctx, suite.userID, OpCreateProject, nil)
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), decision.Allowed)
	assert.Contains(suite.T(), decision.Reason, "Projects limit")
}

func (suite *UsageServiceTestSuite) TestConsumeCapacity_UnknownActionAllowed() {
	decision, err := suite.service.ConsumeCapacity(context.Background(), suite.userID, "export_pdf", nil)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), decision.Allowed)
}

func (suite *UsageServiceTestSuite) TestGetUsageSnapshot_PaidPlan() {
	ctx := context.Background()
	sub := suite.activeSubscription(2)
	sub.CurrentStorageGB = 1.5
	plan := suite.paidPlan(5)
	plan.MaxStorageGB = floatLimit(10)
	suite.subRepo.On("GetActiveByUserID", ctx, suite.userID).Return(sub, nil)
	suite.planRepo.On("GetByID", ctx, suite.planID).Return(plan, nil)

	snapshot, err := suite.service.GetUsageSnapshot(ctx, suite.userID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Pro", snapshot.PlanName)
	assert.Len(suite.T(), snapshot.Metrics, 7)
	assert.Equal(suite.T(), 2.0, snapshot.Metrics["current_projects"].Used)
	assert.Equal(suite.T(), 5.0, *snapshot.Metrics["current_projects"].Limit)
	assert.Equal(suite.T(), 1.5, snapshot.Metrics["current_storage_gb"].Used)
	assert.Nil(suite.T(), snapshot.Metrics["current_ai_chat"].Limit)
}

func (suite *UsageServiceTestSuite) TestGetUsageSnapshot_FreeTier() {
	ctx := context.Background()
	freePlan := &models.Plan{
		ID:          uuid.New(),
		Name:        "Free",
		PlanType:    models.PlanTypeFree,
		MaxProjects: intLimit(3),
	}
	suite.subRepo.On("GetActiveByUserID", ctx, suite.userID).Return(nil, repositories.ErrNotFound)
	suite.planRepo.On("GetByType", ctx, models.PlanTypeFree).Return(freePlan, nil)
	suite.freeRepo.On("GetByUserID", ctx, suite.userID).Return(&models.FreeTierUsage{UserID: suite.userID, Projects: 2}, nil)

	snapshot, err := suite.service.GetUsageSnapshot(ctx, suite.userID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Free", snapshot.PlanName)
	assert.Equal(suite.T(), 2.0, snapshot.Metrics["current_projects"].Used)
	// AI metrics have no free-tier counter and read as zero
	assert.Equal(suite.T(), 0.0, snapshot.Metrics["current_ai_chat"].Used)
}

func (suite *UsageServiceTestSuite) TestResetMonthlyCounters() {
	ctx := context.Background()
	suite.subRepo.On("ResetMonthlyCounters", ctx).Return(int64(12), nil)

	count, err := suite.service.ResetMonthlyCounters(ctx)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(12), count)
}
