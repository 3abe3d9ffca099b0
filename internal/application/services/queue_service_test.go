package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/optimed-health/backend/internal/adapters/providers/estimation"
	"github.com/optimed-health/backend/internal/application/services"
	"github.com/optimed-health/backend/internal/domain/entities"
	"github.com/optimed-health/backend/internal/domain/repositories"
	"github.com/optimed-health/backend/pkg/config"
	apperrors "github.com/optimed-health/backend/pkg/errors"
)

// Mocks

type MockQueueRepository struct {
	mock.Mock
}

func (m *MockQueueRepository) Create(ctx context.Context, entry *entities.QueueEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockQueueRepository) GetByID(ctx context.Context, id string) (*entities.QueueEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.QueueEntry), args.Error(1)
}

func (m *MockQueueRepository) UpdateStatus(ctx context.Context, id string, status entities.QueueStatus, fromStatuses ...entities.QueueStatus) (int64, error) {
	args := m.Called(ctx, id, status, fromStatuses)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQueueRepository) CheckIn(ctx context.Context, id, code string) (int64, error) {
	args := m.Called(ctx, id, code)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQueueRepository) CountWaiting(ctx context.Context, hospitalID string) (int, error) {
	args := m.Called(ctx, hospitalID)
	return args.Int(0), args.Error(1)
}

func (m *MockQueueRepository) ListByUser(ctx context.Context, userID string, filter repositories.QueueFilter) ([]*entities.QueueEntry, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.QueueEntry), args.Error(1)
}

type MockHospitalRepository struct {
	mock.Mock
}

func (m *MockHospitalRepository) Create(ctx context.Context, hospital *entities.Hospital) error {
	return nil
}

func (m *MockHospitalRepository) GetByID(ctx context.Context, id string) (*entities.Hospital, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Hospital), args.Error(1)
}

func (m *MockHospitalRepository) GetByName(ctx context.Context, name string) (*entities.Hospital, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Hospital), args.Error(1)
}

func (m *MockHospitalRepository) List(ctx context.Context, filter repositories.HospitalFilter) ([]*entities.Hospital, error) {
	return nil, nil
}

func (m *MockHospitalRepository) UpdateWaitTime(ctx context.Context, id string, waitMinutes, currentQueue int) error {
	return nil
}

type MockSearchRepository struct {
	mock.Mock
}

func (m *MockSearchRepository) InitSchema(ctx context.Context) error { return nil }

func (m *MockSearchRepository) Index(ctx context.Context, hospital *entities.Hospital) error {
	return nil
}

func (m *MockSearchRepository) Delete(ctx context.Context, id string) error { return nil }

func (m *MockSearchRepository) SearchByName(ctx context.Context, query string, limit int) ([]*entities.Hospital, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Hospital), args.Error(1)
}

func (m *MockSearchRepository) Suggest(ctx context.Context, prefix string, limit int) ([]string, error) {
	return nil, nil
}

type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.QueueEvent) error {
	args := m.Called(ctx, channel, event)
	return args.Error(0)
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.QueueEvent, error) {
	args := m.Called(ctx, channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan *entities.QueueEvent), args.Error(1)
}

func (m *MockEventBus) Unsubscribe(ctx context.Context, channel string) error { return nil }

func (m *MockEventBus) Close() error { return nil }

// Helpers

func testQueueConfig() config.QueueConfig {
	return config.QueueConfig{
		DefaultWaitMinutes:  30,
		GraceWindowMinutes:  15,
		ExpiringSoonMinutes: 30,
	}
}

func newTestQueueService(queueRepo *MockQueueRepository, hospitalRepo *MockHospitalRepository, searchRepo *MockSearchRepository, eventBus *MockEventBus) *services.QueueService {
	return services.NewQueueService(
		queueRepo,
		hospitalRepo,
		searchRepo,
		estimation.NewBaselineEstimator(30),
		eventBus,
		nil,
		testQueueConfig(),
	)
}

func validJoinRequest() *services.JoinQueueRequest {
	return &services.JoinQueueRequest{
		UserID:            "user-1",
		HospitalID:        "hosp-1",
		FullName:          "Jane Roe",
		HealthCardNumber:  "1234-567-890",
		PhoneNumber:       "+14165550100",
		InjuryType:        "sprain",
		InjuryDescription: "twisted ankle on stairs",
		SeverityLevel:     2,
	}
}

// Tests

func TestQueueService_JoinQueue(t *testing.T) {
	ctx := context.Background()

	t.Run("successfully joins queue with resolved hospital", func(t *testing.T) {
		queueRepo := new(MockQueueRepository)
		hospitalRepo := new(MockHospitalRepository)
		searchRepo := new(MockSearchRepository)
		eventBus := new(MockEventBus)
		service := newTestQueueService(queueRepo, hospitalRepo, searchRepo, eventBus)

		hospital := &entities.Hospital{ID: "hosp-1", Name: "Toronto General", BaselineWaitMin: 45}
		hospitalRepo.On("GetByID", mock.Anything, "hosp-1").Return(hospital, nil)
		queueRepo.On("CountWaiting", mock.Anything, "hosp-1").Return(4, nil)
		queueRepo.On("Create", mock.Anything, mock.AnythingOfType("*entities.QueueEntry")).Return(nil)
		eventBus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		before := time.Now()
		entry, err := service.JoinQueue(ctx, validJoinRequest())

		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, entities.QueueStatusWaiting, entry.Status)
		assert.Equal(t, "hosp-1", entry.HospitalID)
		assert.Equal(t, 45, entry.EstimatedWaitTime)
		assert.Equal(t, 5, entry.PositionInQueue)
		assert.Len(t, entry.CheckInCode, 6)
		assert.False(t, entry.DegradedHospitalRef)

		// Deadline is created + wait + grace
		wantDeadline := entry.CreatedAt.Add(60 * time.Minute)
		assert.WithinDuration(t, wantDeadline, entry.CheckInDeadline, time.Second)
		assert.True(t, entry.CreatedAt.After(before.Add(-time.Second)))

		queueRepo.AssertExpectations(t)
		eventBus.AssertNumberOfCalls(t, "Publish", 3)
	})

	t.Run("falls back to fuzzy search when name does not match exactly", func(t *testing.T) {
		queueRepo := new(MockQueueRepository)
		hospitalRepo := new(MockHospitalRepository)
		searchRepo := new(MockSearchRepository)
		eventBus := new(MockEventBus)
		service := newTestQueueService(queueRepo, hospitalRepo, searchRepo, eventBus)

		req := validJoinRequest()
		req.HospitalID = ""
		req.HospitalName = "toronto genaral"

		hospital := &entities.Hospital{ID: "hosp-1", Name: "Toronto General", BaselineWaitMin: 40}
		hospitalRepo.On("GetByName", mock.Anything, "toronto genaral").
			Return(nil, apperrors.NewNotFoundError("not found"))
		searchRepo.On("SearchByName", mock.Anything, "toronto genaral", 1).
			Return([]*entities.Hospital{{ID: "hosp-1", Name: "Toronto General"}}, nil)
		hospitalRepo.On("GetByID", mock.Anything, "hosp-1").Return(hospital, nil)
		queueRepo.On("CountWaiting", mock.Anything, "hosp-1").Return(0, nil)
		queueRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		eventBus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		entry, err := service.JoinQueue(ctx, req)

		require.NoError(t, err)
		assert.Equal(t, "hosp-1", entry.HospitalID)
		assert.Equal(t, 1, entry.PositionInQueue)
		assert.False(t, entry.DegradedHospitalRef)
	})

	t.Run("unresolvable hospital joins degraded with default wait", func(t *testing.T) {
		queueRepo := new(MockQueueRepository)
		hospitalRepo := new(MockHospitalRepository)
		searchRepo := new(MockSearchRepository)
		eventBus := new(MockEventBus)
		service := newTestQueueService(queueRepo, hospitalRepo, searchRepo, eventBus)

		req := validJoinRequest()
		req.HospitalID = ""
		req.HospitalName = "Nonexistent Clinic"

		hospitalRepo.On("GetByName", mock.Anything, "Nonexistent Clinic").
			Return(nil, apperrors.NewNotFoundError("not found"))
		searchRepo.On("SearchByName", mock.Anything, "Nonexistent Clinic", 1).
			Return([]*entities.Hospital{}, nil)
		queueRepo.On("CountWaiting", mock.Anything, "Nonexistent Clinic").Return(0, nil)
		queueRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		eventBus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		entry, err := service.JoinQueue(ctx, req)

		require.NoError(t, err)
		assert.True(t, entry.DegradedHospitalRef)
		assert.Equal(t, "Nonexistent Clinic", entry.HospitalID)
		assert.Equal(t, 30, entry.EstimatedWaitTime)
	})

	t.Run("rejects request without user", func(t *testing.T) {
		service := newTestQueueService(new(MockQueueRepository), new(MockHospitalRepository), new(MockSearchRepository), new(MockEventBus))

		req := validJoinRequest()
		req.UserID = ""

		entry, err := service.JoinQueue(ctx, req)

		assert.Nil(t, entry)
		errType, ok := apperrors.TypeOf(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrorTypeValidation, errType)
	})

	t.Run("rejects request without any hospital reference", func(t *testing.T) {
		service := newTestQueueService(new(MockQueueRepository), new(MockHospitalRepository), new(MockSearchRepository), new(MockEventBus))

		req := validJoinRequest()
		req.HospitalID = ""
		req.HospitalName = ""

		_, err := service.JoinQueue(ctx, req)
		errType, _ := apperrors.TypeOf(err)
		assert.Equal(t, apperrors.ErrorTypeValidation, errType)
	})
}

func TestQueueService_CheckIn(t *testing.T) {
	ctx := context.Background()

	t.Run("successfully checks in with matching code", func(t *testing.T) {
		queueRepo := new(MockQueueRepository)
		eventBus := new(MockEventBus)
		service := newTestQueueService(queueRepo, new(MockHospitalRepository), new(MockSearchRepository), eventBus)

		checkedIn := &entities.QueueEntry{
			ID:         "entry-1",
			UserID:     "user-1",
			HospitalID: "hosp-1",
			Status:     entities.QueueStatusCheckedIn,
		}
		queueRepo.On("CheckIn", mock.Anything, "entry-1", "ABC234").Return(int64(1), nil)
		queueRepo.On("GetByID", mock.Anything, "entry-1").Return(checkedIn, nil)
		eventBus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		entry, err := service.CheckIn(ctx, "entry-1", "ABC234")

		require.NoError(t, err)
		assert.Equal(t, entities.QueueStatusCheckedIn, entry.Status)
		queueRepo.AssertExpectations(t)
	})

	t.Run("wrong code and missing entry produce identical errors", func(t *testing.T) {
		queueRepo := new(MockQueueRepository)
		service := newTestQueueService(queueRepo, new(MockHospitalRepository), new(MockSearchRepository), new(MockEventBus))

		queueRepo.On("CheckIn", mock.Anything, "entry-1", "WRONG1").Return(int64(0), nil)
		queueRepo.On("CheckIn", mock.Anything, "missing", "ABC234").Return(int64(0), nil)

		_, errWrongCode := service.CheckIn(ctx, "entry-1", "WRONG1")
		_, errMissing := service.CheckIn(ctx, "missing", "ABC234")

		require.Error(t, errWrongCode)
		require.Error(t, errMissing)
		assert.Equal(t, errWrongCode.Error(), errMissing.Error())
	})

	t.Run("rejects empty code without touching the repository", func(t *testing.T) {
		queueRepo := new(MockQueueRepository)
		service := newTestQueueService(queueRepo, new(MockHospitalRepository), new(MockSearchRepository), new(MockEventBus))

		_, err := service.CheckIn(ctx, "entry-1", "")

		require.Error(t, err)
		queueRepo.AssertNotCalled(t, "CheckIn")
	})
}

func TestQueueService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("cancels a waiting entry", func(t *testing.T) {
		queueRepo := new(MockQueueRepository)
		eventBus := new(MockEventBus)
		service := newTestQueueService(queueRepo, new(MockHospitalRepository), new(MockSearchRepository), eventBus)

		waiting := &entities.QueueEntry{
			ID:         "entry-1",
			UserID:     "user-1",
			HospitalID: "hosp-1",
			Status:     entities.QueueStatusWaiting,
		}
		queueRepo.On("GetByID", mock.Anything, "entry-1").Return(waiting, nil)
		queueRepo.On("UpdateStatus", mock.Anything, "entry-1", entities.QueueStatusCancelled,
			[]entities.QueueStatus{entities.QueueStatusWaiting, entities.QueueStatusCalled}).
			Return(int64(1), nil)
		eventBus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		entry, err := service.Cancel(ctx, "entry-1")

		require.NoError(t, err)
		assert.Equal(t, entities.QueueStatusCancelled, entry.Status)
	})

	t.Run("rejects cancelling a checked-in entry", func(t *testing.T) {
		queueRepo := new(MockQueueRepository)
		service := newTestQueueService(queueRepo, new(MockHospitalRepository), new(MockSearchRepository), new(MockEventBus))

		queueRepo.On("GetByID", mock.Anything, "entry-1").
			Return(&entities.QueueEntry{ID: "entry-1", Status: entities.QueueStatusCheckedIn}, nil)

		_, err := service.Cancel(ctx, "entry-1")

		errType, ok := apperrors.TypeOf(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrorTypeConflict, errType)
		queueRepo.AssertNotCalled(t, "UpdateStatus")
	})

	t.Run("rejects cancelling an already cancelled entry", func(t *testing.T) {
		queueRepo := new(MockQueueRepository)
		service := newTestQueueService(queueRepo, new(MockHospitalRepository), new(MockSearchRepository), new(MockEventBus))

		queueRepo.On("GetByID", mock.Anything, "entry-1").
			Return(&entities.QueueEntry{ID: "entry-1", Status: entities.QueueStatusCancelled}, nil)

		_, err := service.Cancel(ctx, "entry-1")

		errType, _ := apperrors.TypeOf(err)
		assert.Equal(t, apperrors.ErrorTypeConflict, errType)
	})

	t.Run("conflicts when entry transitions between read and update", func(t *testing.T) {
		queueRepo := new(MockQueueRepository)
		service := newTestQueueService(queueRepo, new(MockHospitalRepository), new(MockSearchRepository), new(MockEventBus))

		queueRepo.On("GetByID", mock.Anything, "entry-1").
			Return(&entities.QueueEntry{ID: "entry-1", Status: entities.QueueStatusWaiting}, nil)
		queueRepo.On("UpdateStatus", mock.Anything, "entry-1", entities.QueueStatusCancelled, mock.Anything).
			Return(int64(0), nil)

		_, err := service.Cancel(ctx, "entry-1")

		errType, _ := apperrors.TypeOf(err)
		assert.Equal(t, apperrors.ErrorTypeConflict, errType)
	})
}

func TestQueueService_MarkCalled(t *testing.T) {
	ctx := context.Background()
	queueRepo := new(MockQueueRepository)
	eventBus := new(MockEventBus)
	service := newTestQueueService(queueRepo, new(MockHospitalRepository), new(MockSearchRepository), eventBus)

	called := &entities.QueueEntry{ID: "entry-1", UserID: "user-1", HospitalID: "hosp-1", Status: entities.QueueStatusCalled}
	queueRepo.On("UpdateStatus", mock.Anything, "entry-1", entities.QueueStatusCalled,
		[]entities.QueueStatus{entities.QueueStatusWaiting}).Return(int64(1), nil)
	queueRepo.On("GetByID", mock.Anything, "entry-1").Return(called, nil)
	eventBus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	entry, err := service.MarkCalled(ctx, "entry-1")

	require.NoError(t, err)
	assert.Equal(t, entities.QueueStatusCalled, entry.Status)
}

func TestQueueService_ListActive(t *testing.T) {
	ctx := context.Background()
	queueRepo := new(MockQueueRepository)
	service := newTestQueueService(queueRepo, new(MockHospitalRepository), new(MockSearchRepository), new(MockEventBus))

	queueRepo.On("ListByUser", mock.Anything, "user-1", repositories.QueueFilter{
		Statuses: []entities.QueueStatus{entities.QueueStatusWaiting, entities.QueueStatusCalled},
	}).Return([]*entities.QueueEntry{{ID: "entry-1"}}, nil)

	entries, err := service.ListActive(ctx, "user-1")

	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = service.ListActive(ctx, "")
	errType, _ := apperrors.TypeOf(err)
	assert.Equal(t, apperrors.ErrorTypeValidation, errType)
}
