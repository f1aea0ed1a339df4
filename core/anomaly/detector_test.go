package anomaly_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gatekeeperhq/gatekeeper/core/anomaly"
	"github.com/gatekeeperhq/gatekeeper/core/secevent"
)

type mockHistory struct {
	mock.Mock
}

func (m *mockHistory) DistinctIPs(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	args := m.Called(ctx, userID, since)
	return args.Int(0), args.Error(1)
}

func (m *mockHistory) SessionsCreated(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	args := m.Called(ctx, userID, since)
	return args.Int(0), args.Error(1)
}

type eventSink struct {
	mu     sync.Mutex
	events []secevent.Event
}

func (s *eventSink) Append(_ context.Context, event *secevent.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *event)
	return nil
}

func (s *eventSink) all() []secevent.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]secevent.Event(nil), s.events...)
}

func TestDetector_Inspect(t *testing.T) {
	t.Parallel()

	t.Run("quiet history records nothing", func(t *testing.T) {
		t.Parallel()

		history := &mockHistory{}
		sink := &eventSink{}
		detector := anomaly.NewDetector(history, secevent.NewRecorder(sink))
		userID := uuid.New()

		history.On("DistinctIPs", mock.Anything, userID, mock.Anything).Return(2, nil)
		history.On("SessionsCreated", mock.Anything, userID, mock.Anything).Return(1, nil)

		detector.Inspect(context.Background(), userID, "192.0.2.1", "agent")

		assert.Empty(t, sink.all())
	})

	t.Run("threshold is exclusive", func(t *testing.T) {
		t.Parallel()

		history := &mockHistory{}
		sink := &eventSink{}
		detector := anomaly.NewDetector(history, secevent.NewRecorder(sink))
		userID := uuid.New()

		// Exactly 3 distinct IPs and 3 sessions: still within policy.
		history.On("DistinctIPs", mock.Anything, userID, mock.Anything).Return(3, nil)
		history.On("SessionsCreated", mock.Anything, userID, mock.Anything).Return(3, nil)

		detector.Inspect(context.Background(), userID, "192.0.2.1", "agent")

		assert.Empty(t, sink.all())
	})

	t.Run("flags multi ip activity", func(t *testing.T) {
		t.Parallel()

		history := &mockHistory{}
		sink := &eventSink{}
		detector := anomaly.NewDetector(history, secevent.NewRecorder(sink))
		userID := uuid.New()

		history.On("DistinctIPs", mock.Anything, userID, mock.Anything).Return(4, nil)
		history.On("SessionsCreated", mock.Anything, userID, mock.Anything).Return(0, nil)

		detector.Inspect(context.Background(), userID, "192.0.2.1", "agent")

		events := sink.all()
		require.Len(t, events, 1)
		assert.Equal(t, secevent.TypeSuspiciousActivity, events[0].Type)
		assert.Contains(t, events[0].Details, anomaly.SeverityMultiIP)
		assert.Equal(t, "192.0.2.1", events[0].IPAddress)
		require.NotNil(t, events[0].UserID)
		assert.Equal(t, userID, *events[0].UserID)
	})

	t.Run("flags rapid session creation", func(t *testing.T) {
		t.Parallel()

		history := &mockHistory{}
		sink := &eventSink{}
		detector := anomaly.NewDetector(history, secevent.NewRecorder(sink))
		userID := uuid.New()

		history.On("DistinctIPs", mock.Anything, userID, mock.Anything).Return(1, nil)
		history.On("SessionsCreated", mock.Anything, userID, mock.Anything).Return(5, nil)

		detector.Inspect(context.Background(), userID, "192.0.2.1", "agent")

		events := sink.all()
		require.Len(t, events, 1)
		assert.Contains(t, events[0].Details, anomaly.SeverityRapidSession)
	})

	t.Run("both rules can trip on one login", func(t *testing.T) {
		t.Parallel()

		history := &mockHistory{}
		sink := &eventSink{}
		detector := anomaly.NewDetector(history, secevent.NewRecorder(sink))
		userID := uuid.New()

		history.On("DistinctIPs", mock.Anything, userID, mock.Anything).Return(10, nil)
		history.On("SessionsCreated", mock.Anything, userID, mock.Anything).Return(10, nil)

		detector.Inspect(context.Background(), userID, "192.0.2.1", "agent")

		assert.Len(t, sink.all(), 2)
	})

	t.Run("history failure is swallowed", func(t *testing.T) {
		t.Parallel()

		history := &mockHistory{}
		sink := &eventSink{}
		detector := anomaly.NewDetector(history, secevent.NewRecorder(sink))
		userID := uuid.New()

		history.On("DistinctIPs", mock.Anything, userID, mock.Anything).Return(0, errors.New("timeout"))
		history.On("SessionsCreated", mock.Anything, userID, mock.Anything).Return(0, errors.New("timeout"))

		require.NotPanics(t, func() {
			detector.Inspect(context.Background(), userID, "192.0.2.1", "agent")
		})
		assert.Empty(t, sink.all())
	})
}
