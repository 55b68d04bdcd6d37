package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-portal-auth"
)

func TestMultiActivitySink(t *testing.T) {
	var calls []string
	first := auth.ActivitySinkFunc(func(context.Context, auth.ActivityEvent) error {
		calls = append(calls, "first")
		return errors.New("first failed")
	})
	second := auth.ActivitySinkFunc(func(context.Context, auth.ActivityEvent) error {
		calls = append(calls, "second")
		return errors.New("second failed")
	})

	err := auth.MultiActivitySink{first, nil, second}.Record(context.Background(), auth.ActivityEvent{})
	require.Error(t, err)
	assert.Equal(t, "first failed", err.Error())
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestActivitySinkFailureDoesNotFailRegistration(t *testing.T) {
	logger := new(MockLogger)
	logger.On("Warn", mock.Anything, mock.Anything).Return()

	failing := auth.ActivitySinkFunc(func(context.Context, auth.ActivityEvent) error {
		return errors.New("sink down")
	})

	registrar := auth.NewRegistrar(auth.UserPolicy(0), newMemoryStore(true), fastHasher()).
		WithLogger(logger).
		WithActivitySink(failing)

	confirmation, err := registrar.Register(context.Background(), validUserRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, confirmation.ID)
	logger.AssertCalled(t, "Warn", mock.Anything, mock.Anything)
}

func TestActivity_FailureReasons(t *testing.T) {
	var events []auth.ActivityEvent
	sink := auth.ActivitySinkFunc(func(_ context.Context, e auth.ActivityEvent) error {
		events = append(events, e)
		return nil
	})
	registrar := auth.NewRegistrar(auth.UserPolicy(0), newMemoryStore(true), fastHasher()).WithActivitySink(sink)

	req := validUserRequest()
	req.Phone = ""
	_, err := registrar.Register(context.Background(), req)
	require.Error(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, auth.ActivityEventRegisterFailure, events[0].EventType)
	assert.Equal(t, auth.TextCodeValidationFailed, events[0].Reason)
	assert.Equal(t, auth.KindUser, events[0].Kind)
}

func TestMetricsSink_Record(t *testing.T) {
	m := auth.NewMetricsSink()
	ctx := context.Background()

	require.NoError(t, m.Record(ctx, auth.ActivityEvent{EventType: auth.ActivityEventLoginSuccess, Kind: auth.KindAdmin}))
	require.NoError(t, m.Record(ctx, auth.ActivityEvent{EventType: auth.ActivityEventLoginFailure, Kind: auth.KindAdmin, Reason: auth.TextCodeInvalidCreds}))
	require.NoError(t, m.Record(ctx, auth.ActivityEvent{EventType: auth.ActivityEventLoginFailure, Kind: auth.KindAdmin, Reason: auth.TextCodeInvalidCreds}))
	require.NoError(t, m.Record(ctx, auth.ActivityEvent{EventType: "unknown"}))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Logins().WithLabelValues("admin", "success", "")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Logins().WithLabelValues("admin", "failure", auth.TextCodeInvalidCreds)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.Logins()))
	assert.Equal(t, 0, testutil.CollectAndCount(m.Registrations()))
}
