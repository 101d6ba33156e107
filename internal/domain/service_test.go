package domain_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/activities/internal/domain"
	"example.com/activities/internal/logging"
	"example.com/activities/internal/persistence/memory"
)

func TestCreateActivityTrimsAndInvalidates(t *testing.T) {
	inv := &recordingInvalidator{}
	service := domain.NewService(memory.NewRepository(), inv, logging.Discard())

	activity, replay, err := service.CreateActivity(context.Background(), domain.CreateActivityInput{
		Name:        "  Morning run ",
		Description: "5k along the river",
		CreatedBy:   "user-1",
	})
	require.NoError(t, err)
	assert.False(t, replay)
	assert.NotEmpty(t, activity.ID)
	assert.Equal(t, "Morning run", activity.Name)
	assert.Equal(t, [][]string{{domain.ResourceKey}}, inv.calls)
}

func TestCreateActivityValidation(t *testing.T) {
	service := domain.NewService(memory.NewRepository(), nil, logging.Discard())

	tests := []struct {
		name  string
		input domain.CreateActivityInput
		field string
	}{
		{name: "missing name", input: domain.CreateActivityInput{Description: "d"}, field: "name"},
		{name: "blank description", input: domain.CreateActivityInput{Name: "n", Description: "   "}, field: "description"},
		{name: "long name", input: domain.CreateActivityInput{Name: strings.Repeat("x", domain.MaxNameLength+1), Description: "d"}, field: "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := service.CreateActivity(context.Background(), tt.input)
			require.ErrorIs(t, err, domain.ErrValidation)

			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestCreateActivityReplaysIdempotencyKey(t *testing.T) {
	service := domain.NewService(memory.NewRepository(), nil, logging.Discard())
	input := domain.CreateActivityInput{Name: "Swim", Description: "Pool laps", CreatedBy: "user-1", IdempotencyKey: "key-1"}

	first, replay, err := service.CreateActivity(context.Background(), input)
	require.NoError(t, err)
	require.False(t, replay)

	second, replay, err := service.CreateActivity(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, replay)
	assert.Equal(t, first.ID, second.ID)

	list, err := service.ListActivities(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestListPreservesInsertionOrder(t *testing.T) {
	service := domain.NewService(memory.NewRepository(), nil, logging.Discard())
	for _, name := range []string{"b", "a", "c"} {
		_, _, err := service.CreateActivity(context.Background(), domain.CreateActivityInput{Name: name, Description: name})
		require.NoError(t, err)
	}

	list, err := service.ListActivities(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{list[0].Name, list[1].Name, list[2].Name})
}

func TestDeleteActivity(t *testing.T) {
	inv := &recordingInvalidator{}
	service := domain.NewService(memory.NewRepository(), inv, logging.Discard())
	created, _, err := service.CreateActivity(context.Background(), domain.CreateActivityInput{Name: "Yoga", Description: "Flow"})
	require.NoError(t, err)

	require.NoError(t, service.DeleteActivity(context.Background(), created.ID, "user-1"))
	assert.Len(t, inv.calls, 2)

	err = service.DeleteActivity(context.Background(), created.ID, "user-1")
	require.ErrorIs(t, err, domain.ErrActivityNotFound)

	err = service.DeleteActivity(context.Background(), " ", "user-1")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestDeleteActivityRejectsMalformedID(t *testing.T) {
	inv := &recordingInvalidator{}
	repo := &countingRepository{Repository: memory.NewRepository()}
	service := domain.NewService(repo, inv, logging.Discard())

	for _, id := range []string{"nope", "act-1", "123e4567-e89b-12d3-a456"} {
		err := service.DeleteActivity(context.Background(), id, "user-1")
		require.ErrorIs(t, err, domain.ErrActivityNotFound, id)
	}
	assert.Zero(t, repo.deletes)
	assert.Empty(t, inv.calls)
}

type countingRepository struct {
	*memory.Repository
	deletes int
}

func (r *countingRepository) Delete(ctx context.Context, activityID, deletedBy string) error {
	r.deletes++
	return r.Repository.Delete(ctx, activityID, deletedBy)
}

func TestInvalidationFailureDoesNotFailWrite(t *testing.T) {
	inv := &recordingInvalidator{err: errors.New("web tier down")}
	service := domain.NewService(memory.NewRepository(), inv, logging.Discard())

	_, _, err := service.CreateActivity(context.Background(), domain.CreateActivityInput{Name: "Row", Description: "2k"})
	require.NoError(t, err)
}

type recordingInvalidator struct {
	mu    sync.Mutex
	err   error
	calls [][]string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, keys)
	return r.err
}
