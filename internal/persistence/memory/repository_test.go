package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/activities/internal/domain"
)

func activity(id, name string) domain.Activity {
	return domain.Activity{ID: id, Name: name, Description: name + " description", CreatedBy: "u1", CreatedAt: time.Now().UTC(), Version: "v1"}
}

func TestRepositoryKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	for _, a := range []domain.Activity{activity("c", "Cycle"), activity("a", "Run"), activity("b", "Swim")} {
		require.NoError(t, repo.Create(ctx, a, ""))
	}

	list, err := repo.List(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(list))
	for _, a := range list {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestRepositoryDeleteDropsIdempotencyEntry(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	require.NoError(t, repo.Create(ctx, activity("a", "Run"), "key-1"))

	found, err := repo.FindByIdempotency(ctx, "u1", "key-1")
	require.NoError(t, err)
	require.NotNil(t, found)

	require.NoError(t, repo.Delete(ctx, "a", "u1"))
	require.ErrorIs(t, repo.Delete(ctx, "a", "u1"), domain.ErrActivityNotFound)

	found, err = repo.FindByIdempotency(ctx, "u1", "key-1")
	require.NoError(t, err)
	assert.Nil(t, found)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRepositoryIdempotencyIsPerCreator(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	require.NoError(t, repo.Create(ctx, activity("a", "Run"), "shared"))

	found, err := repo.FindByIdempotency(ctx, "someone-else", "shared")
	require.NoError(t, err)
	assert.Nil(t, found)
}
