package run

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hairizuanbinnoorazman/validation-agent/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createRun(t *testing.T, store Store, website string) *Run {
	t.Helper()
	r := &Run{Website: website, AuthType: "none", Request: JSONMap{"website": website}}
	require.NoError(t, store.Create(context.Background(), r))
	return r
}

func TestMySQLStore_Create(t *testing.T) {
	_, store := setupTestStore(t)
	ctx := context.Background()

	t.Run("successfully create run", func(t *testing.T) {
		r := &Run{
			Website:  "https://example.com",
			AuthType: "interactive",
			Request:  JSONMap{"input": "check the login page"},
		}
		require.NoError(t, store.Create(ctx, r))
		assert.NotEqual(t, uuid.Nil, r.ID)
		assert.Equal(t, StatusCreated, r.Status)
	})

	t.Run("missing website returns error", func(t *testing.T) {
		err := store.Create(ctx, &Run{})
		assert.ErrorIs(t, err, ErrInvalidWebsite)
	})

	t.Run("invalid status returns error", func(t *testing.T) {
		err := store.Create(ctx, &Run{Website: "https://example.com", Status: "paused"})
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})
}

func TestMySQLStore_GetByID(t *testing.T) {
	_, store := setupTestStore(t)
	ctx := context.Background()

	t.Run("retrieve existing run", func(t *testing.T) {
		r := createRun(t, store, "https://example.com")

		retrieved, err := store.GetByID(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, r.ID, retrieved.ID)
		assert.Equal(t, "https://example.com", retrieved.Website)
		assert.Equal(t, "https://example.com", retrieved.Request["website"])
		assert.Equal(t, StatusCreated, retrieved.Status)
	})

	t.Run("non-existent run returns error", func(t *testing.T) {
		_, err := store.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrRunNotFound)
	})
}

func TestMySQLStore_Update(t *testing.T) {
	_, store := setupTestStore(t)
	ctx := context.Background()
	r := createRun(t, store, "https://example.com")

	require.NoError(t, store.Update(ctx, r.ID, SetStatus(StatusFailed), SetError("worker crashed"), SetResponse(JSONMap{"run_id": r.ID.String()})))

	updated, err := store.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, updated.Status)
	assert.Equal(t, "worker crashed", updated.Error)
	assert.Equal(t, r.ID.String(), updated.Response["run_id"])

	assert.ErrorIs(t, store.Update(ctx, r.ID, SetStatus("bogus")), ErrInvalidStatus)
	assert.ErrorIs(t, store.Update(ctx, uuid.New(), SetError("x")), ErrRunNotFound)
}

func TestMySQLStore_StartAndComplete(t *testing.T) {
	_, store := setupTestStore(t)
	ctx := context.Background()
	r := createRun(t, store, "https://example.com")

	assert.ErrorIs(t, store.Complete(ctx, r.ID, Outcome{Status: StatusSuccess}), ErrRunNotRunning)

	require.NoError(t, store.Start(ctx, r.ID))
	assert.ErrorIs(t, store.Start(ctx, r.ID), ErrRunAlreadyStarted)

	assert.ErrorIs(t, store.Complete(ctx, r.ID, Outcome{Status: StatusRunning}), ErrInvalidStatus)

	require.NoError(t, store.Complete(ctx, r.ID, Outcome{
		Status:        StatusFailed,
		OverallResult: "Fail",
		FailedStage:   "execution",
		Error:         "interactive authentication timed out",
		Response:      JSONMap{"final_report": "report"},
	}))

	done, err := store.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, done.Status)
	assert.Equal(t, "Fail", done.OverallResult)
	assert.Equal(t, "execution", done.FailedStage)
	assert.Equal(t, "report", done.Response["final_report"])
	require.NotNil(t, done.StartTime)
	require.NotNil(t, done.EndTime)
	require.NotNil(t, done.Duration)
	assert.GreaterOrEqual(t, *done.Duration, int64(0))

	assert.ErrorIs(t, store.Start(ctx, uuid.New()), ErrRunNotFound)
	assert.ErrorIs(t, store.Complete(ctx, uuid.New(), Outcome{Status: StatusSuccess}), ErrRunNotFound)
}

func TestMySQLStore_ListAndCount(t *testing.T) {
	_, store := setupTestStore(t)
	ctx := context.Background()

	first := createRun(t, store, "https://a.example.com")
	createRun(t, store, "https://b.example.com")
	createRun(t, store, "https://c.example.com")
	require.NoError(t, store.Start(ctx, first.ID))

	total, err := store.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	created, err := store.Count(ctx, StatusCreated)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	page, err := store.List(ctx, "", 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := store.List(ctx, "", 2, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 1)

	running, err := store.List(ctx, StatusRunning, 10, 0)
	require.NoError(t, err)
	require.Len(t, running, 1)
	assert.Equal(t, first.ID, running[0].ID)
}

func TestMySQLStore_ClaimNextCreated(t *testing.T) {
	db, store := setupTestStore(t)
	ctx := context.Background()

	none, err := store.ClaimNextCreated(ctx)
	require.NoError(t, err)
	assert.Nil(t, none)

	now := time.Now()
	second := &Run{Website: "https://b.example.com", Status: StatusCreated, AuthType: "none", CreatedAt: now}
	first := &Run{Website: "https://a.example.com", Status: StatusCreated, AuthType: "none", CreatedAt: now.Add(-time.Minute)}
	finished := &Run{Website: "https://c.example.com", Status: StatusSuccess, AuthType: "none", CreatedAt: now.Add(-time.Hour)}
	testutil.CreateFixtures(t, db, second, first, finished)

	claimed, err := store.ClaimNextCreated(ctx)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, first.ID, claimed.ID)
	assert.Equal(t, StatusRunning, claimed.Status)

	claimed, err = store.ClaimNextCreated(ctx)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, second.ID, claimed.ID)

	claimed, err = store.ClaimNextCreated(ctx)
	require.NoError(t, err)
	assert.Nil(t, claimed)
}
