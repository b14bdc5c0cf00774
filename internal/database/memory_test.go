package repository

import (
	"context"
	"testing"
	"time"

	"VerifyFlow/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	s := entity.NewUserState("u1", time.Now())
	require.NoError(t, m.PutUserState(ctx, s))
	assert.Equal(t, int64(1), s.Version)

	a, err := m.GetUserState(ctx, "u1")
	require.NoError(t, err)
	b, err := m.GetUserState(ctx, "u1")
	require.NoError(t, err)

	a.CurrentStep = entity.StepAwaitingName
	require.NoError(t, m.PutUserState(ctx, a))

	b.CurrentStep = entity.StepAwaitingEmail
	assert.ErrorIs(t, m.PutUserState(ctx, b), entity.ErrVersionConflict)

	got, err := m.GetUserState(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, entity.StepAwaitingName, got.CurrentStep)
	assert.Equal(t, int64(2), got.Version)

	fresh := entity.NewUserState("u1", time.Now())
	assert.ErrorIs(t, m.PutUserState(ctx, fresh), entity.ErrVersionConflict)
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	s := entity.NewUserState("u1", time.Now())
	require.NoError(t, m.PutUserState(ctx, s))

	got, _ := m.GetUserState(ctx, "u1")
	got.Data["x"] = "y"

	again, _ := m.GetUserState(ctx, "u1")
	assert.NotContains(t, again.Data, "x")
}

func TestMemoryUsers(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	u := entity.NewUser("u1", "John", "Smith", "john@x.com", "+16502530000")
	require.NoError(t, m.CreateUser(ctx, u))

	found, err := m.FindByEmailAndLastName(ctx, "john@x.com", "SMITH ")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, u.UUID, found.UUID)

	missing, err := m.FindByEmailAndLastName(ctx, "john@x.com", "Doe")
	require.NoError(t, err)
	assert.Nil(t, missing)

	found.Phone = "+442070313000"
	require.NoError(t, m.UpdateUser(ctx, found))
	byID, _ := m.GetUserByUUID(ctx, u.UUID)
	assert.Equal(t, "+442070313000", byID.Phone)

	assert.ErrorIs(t, m.UpdateUser(ctx, &entity.User{UUID: "nope"}), entity.ErrNotFound)
}

func TestMemoryApiKeys(t *testing.T) {
	m := NewMemory()
	key, err := m.GenerateApiKey("mcp")
	require.NoError(t, err)
	require.NotEmpty(t, key)

	again, err := m.GenerateApiKey("mcp")
	require.NoError(t, err)
	assert.Equal(t, key, again)

	name, err := m.CheckApiKey(key)
	require.NoError(t, err)
	assert.Equal(t, "mcp", name)

	_, err = m.CheckApiKey("unknown")
	assert.ErrorIs(t, err, entity.ErrNotFound)
}
