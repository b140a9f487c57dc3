package service

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"taxi24/internal/domain"
	"taxi24/internal/repository/memory"
)

var bogota = domain.MustLocation(4.6097, -74.0817)

// north returns a point km kilometers due north of base.
func north(base domain.Location, km float64) domain.Location {
	return domain.MustLocation(base.Lat()+km/111.195, base.Lng())
}

func seedDrivers(t *testing.T, env *testEnv) {
	env.addDriver(t, "far", north(bogota, 2.5), true)
	env.addDriver(t, "near", north(bogota, 0.5), true)
	env.addDriver(t, "busy", north(bogota, 0.1), false)
	env.addDriver(t, "out", north(bogota, 8), true)
	env.addDriver(t, "mid", north(bogota, 1.2), true)
	env.addDriver(t, "mid-twin", north(bogota, 1.2), true)
}

func ids(nearby []domain.NearbyDriver) []string {
	out := make([]string, len(nearby))
	for i, n := range nearby {
		out[i] = n.Driver.ID
	}
	return out
}

func TestDriverDirectory_FindNearby(t *testing.T) {
	env := newTestEnv(t)
	seedDrivers(t, env)
	ctx := context.Background()

	got, err := env.directory.FindNearby(ctx, bogota, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"near", "mid", "mid-twin", "far"}, ids(got))

	for i, n := range got {
		assert.True(t, n.Driver.Available)
		assert.LessOrEqual(t, n.DistanceKm, 3.0)
		if i > 0 {
			assert.GreaterOrEqual(t, n.DistanceKm, got[i-1].DistanceKm)
		}
	}
}

func TestDriverDirectory_FindNearby_DefaultLimit(t *testing.T) {
	env := newTestEnv(t)
	seedDrivers(t, env)

	got, err := env.directory.FindNearby(context.Background(), bogota, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"near", "mid", "mid-twin"}, ids(got))
}

func TestDriverDirectory_FindNearby_InvalidRadius(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.directory.FindNearby(context.Background(), bogota, -1, 3)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = env.directory.FindNearby(context.Background(), bogota, math.NaN(), 3)
	assert.ErrorIs(t, err, ErrInvalidRadius)
}

func TestDriverDirectory_FindNearby_GeoIndexMatchesScan(t *testing.T) {
	env := newTestEnv(t)
	index := newFakeLocationStore()
	indexed := NewDriverDirectory(env.drivers, index, zap.NewNop())

	seedDrivers(t, env)
	n, err := indexed.RebuildIndex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	for _, radius := range []float64{0.3, 1.2, 3, 50} {
		for _, limit := range []int{1, 3, 10} {
			scan, err := env.directory.FindNearby(context.Background(), bogota, radius, limit)
			require.NoError(t, err)
			geo, err := indexed.FindNearby(context.Background(), bogota, radius, limit)
			require.NoError(t, err)
			assert.Equal(t, ids(scan), ids(geo), "radius=%v limit=%d", radius, limit)
		}
	}
}

func TestDriverDirectory_FindNearby_IndexFailureFallsBack(t *testing.T) {
	env := newTestEnv(t)
	index := newFakeLocationStore()
	index.err = errBroker
	indexed := NewDriverDirectory(env.drivers, index, zap.NewNop())
	seedDrivers(t, env)

	got, err := indexed.FindNearby(context.Background(), bogota, 3, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"near", "mid", "mid-twin"}, ids(got))
}

func TestDriverDirectory_Save(t *testing.T) {
	ctx := context.Background()
	index := newFakeLocationStore()
	dir := NewDriverDirectory(memory.NewDriverRepository(), index, zap.NewNop())

	saved, err := dir.Save(ctx, &domain.Driver{Name: " Ana ", Email: "ana@x.com", Phone: "300", Location: bogota, Available: true})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "Ana", saved.Name)
	assert.False(t, saved.CreatedAt.IsZero())
	assert.True(t, index.has(saved.ID))

	_, err = dir.Save(ctx, &domain.Driver{Name: "Bob", Email: "ana@x.com", Phone: "301"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	saved.Available = false
	_, err = dir.Save(ctx, saved)
	require.NoError(t, err)
	assert.False(t, index.has(saved.ID))

	all, err := dir.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDriverDirectory_Save_RequiredFields(t *testing.T) {
	dir := NewDriverDirectory(memory.NewDriverRepository(), nil, zap.NewNop())

	_, err := dir.Save(context.Background(), &domain.Driver{Name: "Ana", Email: "  "})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorIs(t, err, ErrMissingRequiredField)
	assert.Contains(t, err.Error(), "email, phone")
}

func TestDriverDirectory_Get_Absent(t *testing.T) {
	env := newTestEnv(t)

	d, found, err := env.directory.Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, d)
}

func TestDriverDirectory_OperationalUpdates(t *testing.T) {
	ctx := context.Background()
	index := newFakeLocationStore()
	dir := NewDriverDirectory(memory.NewDriverRepository(), index, zap.NewNop())

	d, err := dir.Save(ctx, &domain.Driver{Name: "Ana", Email: "ana@x.com", Phone: "300", Location: bogota})
	require.NoError(t, err)
	assert.False(t, index.has(d.ID))

	d, err = dir.SetAvailability(ctx, d.ID, true)
	require.NoError(t, err)
	assert.True(t, d.Available)
	assert.True(t, index.has(d.ID))

	moved := north(bogota, 1)
	d, err = dir.UpdateLocation(ctx, d.ID, moved)
	require.NoError(t, err)
	assert.Equal(t, moved, d.Location)

	_, err = dir.UpdateLocation(ctx, "missing", moved)
	assert.ErrorIs(t, err, ErrDriverNotFound)
}
