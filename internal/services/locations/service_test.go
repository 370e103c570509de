package locations

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucivanservicos/ops-gestao/internal/common"
	"github.com/lucivanservicos/ops-gestao/internal/interfaces"
	"github.com/lucivanservicos/ops-gestao/internal/models"
	"github.com/lucivanservicos/ops-gestao/internal/storage/badger"
)

func newTestService(t *testing.T) (*Service, interfaces.StorageManager) {
	t.Helper()

	manager, err := badger.NewManager(common.GetLogger(), &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	return NewService(manager.KMLStorage(), manager.ObservationStorage(), common.GetLogger()), manager
}

func seedBatch(t *testing.T, manager interfaces.StorageManager, id, filename string, uploadedAt time.Time, locations ...models.LocationRecord) {
	t.Helper()

	err := manager.KMLStorage().SaveBatch(context.Background(), &models.KMLBatch{
		ID:             id,
		Filename:       filename,
		UploadedBy:     "admin",
		UploadedAt:     uploadedAt,
		Locations:      locations,
		TotalLocations: len(locations),
		Status:         models.KMLStatusActive,
	})
	require.NoError(t, err)
}

func TestSearch_QueryTooShort(t *testing.T) {
	svc, _ := newTestService(t)

	for _, query := range []string{"", " ", "a", " a ", "\t\n"} {
		_, err := svc.Search(context.Background(), query, 10)
		assert.ErrorIs(t, err, ErrQueryTooShort, "query %q", query)
	}
}

func TestSearch_CaseInsensitiveSubstring(t *testing.T) {
	svc, manager := newTestService(t)
	seedBatch(t, manager, "kml_a", "a.kml", time.Now().UTC(),
		models.LocationRecord{Name: "Torre SÃO PAULO", Description: "site principal", Latitude: 1, Longitude: 2},
		models.LocationRecord{Name: "Outra", Description: "Contém torre velha", Latitude: 3, Longitude: 4},
		models.LocationRecord{Name: "Sem relação", Description: "nada", Latitude: 5, Longitude: 6},
	)

	results, err := svc.Search(context.Background(), "TORRE", 10)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearch_StableIDsAcrossRepeats(t *testing.T) {
	svc, manager := newTestService(t)
	seedBatch(t, manager, "kml_a", "a.kml", time.Now().UTC(),
		models.LocationRecord{Name: "alpha one", Latitude: 1, Longitude: 2},
		models.LocationRecord{Name: "beta", Latitude: 3, Longitude: 4},
		models.LocationRecord{Name: "alpha two", Latitude: 5, Longitude: 6},
	)

	first, err := svc.Search(context.Background(), "alpha", 10)
	require.NoError(t, err)
	second, err := svc.Search(context.Background(), "alpha", 10)
	require.NoError(t, err)

	require.Len(t, first, 2)
	assert.Equal(t, "kml_a_0", first[0].ID)
	assert.Equal(t, "kml_a_2", first[1].ID)
	assert.Equal(t, first, second)
}

func TestSearch_IDStableUnderNarrowerQuery(t *testing.T) {
	// The id encodes the location's position in its batch, so a query that
	// matches fewer locations still yields the same id for the same location.
	svc, manager := newTestService(t)
	seedBatch(t, manager, "kml_a", "a.kml", time.Now().UTC(),
		models.LocationRecord{Name: "alpha", Latitude: 1, Longitude: 2},
		models.LocationRecord{Name: "alpha beta", Latitude: 3, Longitude: 4},
	)

	broad, err := svc.Search(context.Background(), "alpha", 10)
	require.NoError(t, err)
	narrow, err := svc.Search(context.Background(), "beta", 10)
	require.NoError(t, err)

	require.Len(t, broad, 2)
	require.Len(t, narrow, 1)
	assert.Equal(t, broad[1].ID, narrow[0].ID)
}

func TestSearch_LimitClamped(t *testing.T) {
	svc, manager := newTestService(t)

	locations := make([]models.LocationRecord, 60)
	for i := range locations {
		locations[i] = models.LocationRecord{Name: fmt.Sprintf("site %d", i), Latitude: 1, Longitude: 2}
	}
	seedBatch(t, manager, "kml_a", "a.kml", time.Now().UTC(), locations...)

	tests := []struct {
		limit int
		want  int
	}{
		{0, 50},
		{-5, 50},
		{200, 50},
		{3, 3},
	}
	for _, tt := range tests {
		results, err := svc.Search(context.Background(), "site", tt.limit)
		require.NoError(t, err)
		assert.Len(t, results, tt.want, "limit %d", tt.limit)
	}
}

func TestSearch_BatchesScannedInUploadOrder(t *testing.T) {
	svc, manager := newTestService(t)
	base := time.Now().UTC()
	seedBatch(t, manager, "kml_b", "b.kml", base.Add(time.Hour),
		models.LocationRecord{Name: "match later", Latitude: 1, Longitude: 2})
	seedBatch(t, manager, "kml_a", "a.kml", base,
		models.LocationRecord{Name: "match earlier", Latitude: 3, Longitude: 4})

	results, err := svc.Search(context.Background(), "match", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a.kml", results[0].SourceFile)
	assert.Equal(t, "b.kml", results[1].SourceFile)
}

func TestSearch_ProvenanceAttached(t *testing.T) {
	svc, manager := newTestService(t)
	seedBatch(t, manager, "kml_a", "sites.kml", time.Now().UTC(),
		models.LocationRecord{Name: "alpha", Description: "desc", Latitude: 1.5, Longitude: 2.5})

	results, err := svc.Search(context.Background(), "alpha", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "sites.kml", r.SourceFile)
	assert.Equal(t, "admin", r.UploadedBy)
	assert.Equal(t, 1.5, r.Latitude)
	assert.Equal(t, 2.5, r.Longitude)
}

func TestListLocations_FlattensActiveBatches(t *testing.T) {
	svc, manager := newTestService(t)
	base := time.Now().UTC()
	seedBatch(t, manager, "kml_a", "a.kml", base,
		models.LocationRecord{Name: "one", Latitude: 1, Longitude: 2},
		models.LocationRecord{Name: "two", Latitude: 3, Longitude: 4})
	seedBatch(t, manager, "kml_b", "b.kml", base.Add(time.Minute),
		models.LocationRecord{Name: "three", Latitude: 5, Longitude: 6})

	// Inactive batches do not participate.
	require.NoError(t, manager.KMLStorage().SaveBatch(context.Background(), &models.KMLBatch{
		ID: "kml_c", Filename: "c.kml", UploadedAt: base,
		Locations: []models.LocationRecord{{Name: "hidden", Latitude: 7, Longitude: 8}},
		Status:    models.KMLStatusInactive,
	}))

	all, err := svc.ListLocations(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a.kml", all[0].SourceFile)
	assert.Equal(t, "b.kml", all[2].SourceFile)
}

func TestAddObservation_EmptyRejected(t *testing.T) {
	svc, _ := newTestService(t)

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := svc.AddObservation(context.Background(), "kml_a_0", "u1", "user", text)
		assert.ErrorIs(t, err, ErrEmptyObservation)
	}
}

func TestObservations_ListNewestFirst(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.AddObservation(ctx, "kml_a_0", "u1", "user", "primeira")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := svc.AddObservation(ctx, "kml_a_0", "u1", "user", "segunda")
	require.NoError(t, err)

	// Order is grouped by location key; other keys stay invisible.
	_, err = svc.AddObservation(ctx, "kml_b_3", "u1", "user", "outra localização")
	require.NoError(t, err)

	list, err := svc.ListObservations(ctx, "kml_a_0")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestAddObservation_TrimsText(t *testing.T) {
	svc, _ := newTestService(t)

	obs, err := svc.AddObservation(context.Background(), "kml_a_0", "u1", "user", "  acesso pela lateral  ")
	require.NoError(t, err)
	assert.Equal(t, "acesso pela lateral", obs.Text)
}

func TestDeleteObservation_Permissions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	obs, err := svc.AddObservation(ctx, "kml_a_0", "author-id", "author", "nota")
	require.NoError(t, err)

	// Another regular user cannot delete it.
	err = svc.DeleteObservation(ctx, obs.ID, "other-id", false)
	assert.ErrorIs(t, err, ErrObservationForbidden)

	// An admin can.
	require.NoError(t, svc.DeleteObservation(ctx, obs.ID, "other-id", true))

	// Deleting again reports not found.
	err = svc.DeleteObservation(ctx, obs.ID, "author-id", false)
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestDeleteObservation_AuthorAllowed(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	obs, err := svc.AddObservation(ctx, "kml_a_0", "author-id", "author", "nota")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteObservation(ctx, obs.ID, "author-id", false))
}
