package kml

import (
	"context"
	"errors"
	"fmt"
	"testing"

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

	return NewService(manager.KMLStorage(), common.GetLogger()), manager
}

func validKML(placemarks int) []byte {
	content := `<?xml version="1.0" encoding="UTF-8"?><kml xmlns="http://www.opengis.net/kml/2.2"><Document>`
	for i := 0; i < placemarks; i++ {
		content += fmt.Sprintf(`<Placemark><name>Site %d</name><Point><coordinates>%d.0,%d.0</coordinates></Point></Placemark>`, i, i%90, i%80)
	}
	content += `</Document></kml>`
	return []byte(content)
}

func TestIngest_RejectsNonKMLExtension(t *testing.T) {
	svc, _ := newTestService(t)

	for _, filename := range []string{"sites.kmz", "sites.xml", "sites", "kml"} {
		_, err := svc.Ingest(context.Background(), validKML(1), filename, "admin")
		assert.ErrorIs(t, err, ErrUnsupportedExtension, filename)
	}
}

func TestIngest_ExtensionCaseInsensitive(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.Ingest(context.Background(), validKML(1), "SITES.KML", "admin")
	require.NoError(t, err)
	assert.Equal(t, "SITES.KML", result.Batch.Filename)
}

func TestIngest_ExtensionGateRunsBeforeParsing(t *testing.T) {
	svc, _ := newTestService(t)

	// Garbage content with a wrong extension must surface the extension
	// error, not a parse error.
	_, err := svc.Ingest(context.Background(), []byte("not xml at all"), "sites.txt", "admin")
	assert.ErrorIs(t, err, ErrUnsupportedExtension)
}

func TestIngest_PersistsActiveBatch(t *testing.T) {
	svc, manager := newTestService(t)

	result, err := svc.Ingest(context.Background(), validKML(3), "sites.kml", "admin")
	require.NoError(t, err)

	batch := result.Batch
	assert.NotEmpty(t, batch.ID)
	assert.Equal(t, "sites.kml", batch.Filename)
	assert.Equal(t, "admin", batch.UploadedBy)
	assert.Equal(t, 3, batch.TotalLocations)
	assert.Equal(t, models.KMLStatusActive, batch.Status)
	assert.False(t, batch.UploadedAt.IsZero())

	stored, err := manager.KMLStorage().GetBatch(context.Background(), batch.ID)
	require.NoError(t, err)
	assert.Equal(t, batch.TotalLocations, stored.TotalLocations)
	assert.Len(t, stored.Locations, 3)
}

func TestIngest_PreviewCappedAtTen(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.Ingest(context.Background(), validKML(25), "sites.kml", "admin")
	require.NoError(t, err)
	assert.Equal(t, 25, result.Batch.TotalLocations)
	assert.Len(t, result.Preview, 10)
}

func TestIngest_SkippedPlacemarksCounted(t *testing.T) {
	svc, _ := newTestService(t)

	content := []byte(`<kml><Document>
    <Placemark><name>Good</name><Point><coordinates>1.0,2.0</coordinates></Point></Placemark>
    <Placemark><name>No geometry</name></Placemark>
  </Document></kml>`)

	result, err := svc.Ingest(context.Background(), content, "sites.kml", "admin")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Batch.TotalLocations)
	assert.Equal(t, 1, result.Batch.SkippedPlacemarks)
}

func TestIngest_NoValidLocationsNotPersisted(t *testing.T) {
	svc, manager := newTestService(t)

	content := []byte(`<kml><Document><Placemark><name>Empty</name></Placemark></Document></kml>`)

	_, err := svc.Ingest(context.Background(), content, "sites.kml", "admin")

	var noLocations *NoValidLocationsError
	require.True(t, errors.As(err, &noLocations))

	batches, err := manager.KMLStorage().ListActiveBatches(context.Background())
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestDeleteBatch(t *testing.T) {
	svc, manager := newTestService(t)

	result, err := svc.Ingest(context.Background(), validKML(1), "sites.kml", "admin")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBatch(context.Background(), result.Batch.ID))

	_, err = manager.KMLStorage().GetBatch(context.Background(), result.Batch.ID)
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestDeleteBatch_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.DeleteBatch(context.Background(), "kml_missing")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}
