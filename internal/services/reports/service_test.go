package reports

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

func newTestService(t *testing.T) (*Service, interfaces.PendenciaStorage) {
	t.Helper()

	manager, err := badger.NewManager(common.GetLogger(), &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	return NewService(manager.PendenciaStorage(), common.GetLogger()), manager.PendenciaStorage()
}

type ticket struct {
	site       string
	tipo       string
	status     string
	createdBy  string
	createdAt  time.Time
	finishedBy string
	finishedAt *time.Time
	validation string
}

func seed(t *testing.T, store interfaces.PendenciaStorage, tk ticket) {
	t.Helper()

	if tk.site == "" {
		tk.site = "SP-001"
	}
	if tk.tipo == "" {
		tk.tipo = models.TipoEnergia
	}
	if tk.status == "" {
		tk.status = models.PendenciaStatusPendente
	}
	err := store.SavePendencia(context.Background(), &models.Pendencia{
		ID:                 common.NewID(),
		Site:               tk.site,
		Tipo:               tk.tipo,
		Subtipo:            "Retificador",
		DataHora:           tk.createdAt,
		Status:             tk.status,
		UsuarioCriacao:     tk.createdBy,
		UsuarioFinalizacao: tk.finishedBy,
		DataFinalizacao:    tk.finishedAt,
		ValidationStatus:   tk.validation,
		CreatedAt:          tk.createdAt,
	})
	require.NoError(t, err)
}

func ptr(t time.Time) *time.Time { return &t }

func TestTimeline_BucketsByMonth(t *testing.T) {
	svc, store := newTestService(t)
	now := time.Now().UTC()
	lastMonth := now.AddDate(0, -1, 0)

	seed(t, store, ticket{createdBy: "a", createdAt: lastMonth})
	seed(t, store, ticket{createdBy: "a", createdAt: lastMonth,
		status: models.PendenciaStatusFinalizado, finishedBy: "a", finishedAt: ptr(lastMonth),
		validation: models.ValidationApproved})
	seed(t, store, ticket{createdBy: "b", createdAt: now})

	buckets, err := svc.Timeline(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, buckets, 2)

	first := buckets[0]
	assert.Equal(t, fmt.Sprintf("%s %d", lastMonth.Month().String(), lastMonth.Year()), first.Period)
	assert.Equal(t, 2, first.Total)
	assert.Equal(t, 1, first.Pending)
	assert.Equal(t, 1, first.Finished)
	assert.Equal(t, 1, first.Approved)

	assert.Equal(t, 1, buckets[1].Total)
}

func TestTimeline_WindowExcludesOutside(t *testing.T) {
	svc, store := newTestService(t)
	now := time.Now().UTC()

	seed(t, store, ticket{createdBy: "a", createdAt: now.AddDate(-1, 0, 0)})
	seed(t, store, ticket{createdBy: "a", createdAt: now})

	// Default window is 180 days, so the year-old ticket falls out.
	buckets, err := svc.Timeline(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.Equal(t, 1, buckets[0].Total)

	// An explicit window brings it back.
	buckets, err = svc.Timeline(context.Background(), now.AddDate(-2, 0, 0), now)
	require.NoError(t, err)
	assert.Len(t, buckets, 2)
}

func TestDistribution(t *testing.T) {
	svc, store := newTestService(t)
	now := time.Now().UTC()

	for i := 0; i < 3; i++ {
		seed(t, store, ticket{site: "SP-001", tipo: models.TipoEnergia, createdBy: "a", createdAt: now})
	}
	seed(t, store, ticket{site: "RJ-002", tipo: models.TipoArcon, createdBy: "a", createdAt: now,
		status: models.PendenciaStatusFinalizado, finishedBy: "a", finishedAt: ptr(now)})

	dist, err := svc.Distribution(context.Background())
	require.NoError(t, err)

	require.Len(t, dist.ByType, 2)
	assert.Equal(t, CountEntry{Label: models.TipoEnergia, Count: 3}, dist.ByType[0])
	assert.Equal(t, CountEntry{Label: models.TipoArcon, Count: 1}, dist.ByType[1])

	require.Len(t, dist.BySite, 2)
	assert.Equal(t, "SP-001", dist.BySite[0].Label)

	require.Len(t, dist.ByStatus, 2)
	assert.Equal(t, CountEntry{Label: models.PendenciaStatusPendente, Count: 3}, dist.ByStatus[0])
}

func TestDistribution_SitesCappedAtTen(t *testing.T) {
	svc, store := newTestService(t)
	now := time.Now().UTC()

	for i := 0; i < 12; i++ {
		seed(t, store, ticket{site: fmt.Sprintf("SITE-%02d", i), createdBy: "a", createdAt: now})
	}

	dist, err := svc.Distribution(context.Background())
	require.NoError(t, err)
	assert.Len(t, dist.BySite, 10)
}

func TestPerformance(t *testing.T) {
	svc, store := newTestService(t)
	now := time.Now().UTC()
	recent := now.AddDate(0, 0, -5)

	// Two recent by "ana", one approved -> 50% approval rate.
	seed(t, store, ticket{createdBy: "ana", createdAt: recent,
		status: models.PendenciaStatusFinalizado, finishedBy: "ana", finishedAt: ptr(recent),
		validation: models.ValidationApproved})
	seed(t, store, ticket{createdBy: "ana", createdAt: recent})
	// One recent by "bia".
	seed(t, store, ticket{createdBy: "bia", createdAt: recent})
	// Old work falls outside the 30-day window.
	seed(t, store, ticket{createdBy: "ana", createdAt: now.AddDate(0, 0, -60)})

	perf, err := svc.Performance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Last 30 days", perf.Period)

	require.Len(t, perf.TopCreators, 2)
	assert.Equal(t, "ana", perf.TopCreators[0].Username)
	assert.Equal(t, 2, perf.TopCreators[0].Created)
	assert.Equal(t, 1, perf.TopCreators[0].Approved)
	assert.Equal(t, 50.0, perf.TopCreators[0].ApprovalRate)
	assert.Equal(t, "bia", perf.TopCreators[1].Username)

	require.Len(t, perf.TopFinalizers, 1)
	assert.Equal(t, "ana", perf.TopFinalizers[0].Username)
	assert.Equal(t, 1, perf.TopFinalizers[0].Finished)
	assert.Equal(t, 100.0, perf.TopFinalizers[0].ApprovalRate)
}

func TestUserStats_CurrentMonthOnly(t *testing.T) {
	svc, store := newTestService(t)
	now := time.Now().UTC()
	thisMonth := time.Date(now.Year(), now.Month(), 1, 12, 0, 0, 0, time.UTC)

	seed(t, store, ticket{createdBy: "ana", createdAt: thisMonth,
		status: models.PendenciaStatusFinalizado, finishedBy: "ana", finishedAt: ptr(thisMonth),
		validation: models.ValidationApproved})
	seed(t, store, ticket{createdBy: "ana", createdAt: thisMonth})
	seed(t, store, ticket{createdBy: "ana", createdAt: thisMonth.AddDate(0, -2, 0)})
	seed(t, store, ticket{createdBy: "bia", createdAt: thisMonth})

	stats, err := svc.UserStats(context.Background(), "ana")
	require.NoError(t, err)
	assert.Equal(t, now.Month().String(), stats.Month)
	assert.Equal(t, 2, stats.CreatedCount)
	assert.Equal(t, 1, stats.FinishedCount)
	assert.Equal(t, 1, stats.ApprovedCreatedCount)
	assert.Equal(t, 1, stats.ApprovedFinishedCount)
}

func TestMonthlyStats_ApprovedOnly(t *testing.T) {
	svc, store := newTestService(t)
	now := time.Now().UTC()
	thisMonth := time.Date(now.Year(), now.Month(), 1, 12, 0, 0, 0, time.UTC)

	seed(t, store, ticket{createdBy: "ana", createdAt: thisMonth,
		status: models.PendenciaStatusFinalizado, finishedBy: "bia", finishedAt: ptr(thisMonth),
		validation: models.ValidationApproved})
	// Not validated, so it counts for nobody.
	seed(t, store, ticket{createdBy: "bia", createdAt: thisMonth})
	seed(t, store, ticket{createdBy: "bia", createdAt: thisMonth})

	stats, err := svc.MonthlyStats(context.Background())
	require.NoError(t, err)

	require.NotNil(t, stats.MostCreated)
	assert.Equal(t, "ana", stats.MostCreated.Username)
	assert.Equal(t, 1, stats.MostCreated.Count)

	require.NotNil(t, stats.MostFinished)
	assert.Equal(t, "bia", stats.MostFinished.Username)
}

func TestMonthlyStats_EmptyMonth(t *testing.T) {
	svc, _ := newTestService(t)

	stats, err := svc.MonthlyStats(context.Background())
	require.NoError(t, err)
	assert.Nil(t, stats.MostCreated)
	assert.Nil(t, stats.MostFinished)
}
