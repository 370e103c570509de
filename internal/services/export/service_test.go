package export

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/lucivanservicos/ops-gestao/internal/common"
	"github.com/lucivanservicos/ops-gestao/internal/interfaces"
	"github.com/lucivanservicos/ops-gestao/internal/models"
	"github.com/lucivanservicos/ops-gestao/internal/storage/badger"
)

func newTestService(t *testing.T, maxRows int) (*Service, interfaces.PendenciaStorage) {
	t.Helper()

	manager, err := badger.NewManager(common.GetLogger(), &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	return NewService(manager.PendenciaStorage(), maxRows, common.GetLogger()), manager.PendenciaStorage()
}

func seed(t *testing.T, store interfaces.PendenciaStorage, p *models.Pendencia) {
	t.Helper()
	if p.ID == "" {
		p.ID = common.NewID()
	}
	require.NoError(t, store.SavePendencia(context.Background(), p))
}

func openWorkbook(t *testing.T, data []byte) [][]string {
	t.Helper()

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	rows, err := f.GetRows("Pendências")
	require.NoError(t, err)
	return rows
}

func TestExport_HeaderAndRows(t *testing.T) {
	svc, store := newTestService(t, 0)
	now := time.Now().UTC()
	closedAt := now.Add(time.Hour)

	seed(t, store, &models.Pendencia{
		Site:                  "SP-001",
		DataHora:              now,
		Tipo:                  models.TipoEnergia,
		Subtipo:               "Retificador",
		Observacoes:           "módulo com alarme",
		Status:                models.PendenciaStatusFinalizado,
		UsuarioCriacao:        "tecnico",
		UsuarioFinalizacao:    "tecnico",
		DataFinalizacao:       &closedAt,
		InformacoesFechamento: "módulo trocado",
		FotoFechamentoBase64:  "Zm90bw==",
		CreatedAt:             now,
	})

	data, err := svc.Export(context.Background(), models.PendenciaFilter{})
	require.NoError(t, err)

	rows := openWorkbook(t, data)
	require.Len(t, rows, 2)
	assert.Equal(t, headers, rows[0])

	row := rows[1]
	assert.Equal(t, "SP-001", row[1])
	assert.Equal(t, now.Format(dateLayout), row[2])
	assert.Equal(t, models.PendenciaStatusFinalizado, row[6])
	assert.Equal(t, closedAt.Format(dateLayout), row[9])
	assert.Equal(t, "Sim", row[11])
}

func TestExport_OpenTicketColumns(t *testing.T) {
	svc, store := newTestService(t, 0)

	seed(t, store, &models.Pendencia{
		Site:           "SP-001",
		DataHora:       time.Now().UTC(),
		Tipo:           models.TipoArcon,
		Subtipo:        "Compressor",
		Status:         models.PendenciaStatusPendente,
		UsuarioCriacao: "tecnico",
		CreatedAt:      time.Now().UTC(),
	})

	data, err := svc.Export(context.Background(), models.PendenciaFilter{})
	require.NoError(t, err)

	rows := openWorkbook(t, data)
	require.Len(t, rows, 2)
	// GetRows trims trailing empty cells, so only check what is present.
	row := rows[1]
	assert.Equal(t, "Não", row[len(row)-1])
}

func TestExport_FilterApplied(t *testing.T) {
	svc, store := newTestService(t, 0)
	now := time.Now().UTC()

	seed(t, store, &models.Pendencia{Site: "SP-001", DataHora: now, Tipo: models.TipoEnergia,
		Subtipo: "QM", Status: models.PendenciaStatusPendente, UsuarioCriacao: "a", CreatedAt: now})
	seed(t, store, &models.Pendencia{Site: "RJ-002", DataHora: now, Tipo: models.TipoEnergia,
		Subtipo: "QM", Status: models.PendenciaStatusPendente, UsuarioCriacao: "a", CreatedAt: now})

	data, err := svc.Export(context.Background(), models.PendenciaFilter{Site: "RJ-002"})
	require.NoError(t, err)

	rows := openWorkbook(t, data)
	require.Len(t, rows, 2)
	assert.Equal(t, "RJ-002", rows[1][1])
}

func TestExport_MaxRowsCap(t *testing.T) {
	svc, store := newTestService(t, 3)
	now := time.Now().UTC()

	for i := 0; i < 5; i++ {
		seed(t, store, &models.Pendencia{Site: fmt.Sprintf("SITE-%d", i), DataHora: now,
			Tipo: models.TipoEnergia, Subtipo: "QM", Status: models.PendenciaStatusPendente,
			UsuarioCriacao: "a", CreatedAt: now.Add(time.Duration(i) * time.Second)})
	}

	data, err := svc.Export(context.Background(), models.PendenciaFilter{})
	require.NoError(t, err)

	rows := openWorkbook(t, data)
	assert.Len(t, rows, 4) // header + capped rows
}

func TestExport_EmptyStore(t *testing.T) {
	svc, _ := newTestService(t, 0)

	data, err := svc.Export(context.Background(), models.PendenciaFilter{})
	require.NoError(t, err)

	rows := openWorkbook(t, data)
	require.Len(t, rows, 1)
	assert.Equal(t, headers, rows[0])
}
