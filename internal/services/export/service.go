package export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/xuri/excelize/v2"

	"github.com/lucivanservicos/ops-gestao/internal/interfaces"
	"github.com/lucivanservicos/ops-gestao/internal/models"
)

const (
	sheetName      = "Pendências"
	maxColumnWidth = 50
	dateLayout     = "02/01/2006 15:04"
)

var headers = []string{
	"ID", "Site", "Data/Hora", "Tipo", "Subtipo",
	"Observações", "Status", "Usuário Criação",
	"Usuário Finalização", "Data Finalização", "Informações Fechamento", "Foto Fechamento",
}

// Service renders filtered pendencia listings into an Excel workbook.
type Service struct {
	pendencias interfaces.PendenciaStorage
	maxRows    int
	logger     arbor.ILogger
}

// NewService creates a new export service. maxRows caps the exported rows;
// zero or negative means no cap.
func NewService(pendencias interfaces.PendenciaStorage, maxRows int, logger arbor.ILogger) *Service {
	return &Service{
		pendencias: pendencias,
		maxRows:    maxRows,
		logger:     logger,
	}
}

// Export builds an .xlsx workbook of the tickets matching the filter, newest
// first, and returns the serialized file.
func (s *Service) Export(ctx context.Context, filter models.PendenciaFilter) ([]byte, error) {
	pendencias, err := s.pendencias.ListPendencias(ctx, filter)
	if err != nil {
		return nil, err
	}
	if s.maxRows > 0 && len(pendencias) > s.maxRows {
		pendencias = pendencias[:s.maxRows]
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"366092"}},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	widths := make([]int, len(headers))
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return nil, err
		}
		widths[col] = len(header)
	}

	for i, p := range pendencias {
		fotoFechamento := "Não"
		if p.FotoFechamentoBase64 != "" {
			fotoFechamento = "Sim"
		}
		dataFinalizacao := ""
		if p.DataFinalizacao != nil {
			dataFinalizacao = p.DataFinalizacao.Format(dateLayout)
		}

		values := []string{
			p.ID,
			p.Site,
			p.DataHora.Format(dateLayout),
			p.Tipo,
			p.Subtipo,
			p.Observacoes,
			p.Status,
			p.UsuarioCriacao,
			p.UsuarioFinalizacao,
			dataFinalizacao,
			p.InformacoesFechamento,
			fotoFechamento,
		}

		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, err
			}
			if len(value) > widths[col] {
				widths[col] = len(value)
			}
		}
	}

	for col := range headers {
		name, _ := excelize.ColumnNumberToName(col + 1)
		width := widths[col] + 2
		if width > maxColumnWidth {
			width = maxColumnWidth
		}
		if err := f.SetColWidth(sheetName, name, name, float64(width)); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	s.logger.Info().
		Int("rows", len(pendencias)).
		Msg("Pendencias exported to Excel")

	return buf.Bytes(), nil
}
