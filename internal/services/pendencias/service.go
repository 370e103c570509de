package pendencias

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/lucivanservicos/ops-gestao/internal/common"
	"github.com/lucivanservicos/ops-gestao/internal/interfaces"
	"github.com/lucivanservicos/ops-gestao/internal/models"
)

var (
	// ErrPhotoRequired - a new pendencia must carry an opening photo.
	ErrPhotoRequired = errors.New("foto é obrigatória para criar uma pendência")
	// ErrClosingInfoRequired - finalization needs a closing description.
	ErrClosingInfoRequired = errors.New("informações de fechamento são obrigatórias")
	// ErrClosingPhotoRequired - finalization needs a closing photo.
	ErrClosingPhotoRequired = errors.New("foto de fechamento é obrigatória")
	// ErrAlreadyFinalized - the ticket is not open anymore.
	ErrAlreadyFinalized = errors.New("pendência já foi finalizada")
	// ErrNotEditable - only open tickets can be edited or deleted by their users.
	ErrNotEditable = errors.New("apenas pendências pendentes podem ser alteradas")
	// ErrNotFinalized - validation applies to finalized tickets only.
	ErrNotFinalized = errors.New("apenas pendências finalizadas podem ser validadas")
	// ErrInvalidValidation - validation status must be APPROVED or REJECTED.
	ErrInvalidValidation = errors.New("status de validação deve ser APPROVED ou REJECTED")
)

// Service implements the pendencia ticket lifecycle: create, filter, finalize,
// edit while open, and the admin validation pass over finalized tickets.
type Service struct {
	pendencias interfaces.PendenciaStorage
	formConfig interfaces.FormConfigStorage
	logger     arbor.ILogger
}

// NewService creates a new pendencia service
func NewService(pendencias interfaces.PendenciaStorage, formConfig interfaces.FormConfigStorage, logger arbor.ILogger) *Service {
	return &Service{
		pendencias: pendencias,
		formConfig: formConfig,
		logger:     logger,
	}
}

// CreateInput carries the fields of a new ticket. The opening timestamp is
// set server-side.
type CreateInput struct {
	Site        string `json:"site" validate:"required"`
	AMI         string `json:"ami"`
	Tipo        string `json:"tipo" validate:"required"`
	Subtipo     string `json:"subtipo" validate:"required"`
	Observacoes string `json:"observacoes"`
	FotoBase64  string `json:"foto_base64"`
}

// Create opens a new pendencia for the calling user. A photo is mandatory.
func (s *Service) Create(ctx context.Context, in CreateInput, username string) (*models.Pendencia, error) {
	if strings.TrimSpace(in.FotoBase64) == "" {
		return nil, ErrPhotoRequired
	}

	now := time.Now().UTC()
	p := &models.Pendencia{
		ID:             common.NewID(),
		Site:           in.Site,
		AMI:            in.AMI,
		DataHora:       now,
		Tipo:           in.Tipo,
		Subtipo:        in.Subtipo,
		Observacoes:    in.Observacoes,
		FotoBase64:     in.FotoBase64,
		Status:         models.PendenciaStatusPendente,
		UsuarioCriacao: username,
		CreatedAt:      now,
	}

	if err := s.pendencias.SavePendencia(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("pendencia_id", p.ID).
		Str("site", p.Site).
		Str("tipo", p.Tipo).
		Str("user", username).
		Msg("Pendencia created")

	return p, nil
}

// List returns tickets matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter models.PendenciaFilter) ([]*models.Pendencia, error) {
	return s.pendencias.ListPendencias(ctx, filter)
}

// Get returns a single ticket by id.
func (s *Service) Get(ctx context.Context, id string) (*models.Pendencia, error) {
	return s.pendencias.GetPendencia(ctx, id)
}

// Sites returns the sorted distinct site names across all tickets.
func (s *Service) Sites(ctx context.Context) ([]string, error) {
	return s.pendencias.DistinctSites(ctx)
}

// FinalizeInput carries the closing fields of a ticket.
type FinalizeInput struct {
	InformacoesFechamento string `json:"informacoes_fechamento"`
	FotoFechamentoBase64  string `json:"foto_fechamento_base64"`
}

// Finalize closes an open ticket. Closing notes and a closing photo are both
// required. Finalizing resets any previous validation so a rejected rework
// goes back through admin review.
func (s *Service) Finalize(ctx context.Context, id string, in FinalizeInput, username string) (*models.Pendencia, error) {
	if strings.TrimSpace(in.InformacoesFechamento) == "" {
		return nil, ErrClosingInfoRequired
	}
	if strings.TrimSpace(in.FotoFechamentoBase64) == "" {
		return nil, ErrClosingPhotoRequired
	}

	p, err := s.pendencias.GetPendencia(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != models.PendenciaStatusPendente {
		return nil, ErrAlreadyFinalized
	}

	now := time.Now().UTC()
	p.Status = models.PendenciaStatusFinalizado
	p.UsuarioFinalizacao = username
	p.DataFinalizacao = &now
	p.InformacoesFechamento = in.InformacoesFechamento
	p.FotoFechamentoBase64 = in.FotoFechamentoBase64
	p.ValidationStatus = ""
	p.ValidatedBy = ""
	p.ValidatedAt = nil
	p.ValidationNotes = ""

	if err := s.pendencias.SavePendencia(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("pendencia_id", p.ID).
		Str("user", username).
		Msg("Pendencia finalized")

	return p, nil
}

// EditInput replaces the descriptive fields of an open ticket. A nil photo
// keeps the current one.
type EditInput struct {
	Site        string  `json:"site" validate:"required"`
	AMI         string  `json:"ami"`
	Tipo        string  `json:"tipo" validate:"required"`
	Subtipo     string  `json:"subtipo" validate:"required"`
	Observacoes string  `json:"observacoes"`
	FotoBase64  *string `json:"foto_base64"`
}

// Edit replaces the descriptive fields of an open ticket. Finalized tickets
// cannot be edited.
func (s *Service) Edit(ctx context.Context, id string, in EditInput) (*models.Pendencia, error) {
	p, err := s.pendencias.GetPendencia(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != models.PendenciaStatusPendente {
		return nil, ErrNotEditable
	}

	p.Site = in.Site
	p.AMI = in.AMI
	p.Tipo = in.Tipo
	p.Subtipo = in.Subtipo
	p.Observacoes = in.Observacoes
	if in.FotoBase64 != nil {
		p.FotoBase64 = *in.FotoBase64
	}

	if err := s.pendencias.SavePendencia(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

// Delete removes an open ticket. Finalized tickets are kept for reporting and
// can only be removed by AdminDelete.
func (s *Service) Delete(ctx context.Context, id string) error {
	p, err := s.pendencias.GetPendencia(ctx, id)
	if err != nil {
		return err
	}
	if p.Status != models.PendenciaStatusPendente {
		return ErrNotEditable
	}

	return s.pendencias.DeletePendencia(ctx, id)
}

// AdminDelete removes a ticket regardless of its status.
func (s *Service) AdminDelete(ctx context.Context, id string) error {
	if _, err := s.pendencias.GetPendencia(ctx, id); err != nil {
		return err
	}
	return s.pendencias.DeletePendencia(ctx, id)
}

// Validate records the admin review of a finalized ticket. A rejection
// reopens the ticket so the field team can redo the closure.
func (s *Service) Validate(ctx context.Context, id, status, notes, validatedBy string) (*models.Pendencia, error) {
	if status != models.ValidationApproved && status != models.ValidationRejected {
		return nil, ErrInvalidValidation
	}

	p, err := s.pendencias.GetPendencia(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != models.PendenciaStatusFinalizado {
		return nil, ErrNotFinalized
	}

	now := time.Now().UTC()
	p.ValidationStatus = status
	p.ValidatedBy = validatedBy
	p.ValidatedAt = &now
	p.ValidationNotes = notes

	// Rejection reopens the ticket; the original closure attempt stays on
	// the record for the field team to review.
	if status == models.ValidationRejected {
		p.Status = models.PendenciaStatusPendente
	}

	if err := s.pendencias.SavePendencia(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("pendencia_id", p.ID).
		Str("validation", status).
		Str("validated_by", validatedBy).
		Msg("Pendencia validated")

	return p, nil
}

// FormConfig returns the dropdown configuration, seeding the defaults on
// first access.
func (s *Service) FormConfig(ctx context.Context) (*models.FormConfig, error) {
	cfg, err := s.formConfig.GetFormConfig(ctx)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return models.DefaultFormConfig(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// UpdateFormConfig replaces the dropdown option lists.
func (s *Service) UpdateFormConfig(ctx context.Context, energia, arcon []string, updatedBy string) (*models.FormConfig, error) {
	cfg := &models.FormConfig{
		Type:           "main",
		EnergiaOptions: energia,
		ArconOptions:   arcon,
		UpdatedBy:      updatedBy,
		UpdatedAt:      time.Now().UTC(),
	}

	if err := s.formConfig.SaveFormConfig(ctx, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
