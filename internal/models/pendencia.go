package models

import "time"

// Pendencia lifecycle states
const (
	PendenciaStatusPendente   = "Pendente"
	PendenciaStatusFinalizado = "Finalizado"
)

// Pendencia validation outcomes (admin review of a finished ticket)
const (
	ValidationApproved = "APPROVED"
	ValidationRejected = "REJECTED"
)

// Pendencia types
const (
	TipoEnergia = "Energia"
	TipoArcon   = "Arcon"
)

// Pendencia is a field-maintenance ticket for a telecom site.
type Pendencia struct {
	ID                     string     `json:"id"`
	Site                   string     `json:"site"`
	AMI                    string     `json:"ami,omitempty"`
	DataHora               time.Time  `json:"data_hora"`
	Tipo                   string     `json:"tipo"`
	Subtipo                string     `json:"subtipo"`
	Observacoes            string     `json:"observacoes"`
	FotoBase64             string     `json:"foto_base64,omitempty"` // optional on legacy records
	Status                 string     `json:"status"`
	UsuarioCriacao         string     `json:"usuario_criacao"`
	UsuarioFinalizacao     string     `json:"usuario_finalizacao,omitempty"`
	DataFinalizacao        *time.Time `json:"data_finalizacao,omitempty"`
	InformacoesFechamento  string     `json:"informacoes_fechamento,omitempty"`
	FotoFechamentoBase64   string     `json:"foto_fechamento_base64,omitempty"`
	ValidationStatus       string     `json:"validation_status,omitempty"` // APPROVED or REJECTED
	ValidatedBy            string     `json:"validated_by,omitempty"`
	ValidatedAt            *time.Time `json:"validated_at,omitempty"`
	ValidationNotes        string     `json:"validation_notes,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
}

// PendenciaFilter narrows pendencia listings and exports.
type PendenciaFilter struct {
	Site   string
	Tipo   string
	Status string
}

// Matches reports whether the pendencia satisfies every set filter field.
func (f PendenciaFilter) Matches(p *Pendencia) bool {
	if f.Site != "" && p.Site != f.Site {
		return false
	}
	if f.Tipo != "" && p.Tipo != f.Tipo {
		return false
	}
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	return true
}

// FormConfig holds the admin-editable dropdown options for the pendencia form.
// A single document keyed "main" lives in the store.
type FormConfig struct {
	Type           string    `json:"type"`
	EnergiaOptions []string  `json:"energia_options"`
	ArconOptions   []string  `json:"arcon_options"`
	UpdatedBy      string    `json:"updated_by,omitempty"`
	UpdatedAt      time.Time `json:"updated_at,omitempty"`
}

// DefaultFormConfig returns the seed dropdown options used when no
// configuration document exists yet.
func DefaultFormConfig() *FormConfig {
	return &FormConfig{
		Type: "main",
		EnergiaOptions: []string{
			"Controladora", "QDCA", "QM", "Retificador", "Disjuntor",
			"Bateria", "Iluminação Pátio", "Sensor de Porta",
			"Sensor de Incêndio", "Iluminação Gabinete/Container",
			"Cabo de Alimentação",
		},
		ArconOptions: []string{
			"Trocador de Calor", "Sanrio", "Walmont", "Limpeza",
			"Contatora", "Compressor", "Gás", "Fusível",
			"Placa Queimada", "Transformador", "Relé Térmico",
			"Relé Falta de Fase", "Comando", "Alarme",
		},
	}
}
