package models

import "time"

// Payment states as stored. The column values stay in Spanish so the
// existing admin dashboard keeps working against the same tables.
const (
	PaymentStatePending   = "pendiente"
	PaymentStateCompleted = "completado"
	PaymentStateFailed    = "fallido"
)

const (
	CategoryGravel = "gravel"
	CategoryPaseo  = "paseo"
)

// Registration is a row in the registrations table. Its id doubles as
// the external reference sent to the payment processor. Rows with a
// non-nil GroupID are group roster entries.
type Registration struct {
	ID             string    `json:"id"`
	FirstName      string    `json:"nombre"`
	LastName       string    `json:"apellido"`
	Email          string    `json:"email"`
	Phone          string    `json:"telefono"`
	Document       string    `json:"documento,omitempty"`
	City           string    `json:"ciudad,omitempty"`
	ShirtSize      string    `json:"talla,omitempty"`
	BloodType      string    `json:"rh,omitempty"`
	EPS            string    `json:"eps,omitempty"`
	EmergencyName  string    `json:"contacto_emergencia,omitempty"`
	EmergencyPhone string    `json:"telefono_emergencia,omitempty"`
	Category       string    `json:"categoria"`
	Subcategory    string    `json:"subcategoria,omitempty"`
	PriceCOP       int64     `json:"precio_cop"`
	PaymentState   string    `json:"estado_pago"`
	GroupID        *string   `json:"grupo_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Group is a row in the grupos table. Its id is the external reference
// for the single payment covering the whole roster.
type Group struct {
	ID               string    `json:"id"`
	Name             string    `json:"nombre_grupo"`
	Category         string    `json:"categoria"`
	ParticipantCount int       `json:"num_participantes"`
	UnitPriceCOP     int64     `json:"precio_unitario"`
	TotalPriceCOP    int64     `json:"precio_total"`
	LeaderFirstName  string    `json:"lider_nombre"`
	LeaderLastName   string    `json:"lider_apellido"`
	LeaderEmail      string    `json:"lider_email"`
	LeaderPhone      string    `json:"lider_telefono"`
	LeaderDocument   string    `json:"lider_documento,omitempty"`
	LeaderCity       string    `json:"lider_ciudad,omitempty"`
	PaymentState     string    `json:"estado_pago"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// PaymentNotification is the authoritative payment detail fetched from
// the processor after a webhook. Never persisted.
type PaymentNotification struct {
	PaymentID         string
	Status            string
	StatusDetail      string
	ExternalReference string
	Amount            float64
	PayerEmail        string
	DateApproved      string
}

// NotificationJob is an outbox row consumed by cmd/worker.
type NotificationJob struct {
	ID        int64                  `json:"id"`
	Kind      string                 `json:"kind"`
	Reference string                 `json:"reference"`
	RunAt     time.Time              `json:"runAt"`
	Payload   map[string]interface{} `json:"payload"`
	Status    string                 `json:"status"`
	Attempts  int                    `json:"attempts"`
	LastError string                 `json:"lastError,omitempty"`
}

const (
	JobKindPaymentConfirmation      = "payment_confirmation"
	JobKindGroupPaymentConfirmation = "group_payment_confirmation"
)
