package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/alejolo311/CDZGR/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrGroupNotFound        = errors.New("group not found")
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const registrationColumns = `id::text, nombre, apellido, email, telefono,
	COALESCE(documento, ''), COALESCE(ciudad, ''), COALESCE(talla, ''),
	COALESCE(rh, ''), COALESCE(eps, ''), COALESCE(contacto_emergencia, ''),
	COALESCE(telefono_emergencia, ''), categoria, COALESCE(subcategoria, ''),
	precio_cop, estado_pago, grupo_id::text, created_at, updated_at`

const groupColumns = `id::text, nombre_grupo, categoria, num_participantes,
	precio_unitario, precio_total, lider_nombre, lider_apellido, lider_email,
	lider_telefono, COALESCE(lider_documento, ''), COALESCE(lider_ciudad, ''),
	estado_pago, created_at, updated_at`

// CreateRegistration inserts a pending individual registration and
// returns it with the generated id (the external payment reference).
func (r *Repository) CreateRegistration(ctx context.Context, reg models.Registration) (models.Registration, error) {
	row := r.pool.QueryRow(ctx, `
INSERT INTO registrations (id, nombre, apellido, email, telefono, documento, ciudad,
	talla, rh, eps, contacto_emergencia, telefono_emergencia,
	categoria, subcategoria, precio_cop, estado_pago, grupo_id)
VALUES ($1::uuid, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''),
	NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''), NULLIF($12, ''),
	$13, NULLIF($14, ''), $15, $16, $17::uuid)
RETURNING `+registrationColumns+`;`,
		uuid.NewString(),
		strings.TrimSpace(reg.FirstName),
		strings.TrimSpace(reg.LastName),
		strings.TrimSpace(reg.Email),
		strings.TrimSpace(reg.Phone),
		strings.TrimSpace(reg.Document),
		strings.TrimSpace(reg.City),
		strings.TrimSpace(reg.ShirtSize),
		strings.TrimSpace(reg.BloodType),
		strings.TrimSpace(reg.EPS),
		strings.TrimSpace(reg.EmergencyName),
		strings.TrimSpace(reg.EmergencyPhone),
		strings.TrimSpace(reg.Category),
		strings.TrimSpace(reg.Subcategory),
		reg.PriceCOP,
		models.PaymentStatePending,
		reg.GroupID,
	)
	return scanRegistration(row)
}

// CreateGroup inserts a pending group plus its roster entries. The
// participants are created as pending individual registrations bound to
// the group; the group id is the external payment reference.
func (r *Repository) CreateGroup(ctx context.Context, group models.Group, participants []models.Registration) (models.Group, []models.Registration, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return models.Group{}, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
INSERT INTO grupos (id, nombre_grupo, categoria, num_participantes, precio_unitario,
	precio_total, lider_nombre, lider_apellido, lider_email, lider_telefono,
	lider_documento, lider_ciudad, estado_pago)
VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''), NULLIF($12, ''), $13)
RETURNING `+groupColumns+`;`,
		uuid.NewString(),
		strings.TrimSpace(group.Name),
		strings.TrimSpace(group.Category),
		group.ParticipantCount,
		group.UnitPriceCOP,
		group.TotalPriceCOP,
		strings.TrimSpace(group.LeaderFirstName),
		strings.TrimSpace(group.LeaderLastName),
		strings.TrimSpace(group.LeaderEmail),
		strings.TrimSpace(group.LeaderPhone),
		strings.TrimSpace(group.LeaderDocument),
		strings.TrimSpace(group.LeaderCity),
		models.PaymentStatePending,
	)
	created, err := scanGroup(row)
	if err != nil {
		return models.Group{}, nil, err
	}

	out := make([]models.Registration, 0, len(participants))
	for _, participant := range participants {
		row := tx.QueryRow(ctx, `
INSERT INTO registrations (id, nombre, apellido, email, telefono, documento,
	categoria, subcategoria, precio_cop, estado_pago, grupo_id)
VALUES ($1::uuid, $2, $3, $4, $5, NULLIF($6, ''), $7, NULLIF($8, ''), $9, $10, $11::uuid)
RETURNING `+registrationColumns+`;`,
			uuid.NewString(),
			strings.TrimSpace(participant.FirstName),
			strings.TrimSpace(participant.LastName),
			strings.TrimSpace(participant.Email),
			strings.TrimSpace(participant.Phone),
			strings.TrimSpace(participant.Document),
			created.Category,
			strings.TrimSpace(participant.Subcategory),
			created.UnitPriceCOP,
			models.PaymentStatePending,
			created.ID,
		)
		inserted, err := scanRegistration(row)
		if err != nil {
			return models.Group{}, nil, err
		}
		out = append(out, inserted)
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Group{}, nil, err
	}
	return created, out, nil
}

// AddGroupParticipant appends a roster entry to an existing group. A
// participant joining an already-completed group is created completed,
// since the group's payment covers the whole roster.
func (r *Repository) AddGroupParticipant(ctx context.Context, groupID string, participant models.Registration) (models.Registration, error) {
	group, err := r.GetGroupByID(ctx, groupID)
	if err != nil {
		return models.Registration{}, err
	}
	state := models.PaymentStatePending
	if group.PaymentState == models.PaymentStateCompleted {
		state = models.PaymentStateCompleted
	}
	row := r.pool.QueryRow(ctx, `
INSERT INTO registrations (id, nombre, apellido, email, telefono, documento,
	categoria, subcategoria, precio_cop, estado_pago, grupo_id)
VALUES ($1::uuid, $2, $3, $4, $5, NULLIF($6, ''), $7, NULLIF($8, ''), $9, $10, $11::uuid)
RETURNING `+registrationColumns+`;`,
		uuid.NewString(),
		strings.TrimSpace(participant.FirstName),
		strings.TrimSpace(participant.LastName),
		strings.TrimSpace(participant.Email),
		strings.TrimSpace(participant.Phone),
		strings.TrimSpace(participant.Document),
		group.Category,
		strings.TrimSpace(participant.Subcategory),
		group.UnitPriceCOP,
		state,
		group.ID,
	)
	return scanRegistration(row)
}

// GetRegistrationByID looks up an individual registration.
func (r *Repository) GetRegistrationByID(ctx context.Context, id string) (models.Registration, error) {
	if _, err := uuid.Parse(strings.TrimSpace(id)); err != nil {
		return models.Registration{}, ErrRegistrationNotFound
	}
	row := r.pool.QueryRow(ctx, `
SELECT `+registrationColumns+`
FROM registrations
WHERE id = $1::uuid;`, strings.TrimSpace(id))
	out, err := scanRegistration(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Registration{}, ErrRegistrationNotFound
		}
		return models.Registration{}, err
	}
	return out, nil
}

// GetGroupByID looks up a group registration.
func (r *Repository) GetGroupByID(ctx context.Context, id string) (models.Group, error) {
	if _, err := uuid.Parse(strings.TrimSpace(id)); err != nil {
		return models.Group{}, ErrGroupNotFound
	}
	row := r.pool.QueryRow(ctx, `
SELECT `+groupColumns+`
FROM grupos
WHERE id = $1::uuid;`, strings.TrimSpace(id))
	out, err := scanGroup(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Group{}, ErrGroupNotFound
		}
		return models.Group{}, err
	}
	return out, nil
}

// ListGroupParticipants returns the roster of a group, oldest first.
func (r *Repository) ListGroupParticipants(ctx context.Context, groupID string) ([]models.Registration, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+registrationColumns+`
FROM registrations
WHERE grupo_id = $1::uuid
ORDER BY created_at ASC;`, strings.TrimSpace(groupID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Registration, 0)
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

func scanRegistration(row pgx.Row) (models.Registration, error) {
	var out models.Registration
	var groupID sql.NullString
	if err := row.Scan(
		&out.ID,
		&out.FirstName,
		&out.LastName,
		&out.Email,
		&out.Phone,
		&out.Document,
		&out.City,
		&out.ShirtSize,
		&out.BloodType,
		&out.EPS,
		&out.EmergencyName,
		&out.EmergencyPhone,
		&out.Category,
		&out.Subcategory,
		&out.PriceCOP,
		&out.PaymentState,
		&groupID,
		&out.CreatedAt,
		&out.UpdatedAt,
	); err != nil {
		return out, err
	}
	if groupID.Valid {
		out.GroupID = &groupID.String
	}
	return out, nil
}

func scanGroup(row pgx.Row) (models.Group, error) {
	var out models.Group
	if err := row.Scan(
		&out.ID,
		&out.Name,
		&out.Category,
		&out.ParticipantCount,
		&out.UnitPriceCOP,
		&out.TotalPriceCOP,
		&out.LeaderFirstName,
		&out.LeaderLastName,
		&out.LeaderEmail,
		&out.LeaderPhone,
		&out.LeaderDocument,
		&out.LeaderCity,
		&out.PaymentState,
		&out.CreatedAt,
		&out.UpdatedAt,
	); err != nil {
		return out, err
	}
	return out, nil
}
