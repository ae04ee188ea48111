package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/alejolo311/CDZGR/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MatchKind tags which table an external reference resolved to.
type MatchKind string

const (
	MatchNone       MatchKind = "none"
	MatchIndividual MatchKind = "individual"
	MatchGroup      MatchKind = "group"
)

// ResolvedReference is the tagged result of resolving an external
// reference against the two registration tables.
type ResolvedReference struct {
	Kind         MatchKind
	Registration *models.Registration
	Group        *models.Group
}

// ReconcileResult reports the outcome of applying a payment state.
type ReconcileResult struct {
	Matched MatchKind
	// FirstCompletion is true only when this call moved the row into
	// completed. A no-op delivery (already reconciled) reports false.
	FirstCompletion bool
	// CascadedParticipants is how many roster rows the group cascade
	// completed on this call.
	CascadedParticipants int64
}

// ResolveReference finds the single row an external reference points
// at. References are random UUIDs, so a reference lives in exactly one
// of the two tables; anything else is NotFound.
func (r *Repository) ResolveReference(ctx context.Context, reference string) (ResolvedReference, error) {
	reference = strings.TrimSpace(reference)
	if _, err := uuid.Parse(reference); err != nil {
		return ResolvedReference{Kind: MatchNone}, nil
	}

	reg, err := r.GetRegistrationByID(ctx, reference)
	if err == nil {
		return ResolvedReference{Kind: MatchIndividual, Registration: &reg}, nil
	}
	if !errors.Is(err, ErrRegistrationNotFound) {
		return ResolvedReference{}, err
	}

	group, err := r.GetGroupByID(ctx, reference)
	if err == nil {
		return ResolvedReference{Kind: MatchGroup, Group: &group}, nil
	}
	if !errors.Is(err, ErrGroupNotFound) {
		return ResolvedReference{}, err
	}

	return ResolvedReference{Kind: MatchNone}, nil
}

// ReconcilePayment applies a payment state to the row identified by the
// external reference. The guarded update (estado_pago <> target) is the
// idempotency primitive: replaying the same delivery any number of
// times converges to one stored state and at most one enqueued
// confirmation. The confirmation job is inserted in the same
// transaction as the first-transition update.
func (r *Repository) ReconcilePayment(ctx context.Context, reference, targetState string) (ReconcileResult, error) {
	resolved, err := r.ResolveReference(ctx, reference)
	if err != nil {
		return ReconcileResult{}, err
	}

	switch resolved.Kind {
	case MatchIndividual:
		return r.reconcileIndividual(ctx, reference, targetState)
	case MatchGroup:
		return r.reconcileGroup(ctx, reference, targetState)
	default:
		return ReconcileResult{Matched: MatchNone}, nil
	}
}

func (r *Repository) reconcileIndividual(ctx context.Context, reference, targetState string) (ReconcileResult, error) {
	result := ReconcileResult{Matched: MatchIndividual}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return result, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
UPDATE registrations
SET estado_pago = $2,
	updated_at = now()
WHERE id = $1::uuid AND estado_pago <> $2
RETURNING nombre, apellido, email, categoria, COALESCE(subcategoria, ''), precio_cop;`,
		reference, targetState)

	var firstName, lastName, email, category, subcategory string
	var priceCOP int64
	if err := row.Scan(&firstName, &lastName, &email, &category, &subcategory, &priceCOP); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Already reconciled to this state. Nothing to do.
			return result, nil
		}
		return result, err
	}

	if targetState == models.PaymentStateCompleted {
		result.FirstCompletion = true
		if err := enqueueNotificationTx(ctx, tx, models.NotificationJob{
			Kind:      models.JobKindPaymentConfirmation,
			Reference: reference,
			Payload: map[string]interface{}{
				"nombre":       firstName,
				"apellido":     lastName,
				"email":        email,
				"categoria":    category,
				"subcategoria": subcategory,
				"precio_cop":   priceCOP,
			},
		}); err != nil {
			return ReconcileResult{Matched: MatchIndividual}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return ReconcileResult{Matched: MatchIndividual}, err
	}
	return result, nil
}

func (r *Repository) reconcileGroup(ctx context.Context, reference, targetState string) (ReconcileResult, error) {
	result := ReconcileResult{Matched: MatchGroup}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return result, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
UPDATE grupos
SET estado_pago = $2,
	updated_at = now()
WHERE id = $1::uuid AND estado_pago <> $2
RETURNING nombre_grupo, lider_nombre, lider_apellido, lider_email, categoria, num_participantes, precio_total;`,
		reference, targetState)

	var groupName, leaderFirst, leaderLast, leaderEmail, category string
	var participantCount int
	var totalPriceCOP int64
	changed := true
	if err := row.Scan(&groupName, &leaderFirst, &leaderLast, &leaderEmail, &category, &participantCount, &totalPriceCOP); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return result, err
		}
		changed = false
	}

	if changed && targetState == models.PaymentStateCompleted {
		result.FirstCompletion = true
		if err := enqueueNotificationTx(ctx, tx, models.NotificationJob{
			Kind:      models.JobKindGroupPaymentConfirmation,
			Reference: reference,
			Payload: map[string]interface{}{
				"nombre_grupo":      groupName,
				"lider_nombre":      leaderFirst,
				"lider_apellido":    leaderLast,
				"lider_email":       leaderEmail,
				"categoria":         category,
				"num_participantes": participantCount,
				"precio_total":      totalPriceCOP,
			},
		}); err != nil {
			return ReconcileResult{Matched: MatchGroup}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return ReconcileResult{Matched: MatchGroup}, err
	}

	// The cascade is deliberately outside the group transaction and
	// runs on every completed delivery, not only the first: a crash
	// between the two writes, or a participant added while the payment
	// was in flight, converges on the next redelivery.
	if targetState == models.PaymentStateCompleted {
		cascaded, err := r.cascadeGroupCompletion(ctx, reference)
		if err != nil {
			return result, err
		}
		result.CascadedParticipants = cascaded
	}
	return result, nil
}

func (r *Repository) cascadeGroupCompletion(ctx context.Context, groupID string) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `
UPDATE registrations
SET estado_pago = $2,
	updated_at = now()
WHERE grupo_id = $1::uuid AND estado_pago <> $2;`,
		groupID, models.PaymentStateCompleted)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
