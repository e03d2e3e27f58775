package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/tolkline/booking-be/internal/booking/domain"
)

type translatorRow struct {
	TranslatorID       string         `db:"translator_id"`
	Email              string         `db:"email"`
	Mobile             sql.NullString `db:"mobile"`
	TranslatorType     string         `db:"translator_type"`
	Gender             string         `db:"gender"`
	Town               string         `db:"town"`
	Languages          pq.StringArray `db:"languages"`
	Levels             pq.StringArray `db:"levels"`
	NotGetEmergency    bool           `db:"not_get_emergency"`
	NotGetNighttime    bool           `db:"not_get_nighttime"`
	NotGetNotification bool           `db:"not_get_notification"`
	BlacklistedBy      pq.StringArray `db:"blacklisted_by"`
}

func (r *translatorRow) toDomain() *domain.Translator {
	t := &domain.Translator{
		ID:                 r.TranslatorID,
		Email:              r.Email,
		Mobile:             r.Mobile.String,
		Type:               domain.TranslatorType(r.TranslatorType),
		Gender:             domain.Gender(r.Gender),
		Town:               r.Town,
		Languages:          r.Languages,
		NotGetEmergency:    r.NotGetEmergency,
		NotGetNighttime:    r.NotGetNighttime,
		NotGetNotification: r.NotGetNotification,
		BlacklistedBy:      r.BlacklistedBy,
	}
	t.Levels = make([]domain.Level, len(r.Levels))
	for i, l := range r.Levels {
		t.Levels[i] = domain.Level(l)
	}
	return t
}

const translatorSelect = `
	SELECT t.translator_id, t.email, t.mobile, t.translator_type, t.gender,
	       t.town, t.languages, t.levels, t.not_get_emergency,
	       t.not_get_nighttime, t.not_get_notification,
	       COALESCE(
	           ARRAY(SELECT b.customer_id FROM users_blacklist b
	                 WHERE b.translator_id = t.translator_id),
	           '{}'
	       ) AS blacklisted_by
	FROM translators t
`

// GetTranslator loads one translator profile with blacklist membership.
func (s *Storage) GetTranslator(ctx context.Context, translatorID string) (*domain.Translator, error) {
	query := translatorSelect + ` WHERE t.translator_id = $1`

	var row translatorRow
	err := s.db.GetContext(ctx, &row, query, translatorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTranslatorNotFound
		}
		return nil, fmt.Errorf("failed to get translator: %w", err)
	}

	return row.toDomain(), nil
}

// ListCandidates returns the coarse candidate set for a job: right translator
// type and language. The fine-grained rules (gender, certification, town,
// blacklist, opt-outs) run in the match package against full profiles.
func (s *Storage) ListCandidates(ctx context.Context, job *domain.Job) ([]domain.Translator, error) {
	query := translatorSelect + `
		WHERE t.translator_type = $1
		  AND $2 = ANY(t.languages)
	`

	var rows []translatorRow
	err := s.db.SelectContext(ctx, &rows, query, string(translatorTypeFor(job.JobType)), job.FromLanguageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate translators: %w", err)
	}

	translators := make([]domain.Translator, len(rows))
	for i := range rows {
		translators[i] = *rows[i].toDomain()
	}

	return translators, nil
}

func translatorTypeFor(jt domain.JobType) domain.TranslatorType {
	switch jt {
	case domain.JobTypePaid:
		return domain.TranslatorProfessional
	case domain.JobTypeRWS:
		return domain.TranslatorRWS
	default:
		return domain.TranslatorVolunteer
	}
}
