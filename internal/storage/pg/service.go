package pg

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/kiezhub-dev/kiezhub/shared/domain"
	internal_errors "github.com/kiezhub-dev/kiezhub/shared/errors"
)

const serviceSelect = `
    SELECT s.id, s.title, s.description, s.is_offering, s.is_active, s.image_url, s.meeting_locations,
           s.view_count, s.interest_count, s.is_completed, s.completed_at,
           s.price_type, s.price_amount, s.price_currency, s.estimated_duration_hours,
           s.contact_method, s.response_time_hours,
           s.admin_notes, s.flagged_at, s.flagged_reason, s.reviewed_at, s.reviewed_by,
           s.user_id, s.created_at, s.updated_at,
           u.display_name, u.profile_image_url, u.created_at
    FROM services s
    JOIN users u ON u.id = s.user_id`

func scanService(scan func(dest ...any) error) (domain.Service, error) {
	var svc domain.Service
	var locations []byte
	var reviewedBy sql.NullInt64
	err := scan(&svc.Id, &svc.Title, &svc.Description, &svc.IsOffering, &svc.IsActive, &svc.ImageURL, &locations,
		&svc.ViewCount, &svc.InterestCount, &svc.IsCompleted, &svc.CompletedAt,
		&svc.PriceType, &svc.PriceAmount, &svc.PriceCurrency, &svc.EstimatedDurationHours,
		&svc.ContactMethod, &svc.ResponseTimeHours,
		&svc.AdminNotes, &svc.FlaggedAt, &svc.FlaggedReason, &svc.ReviewedAt, &reviewedBy,
		&svc.UserId, &svc.CreatedAt, &svc.UpdatedAt,
		&svc.User.DisplayName, &svc.User.ProfileImageURL, &svc.User.CreatedAt)
	if err != nil {
		return domain.Service{}, err
	}
	if err := json.Unmarshal(locations, &svc.MeetingLocations); err != nil {
		return domain.Service{}, fmt.Errorf("failed to decode meeting locations: %w", err)
	}
	if reviewedBy.Valid {
		svc.ReviewedBy = reviewedBy.Int64
	}
	svc.User.Id = svc.UserId
	return svc, nil
}

// =========================================================================
// Public Methods (satisfy the service.MarketplaceStorage interface)
// =========================================================================

func (s *Storage) SaveService(data domain.ServiceCreationData) (domain.ServiceId, error) {
	ctx, cancel := opTimeout()
	defer cancel()

	locations, err := json.Marshal(orEmpty(data.MeetingLocations))
	if err != nil {
		return -1, fmt.Errorf("failed to encode meeting locations: %w", err)
	}

	var id domain.ServiceId
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRow(`
            INSERT INTO services(title, description, is_offering, image_url, meeting_locations,
                price_type, price_amount, price_currency, estimated_duration_hours,
                contact_method, response_time_hours, user_id)
            VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`,
			data.Title, data.Description, data.IsOffering, data.ImageURL, locations,
			data.PriceType, data.PriceAmount, data.PriceCurrency, data.EstimatedDurationHours,
			data.ContactMethod, data.ResponseTimeHours, data.UserId,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to insert service: %w", err)
		}
		return nil
	})
	return id, err
}

func (s *Storage) Service(id domain.ServiceId) (domain.Service, error) {
	return s.service(s.db, id)
}

func (s *Storage) Services(filter domain.ServiceFilter) ([]domain.Service, error) {
	query := serviceSelect + " WHERE s.is_active"
	args := []any{}
	if filter.FlaggedOnly {
		query = serviceSelect + " WHERE s.flagged_at IS NOT NULL"
	}
	if filter.IsOffering != nil {
		args = append(args, *filter.IsOffering)
		query += fmt.Sprintf(" AND s.is_offering = $%d", len(args))
	}
	if filter.UserId != 0 {
		args = append(args, filter.UserId)
		query += fmt.Sprintf(" AND s.user_id = $%d", len(args))
	}
	if filter.ExcludeUser != 0 {
		args = append(args, filter.ExcludeUser)
		query += fmt.Sprintf(" AND s.user_id != $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(" AND (s.title ILIKE $%d OR s.description ILIKE $%d)", len(args), len(args))
	}
	args = append(args, filter.Page.Offset, filter.Page.Limit)
	query += fmt.Sprintf(" ORDER BY s.created_at DESC OFFSET $%d LIMIT $%d", len(args)-1, len(args))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query services: %w", err)
	}
	defer rows.Close()

	var out []domain.Service
	for rows.Next() {
		svc, err := scanService(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		out = append(out, svc)
	}
	return out, rows.Err()
}

func (s *Storage) UpdateService(id domain.ServiceId, upd domain.ServiceUpdate) (domain.Service, error) {
	ctx, cancel := opTimeout()
	defer cancel()

	var locations any
	if upd.MeetingLocations != nil {
		encoded, err := json.Marshal(orEmpty(*upd.MeetingLocations))
		if err != nil {
			return domain.Service{}, fmt.Errorf("failed to encode meeting locations: %w", err)
		}
		locations = encoded
	}

	var svc domain.Service
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(`
            UPDATE services SET
                title = COALESCE($2, title),
                description = COALESCE($3, description),
                is_offering = COALESCE($4, is_offering),
                image_url = COALESCE($5, image_url),
                meeting_locations = COALESCE($6, meeting_locations),
                price_type = COALESCE($7, price_type),
                price_amount = COALESCE($8, price_amount),
                price_currency = COALESCE($9, price_currency),
                estimated_duration_hours = COALESCE($10, estimated_duration_hours),
                contact_method = COALESCE($11, contact_method),
                response_time_hours = COALESCE($12, response_time_hours),
                updated_at = (now() at time zone 'utc')
            WHERE id = $1 AND is_active`,
			id, upd.Title, upd.Description, upd.IsOffering, upd.ImageURL, locations,
			upd.PriceType, upd.PriceAmount, upd.PriceCurrency, upd.EstimatedDurationHours,
			upd.ContactMethod, upd.ResponseTimeHours)
		if err != nil {
			return fmt.Errorf("failed to update service: %w", err)
		}
		if err := requireRowsAffected(result, "Service not found"); err != nil {
			return err
		}
		svc, err = s.service(tx, id)
		return err
	})
	return svc, err
}

// DeleteService is a soft delete.
func (s *Storage) DeleteService(id domain.ServiceId) error {
	ctx, cancel := opTimeout()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec("UPDATE services SET is_active = FALSE WHERE id = $1 AND is_active", id)
		if err != nil {
			return fmt.Errorf("failed to delete service: %w", err)
		}
		return requireRowsAffected(result, "Service not found")
	})
}

// IncrementServiceViews bumps the view counter.
func (s *Storage) IncrementServiceViews(id domain.ServiceId) error {
	_, err := s.db.Exec("UPDATE services SET view_count = view_count + 1 WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to increment view count: %w", err)
	}
	return nil
}

func (s *Storage) IncrementServiceInterest(id domain.ServiceId) error {
	ctx, cancel := opTimeout()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec("UPDATE services SET interest_count = interest_count + 1 WHERE id = $1 AND is_active", id)
		if err != nil {
			return fmt.Errorf("failed to increment interest count: %w", err)
		}
		return requireRowsAffected(result, "Service not found")
	})
}

func (s *Storage) CompleteService(id domain.ServiceId) error {
	ctx, cancel := opTimeout()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(`
            UPDATE services SET is_completed = TRUE, completed_at = (now() at time zone 'utc')
            WHERE id = $1 AND is_active AND NOT is_completed`, id)
		if err != nil {
			return fmt.Errorf("failed to complete service: %w", err)
		}
		return requireRowsAffected(result, "Service not found or already completed")
	})
}

// FlagService records an admin flag on a listing.
func (s *Storage) FlagService(id domain.ServiceId, reason string) error {
	ctx, cancel := opTimeout()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(`
            UPDATE services SET flagged_at = (now() at time zone 'utc'), flagged_reason = $2
            WHERE id = $1`, id, reason)
		if err != nil {
			return fmt.Errorf("failed to flag service: %w", err)
		}
		return requireRowsAffected(result, "Service not found")
	})
}

// ReviewService clears a flag and records who reviewed it.
func (s *Storage) ReviewService(id domain.ServiceId, reviewerId domain.UserId, notes string) error {
	ctx, cancel := opTimeout()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(`
            UPDATE services SET
                flagged_at = NULL, flagged_reason = '',
                reviewed_at = (now() at time zone 'utc'), reviewed_by = $2,
                admin_notes = $3
            WHERE id = $1`, id, reviewerId, notes)
		if err != nil {
			return fmt.Errorf("failed to review service: %w", err)
		}
		return requireRowsAffected(result, "Service not found")
	})
}

// ServiceStats aggregates marketplace counters. userId of 0 skips the
// caller-specific counters.
func (s *Storage) ServiceStats(userId domain.UserId) (domain.ServiceStats, error) {
	var st domain.ServiceStats
	err := s.db.QueryRow(`
        SELECT
            count(*) FILTER (WHERE is_active),
            count(*) FILTER (WHERE is_active AND is_offering),
            count(*) FILTER (WHERE is_active AND NOT is_offering),
            count(*) FILTER (WHERE is_active AND user_id = $1),
            count(*) FILTER (WHERE is_active AND user_id = $1 AND is_offering),
            count(*) FILTER (WHERE is_active AND user_id = $1 AND NOT is_offering)
        FROM services`,
		userId,
	).Scan(&st.TotalActive, &st.ServicesOffered, &st.ServicesRequested, &st.MyServices, &st.MyOfferings, &st.MyRequests)
	if err != nil {
		return domain.ServiceStats{}, fmt.Errorf("failed to query service stats: %w", err)
	}
	requested := st.ServicesRequested
	if requested == 0 {
		requested = 1
	}
	st.MarketBalance = float64(st.ServicesOffered) / float64(requested)
	return st, nil
}

func (s *Storage) service(q Querier, id domain.ServiceId) (domain.Service, error) {
	svc, err := scanService(q.QueryRow(serviceSelect+" WHERE s.id = $1", id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Service{}, &internal_errors.ErrorWithStatusCode{Message: "Service not found", StatusCode: http.StatusNotFound}
		}
		return domain.Service{}, fmt.Errorf("failed to query service: %w", err)
	}
	return svc, nil
}

func orEmpty(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
