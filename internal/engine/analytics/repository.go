package analytics

import (
	"database/sql"

	apperrors "pulse/internal/pkg/errors"
	"pulse/internal/platform/models"
)

// Filters narrows an aggregate read. Date bounds are inclusive ISO-8601
// strings; AppID is a caller-supplied scope filter that is always ANDed with
// the authenticated tenant's own id, never trusted standalone.
type Filters struct {
	StartDate string
	EndDate   string
	AppID     *int64
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// InsertEvent persists exactly one row. Absent optional fields land as NULL.
func (r *Repository) InsertEvent(e *models.Event) error {
	_, err := r.db.Exec(`
		INSERT INTO events (id, app_id, event_type, url, referrer, device, ip_address, timestamp, metadata, user_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.AppID, e.EventType, e.URL, e.Referrer, e.Device, e.IPAddress, e.Timestamp, string(e.Metadata), e.UserID)
	if err != nil {
		return apperrors.Storage("Failed to save event", err)
	}
	return nil
}

// scopedQuery appends the optional filter predicates to a structurally fixed
// base query. Every value travels as a bound parameter.
func scopedQuery(base string, appID int64, eventType string, f Filters) (string, []interface{}) {
	query := base + ` WHERE event_type = ? AND app_id = ?`
	args := []interface{}{eventType, appID}

	if f.AppID != nil {
		query += ` AND app_id = ?`
		args = append(args, *f.AppID)
	}
	if f.StartDate != "" {
		query += ` AND timestamp >= ?`
		args = append(args, f.StartDate)
	}
	if f.EndDate != "" {
		query += ` AND timestamp <= ?`
		args = append(args, f.EndDate)
	}

	return query, args
}

// CountEvents returns the total matching count and the number of distinct
// non-null user ids in the scope.
func (r *Repository) CountEvents(appID int64, eventType string, f Filters) (count, uniqueUsers int64, err error) {
	query, args := scopedQuery(`SELECT COUNT(*), COUNT(DISTINCT user_id) FROM events`, appID, eventType, f)

	if err := r.db.QueryRow(query, args...).Scan(&count, &uniqueUsers); err != nil {
		return 0, 0, apperrors.Storage("Query failed", err)
	}
	return count, uniqueUsers, nil
}

// DeviceBreakdown groups the same scope by device label. Rows without a
// device land under "unknown"; the per-device counts sum to CountEvents for
// the same filter set.
func (r *Repository) DeviceBreakdown(appID int64, eventType string, f Filters) (map[string]int, error) {
	query, args := scopedQuery(`SELECT device, COUNT(*) FROM events`, appID, eventType, f)
	query += ` GROUP BY device`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, apperrors.Storage("Query failed", err)
	}
	defer rows.Close()

	breakdown := make(map[string]int)
	for rows.Next() {
		var device sql.NullString
		var count int
		if err := rows.Scan(&device, &count); err != nil {
			return nil, apperrors.Storage("Query failed", err)
		}
		label := "unknown"
		if device.Valid && device.String != "" {
			label = device.String
		}
		breakdown[label] += count
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage("Query failed", err)
	}

	return breakdown, nil
}

// UserStats returns the first (ip, browser, os) group for the tenant-scoped
// user. One representative row, not a distribution.
func (r *Repository) UserStats(appID int64, userID string) (*models.UserStats, error) {
	var total int64
	var ip, browser, os sql.NullString

	err := r.db.QueryRow(`
		SELECT COUNT(*), ip_address,
		       json_extract(metadata, '$.browser'),
		       json_extract(metadata, '$.os')
		FROM events
		WHERE user_id = ? AND app_id = ?
		GROUP BY ip_address, json_extract(metadata, '$.browser'), json_extract(metadata, '$.os')
		LIMIT 1
	`, userID, appID).Scan(&total, &ip, &browser, &os)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("No data for this user")
		}
		return nil, apperrors.Storage("Query failed", err)
	}

	stats := &models.UserStats{
		UserID:      userID,
		TotalEvents: total,
	}
	if ip.Valid {
		stats.IPAddress = &ip.String
	}
	if browser.Valid {
		stats.DeviceDetails.Browser = &browser.String
	}
	if os.Valid {
		stats.DeviceDetails.OS = &os.String
	}

	return stats, nil
}

// UpsertDailyRollups recomputes the per-tenant, per-event-type rollup for one
// calendar date (UTC, YYYY-MM-DD).
func (r *Repository) UpsertDailyRollups(date string) error {
	_, err := r.db.Exec(`
		INSERT INTO daily_event_stats (app_id, date, event_type, count, unique_users)
		SELECT app_id, substr(timestamp, 1, 10), event_type, COUNT(*), COUNT(DISTINCT user_id)
		FROM events
		WHERE substr(timestamp, 1, 10) = ?
		GROUP BY app_id, substr(timestamp, 1, 10), event_type
		ON CONFLICT(app_id, date, event_type) DO UPDATE SET
			count = excluded.count,
			unique_users = excluded.unique_users
	`, date)
	if err != nil {
		return apperrors.Storage("Rollup failed", err)
	}
	return nil
}
