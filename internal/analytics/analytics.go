package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// Envelope is what we store with every event.
type Envelope struct {
	UserID       int
	SessionID    string
	Platform     string
	AppVersion   string
	DeviceLocale string
}

// FromRequest extracts envelope fields from request headers.
// Backend-trustable fields only.
func FromRequest(r *http.Request) Envelope {
	platform := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Platform")))
	switch platform {
	case "ios", "android", "web":
	default:
		platform = "unknown"
	}

	locale := strings.TrimSpace(r.Header.Get("Accept-Language"))
	if locale == "" {
		locale = strings.TrimSpace(r.Header.Get("X-Device-Locale"))
	}

	return Envelope{
		SessionID:    strings.TrimSpace(r.Header.Get("X-Session-Id")),
		Platform:     platform,
		AppVersion:   strings.TrimSpace(r.Header.Get("X-App-Version")),
		DeviceLocale: locale,
	}
}

// SourceEventKeyFromRequest returns the client idempotency key, if any.
// A duplicated key makes the insert a no-op.
func SourceEventKeyFromRequest(r *http.Request) string {
	if k := strings.TrimSpace(r.Header.Get("Idempotency-Key")); k != "" {
		return k
	}
	return strings.TrimSpace(r.Header.Get("X-Source-Event-Key"))
}

// Log inserts one analytics event. Best effort: it never fails the
// calling request and never stores raw user text, only sanitized props.
func Log(ctx context.Context, db *sql.DB, env Envelope, eventName string, props any, sourceEventKey string) error {
	if db == nil || eventName == "" || env.UserID == 0 {
		return nil
	}

	b, err := json.Marshal(props)
	if err != nil {
		return nil
	}

	if sourceEventKey != "" {
		_, _ = db.ExecContext(ctx, `
			INSERT INTO analytics_events (
				event_name, event_time,
				user_id, session_id,
				platform, app_version, device_locale,
				source_event_key,
				properties
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb)
			ON CONFLICT (source_event_key) DO NOTHING
		`, eventName, time.Now().UTC(),
			env.UserID, nullIfEmpty(env.SessionID),
			env.Platform, env.AppVersion, nullIfEmpty(env.DeviceLocale),
			sourceEventKey,
			string(b),
		)
		return nil
	}

	_, _ = db.ExecContext(ctx, `
		INSERT INTO analytics_events (
			event_name, event_time,
			user_id, session_id,
			platform, app_version, device_locale,
			properties
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb)
	`, eventName, time.Now().UTC(),
		env.UserID, nullIfEmpty(env.SessionID),
		env.Platform, env.AppVersion, nullIfEmpty(env.DeviceLocale),
		string(b),
	)

	return nil
}

func nullIfEmpty(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// TierFromScore buckets a 0-100 priority score for reporting.
func TierFromScore(score float64) string {
	switch {
	case score >= 70:
		return "P1"
	case score >= 40:
		return "P2"
	default:
		return "P3"
	}
}
