package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"swasthyasathi/internal/core"
	"swasthyasathi/pkg"
)

// ErrProfileNotFound is returned by Get when no row exists.
var ErrProfileNotFound = core.ErrProfileNotFound

const profileColumns = `phone_number, onboarding_step, verified, native_language, full_name, age, gender,
       pincode, city, state, district, subdistrict, latitude, longitude,
       chronic_conditions, consent, pending_media_id, created_at, last_active`

// Repository wraps the users and chat_logs tables.  It implements both
// core.ProfileStore and core.LogStore.
type Repository struct {
	DB *sql.DB
}

// NewRepository constructs a new Repository from an existing sql.DB.
// The caller is responsible for managing the DB connection lifecycle.
func NewRepository(db *sql.DB) *Repository { return &Repository{DB: db} }

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(row rowScanner) (*pkg.UserProfile, error) {
	var (
		p                                   pkg.UserProfile
		lang, name, gender, pincode, city   sql.NullString
		state, district, subdistrict, media sql.NullString
		age                                 sql.NullInt64
		lat, lon                            sql.NullFloat64
		conditions                          []string
		consent                             sql.NullBool
	)
	err := row.Scan(&p.Phone, &p.Step, &p.Verified, &lang, &name, &age, &gender,
		&pincode, &city, &state, &district, &subdistrict, &lat, &lon,
		pq.Array(&conditions), &consent, &media, &p.CreatedAt, &p.LastActive)
	if err != nil {
		return nil, err
	}
	p.NativeLanguage = lang.String
	p.FullName = name.String
	p.Age = int(age.Int64)
	p.Gender = pkg.Gender(gender.String)
	p.Location = pkg.Location{
		Pincode:     pincode.String,
		City:        city.String,
		State:       state.String,
		District:    district.String,
		Subdistrict: subdistrict.String,
	}
	if lat.Valid && lon.Valid {
		la, lo := lat.Float64, lon.Float64
		p.Location.Latitude, p.Location.Longitude = &la, &lo
	}
	p.ChronicConditions = conditions
	if consent.Valid {
		c := consent.Bool
		p.Consent = &c
	}
	p.PendingMediaID = media.String
	return &p, nil
}

// Get loads a profile by phone number.
func (r *Repository) Get(ctx context.Context, phone string) (*pkg.UserProfile, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+profileColumns+`
         FROM users
         WHERE phone_number = $1`, phone)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// Create inserts a minimal row at the start step.  An existing row is
// returned unchanged apart from last_active.
func (r *Repository) Create(ctx context.Context, phone string) (*pkg.UserProfile, error) {
	row := r.DB.QueryRowContext(ctx,
		`INSERT INTO users (phone_number, onboarding_step, preferred_channel, created_at, last_active)
         VALUES ($1, $2, 'whatsapp', NOW(), NOW())
         ON CONFLICT (phone_number) DO UPDATE SET last_active = NOW()
         RETURNING `+profileColumns, phone, pkg.StepStart)
	p, err := scanProfile(row)
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return p, nil
}

// Update applies a partial update and refreshes last_active.
func (r *Repository) Update(ctx context.Context, phone string, u pkg.ProfileUpdate) error {
	query, args := buildUpdate(phone, u)
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if n == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// buildUpdate renders the UPDATE statement for the non-nil fields of u.
// last_active is always set.
func buildUpdate(phone string, u pkg.ProfileUpdate) (string, []interface{}) {
	var (
		sets []string
		args []interface{}
	)
	set := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if u.Step != nil {
		set("onboarding_step", *u.Step)
	}
	if u.Verified != nil {
		set("verified", *u.Verified)
	}
	if u.NativeLanguage != nil {
		set("native_language", nullString(*u.NativeLanguage))
	}
	if u.FullName != nil {
		set("full_name", nullString(*u.FullName))
	}
	if u.Age != nil {
		set("age", *u.Age)
	}
	if u.Gender != nil {
		set("gender", nullString(string(*u.Gender)))
	}
	if u.Location != nil {
		l := u.Location
		set("pincode", nullString(l.Pincode))
		set("city", nullString(l.City))
		set("state", nullString(l.State))
		set("district", nullString(l.District))
		set("subdistrict", nullString(l.Subdistrict))
		set("latitude", nullFloat(l.Latitude))
		set("longitude", nullFloat(l.Longitude))
	}
	if u.ChronicConditions != nil {
		conditions := *u.ChronicConditions
		if conditions == nil {
			conditions = []string{}
		}
		set("chronic_conditions", pq.Array(conditions))
	}
	if u.Consent != nil {
		set("consent", *u.Consent)
	}
	if u.PendingMediaID != nil {
		set("pending_media_id", nullString(*u.PendingMediaID))
	}
	sets = append(sets, "last_active = NOW()")
	args = append(args, phone)
	query := fmt.Sprintf("UPDATE users SET %s WHERE phone_number = $%d", strings.Join(sets, ", "), len(args))
	return query, args
}

// Delete removes the profile row.  It reports whether a row existed.
func (r *Repository) Delete(ctx context.Context, phone string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE phone_number = $1`, phone)
	if err != nil {
		return false, fmt.Errorf("delete profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete profile: %w", err)
	}
	return n > 0, nil
}

// ClaimPendingMedia clears pending_media_id only while it still holds
// mediaID, so two overlapping messages cannot both consume one image.
func (r *Repository) ClaimPendingMedia(ctx context.Context, phone, mediaID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users
         SET pending_media_id = NULL, last_active = NOW()
         WHERE phone_number = $1 AND pending_media_id = $2`,
		phone, mediaID,
	)
	if err != nil {
		return false, fmt.Errorf("claim pending media: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim pending media: %w", err)
	}
	return n == 1, nil
}

// AppendChatLog stores one answered question.
func (r *Repository) AppendChatLog(ctx context.Context, userID, messageIn, messageOut string) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO chat_logs (id, user_id, message_in, message_out)
         VALUES ($1, $2, $3, $4)`,
		uuid.New(), userID, messageIn, messageOut,
	)
	if err != nil {
		return fmt.Errorf("append chat log: %w", err)
	}
	return nil
}

// GetChatLogs returns a user's chat log, oldest first.
func (r *Repository) GetChatLogs(ctx context.Context, userID string, limit int) ([]pkg.ChatLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, user_id, message_in, message_out, created_at
         FROM (
             SELECT id, user_id, message_in, message_out, created_at
             FROM chat_logs
             WHERE user_id = $1
             ORDER BY created_at DESC
             LIMIT $2
         ) recent
         ORDER BY created_at ASC`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("get chat logs: %w", err)
	}
	defer rows.Close()
	var out []pkg.ChatLogEntry
	for rows.Next() {
		var e pkg.ChatLogEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.MessageIn, &e.MessageOut, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
