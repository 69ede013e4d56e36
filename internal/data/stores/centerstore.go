// Package stores contains the SQLite-backed implementation of the
// notification center consumed by the chime services.
package stores

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/colonyops/chime/internal/core/notify"
	"github.com/colonyops/chime/internal/data/db"
)

// authorizationKey is the center_settings key holding the authorization
// status.
const authorizationKey = "authorization_status"

// CenterStore implements notify.Center on SQLite. It is the reference
// host center: pending requests and delivered notifications live in the
// database, never in memory, so they survive process death.
type CenterStore struct {
	db *db.DB
}

var _ notify.Center = (*CenterStore)(nil)

// NewCenterStore creates a SQLite-backed notification center.
func NewCenterStore(db *db.DB) *CenterStore {
	return &CenterStore{db: db}
}

// AuthorizationStatus reports the stored authorization status. A fresh
// database reports not-determined.
func (s *CenterStore) AuthorizationStatus(ctx context.Context) (notify.AuthorizationStatus, error) {
	var value string
	err := s.db.Conn().QueryRowContext(ctx,
		`SELECT value FROM center_settings WHERE key = ?`, authorizationKey,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return notify.AuthorizationNotDetermined, nil
	}
	if err != nil {
		return notify.AuthorizationNotDetermined, fmt.Errorf("read authorization status: %w", err)
	}
	return notify.ParseAuthorizationStatus(value), nil
}

// SetAuthorizationStatus persists the authorization status.
func (s *CenterStore) SetAuthorizationStatus(ctx context.Context, status notify.AuthorizationStatus) error {
	_, err := s.db.Conn().ExecContext(ctx,
		`INSERT INTO center_settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		authorizationKey, status.String(),
	)
	if err != nil {
		return fmt.Errorf("write authorization status: %w", err)
	}
	return nil
}

// Categories returns all registered categories.
func (s *CenterStore) Categories(ctx context.Context) ([]notify.Category, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		`SELECT identifier, actions FROM categories ORDER BY created_at, identifier`,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []notify.Category
	for rows.Next() {
		var (
			cat         notify.Category
			actionsJSON string
		)
		if err := rows.Scan(&cat.Identifier, &actionsJSON); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		if err := json.Unmarshal([]byte(actionsJSON), &cat.Actions); err != nil {
			return nil, fmt.Errorf("decode category %q actions: %w", cat.Identifier, err)
		}
		categories = append(categories, cat)
	}

	return categories, rows.Err()
}

// SetCategories replaces the full category set.
func (s *CenterStore) SetCategories(ctx context.Context, categories []notify.Category) error {
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM categories`); err != nil {
			return fmt.Errorf("clear categories: %w", err)
		}

		now := time.Now().UnixNano()
		for i, cat := range categories {
			actions := cat.Actions
			if actions == nil {
				actions = []notify.Action{}
			}
			actionsJSON, err := json.Marshal(actions)
			if err != nil {
				return fmt.Errorf("encode category %q actions: %w", cat.Identifier, err)
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO categories (identifier, actions, created_at) VALUES (?, ?, ?)`,
				cat.Identifier, string(actionsJSON), now+int64(i),
			)
			if err != nil {
				return fmt.Errorf("insert category %q: %w", cat.Identifier, err)
			}
		}
		return nil
	})
}

// Add submits a request to the pending store. A request reusing an
// identifier replaces the previous entry. Trigger fire times are
// resolved at submission; a nil trigger is due immediately.
func (s *CenterStore) Add(ctx context.Context, req notify.Request) error {
	userInfo, err := encodeUserInfo(req.Content.UserInfo)
	if err != nil {
		return fmt.Errorf("encode user info: %w", err)
	}

	var fireAt sql.NullInt64
	if req.Trigger != nil {
		fireAt = sql.NullInt64{Int64: req.Trigger.FireTime(time.Now()).UnixNano(), Valid: true}
	}

	_, err = s.db.Conn().ExecContext(ctx,
		`INSERT OR REPLACE INTO pending_requests
		 (identifier, title, body, sound, interruption, category, user_info, fire_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.Identifier,
		req.Content.Title,
		req.Content.Body,
		req.Content.Sound,
		string(req.Content.Interruption),
		req.Content.CategoryID,
		userInfo,
		fireAt,
		time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("add request %q: %w", req.Identifier, err)
	}
	return nil
}

// Pending returns all requests waiting in the pending store.
func (s *CenterStore) Pending(ctx context.Context) ([]notify.Request, error) {
	return s.queryRequests(ctx,
		`SELECT identifier, title, body, sound, interruption, category, user_info, fire_at
		 FROM pending_requests ORDER BY created_at`)
}

// Due returns pending requests whose trigger has fired as of now.
func (s *CenterStore) Due(ctx context.Context, now time.Time) ([]notify.Request, error) {
	return s.queryRequests(ctx,
		`SELECT identifier, title, body, sound, interruption, category, user_info, fire_at
		 FROM pending_requests
		 WHERE fire_at IS NULL OR fire_at <= ?
		 ORDER BY fire_at`, now.UnixNano())
}

// Delivered returns all notifications in the delivered store.
func (s *CenterStore) Delivered(ctx context.Context) ([]notify.Notification, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		`SELECT identifier, title, body, sound, interruption, category, user_info, fire_at, delivered_at
		 FROM delivered_notifications ORDER BY delivered_at`)
	if err != nil {
		return nil, fmt.Errorf("list delivered: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var notifications []notify.Notification
	for rows.Next() {
		var (
			req         notify.Request
			userInfo    string
			fireAt      sql.NullInt64
			deliveredAt int64
		)
		err := rows.Scan(
			&req.Identifier, &req.Content.Title, &req.Content.Body,
			&req.Content.Sound, (*string)(&req.Content.Interruption),
			&req.Content.CategoryID, &userInfo, &fireAt, &deliveredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan delivered: %w", err)
		}
		if req.Content.UserInfo, err = decodeUserInfo(userInfo); err != nil {
			return nil, fmt.Errorf("decode user info for %q: %w", req.Identifier, err)
		}
		if fireAt.Valid {
			req.Trigger = notify.CalendarTrigger{At: time.Unix(0, fireAt.Int64)}
		}
		notifications = append(notifications, notify.Notification{
			Request:     req,
			DeliveredAt: time.Unix(0, deliveredAt),
		})
	}

	return notifications, rows.Err()
}

// MarkDelivered atomically moves a pending request into the delivered
// store, as the host does when a trigger fires. Returns the resulting
// notification.
func (s *CenterStore) MarkDelivered(ctx context.Context, identifier string, at time.Time) (notify.Notification, error) {
	var n notify.Notification

	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var (
			req      notify.Request
			userInfo string
			fireAt   sql.NullInt64
		)
		err := tx.QueryRowContext(ctx,
			`SELECT identifier, title, body, sound, interruption, category, user_info, fire_at
			 FROM pending_requests WHERE identifier = ?`, identifier,
		).Scan(
			&req.Identifier, &req.Content.Title, &req.Content.Body,
			&req.Content.Sound, (*string)(&req.Content.Interruption),
			&req.Content.CategoryID, &userInfo, &fireAt,
		)
		if err != nil {
			return fmt.Errorf("load pending %q: %w", identifier, err)
		}
		if req.Content.UserInfo, err = decodeUserInfo(userInfo); err != nil {
			return fmt.Errorf("decode user info: %w", err)
		}
		if fireAt.Valid {
			req.Trigger = notify.CalendarTrigger{At: time.Unix(0, fireAt.Int64)}
		}

		_, err = tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO delivered_notifications
			 (identifier, title, body, sound, interruption, category, user_info, fire_at, delivered_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			req.Identifier, req.Content.Title, req.Content.Body,
			req.Content.Sound, string(req.Content.Interruption),
			req.Content.CategoryID, userInfo, fireAt, at.UnixNano(),
		)
		if err != nil {
			return fmt.Errorf("insert delivered %q: %w", identifier, err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM pending_requests WHERE identifier = ?`, identifier,
		); err != nil {
			return fmt.Errorf("delete pending %q: %w", identifier, err)
		}

		n = notify.Notification{Request: req, DeliveredAt: at}
		return nil
	})
	if err != nil {
		return notify.Notification{}, err
	}

	return n, nil
}

// RemovePending deletes pending requests by identifier.
func (s *CenterStore) RemovePending(ctx context.Context, identifiers []string) error {
	return s.remove(ctx, "pending_requests", identifiers)
}

// RemoveDelivered deletes delivered notifications by identifier.
func (s *CenterStore) RemoveDelivered(ctx context.Context, identifiers []string) error {
	return s.remove(ctx, "delivered_notifications", identifiers)
}

func (s *CenterStore) remove(ctx context.Context, table string, identifiers []string) error {
	if len(identifiers) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(identifiers)), ",")
	args := make([]any, len(identifiers))
	for i, id := range identifiers {
		args[i] = id
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE identifier IN (%s)`, table, placeholders)
	if _, err := s.db.Conn().ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("remove from %s: %w", table, err)
	}
	return nil
}

func (s *CenterStore) queryRequests(ctx context.Context, query string, args ...any) ([]notify.Request, error) {
	rows, err := s.db.Conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var requests []notify.Request
	for rows.Next() {
		var (
			req      notify.Request
			userInfo string
			fireAt   sql.NullInt64
		)
		err := rows.Scan(
			&req.Identifier, &req.Content.Title, &req.Content.Body,
			&req.Content.Sound, (*string)(&req.Content.Interruption),
			&req.Content.CategoryID, &userInfo, &fireAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		if req.Content.UserInfo, err = decodeUserInfo(userInfo); err != nil {
			return nil, fmt.Errorf("decode user info for %q: %w", req.Identifier, err)
		}
		if fireAt.Valid {
			req.Trigger = notify.CalendarTrigger{At: time.Unix(0, fireAt.Int64)}
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

func encodeUserInfo(info map[string]any) (string, error) {
	if len(info) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(info)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeUserInfo(data string) (map[string]any, error) {
	if data == "" || data == "{}" {
		return nil, nil
	}
	var info map[string]any
	if err := json.Unmarshal([]byte(data), &info); err != nil {
		return nil, err
	}
	return info, nil
}
