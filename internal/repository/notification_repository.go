package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/taskflow/internal/model"
)

// notificationLimit caps a listing to the most recent entries.
const notificationLimit = 50

type NotificationRepo struct{ DB *sql.DB }

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{DB: db} }

func (r *NotificationRepo) Create(ctx context.Context, n model.Notification) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO notifications (id,user_id,message,type) VALUES (?,?,?,?)",
		n.ID, n.UserID, n.Message, n.Type)
	return err
}

// ListForUser returns the newest notifications of userID.
func (r *NotificationRepo) ListForUser(ctx context.Context, userID string) ([]model.Notification, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,user_id,message,type,is_read,created_at FROM notifications WHERE user_id=? ORDER BY created_at DESC LIMIT ?",
		userID, notificationLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Notification{}
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.Type, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead flags notification id of userID as read.  Another user's
// notification is reported as ErrNotFound.
func (r *NotificationRepo) MarkRead(ctx context.Context, id, userID string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE notifications SET is_read=TRUE WHERE id=? AND user_id=?", id, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE notifications SET is_read=TRUE WHERE user_id=? AND is_read=FALSE", userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
