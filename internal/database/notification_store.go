package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/user/cryptofolio/internal/models"
)

// GetUserNotifications retrieves a user's notifications, newest first.
func GetUserNotifications(ctx context.Context, userID uuid.UUID) ([]*models.Notification, error) {
	notifications := make([]*models.Notification, 0)
	query := `SELECT id, user_id, message, read, created_at
			  FROM notifications WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := DB.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying notifications for user %s: %w", userID, err)
	}
	defer rows.Close()

	for rows.Next() {
		n := &models.Notification{}
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning notification row: %w", err)
		}
		notifications = append(notifications, n)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating notification rows: %w", rows.Err())
	}
	return notifications, nil
}

// MarkNotificationRead flags a notification as read. The user ID guards
// against marking someone else's notification. Reports whether a row matched.
func MarkNotificationRead(ctx context.Context, userID, notificationID uuid.UUID) (bool, error) {
	query := `UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`
	cmdTag, err := DB.Exec(ctx, query, notificationID, userID)
	if err != nil {
		return false, fmt.Errorf("error marking notification %s read: %w", notificationID, err)
	}
	return cmdTag.RowsAffected() == 1, nil
}

// GetUserActivities retrieves a user's activity records, newest first.
func GetUserActivities(ctx context.Context, userID uuid.UUID) ([]*models.Activity, error) {
	activities := make([]*models.Activity, 0)
	query := `SELECT id, user_id, kind, description, created_at
			  FROM activities WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := DB.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying activities for user %s: %w", userID, err)
	}
	defer rows.Close()

	for rows.Next() {
		a := &models.Activity{}
		if err := rows.Scan(&a.ID, &a.UserID, &a.Kind, &a.Description, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning activity row: %w", err)
		}
		activities = append(activities, a)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", rows.Err())
	}
	return activities, nil
}
