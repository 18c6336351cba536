package sqlite

import (
	"context"
	"fmt"

	"github.com/opengig/marketplace/pkg/models"
)

func (r *SQLiteRepo) CreateMessage(ctx context.Context, m *models.Message) (int64, error) {
	if m == nil {
		return 0, fmt.Errorf("message is nil")
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO messages (job_id, sender_id, receiver_id, content, read, created) VALUES (?, ?, ?, ?, 0, ?)`,
		m.JobID, m.SenderID, m.ReceiverID, m.Content, now())
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) ListThread(ctx context.Context, jobID, userA, userB int64) ([]models.Message, error) {
	q := `SELECT id, job_id, sender_id, receiver_id, content, read, created FROM messages
	WHERE job_id = ? AND ((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))
	ORDER BY created ASC, id ASC`
	rows, err := r.conn.QueryRows(ctx, q, jobID, userA, userB, userB, userA)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Message
	for rows.Next() {
		var m models.Message
		var read int
		if err := rows.Scan(&m.ID, &m.JobID, &m.SenderID, &m.ReceiverID, &m.Content, &read, &m.Created); err != nil {
			return nil, err
		}
		m.Read = read != 0
		out = append(out, m)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) MarkThreadRead(ctx context.Context, jobID, receiverID, senderID int64) error {
	_, err := r.conn.Exec(ctx, `UPDATE messages SET read = 1 WHERE job_id = ? AND receiver_id = ? AND sender_id = ? AND read = 0`,
		jobID, receiverID, senderID)
	return err
}

func (r *SQLiteRepo) ClearThread(ctx context.Context, jobID, userA, userB int64) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM messages
	WHERE job_id = ? AND ((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))`,
		jobID, userA, userB, userB, userA)
	return err
}

// ListConversations groups the user's messages by (job, counterpart) and
// keeps the latest timestamp per group plus the group's unread count. A full
// scan of the user's messages; fine at this scale.
func (r *SQLiteRepo) ListConversations(ctx context.Context, userID int64) ([]models.ConversationSummary, error) {
	q := `SELECT c.other_id, c.job_id, j.title, u.first_name || ' ' || u.last_name, c.last_at, c.unread
	FROM (
		SELECT CASE WHEN m.sender_id = ? THEN m.receiver_id ELSE m.sender_id END AS other_id,
			m.job_id AS job_id,
			MAX(m.created) AS last_at,
			SUM(CASE WHEN m.receiver_id = ? AND m.read = 0 THEN 1 ELSE 0 END) AS unread
		FROM messages m
		WHERE m.sender_id = ? OR m.receiver_id = ?
		GROUP BY other_id, m.job_id
	) c
	JOIN jobs j ON j.id = c.job_id
	JOIN users u ON u.id = c.other_id
	ORDER BY c.last_at DESC`
	rows, err := r.conn.QueryRows(ctx, q, userID, userID, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ConversationSummary
	for rows.Next() {
		var c models.ConversationSummary
		if err := rows.Scan(&c.OtherUserID, &c.JobID, &c.JobTitle, &c.OtherUserName, &c.LastMessageAt, &c.UnreadCount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) CountUnread(ctx context.Context, userID int64) (int64, error) {
	var count int64
	row := r.conn.QueryRow(ctx, `SELECT COUNT(1) FROM messages WHERE receiver_id = ? AND read = 0`, userID)
	if err := row.Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}
