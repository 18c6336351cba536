package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/opengig/marketplace/pkg/models"
	"github.com/opengig/marketplace/pkg/workflow"
)

func (r *SQLiteRepo) CreateProfile(ctx context.Context, p *models.Profile) (int64, error) {
	if p == nil {
		return 0, fmt.Errorf("profile is nil")
	}
	if _, err := workflow.ParseRole(string(p.Role)); err != nil {
		return 0, err
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO profiles (user_id, role, created) VALUES (?, ?, ?)`, p.UserID, string(p.Role), now())
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetProfileByUserID(ctx context.Context, userID int64) (*models.Profile, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, user_id, role, created FROM profiles WHERE user_id = ?`, userID)
	var p models.Profile
	var role string
	if err := row.Scan(&p.ID, &p.UserID, &role, &p.Created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	parsed, err := workflow.ParseRole(role)
	if err != nil {
		return nil, err
	}
	p.Role = parsed

	return &p, nil
}
