package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/opengig/marketplace/pkg/models"
	"github.com/opengig/marketplace/pkg/workflow"
)

func (r *SQLiteRepo) CreateJob(ctx context.Context, j *models.Job) (int64, error) {
	if j == nil {
		return 0, fmt.Errorf("job is nil")
	}
	if j.Status == "" {
		j.Status = workflow.JobOpen
	}

	var owner any
	if j.OwnerID > 0 {
		owner = j.OwnerID
	}
	res, err := r.conn.Exec(ctx, `INSERT INTO jobs (title, description, budget, owner_id, status, created) VALUES (?, ?, ?, ?, ?, ?)`,
		j.Title, j.Description, j.Budget, owner, string(j.Status), now())
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetJobByID(ctx context.Context, id int64) (*models.Job, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, title, description, budget, owner_id, status, created FROM jobs WHERE id = ?`, id)
	var j models.Job
	var owner sql.NullInt64
	var status string
	if err := row.Scan(&j.ID, &j.Title, &j.Description, &j.Budget, &owner, &status, &j.Created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	if owner.Valid {
		j.OwnerID = owner.Int64
	}
	parsed, err := workflow.ParseJobStatus(status)
	if err != nil {
		return nil, err
	}
	j.Status = parsed

	return &j, nil
}

func (r *SQLiteRepo) ListOpenJobs(ctx context.Context) ([]models.Job, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT id, title, description, budget, owner_id, status, created FROM jobs WHERE status = ? ORDER BY created DESC`, string(workflow.JobOpen))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Job
	for rows.Next() {
		var j models.Job
		var owner sql.NullInt64
		var status string
		if err := rows.Scan(&j.ID, &j.Title, &j.Description, &j.Budget, &owner, &status, &j.Created); err != nil {
			return nil, err
		}
		if owner.Valid {
			j.OwnerID = owner.Int64
		}
		j.Status = workflow.JobStatus(status)
		out = append(out, j)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) ListJobsByOwner(ctx context.Context, ownerID int64) ([]models.JobSummary, error) {
	q := `SELECT j.id, j.title, j.description, j.budget, j.owner_id, j.status, j.created,
		(SELECT COUNT(1) FROM applications a WHERE a.job_id = j.id AND a.status != ?) AS active_applications
	FROM jobs j
	WHERE j.owner_id = ? AND j.status != ?
	ORDER BY j.created DESC`
	rows, err := r.conn.QueryRows(ctx, q, string(workflow.AppRejected), ownerID, string(workflow.JobCompleted))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.JobSummary
	for rows.Next() {
		var s models.JobSummary
		var owner sql.NullInt64
		var status string
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.Budget, &owner, &status, &s.Created, &s.ActiveApplications); err != nil {
			return nil, err
		}
		if owner.Valid {
			s.OwnerID = owner.Int64
		}
		s.Status = workflow.JobStatus(status)
		out = append(out, s)
	}

	return out, rows.Err()
}

// UpdateJobStatus writes the new status only when the transition is legal;
// writing the current status again is a no-op success.
func (r *SQLiteRepo) UpdateJobStatus(ctx context.Context, id int64, status workflow.JobStatus) error {
	cur, err := r.GetJobByID(ctx, id)
	if err != nil {
		return err
	}
	if cur == nil {
		return fmt.Errorf("job %d not found", id)
	}
	if cur.Status == status {
		return nil
	}
	if !workflow.JobTransitionAllowed(cur.Status, status) {
		return fmt.Errorf("job %d: transition %s → %s not allowed", id, cur.Status, status)
	}

	_, err = r.conn.Exec(ctx, `UPDATE jobs SET status = ? WHERE id = ?`, string(status), id)
	return err
}
