package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/opengig/marketplace/pkg/models"
	"github.com/opengig/marketplace/pkg/workflow"
)

func (r *SQLiteRepo) CreateApplication(ctx context.Context, a *models.Application) (int64, error) {
	if a == nil {
		return 0, fmt.Errorf("application is nil")
	}
	if a.Status == "" {
		a.Status = workflow.AppPending
	}

	var applicant any
	if a.ApplicantID > 0 {
		applicant = a.ApplicantID
	}
	res, err := r.conn.Exec(ctx, `INSERT INTO applications (job_id, applicant_id, applicant_name, proposal, status, created) VALUES (?, ?, ?, ?, ?, ?)`,
		a.JobID, applicant, a.ApplicantName, a.Proposal, string(a.Status), now())
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetApplicationByID(ctx context.Context, id int64) (*models.Application, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, job_id, applicant_id, applicant_name, proposal, status, created FROM applications WHERE id = ?`, id)
	var a models.Application
	var applicant sql.NullInt64
	var status string
	if err := row.Scan(&a.ID, &a.JobID, &applicant, &a.ApplicantName, &a.Proposal, &status, &a.Created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	if applicant.Valid {
		a.ApplicantID = applicant.Int64
	}
	parsed, err := workflow.ParseAppStatus(status)
	if err != nil {
		return nil, err
	}
	a.Status = parsed

	return &a, nil
}

func (r *SQLiteRepo) ListActiveByJob(ctx context.Context, jobID int64) ([]models.Application, error) {
	q := `SELECT id, job_id, applicant_id, applicant_name, proposal, status, created FROM applications WHERE job_id = ? AND status != ? ORDER BY created DESC`
	rows, err := r.conn.QueryRows(ctx, q, jobID, string(workflow.AppRejected))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Application
	for rows.Next() {
		var a models.Application
		var applicant sql.NullInt64
		var status string
		if err := rows.Scan(&a.ID, &a.JobID, &applicant, &a.ApplicantName, &a.Proposal, &status, &a.Created); err != nil {
			return nil, err
		}
		if applicant.Valid {
			a.ApplicantID = applicant.Int64
		}
		a.Status = workflow.AppStatus(status)
		out = append(out, a)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) ListByApplicant(ctx context.Context, applicantID int64) ([]models.ApplicationWithJob, error) {
	q := `SELECT a.id, a.job_id, a.applicant_id, a.applicant_name, a.proposal, a.status, a.created,
		j.title, j.status, j.budget
	FROM applications a
	JOIN jobs j ON j.id = a.job_id
	WHERE a.applicant_id = ? AND j.status != ?
	ORDER BY a.created DESC`
	rows, err := r.conn.QueryRows(ctx, q, applicantID, string(workflow.JobCompleted))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ApplicationWithJob
	for rows.Next() {
		var a models.ApplicationWithJob
		var applicant sql.NullInt64
		var status, jobStatus string
		if err := rows.Scan(&a.ID, &a.JobID, &applicant, &a.ApplicantName, &a.Proposal, &status, &a.Created,
			&a.JobTitle, &jobStatus, &a.JobBudget); err != nil {
			return nil, err
		}
		if applicant.Valid {
			a.ApplicantID = applicant.Int64
		}
		a.Status = workflow.AppStatus(status)
		a.JobStatus = workflow.JobStatus(jobStatus)
		out = append(out, a)
	}

	return out, rows.Err()
}

// UpdateApplicationStatus writes the new status only when the transition is
// legal; writing the current status again is a no-op success.
func (r *SQLiteRepo) UpdateApplicationStatus(ctx context.Context, id int64, status workflow.AppStatus) error {
	cur, err := r.GetApplicationByID(ctx, id)
	if err != nil {
		return err
	}
	if cur == nil {
		return fmt.Errorf("application %d not found", id)
	}
	if cur.Status == status {
		return nil
	}
	if !workflow.AppTransitionAllowed(cur.Status, status) {
		return fmt.Errorf("application %d: transition %s → %s not allowed", id, cur.Status, status)
	}

	_, err = r.conn.Exec(ctx, `UPDATE applications SET status = ? WHERE id = ?`, string(status), id)
	return err
}

func (r *SQLiteRepo) RejectNonAccepted(ctx context.Context, jobID int64) error {
	_, err := r.conn.Exec(ctx, `UPDATE applications SET status = ? WHERE job_id = ? AND status != ?`,
		string(workflow.AppRejected), jobID, string(workflow.AppAccepted))
	return err
}

func (r *SQLiteRepo) DeleteApplication(ctx context.Context, id int64) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM applications WHERE id = ?`, id)
	return err
}

func (r *SQLiteRepo) HasAcceptedApplication(ctx context.Context, jobID, userID int64) (bool, error) {
	var count int
	row := r.conn.QueryRow(ctx, `SELECT COUNT(1) FROM applications WHERE job_id = ? AND applicant_id = ? AND status = ?`,
		jobID, userID, string(workflow.AppAccepted))
	if err := row.Scan(&count); err != nil {
		return false, err
	}

	return count > 0, nil
}
