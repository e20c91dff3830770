package mysql

import (
	"context"
	"database/sql"
	"errors"

	"travelly_stays/internal/domain"
)

func valStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Journal records commit attempts and the per-room lock outcomes.
type Journal struct{ db *sql.DB }

func New(db *sql.DB) *Journal { return &Journal{db: db} }

func (j *Journal) BeginAttempt(ctx context.Context, a domain.CommitAttempt) error {
	_, err := j.db.ExecContext(ctx, insertAttemptSQL,
		a.ID,
		a.HotelID,
		a.HotelName,
		string(a.Origin),
		a.CustomerName,
		a.Range.CheckIn,
		a.Range.CheckOut,
		a.Nights,
		a.TotalPrice,
		a.RoomCount,
		string(a.Status),
	)
	return err
}

// FinishAttempt stores the final status and every lock outcome atomically.
// The attempt row is created when BeginAttempt never landed.
func (j *Journal) FinishAttempt(ctx context.Context, a domain.CommitAttempt, locks []domain.LockOutcome) (err error) {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, finishAttemptSQL,
		a.ID,
		a.HotelID,
		a.HotelName,
		string(a.Origin),
		a.CustomerName,
		a.Range.CheckIn,
		a.Range.CheckOut,
		a.Nights,
		a.TotalPrice,
		a.RoomCount,
		string(a.Status),
		valStr(a.ErrorKind),
		valStr(a.ErrorMessage),
		valStr(a.ReservationID),
	); err != nil {
		return err
	}
	for _, l := range locks {
		if _, err = tx.ExecContext(ctx, upsertLockSQL, a.ID, l.RoomNumberID, string(l.State), valStr(l.Message)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (j *Journal) PendingReleases(ctx context.Context, limit int) ([]domain.PendingRelease, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := j.db.QueryContext(ctx, pendingReleasesSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PendingRelease
	for rows.Next() {
		var p domain.PendingRelease
		if err := rows.Scan(&p.AttemptID, &p.RoomNumberID, &p.Range.CheckIn, &p.Range.CheckOut); err != nil {
			return nil, err
		}
		p.Range.CheckIn = domain.Day(p.Range.CheckIn)
		p.Range.CheckOut = domain.Day(p.Range.CheckOut)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (j *Journal) MarkReleased(ctx context.Context, attemptID, roomNumberID string) error {
	_, err := j.db.ExecContext(ctx, markReleasedSQL, attemptID, roomNumberID)
	return err
}

// GetAttempt loads one attempt with its lock outcomes.
func (j *Journal) GetAttempt(ctx context.Context, id string) (domain.CommitAttempt, []domain.LockOutcome, error) {
	var (
		a                      domain.CommitAttempt
		origin, status         string
		errKind, errMsg, resID sql.NullString
	)
	err := j.db.QueryRowContext(ctx, getAttemptSQL, id).Scan(
		&a.ID, &a.HotelID, &a.HotelName, &origin, &a.CustomerName,
		&a.Range.CheckIn, &a.Range.CheckOut,
		&a.Nights, &a.TotalPrice, &a.RoomCount, &status,
		&errKind, &errMsg, &resID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CommitAttempt{}, nil, domain.ErrNotFound
	}
	if err != nil {
		return domain.CommitAttempt{}, nil, err
	}
	a.Origin = domain.Origin(origin)
	a.Status = domain.AttemptStatus(status)
	a.ErrorKind = errKind.String
	a.ErrorMessage = errMsg.String
	a.ReservationID = resID.String

	rows, err := j.db.QueryContext(ctx, listLocksSQL, id)
	if err != nil {
		return domain.CommitAttempt{}, nil, err
	}
	defer rows.Close()
	var locks []domain.LockOutcome
	for rows.Next() {
		var l domain.LockOutcome
		var state string
		var msg sql.NullString
		if err := rows.Scan(&l.RoomNumberID, &state, &msg); err != nil {
			return domain.CommitAttempt{}, nil, err
		}
		l.State = domain.LockState(state)
		l.Message = msg.String
		locks = append(locks, l)
	}
	return a, locks, rows.Err()
}
