package models

import "time"

// CaseRun is the record of a finished case.
type CaseRun struct {
	ID             int64     `db:"id"`
	PlayerID       string    `db:"player_id"`
	CaseID         string    `db:"case_id"`
	Status         string    `db:"status"`
	HoursRemaining int       `db:"hours_remaining"`
	FinishedAt     time.Time `db:"finished_at"`
}
