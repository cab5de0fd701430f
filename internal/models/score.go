package models

import "time"

// Score is one subject result belonging to a candidate. A candidate holds at
// most one score per subject; re-imports overwrite the value.
type Score struct {
	ID          string    `db:"id" json:"id"`
	CandidateID string    `db:"candidate_id" json:"candidate_id"`
	Subject     string    `db:"subject" json:"mon_thi"`
	Value       float64   `db:"score" json:"diem"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ScoreDetail joins a score with its owning candidate's display fields.
type ScoreDetail struct {
	Score
	RegistrationNumber string `db:"registration_number" json:"so_bao_danh"`
	FullName           string `db:"full_name" json:"ho_ten"`
	NationalID         string `db:"national_id" json:"cccd"`
	School             string `db:"school" json:"truong"`
	DateOfBirth        string `db:"date_of_birth" json:"ngay_sinh"`
	Gender             string `db:"gender" json:"gioi_tinh"`
}

// RecordFilter captures the admin listing parameters.
type RecordFilter struct {
	Search   string
	Page     int
	PageSize int
}

// RegistryStats summarises registry volume for the admin dashboard.
type RegistryStats struct {
	CandidateCount int `json:"candidate_count"`
	ScoreCount     int `json:"score_count"`
}
