package models

import "time"

// Candidate is an exam candidate in the registry, keyed by registration number.
// Secondary identity fields are stored as empty strings when unknown and are
// filled in by later imports on a first-writer-wins basis.
type Candidate struct {
	ID                 string    `db:"id" json:"id"`
	RegistrationNumber string    `db:"registration_number" json:"so_bao_danh"`
	FullName           string    `db:"full_name" json:"ho_ten"`
	NationalID         string    `db:"national_id" json:"cccd"`
	School             string    `db:"school" json:"truong"`
	DateOfBirth        string    `db:"date_of_birth" json:"ngay_sinh"`
	Gender             string    `db:"gender" json:"gioi_tinh"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// LookupFilter holds the conjunctive equality terms of a public lookup.
// Empty fields are not part of the filter.
type LookupFilter struct {
	RegistrationNumber string
	FullName           string
	NationalID         string
	DateOfBirth        string
}

// Empty reports whether the filter carries no usable term.
func (f LookupFilter) Empty() bool {
	return f.RegistrationNumber == "" && f.FullName == "" && f.NationalID == "" && f.DateOfBirth == ""
}
