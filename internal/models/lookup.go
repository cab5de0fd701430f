package models

// LookupRequest carries the visitor-supplied identifying fields plus the
// captcha challenge answer. Which fields actually participate in the filter
// is decided by the portal settings, not by the client.
type LookupRequest struct {
	FullName           string `json:"ho_ten"`
	RegistrationNumber string `json:"so_bao_danh"`
	NationalID         string `json:"cccd"`
	DateOfBirth        string `json:"ngay_sinh"`
	CaptchaID          string `json:"captcha_id"`
	CaptchaAnswer      string `json:"captcha_answer"`
}

// LookupResult is the public lookup payload: candidate display fields plus
// all of the candidate's subject scores. An empty Scores slice with a zero
// Candidate means no match.
type LookupResult struct {
	Found     bool          `json:"found"`
	Candidate *Candidate    `json:"candidate,omitempty"`
	Scores    []Score       `json:"scores"`
	Display   ResultsConfig `json:"display"`
}

// ImportSummary is the outcome of one spreadsheet batch.
type ImportSummary struct {
	SuccessCount int      `json:"imported"`
	Errors       []string `json:"errors"`
}
