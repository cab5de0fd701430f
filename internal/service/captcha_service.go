package service

import (
	"bytes"
	"time"

	"github.com/dchest/captcha"
)

// CaptchaService wraps the challenge generator behind the small surface the
// lookup flow needs: create a challenge, render its image, verify an answer.
type CaptchaService struct {
	width  int
	height int
	length int
}

// NewCaptchaService configures a captcha generator. The expiry bounds how
// long an unanswered challenge stays valid.
func NewCaptchaService(width, height, length int, expiry time.Duration) *CaptchaService {
	if width <= 0 {
		width = captcha.StdWidth
	}
	if height <= 0 {
		height = captcha.StdHeight
	}
	if length <= 0 {
		length = 5
	}
	if expiry > 0 {
		captcha.SetCustomStore(captcha.NewMemoryStore(captcha.CollectNum, expiry))
	}
	return &CaptchaService{width: width, height: height, length: length}
}

// New issues a fresh challenge and returns its identifier.
func (s *CaptchaService) New() string {
	return captcha.NewLen(s.length)
}

// Image renders the challenge as a PNG. A false second return means the
// identifier is unknown or already expired.
func (s *CaptchaService) Image(id string) ([]byte, bool) {
	var buf bytes.Buffer
	if err := captcha.WriteImage(&buf, id, s.width, s.height); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}

// Verify checks an answer. Challenges are single-use: a correct answer
// consumes the challenge, a wrong one invalidates it.
func (s *CaptchaService) Verify(id, answer string) bool {
	if id == "" || answer == "" {
		return false
	}
	return captcha.VerifyString(id, answer)
}
