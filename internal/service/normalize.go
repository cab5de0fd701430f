package service

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/pkg/spreadsheet"
)

// Canonical field names produced by row normalization.
const (
	fieldFullName           = "full_name"
	fieldRegistrationNumber = "registration_number"
	fieldNationalID         = "national_id"
	fieldSchool             = "school"
	fieldSubject            = "subject"
	fieldScore              = "score"
	fieldDateOfBirth        = "date_of_birth"
	fieldGender             = "gender"
)

// headerAliases maps folded header spellings onto canonical fields. Folding
// lowercases, strips diacritics and drops everything non-alphanumeric, so
// "Số Báo Danh", "so_bao_danh" and "SoBaoDanh" all land on "sobaodanh".
var headerAliases = map[string]string{
	"hoten":     fieldFullName,
	"hovaten":   fieldFullName,
	"name":      fieldFullName,
	"thisinh":   fieldFullName,
	"sbd":       fieldRegistrationNumber,
	"sobaodanh": fieldRegistrationNumber,
	"sobd":      fieldRegistrationNumber,
	"cccd":      fieldNationalID,
	"cmnd":      fieldNationalID,
	"socccd":    fieldNationalID,
	"truong":    fieldSchool,
	"donvi":     fieldSchool,
	"truonghoc": fieldSchool,
	"monthi":    fieldSubject,
	"mon":       fieldSubject,
	"subject":   fieldSubject,
	"diem":      fieldScore,
	"diemso":    fieldScore,
	"ketqua":    fieldScore,
	"score":     fieldScore,
	"ngaysinh":  fieldDateOfBirth,
	"birthday":  fieldDateOfBirth,
	"dob":       fieldDateOfBirth,
	"gioitinh":  fieldGender,
	"gender":    fieldGender,
}

// rawFallbacks lets machine-exported files round-trip without alias matching:
// when alias folding found nothing for a field, its exact template header
// still counts.
var rawFallbacks = map[string]string{
	"HO_TEN":      fieldFullName,
	"SO_BAO_DANH": fieldRegistrationNumber,
	"CCCD":        fieldNationalID,
	"TRUONG":      fieldSchool,
	"MON_THI":     fieldSubject,
	"DIEM":        fieldScore,
	"NGAY_SINH":   fieldDateOfBirth,
	"GIOI_TINH":   fieldGender,
}

var diacriticsRemover = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldHeader normalizes one column header for alias comparison.
func foldHeader(header string) string {
	lower := strings.ToLower(strings.TrimSpace(header))
	folded, _, err := transform.String(diacriticsRemover, lower)
	if err != nil {
		folded = lower
	}
	var b strings.Builder
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// normalizeRow maps one spreadsheet row onto canonical fields. For each field
// the first matching column in sheet order wins. Fields with no matching
// header are absent from the result.
func normalizeRow(row spreadsheet.Row) map[string]string {
	result := make(map[string]string, len(rawFallbacks))
	for _, col := range row.Columns {
		field, ok := headerAliases[foldHeader(col.Header)]
		if !ok {
			continue
		}
		if _, taken := result[field]; taken {
			continue
		}
		result[field] = col.Value
	}
	for rawKey, field := range rawFallbacks {
		if result[field] != "" {
			continue
		}
		if value, ok := row.Get(rawKey); ok && value != "" {
			result[field] = value
		}
	}
	return result
}

func upperTrim(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// parseScore interprets a cell as a floating point score, accepting a comma
// as decimal separator. Unparseable values collapse to 0, matching how the
// score sheets historically treated blank or malformed cells.
func parseScore(raw string) float64 {
	cleaned := strings.Replace(strings.TrimSpace(raw), ",", ".", 1)
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return value
}

// excelEpoch is the day-zero of xlsx serial dates (the 1900 date system with
// its compatibility leap-year shift already folded in).
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// normalizeDate renders a birth date cell as dd/mm/yyyy. Serial numbers are
// converted from the spreadsheet epoch, ISO dates are rewritten, anything
// else passes through unchanged.
func normalizeDate(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if serial, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return excelEpoch.AddDate(0, 0, int(serial)).Format("02/01/2006")
	}
	if parsed, err := time.Parse("2006-01-02", trimmed); err == nil {
		return parsed.Format("02/01/2006")
	}
	return trimmed
}
