package models

import "encoding/json"

// SettingsID is the fixed identifier of the singleton settings document.
const SettingsID = "global_settings"

// FieldConfig controls one lookup-form field.
type FieldConfig struct {
	Visible  bool   `json:"visible"`
	Required bool   `json:"required"`
	Label    string `json:"label"`
}

// ExamConfig carries exam identity and branding.
type ExamConfig struct {
	Name            string `json:"name"`
	SchoolYear      string `json:"schoolYear"`
	OrgUnit         string `json:"orgUnit"`
	SubUnit         string `json:"subUnit"`
	OrgLevel        string `json:"orgLevel"`
	IsOpen          bool   `json:"isOpen"`
	LogoURL         string `json:"logoUrl"`
	FaviconURL      string `json:"faviconUrl"`
	HeaderTextColor string `json:"headerTextColor"`
}

// FooterConfig is the three-line footer text block.
type FooterConfig struct {
	Line1 string `json:"line1"`
	Line2 string `json:"line2"`
	Line3 string `json:"line3"`
}

// FieldsConfig lists the configurable lookup-form fields.
type FieldsConfig struct {
	FullName           FieldConfig `json:"ho_ten"`
	RegistrationNumber FieldConfig `json:"so_bao_danh"`
	NationalID         FieldConfig `json:"cccd"`
	School             FieldConfig `json:"truong"`
	DateOfBirth        FieldConfig `json:"ngay_sinh"`
}

// ResultsConfig controls the result panel.
type ResultsConfig struct {
	ShowScore bool `json:"showScore"`
	ShowRank  bool `json:"showRank"`
}

// SecurityConfig carries public-surface protections.
type SecurityConfig struct {
	EnableCaptcha       bool   `json:"enableCaptcha"`
	RequireConfirmation bool   `json:"requireConfirmation"`
	ConfirmationText    string `json:"confirmationText"`
	MaxLookupsPerMinute int    `json:"maxLookupsPerMinute"`
}

// TemplateConfig describes the import template offered to administrators.
type TemplateConfig struct {
	FileName        string   `json:"fileName"`
	RequiredHeaders []string `json:"requiredHeaders"`
}

// PortalSettings is the singleton configuration document read by both the
// public lookup surface and the admin back office. Subjects is the cached
// subject catalog, rebuilt from the scores table after every import or wipe.
type PortalSettings struct {
	Exam     ExamConfig     `json:"exam"`
	Footer   FooterConfig   `json:"footer"`
	Fields   FieldsConfig   `json:"fields"`
	Subjects []string       `json:"subjects"`
	Results  ResultsConfig  `json:"results"`
	Security SecurityConfig `json:"security"`
	Template TemplateConfig `json:"template"`
}

// DefaultPortalSettings returns the built-in configuration used when the
// stored document is absent, unreadable, or missing newer fields.
func DefaultPortalSettings() PortalSettings {
	return PortalSettings{
		Exam: ExamConfig{
			Name:            "TRA CỨU ĐIỂM THI CHỌN HỌC SINH GIỎI LỚP 12",
			SchoolYear:      "Năm học 2025 - 2026",
			OrgUnit:         "Sở Giáo dục và Đào tạo Ninh Bình",
			SubUnit:         "HỘI ĐỒNG KHẢO THÍ",
			OrgLevel:        "CẤP TỈNH",
			IsOpen:          true,
			LogoURL:         "https://upload.wikimedia.org/wikipedia/commons/thumb/0/02/National_Emblem_of_Vietnam.svg/2048px-National_Emblem_of_Vietnam.svg.png",
			HeaderTextColor: "#FFFF00",
		},
		Footer: FooterConfig{
			Line1: "Sở Giáo dục và Đào tạo Ninh Bình",
			Line2: "Địa chỉ: Số 74, đường Nguyễn Du, phường Vân Giang, thành phố Ninh Bình",
			Line3: "Điện thoại: 02293.871.053",
		},
		Fields: FieldsConfig{
			FullName:           FieldConfig{Visible: false, Required: false, Label: "Họ và tên thí sinh"},
			RegistrationNumber: FieldConfig{Visible: true, Required: true, Label: "Số báo danh"},
			NationalID:         FieldConfig{Visible: false, Required: false, Label: "Số CCCD (12 số)"},
			School:             FieldConfig{Visible: false, Required: false, Label: "Trường học"},
			DateOfBirth:        FieldConfig{Visible: false, Required: false, Label: "Ngày sinh"},
		},
		Subjects: []string{},
		Results:  ResultsConfig{ShowScore: true, ShowRank: false},
		Security: SecurityConfig{
			EnableCaptcha:       true,
			RequireConfirmation: false,
			MaxLookupsPerMinute: 10,
		},
		Template: TemplateConfig{
			FileName:        "File_Mau_Nhap_Diem.xlsx",
			RequiredHeaders: []string{"HO_TEN", "SO_BAO_DANH", "NGAY_SINH", "GIOI_TINH", "CCCD", "TRUONG", "MON_THI", "DIEM"},
		},
	}
}

// MergePortalSettings overlays a stored document onto the defaults, so that
// partially-populated or legacy-shaped documents never lose newer fields.
// Sections and leaves present in the stored JSON win; everything else keeps
// its default.
func MergePortalSettings(raw []byte) PortalSettings {
	settings := DefaultPortalSettings()
	if len(raw) == 0 {
		return settings
	}
	if err := json.Unmarshal(raw, &settings); err != nil {
		return DefaultPortalSettings()
	}
	if settings.Subjects == nil {
		settings.Subjects = []string{}
	}
	return settings
}
