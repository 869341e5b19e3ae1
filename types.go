package resume2pdf

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Document is a submitted résumé. Field names follow the JSON accepted by the
// HTTP API.
type Document struct {
	PersonalInfo   PersonalInfo `json:"personalInfo"`
	Education      []Education  `json:"education"`
	Experience     []Experience `json:"experience"`
	Skills         []SkillGroup `json:"skills"`
	Certifications []string     `json:"certifications,omitempty"` // accepted, never rendered
}

// PersonalInfo identifies the résumé owner.
type PersonalInfo struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	LinkedIn string `json:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty"`
	Website  string `json:"website,omitempty"`
	Summary  string `json:"summary,omitempty"`
}

// Education is one academic entry. Dates use the "YYYY-MM" form.
type Education struct {
	ID           string `json:"id"`
	Institution  string `json:"institution"`
	Degree       string `json:"degree"`
	Field        string `json:"field"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	GPA          string `json:"gpa,omitempty"`
	Achievements string `json:"achievements,omitempty"`
}

// Experience is one work history entry. Dates use the "YYYY-MM" form; Current
// marks an ongoing position.
type Experience struct {
	ID               string   `json:"id"`
	Company          string   `json:"company"`
	Position         string   `json:"position"`
	Location         string   `json:"location"`
	StartDate        string   `json:"startDate"`
	EndDate          string   `json:"endDate"`
	Current          bool     `json:"current"`
	Responsibilities []string `json:"responsibilities"`
	Technologies     []string `json:"technologies,omitempty"`
}

// SkillGroup is a named list of skills.
type SkillGroup struct {
	Category string   `json:"category"`
	Skills   []string `json:"skills"`
}

// Field length limits, in characters. They sit far above real résumé content
// and only stop a single field from swallowing the page.
const (
	MaxNameLength    = 500
	MaxEmailLength   = 320
	MaxURLLength     = 2048
	MaxSummaryLength = 20000
	MaxTextLength    = 5000
	MaxEntries       = 200
)

// Validate checks that the document can be rendered: full name and email must
// be non-empty after trimming, and no field may exceed its length limit.
// Every returned error wraps ErrValidation. Validate never mutates d.
func (d *Document) Validate() error {
	if d == nil {
		return fmt.Errorf("%w: %w", ErrValidation, ErrMissingFullName)
	}

	p := d.PersonalInfo
	if strings.TrimSpace(p.FullName) == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrMissingFullName)
	}
	if strings.TrimSpace(p.Email) == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrMissingEmail)
	}

	v := &lengthValidator{}
	v.check("personalInfo.fullName", p.FullName, MaxNameLength)
	v.check("personalInfo.email", p.Email, MaxEmailLength)
	v.check("personalInfo.phone", p.Phone, MaxTextLength)
	v.check("personalInfo.location", p.Location, MaxTextLength)
	v.check("personalInfo.linkedin", p.LinkedIn, MaxURLLength)
	v.check("personalInfo.github", p.GitHub, MaxURLLength)
	v.check("personalInfo.website", p.Website, MaxURLLength)
	v.check("personalInfo.summary", p.Summary, MaxSummaryLength)

	v.count("education", len(d.Education))
	for i, e := range d.Education {
		prefix := fmt.Sprintf("education[%d].", i)
		v.check(prefix+"institution", e.Institution, MaxTextLength)
		v.check(prefix+"degree", e.Degree, MaxTextLength)
		v.check(prefix+"field", e.Field, MaxTextLength)
		v.check(prefix+"startDate", e.StartDate, MaxTextLength)
		v.check(prefix+"endDate", e.EndDate, MaxTextLength)
		v.check(prefix+"gpa", e.GPA, MaxTextLength)
		v.check(prefix+"achievements", e.Achievements, MaxSummaryLength)
	}

	v.count("experience", len(d.Experience))
	for i, e := range d.Experience {
		prefix := fmt.Sprintf("experience[%d].", i)
		v.check(prefix+"company", e.Company, MaxTextLength)
		v.check(prefix+"position", e.Position, MaxTextLength)
		v.check(prefix+"location", e.Location, MaxTextLength)
		v.check(prefix+"startDate", e.StartDate, MaxTextLength)
		v.check(prefix+"endDate", e.EndDate, MaxTextLength)
		v.count(prefix+"responsibilities", len(e.Responsibilities))
		for j, r := range e.Responsibilities {
			v.check(fmt.Sprintf("%sresponsibilities[%d]", prefix, j), r, MaxTextLength)
		}
		v.count(prefix+"technologies", len(e.Technologies))
	}

	v.count("skills", len(d.Skills))
	for i, g := range d.Skills {
		v.check(fmt.Sprintf("skills[%d].category", i), g.Category, MaxTextLength)
		v.count(fmt.Sprintf("skills[%d].skills", i), len(g.Skills))
		for j, s := range g.Skills {
			v.check(fmt.Sprintf("skills[%d].skills[%d]", i, j), s, MaxTextLength)
		}
	}

	v.count("certifications", len(d.Certifications))

	return v.err
}

// lengthValidator keeps the first limit violation.
type lengthValidator struct {
	err error
}

func (v *lengthValidator) check(field, value string, maxLength int) {
	if v.err != nil {
		return
	}
	if n := utf8.RuneCountInString(value); n > maxLength {
		v.err = fmt.Errorf("%w: %w: %s (%d chars, max %d)", ErrValidation, ErrFieldTooLong, field, n, maxLength)
	}
}

func (v *lengthValidator) count(field string, n int) {
	if v.err != nil || n <= MaxEntries {
		return
	}
	v.err = fmt.Errorf("%w: %w: %s (%d entries, max %d)", ErrValidation, ErrTooManyEntries, field, n, MaxEntries)
}

// Page size constants.
const (
	PageSizeLetter = "letter"
	PageSizeA4     = "a4"
	PageSizeLegal  = "legal"
)

// Orientation constants.
const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)

// Margin bounds in inches.
const (
	MinMargin     = 0.25
	MaxMargin     = 3.0
	DefaultMargin = 0.5
)

// PageSettings configures PDF page dimensions.
type PageSettings struct {
	Size        string  // "letter", "a4", "legal"
	Orientation string  // "portrait", "landscape"
	Margin      float64 // inches, applied to all sides
}

// DefaultPageSettings returns letter portrait with half-inch margins.
func DefaultPageSettings() *PageSettings {
	return &PageSettings{
		Size:        PageSizeLetter,
		Orientation: OrientationPortrait,
		Margin:      DefaultMargin,
	}
}

// Validate checks that page settings are valid.
// Returns nil if p is nil (nil means use defaults).
func (p *PageSettings) Validate() error {
	if p == nil {
		return nil
	}

	if !isValidPageSize(p.Size) {
		return fmt.Errorf("%w: %q", ErrInvalidPageSize, p.Size)
	}

	if !isValidOrientation(p.Orientation) {
		return fmt.Errorf("%w: %q", ErrInvalidOrientation, p.Orientation)
	}

	if p.Margin < MinMargin || p.Margin > MaxMargin {
		return fmt.Errorf("%w: %.2f (must be between %.2f and %.2f)", ErrInvalidMargin, p.Margin, MinMargin, MaxMargin)
	}

	return nil
}

func isValidPageSize(size string) bool {
	switch strings.ToLower(size) {
	case PageSizeLetter, PageSizeA4, PageSizeLegal:
		return true
	}
	return false
}

func isValidOrientation(orientation string) bool {
	switch strings.ToLower(orientation) {
	case OrientationPortrait, OrientationLandscape:
		return true
	}
	return false
}

// Footer configures the native PDF footer printed on every page.
type Footer struct {
	Position       string // "left", "center", "right" (default: "right")
	ShowPageNumber bool
	Text           string
}

// Validate checks that footer settings are valid.
// Returns nil if f is nil (nil means no footer).
func (f *Footer) Validate() error {
	if f == nil {
		return nil
	}
	switch strings.ToLower(f.Position) {
	case "", "left", "center", "right":
	default:
		return fmt.Errorf("%w: %q (must be left, center, or right)", ErrInvalidFooterPosition, f.Position)
	}
	if n := utf8.RuneCountInString(f.Text); n > MaxTextLength {
		return fmt.Errorf("%w: footer text (%d chars, max %d)", ErrFieldTooLong, n, MaxTextLength)
	}
	return nil
}

// RenderOptions are per-render print settings.
type RenderOptions struct {
	Page   *PageSettings // nil means DefaultPageSettings
	Footer *Footer       // nil means no footer
}
