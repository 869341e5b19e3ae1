package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
)

// Sentinel errors for composition.
var (
	ErrTemplateParse   = errors.New("résumé template parsing failed")
	ErrTemplateExecute = errors.New("résumé template rendering failed")
)

// ResumeView is the template-ready projection of a résumé. Section slices
// are nil when the section must be omitted.
type ResumeView struct {
	Name       string
	Email      string
	Phone      string
	Location   string
	Links      []LinkView
	Summary    string
	Experience []ExperienceView
	Education  []EducationView
	Skills     []string
}

// LinkView is one optional profile link in the header.
type LinkView struct {
	Icon  string
	Label string
	URL   string
}

// ExperienceView is one rendered work history entry.
type ExperienceView struct {
	Position             string
	Company              string
	Location             string
	Period               string
	ShowResponsibilities bool
	Responsibilities     []string
}

// EducationView is one rendered education entry.
type EducationView struct {
	Title       string
	Institution string
	GPA         string
	Period      string
}

// Composer renders a ResumeView through an html/template and injects the
// stylesheet. A Composer is immutable and safe for concurrent use.
type Composer struct {
	tmpl       *template.Template
	css        CSSInjector
	stylesheet string
}

// NewComposer parses templateContent and pairs it with stylesheet.
func NewComposer(templateContent, stylesheet string) (*Composer, error) {
	if strings.TrimSpace(templateContent) == "" {
		return nil, fmt.Errorf("%w: empty template", ErrTemplateParse)
	}
	tmpl, err := template.New("resume").Option("missingkey=error").Parse(templateContent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateParse, err)
	}
	return &Composer{
		tmpl:       tmpl,
		css:        &CSSInjection{},
		stylesheet: stylesheet,
	}, nil
}

// Compose executes the template for view and injects pageCSS followed by the
// stylesheet into <head>.
func (c *Composer) Compose(ctx context.Context, view *ResumeView, pageCSS string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if view == nil {
		return "", fmt.Errorf("%w: nil view", ErrTemplateExecute)
	}

	var buf bytes.Buffer
	if err := c.tmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateExecute, err)
	}

	return c.css.InjectCSS(ctx, buf.String(), joinCSS(pageCSS, c.stylesheet)), nil
}

// joinCSS concatenates non-empty CSS fragments.
func joinCSS(parts ...string) string {
	var sb strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(p)
	}
	return sb.String()
}
