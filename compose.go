package resume2pdf

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/alnah/go-resume2pdf/internal/assets"
	"github.com/alnah/go-resume2pdf/internal/fileutil"
	"github.com/alnah/go-resume2pdf/internal/pipeline"
)

// Header link icons and labels.
const (
	linkedInIcon  = "💼"
	linkedInLabel = "LinkedIn"
	gitHubIcon    = "🔗"
	gitHubLabel   = "GitHub"
	websiteIcon   = "🌐"
	websiteLabel  = "Website"
)

// ComposerConfig selects the assets and formatting used by a Composer.
// The zero value uses the embedded "resume" template and style, "MMM YYYY"
// dates and letter portrait pages.
type ComposerConfig struct {
	AssetPath  string        // directory overriding embedded assets
	Style      string        // style name, file path, or "" for the default
	DateFormat string        // preset or token format for periods
	Page       *PageSettings // nil means DefaultPageSettings
}

// Composer maps a Document to a self-contained HTML page. It performs no I/O
// after construction and is safe for concurrent use.
type Composer struct {
	inner   *pipeline.Composer
	dates   periodFormatter
	pageCSS string
}

// NewComposer loads the template and stylesheet and validates the formats in
// cfg.
func NewComposer(cfg ComposerConfig) (*Composer, error) {
	if err := cfg.Page.Validate(); err != nil {
		return nil, err
	}

	dates, err := newPeriodFormatter(cfg.DateFormat)
	if err != nil {
		return nil, err
	}

	resolver, err := assets.NewAssetResolver(cfg.AssetPath)
	if err != nil {
		return nil, err
	}

	css, err := resolveStyle(resolver, cfg.Style)
	if err != nil {
		return nil, err
	}

	tmpl, err := resolver.LoadTemplate(assets.DefaultTemplateName)
	if err != nil {
		return nil, err
	}

	inner, err := pipeline.NewComposer(tmpl, css)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompose, err)
	}

	return &Composer{
		inner:   inner,
		dates:   dates,
		pageCSS: buildPageCSS(cfg.Page),
	}, nil
}

// Compose renders doc to HTML. Equal documents give byte-identical output.
// Errors are template failures wrapped in ErrCompose, never input problems.
func (c *Composer) Compose(ctx context.Context, doc *Document) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("%w: nil document", ErrCompose)
	}
	html, err := c.inner.Compose(ctx, buildView(doc, c.dates), c.pageCSS)
	if err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", ErrCompose, err)
	}
	return html, nil
}

// resolveStyle reads a stylesheet from a file path or loads it by name.
func resolveStyle(loader assets.AssetLoader, input string) (string, error) {
	if input == "" {
		input = assets.DefaultStyleName
	}

	if fileutil.IsFilePath(input) {
		content, err := os.ReadFile(input) // #nosec G304 -- operator-provided path
		if err != nil {
			return "", fmt.Errorf("loading style file %q: %w", input, err)
		}
		return string(content), nil
	}

	css, err := loader.LoadStyle(input)
	if err != nil {
		return "", fmt.Errorf("loading style %q: %w", input, err)
	}
	return css, nil
}

// buildView projects doc onto the template view. It copies every slice it
// keeps so the template never aliases caller memory.
func buildView(doc *Document, dates periodFormatter) *pipeline.ResumeView {
	p := doc.PersonalInfo
	view := &pipeline.ResumeView{
		Name:     p.FullName,
		Email:    p.Email,
		Phone:    p.Phone,
		Location: p.Location,
		Links:    buildLinks(p),
		Summary:  p.Summary,
	}

	for _, e := range doc.Experience {
		view.Experience = append(view.Experience, pipeline.ExperienceView{
			Position:             e.Position,
			Company:              e.Company,
			Location:             e.Location,
			Period:               dates.span(e.StartDate, e.EndDate, e.Current),
			ShowResponsibilities: len(e.Responsibilities) > 0 && e.Responsibilities[0] != "",
			Responsibilities:     nonBlank(e.Responsibilities),
		})
	}

	for _, e := range doc.Education {
		view.Education = append(view.Education, pipeline.EducationView{
			Title:       e.Degree + " in " + e.Field,
			Institution: e.Institution,
			GPA:         e.GPA,
			Period:      dates.span(e.StartDate, e.EndDate, false),
		})
	}

	// Only the first skill group is rendered.
	if len(doc.Skills) > 0 && len(doc.Skills[0].Skills) > 0 {
		view.Skills = append([]string(nil), doc.Skills[0].Skills...)
	}

	return view
}

func buildLinks(p PersonalInfo) []pipeline.LinkView {
	var links []pipeline.LinkView
	add := func(icon, label, url string) {
		if strings.TrimSpace(url) == "" {
			return
		}
		links = append(links, pipeline.LinkView{Icon: icon, Label: label, URL: url})
	}
	add(linkedInIcon, linkedInLabel, p.LinkedIn)
	add(gitHubIcon, gitHubLabel, p.GitHub)
	add(websiteIcon, websiteLabel, p.Website)
	return links
}

// nonBlank returns the items that contain more than whitespace, in order.
func nonBlank(items []string) []string {
	var out []string
	for _, s := range items {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
