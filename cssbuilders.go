package resume2pdf

import (
	"fmt"
	"strings"
)

// defaultFontFamily is the font stack for the native PDF footer.
const defaultFontFamily = "sans-serif"

// Orphan and widow line counts for résumé paragraphs and list items.
const (
	defaultOrphans = 2
	defaultWidows  = 2
)

// buildPageCSS generates the @page rule for the configured page and the
// section break rules. A nil page uses DefaultPageSettings.
func buildPageCSS(page *PageSettings) string {
	if page == nil {
		page = DefaultPageSettings()
	}

	var buf strings.Builder

	fmt.Fprintf(&buf, `
/* Page geometry */
@page {
  size: %s %s;
  margin: %.2fin;
}
`, strings.ToLower(page.Size), strings.ToLower(page.Orientation), page.Margin)

	buf.WriteString(`
/* Page breaks: keep entries whole, never strand a section title */
.experience-item, .education-item, .header {
  break-inside: avoid;
  page-break-inside: avoid;
}
h1, h2, h3, .section-title {
  break-after: avoid;
  page-break-after: avoid;
}
`)

	fmt.Fprintf(&buf, `
/* Page breaks: orphan/widow control */
p, li, .summary {
  orphans: %d;
  widows: %d;
}
`, defaultOrphans, defaultWidows)

	return buf.String()
}
