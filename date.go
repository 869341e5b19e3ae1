package resume2pdf

import (
	"github.com/alnah/go-resume2pdf/internal/dateutil"
)

// presentLabel replaces the end date of an ongoing position.
const presentLabel = "Present"

// periodFormatter renders "YYYY-MM" periods with a fixed Go layout.
type periodFormatter struct {
	layout string
}

// newPeriodFormatter accepts a preset name ("short", "long", "numeric",
// "iso") or a token format such as "MMM YYYY". Empty selects "MMM YYYY".
func newPeriodFormatter(format string) (periodFormatter, error) {
	layout, err := dateutil.ResolvePeriodFormat(format)
	if err != nil {
		return periodFormatter{}, err
	}
	return periodFormatter{layout: layout}, nil
}

func (f periodFormatter) format(period string) string {
	return dateutil.FormatPeriod(period, f.layout)
}

// span renders "<start> - <end>", with "Present" as the end when current.
func (f periodFormatter) span(start, end string, current bool) string {
	last := presentLabel
	if !current {
		last = f.format(end)
	}
	return f.format(start) + " - " + last
}

// FormatPeriod renders a "YYYY-MM" period as "Mon YYYY" ("2021-03" gives
// "Mar 2021"). An empty period gives "" and an unparseable one is returned
// unchanged.
func FormatPeriod(period string) string {
	layout, _ := dateutil.ResolvePeriodFormat(dateutil.DefaultPeriodFormat)
	return dateutil.FormatPeriod(period, layout)
}
