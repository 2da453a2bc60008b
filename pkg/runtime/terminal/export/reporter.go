package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/de-tools/statement-atlas/pkg/services/pipeline"
)

type TableConfig struct {
	URLWidth    int
	PeriodWidth int
	RowsWidth   int
	StatusWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		URLWidth:    56,
		PeriodWidth: 24,
		RowsWidth:   6,
		StatusWidth: 40,
	}
}

// Reporter prints the batch summary to the console in a formatted table.
type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

type row struct {
	URL     string
	Periods string
	Rows    int
	Status  string
}

type summary struct {
	Rows      []row
	Succeeded int
	Failed    int
}

func (c *Reporter) Handle(statuses []pipeline.URLStatus) error {
	s := summary{}
	for _, st := range statuses {
		r := row{
			URL:     truncate(st.URL, c.config.URLWidth),
			Periods: truncate(strings.Join(st.Periods, ", "), c.config.PeriodWidth),
			Rows:    st.Rows,
		}
		switch {
		case st.Err != nil:
			r.Status = truncate(fmt.Sprintf("failed: %v", st.Err), c.config.StatusWidth)
			s.Failed++
		case !st.Passed:
			r.Status = fmt.Sprintf("ok, validation failed (%d warnings)", len(st.Warnings))
			s.Succeeded++
		case len(st.Warnings) > 0:
			r.Status = fmt.Sprintf("ok (%d warnings)", len(st.Warnings))
			s.Succeeded++
		default:
			r.Status = "ok"
			s.Succeeded++
		}
		s.Rows = append(s.Rows, r)
	}

	funcMap := template.FuncMap{
		"formatRow": func(url string, periods string, rows interface{}, status string) string {
			return fmt.Sprintf("| %-*s | %-*s | %*v | %-*s |",
				c.config.URLWidth, url,
				c.config.PeriodWidth, periods,
				c.config.RowsWidth, rows,
				c.config.StatusWidth, status)
		},
		"separator": func() string {
			return fmt.Sprintf("+%s+%s+%s+%s+",
				strings.Repeat("-", c.config.URLWidth+2),
				strings.Repeat("-", c.config.PeriodWidth+2),
				strings.Repeat("-", c.config.RowsWidth+2),
				strings.Repeat("-", c.config.StatusWidth+2))
		},
	}

	tmpl := `
{{separator}}
{{formatRow "URL" "Periods" "Rows" "Status"}}
{{separator}}
{{range .Rows}}{{formatRow .URL .Periods .Rows .Status}}
{{end}}{{separator}}

{{.Succeeded}} succeeded, {{.Failed}} failed
`

	t, err := template.New("summary").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}
	return t.Execute(c.writer, s)
}

func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	if width <= 3 {
		return s[:width]
	}
	return s[:width-3] + "..."
}
