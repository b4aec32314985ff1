package renderer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/report.html
var templatesFS embed.FS

var reportTemplate = template.Must(template.ParseFS(templatesFS, "templates/report.html"))

// Section is one titled block of report text.
type Section struct {
	Heading string
	Body    string
}

// Page is the data the report template is executed with.
type Page struct {
	Title       string
	GeneratedAt time.Time
	Rows        int
	Sections    []Section
}

// HTML executes the report template. All text is escaped.
func HTML(p Page) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("failed to execute report template: %w", err)
	}
	return buf.String(), nil
}
