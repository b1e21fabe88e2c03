package report

import "strings"

// Section is one named block of a report document.
type Section struct {
	Title string
	Body  string
}

// Document is an ordered list of sections, rendered to markdown at the
// boundary. Keeping synthesis on this model keeps it testable without
// string-scraping the final text.
type Document struct {
	Title    string
	Sections []Section
}

// Add appends a section; empty bodies are dropped so callers can add
// conditionally without guards.
func (d *Document) Add(title, body string) {
	body = strings.TrimRight(body, "\n")
	if strings.TrimSpace(body) == "" {
		return
	}
	d.Sections = append(d.Sections, Section{Title: title, Body: body})
}

// Render produces the final markdown text.
func (d Document) Render() string {
	var b strings.Builder
	if d.Title != "" {
		b.WriteString("# " + d.Title + "\n\n")
	}
	for _, s := range d.Sections {
		if s.Title != "" {
			b.WriteString("## " + s.Title + "\n\n")
		}
		b.WriteString(s.Body)
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func bulletList(items []string) string {
	var b strings.Builder
	for _, it := range items {
		b.WriteString("- " + it + "\n")
	}
	return b.String()
}
