// pkg/registry/schema.go
package registry

// NotificationRegistry describes the dispatch contract: the JSON schema a
// notification payload must satisfy before any channel is attempted, and
// the message templates rendered per reminder offset.
type NotificationRegistry struct {
	Version       string                 `json:"version"`
	LastUpdated   string                 `json:"lastUpdated"`
	PayloadSchema map[string]interface{} `json:"payloadSchema"`
	Templates     []Template             `json:"templates"`
}

// Template is the message rendered for one reminder offset. Placeholders
// use {{name}} syntax.
type Template struct {
	Offset  string `json:"offset"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// TemplateFor returns the template for the given offset type.
func (r *NotificationRegistry) TemplateFor(offset string) (Template, bool) {
	for _, t := range r.Templates {
		if t.Offset == offset {
			return t, true
		}
	}
	return Template{}, false
}
