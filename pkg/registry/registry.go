// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"os"
)

func LoadRegistry(path string) (*NotificationRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg NotificationRegistry
	err = json.Unmarshal(data, &reg)
	return &reg, err
}

// DefaultRegistry is the built-in contract used when no registry file is
// configured.
func DefaultRegistry() *NotificationRegistry {
	return &NotificationRegistry{
		Version: "1.0.0",
		PayloadSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"reminderId": map[string]interface{}{"type": "string", "minLength": 1},
				"eventId":    map[string]interface{}{"type": "string", "minLength": 1},
				"employerId": map[string]interface{}{"type": "string", "minLength": 1},
				"title":      map[string]interface{}{"type": "string", "minLength": 1},
				"message":    map[string]interface{}{"type": "string"},
				"dueDate":    map[string]interface{}{"type": "string"},
				"offsetType": map[string]interface{}{
					"type": "string",
					"enum": []interface{}{"BEFORE_7_DAYS", "BEFORE_1_DAY", "ON_DUE_DATE"},
				},
				"channels": map[string]interface{}{
					"type":     "array",
					"minItems": 1,
					"items": map[string]interface{}{
						"type": "string",
						"enum": []interface{}{"IN_APP", "WHATSAPP", "EMAIL"},
					},
				},
			},
			"required": []interface{}{"reminderId", "eventId", "employerId", "title", "channels"},
		},
		Templates: []Template{
			{
				Offset:  "BEFORE_7_DAYS",
				Subject: "Upcoming compliance: {{title}}",
				Body:    "{{title}} is due on {{dueDate}}. You have 7 days left.",
			},
			{
				Offset:  "BEFORE_1_DAY",
				Subject: "Compliance due tomorrow: {{title}}",
				Body:    "{{title}} is due tomorrow ({{dueDate}}). Please complete it to avoid penalties.",
			},
			{
				Offset:  "ON_DUE_DATE",
				Subject: "Compliance due today: {{title}}",
				Body:    "{{title}} is due today ({{dueDate}}).",
			},
		},
	}
}
