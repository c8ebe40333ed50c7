// internal/service/template_service.go
package service

import (
	"strings"

	"github.com/unclebandit/campaign-crm/internal/model"
)

// RenderTemplate replaces every {key} placeholder with its value.
func RenderTemplate(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		result = strings.ReplaceAll(result, "{"+k+"}", v)
	}
	return result
}

// Personalize renders a campaign message for one recipient.
func Personalize(message string, c model.Customer) string {
	return RenderTemplate(message, map[string]string{"name": c.Name})
}
