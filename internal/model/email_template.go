package model

import "strings"

// EmailTemplate stores per-language subject and body. Subject and Content hold
// the default language; other languages have their own columns.
type EmailTemplate struct {
	ID        int64  `gorm:"primaryKey" json:"id"`
	Slug      string `gorm:"size:128;not null;uniqueIndex" json:"slug"`
	Subject   string `gorm:"size:255;not null" json:"subject"`
	Content   string `gorm:"type:text;not null" json:"content"`
	SubjectEs string `gorm:"size:255" json:"subject_es"`
	ContentEs string `gorm:"type:text" json:"content_es"`
}

// Localized picks the language-specific fields, falling back to the default
// language for whichever field is empty.
func (t EmailTemplate) Localized(lang string) (subject, content string) {
	subject, content = t.Subject, t.Content
	switch strings.ToLower(lang) {
	case "es":
		if strings.TrimSpace(t.SubjectEs) != "" {
			subject = t.SubjectEs
		}
		if strings.TrimSpace(t.ContentEs) != "" {
			content = t.ContentEs
		}
	}
	return subject, content
}
