// Package mailer renders stored email templates and delivers them over SMTP
// from a bounded background queue.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"html/template"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nurpe/weshare-leasing/internal/config"
	"github.com/nurpe/weshare-leasing/internal/i18n"
)

type Rendered struct {
	Subject string
	HTML    string
}

type Renderer struct {
	source     TemplateSource
	translator *i18n.Translator
	site       config.SiteConfig
	now        func() time.Time
}

func NewRenderer(source TemplateSource, translator *i18n.Translator, site config.SiteConfig) *Renderer {
	return &Renderer{source: source, translator: translator, site: site, now: time.Now}
}

var shell = template.Must(template.New("shell").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head><meta charset="utf-8"><title>{{.Subject}}</title></head>
<body style="margin:0;padding:0;background:#f4f6f8;font-family:Arial,Helvetica,sans-serif;color:#1f2933;">
<table role="presentation" width="100%" cellpadding="0" cellspacing="0"><tr><td align="center">
<table role="presentation" width="600" cellpadding="24" cellspacing="0" style="background:#ffffff;">
<tr><td style="border-bottom:1px solid #e4e7eb;">
{{if .Logo}}<img src="{{.Logo}}" alt="{{.Company}}" height="40">{{end}}
<h2 style="margin:8px 0 0;">{{.Header}}</h2>
</td></tr>
<tr><td>{{.Body}}</td></tr>
<tr><td style="border-top:1px solid #e4e7eb;font-size:12px;color:#7b8794;">
<p>{{.Support}}</p>
<p>{{.Rights}}</p>
</td></tr>
</table>
</td></tr></table>
</body>
</html>`))

type shellData struct {
	Lang    string
	Subject string
	Logo    string
	Company string
	Header  string
	Body    template.HTML
	Support string
	Rights  string
}

// Render resolves slug in lang and substitutes [placeholders]. Values from
// data override the site-wide merge fields. Values are HTML-escaped in the
// body; the stored template body itself is trusted markup.
func (r *Renderer) Render(ctx context.Context, slug, lang string, data map[string]string) (*Rendered, error) {
	tpl, err := r.source.Template(ctx, slug)
	if err != nil {
		return nil, err
	}

	lang = r.translator.Normalize(lang)
	subject, content := tpl.Localized(lang)
	fields := r.mergeFields(data)

	subject = substitute(subject, fields, false)
	body := substitute(content, fields, true)

	vars := map[string]any{
		"company": r.site.CompanyName,
		"email":   r.site.SupportEmail,
		"year":    fields["year"],
	}
	var buf bytes.Buffer
	err = shell.Execute(&buf, shellData{
		Lang:    lang,
		Subject: subject,
		Logo:    r.site.CompanyLogo,
		Company: r.site.CompanyName,
		Header:  r.translator.T(lang, "email.header", vars),
		Body:    template.HTML(body),
		Support: r.translator.T(lang, "email.footer.support", vars),
		Rights:  r.translator.T(lang, "email.footer.rights", vars),
	})
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", slug, err)
	}
	return &Rendered{Subject: subject, HTML: buf.String()}, nil
}

func (r *Renderer) mergeFields(data map[string]string) map[string]string {
	now := r.now()
	fields := map[string]string{
		"company_name":  r.site.CompanyName,
		"company_logo":  r.site.CompanyLogo,
		"support_email": r.site.SupportEmail,
		"support_phone": r.site.SupportPhone,
		"site_url":      r.site.URL,
		"current_date":  now.Format("2006-01-02"),
		"year":          strconv.Itoa(now.Year()),
	}
	for k, v := range data {
		fields[k] = v
	}
	return fields
}

// substitute replaces [name] with fields[name]. Unknown placeholders are
// left untouched. Longer names go first so [name] never clobbers [name_2].
func substitute(text string, fields map[string]string, escape bool) string {
	if !strings.Contains(text, "[") {
		return text
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	pairs := make([]string, 0, len(names)*2)
	for _, name := range names {
		value := fields[name]
		if escape {
			value = html.EscapeString(value)
		}
		pairs = append(pairs, "["+name+"]", value)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
