package email

import (
	"bytes"
	"fmt"
	"html/template"

	"wardrobe/internal/logger"
	"wardrobe/internal/models"
)

var htmlTemplates = template.Must(template.New("layout").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; color: #2b2b2b; background: #faf7f5; max-width: 560px; margin: 0 auto; padding: 24px; }
.card { background: #fff; border-radius: 10px; padding: 32px; }
.brand { color: #7a3e5d; font-size: 24px; font-weight: bold; text-align: center; }
.button { display: inline-block; background: #7a3e5d; color: #fff; padding: 10px 22px; border-radius: 6px; text-decoration: none; }
.muted { color: #777; font-size: 13px; }
</style>
</head>
<body>
<div class="card">
<div class="brand">Wardrobe</div>
{{template "content" .}}
<p class="muted">The Wardrobe Team</p>
</div>
</body>
</html>`))

var welcomeHTML = template.Must(template.Must(htmlTemplates.Clone()).Parse(`{{define "content"}}
<h2>Welcome {{.Name}}!</h2>
<p>Your closet is ready. Catalog your clothes, build outfits for upcoming events and see what each piece costs per wear.</p>
<p class="muted">This email was sent to {{.Email}}.</p>
{{end}}`))

var resetHTML = template.Must(template.Must(htmlTemplates.Clone()).Parse(`{{define "content"}}
<p>Hi {{.Name}},</p>
<p>We received a request to reset your password. Use the button below to choose a new one.</p>
<p style="text-align: center; margin: 28px 0;"><a class="button" href="{{.Link}}">Reset Password</a></p>
<p class="muted">The link expires in 1 hour. If you did not ask for a reset you can ignore this email.</p>
{{end}}`))

type templateData struct {
	Title string
	Name  string
	Email string
	Link  string
}

func render(t *template.Template, data templateData) string {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		logger.Error("Failed to render email template", "template", t.Name(), "error", err)
		return ""
	}
	return buf.String()
}

func (s *Service) generateWelcomeHTML(user *models.UserProfile) string {
	return render(welcomeHTML, templateData{
		Title: "Welcome to Wardrobe",
		Name:  displayName(user),
		Email: user.Email,
	})
}

func (s *Service) generateWelcomeText(user *models.UserProfile) string {
	return fmt.Sprintf(`Welcome %s!

Your closet is ready. Catalog your clothes, build outfits for upcoming events
and see what each piece costs per wear.

The Wardrobe Team

---
This email was sent to %s.`, displayName(user), user.Email)
}

func (s *Service) generatePasswordResetHTML(user *models.UserProfile, token string) string {
	return render(resetHTML, templateData{
		Title: "Reset your password",
		Name:  displayName(user),
		Link:  s.resetURL(token),
	})
}

func (s *Service) generatePasswordResetText(user *models.UserProfile, token string) string {
	return fmt.Sprintf(`Hi %s,

We received a request to reset your password. Visit the link below to choose a new one:
%s

The link expires in 1 hour. If you did not ask for a reset you can ignore this email.

The Wardrobe Team`, displayName(user), s.resetURL(token))
}
