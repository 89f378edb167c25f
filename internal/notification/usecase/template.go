package usecase

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/safe4law/safe4law/internal/notification/entity"
)

var verifyHTML = htmltemplate.Must(htmltemplate.New("verify").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1>Email Verification</h1>
  <p>Hi {{.FirstName}},</p>
  <p>Please click the link below to verify your email:</p>
  <a href="{{.VerifyURL}}">Verify Email</a>
</div>`))

var verifyText = texttemplate.Must(texttemplate.New("verify").Parse(
	"Hi {{.FirstName}},\n\nPlease open the link below to verify your email:\n{{.VerifyURL}}\n"))

var resetHTML = htmltemplate.Must(htmltemplate.New("reset").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #006B5E;">Safe4Law security notice</h2>
  <p>The password of {{.Email}} was changed on {{.ResetAt.Format "02 Jan 2006 15:04 MST"}}.</p>
  <p>If this was not you, reset your password now{{if .SupportURL}} at <a href="{{.SupportURL}}">{{.SupportURL}}</a>{{end}}.</p>
</div>`))

var resetText = texttemplate.Must(texttemplate.New("reset").Parse(
	"The password of {{.Email}} was changed on {{.ResetAt.Format \"02 Jan 2006 15:04 MST\"}}.\n" +
		"If this was not you, reset your password now{{if .SupportURL}} at {{.SupportURL}}{{end}}.\n"))

func render(kind entity.Kind, to string, html *htmltemplate.Template, text *texttemplate.Template, data any) (entity.Email, error) {
	var hb, tb bytes.Buffer
	if err := html.Execute(&hb, data); err != nil {
		return entity.Email{}, fmt.Errorf("render %s html: %w", kind, err)
	}
	if err := text.Execute(&tb, data); err != nil {
		return entity.Email{}, fmt.Errorf("render %s text: %w", kind, err)
	}

	return entity.Email{Kind: kind, To: to, HTMLBody: hb.String(), TextBody: tb.String()}, nil
}
