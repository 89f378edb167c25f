package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"math"
	"time"

	"github.com/safe4law/safe4law/internal/pkg/instrument"
	"github.com/safe4law/safe4law/internal/pkg/mail"
	"go.opentelemetry.io/otel/codes"
)

const subject = "Password Reset OTP"

var codeTemplate = template.Must(template.New("code").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #006B5E;">Safe4Law Password Reset</h2>
  <p>Your OTP for password reset is:</p>
  <h1 style="color: #F15A22; font-size: 32px; letter-spacing: 5px;">{{.Code}}</h1>
  <p>This OTP will expire in {{.Minutes}} minutes.</p>
  <p>If you didn't request this password reset, please ignore this email.</p>
  <p style="color: #666;">Requesting a new OTP invalidates the previous one.</p>
</div>`))

// Notifier emails one-time codes.
type Notifier struct {
	client mail.Mail
	ins    instrument.Instrumentation
}

func NewNotifier(client mail.Mail, ins instrument.Instrumentation) *Notifier {
	return &Notifier{client: client, ins: ins}
}

func (n *Notifier) SendCode(ctx context.Context, to, code string, ttl time.Duration) (err error) {
	ctx, span := n.ins.Tracer("recovery.outbound.email").Start(ctx, "SendCode")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	minutes := int(math.Ceil(ttl.Minutes()))

	var body bytes.Buffer
	if err := codeTemplate.Execute(&body, map[string]any{"Code": code, "Minutes": minutes}); err != nil {
		return err
	}

	return n.client.Send(ctx, mail.Message{
		To:       []string{to},
		Subject:  subject,
		TextBody: fmt.Sprintf("Your Safe4Law password reset code is %s. It expires in %d minutes.", code, minutes),
		HTMLBody: body.String(),
	})
}
