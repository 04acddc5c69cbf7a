package notification

import (
	"bytes"
	"context"
	"html/template"

	"github.com/samber/oops"
)

// VerificationSubject is the subject line of verification emails.
const VerificationSubject = "Account verification"

var verificationTemplate = template.Must(template.New("verification").Parse(`<html>
<body style="font-family: Arial, sans-serif;">
<div style="background-color: #f5f5f5; padding: 20px;">
<h2 style="color: #333;">Welcome to our app!</h2>
<p style="font-size: 16px;">Please enter the verification code below to continue:</p>
<div style="background-color: #fff; padding: 20px; border-radius: 5px; box-shadow: 0 0 10px rgba(0,0,0,0.1);">
<h3 style="color: #333;">Verification Code:</h3>
<p style="font-size: 18px; font-weight: bold; color: #007bff;">{{.Code}}</p>
</div>
</div>
</body>
</html>`))

// VerificationMailer renders verification codes into email messages.
type VerificationMailer struct {
	notifier Notifier
}

// NewVerificationMailer builds a mailer sending through notifier.
func NewVerificationMailer(notifier Notifier) *VerificationMailer {
	return &VerificationMailer{notifier: notifier}
}

// DeliverVerificationCode sends code to email.
func (m *VerificationMailer) DeliverVerificationCode(ctx context.Context, email, code string) error {
	body, err := RenderVerificationBody(code)
	if err != nil {
		return err
	}
	return m.notifier.Send(ctx, Message{
		Kind:        KindVerificationCode,
		Destination: email,
		Subject:     VerificationSubject,
		Body:        body,
	})
}

// RenderVerificationBody returns the HTML body carrying code.
func RenderVerificationBody(code string) (string, error) {
	var buf bytes.Buffer
	if err := verificationTemplate.Execute(&buf, struct{ Code string }{code}); err != nil {
		return "", oops.Code("VERIFICATION_TEMPLATE_FAILED").Wrap(err)
	}
	return buf.String(), nil
}
