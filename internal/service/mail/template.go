package mail

import (
	"bytes"
	"fmt"
	"html/template"
)

const otpSubject = "Your Verification Code"

var otpTemplate = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Subject}}</title></head>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>Email Verification</h1>
    <p>Hello{{if .FirstName}} {{.FirstName}}{{end}},</p>
    <p>Your verification code is:</p>
    <div style="font-size: 32px; font-weight: bold; letter-spacing: 8px; padding: 16px; background: #f4f4f4; text-align: center;">{{.Code}}</div>
    <p><strong>This code will expire in {{.Minutes}} minutes.</strong></p>
    <p>If you didn't request this code, please ignore this email.</p>
  </div>
</body>
</html>`))

var welcomeTemplate = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>Welcome, {{.FirstName}}!</h2>
    <p>Your identity has been verified. You can now continue the conversation.</p>
  </div>
</body>
</html>`))

func RenderOtp(firstName, code string, minutes int) (string, string, error) {
	var buf bytes.Buffer
	err := otpTemplate.Execute(&buf, struct {
		Subject   string
		FirstName string
		Code      string
		Minutes   int
	}{otpSubject, firstName, code, minutes})
	if err != nil {
		return "", "", fmt.Errorf("render otp mail: %w", err)
	}
	return otpSubject, buf.String(), nil
}

func RenderWelcome(firstName string) (string, string, error) {
	var buf bytes.Buffer
	if err := welcomeTemplate.Execute(&buf, struct{ FirstName string }{firstName}); err != nil {
		return "", "", fmt.Errorf("render welcome mail: %w", err)
	}
	return fmt.Sprintf("Welcome, %s!", firstName), buf.String(), nil
}
