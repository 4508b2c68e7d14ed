package notify

import (
	"bytes"
	"fmt"
	"html/template"
)

// TicketImageName is the cid the confirmation email uses for the QR code.
const TicketImageName = "ticket.png"

var otpTemplate = template.Must(template.New("otp").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #21808d;">Email Verification</h2>
  <p>Hi {{.Name}},</p>
  <p>Thank you for registering with College Event Manager!</p>
  <p>Your OTP for email verification is:</p>
  <div style="background-color: #f5f5f5; padding: 20px; text-align: center; font-size: 32px; font-weight: bold; letter-spacing: 5px; color: #21808d; margin: 20px 0;">{{.Code}}</div>
  <p>This OTP will expire in {{.Minutes}} minutes.</p>
  <p>If you didn't request this, please ignore this email.</p>
  <br>
  <p>Best regards,<br>College Event Manager Team</p>
</div>`))

var confirmationTemplate = template.Must(template.New("confirmation").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #21808d;">Event Registration Successful!</h2>
  <p>Hi {{.Name}},</p>
  <p>Congratulations! You have successfully registered for <strong>{{.Title}}</strong>.</p>
  <p>{{.Date}} &middot; {{.Time}} &middot; {{.Venue}}</p>
  <p>Please save this QR code for RSVP at the venue:</p>
  <div style="text-align: center; margin: 30px 0;">
    <img src="cid:{{.Image}}" alt="Event QR Code" style="max-width: 250px; border: 2px solid #21808d; padding: 10px;">
  </div>
  <p>Show this QR code at the event venue for entry.</p>
  <br>
  <p>We look forward to seeing you at the event!</p>
  <p>Best regards,<br>College Event Manager Team</p>
</div>`))

// OTPEmail builds the verification email.
func OTPEmail(to, name, code string, minutes int) (Message, error) {
	var buf bytes.Buffer
	err := otpTemplate.Execute(&buf, map[string]any{
		"Name": name, "Code": code, "Minutes": minutes,
	})
	if err != nil {
		return Message{}, fmt.Errorf("render otp email: %w", err)
	}
	return Message{
		To:      to,
		ToName:  name,
		Subject: "Verify Your Email - OTP",
		HTML:    buf.String(),
		Summary: "otp " + code,
	}, nil
}

// Confirmation describes a successful registration for the email.
type Confirmation struct {
	To        string
	Name      string
	Title     string
	Date      string
	Time      string
	Venue     string
	TicketPNG []byte
}

// ConfirmationEmail builds the registration email with the ticket inline.
func ConfirmationEmail(c Confirmation) (Message, error) {
	var buf bytes.Buffer
	err := confirmationTemplate.Execute(&buf, map[string]any{
		"Name": c.Name, "Title": c.Title, "Date": c.Date,
		"Time": c.Time, "Venue": c.Venue, "Image": TicketImageName,
	})
	if err != nil {
		return Message{}, fmt.Errorf("render confirmation email: %w", err)
	}
	return Message{
		To:      c.To,
		ToName:  c.Name,
		Subject: "Registration Confirmed - " + c.Title,
		HTML:    buf.String(),
		Inline: []Inline{{
			Name:        TicketImageName,
			ContentType: "image/png",
			Data:        c.TicketPNG,
		}},
		Summary: "confirmation " + c.Title,
	}, nil
}
