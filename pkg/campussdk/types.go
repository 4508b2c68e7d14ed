package campussdk

import (
	"time"

	"github.com/aussiebroadwan/campus/pkg/jwtx"
)

// MessageResponse is returned by mutations with nothing else to report.
type MessageResponse struct {
	Message string `json:"message" example:"Logout successful"`
}

// ============================================================================
// Auth Types
// ============================================================================

type RegisterRequest struct {
	Name     string `json:"name" example:"Jane Student"`
	Email    string `json:"email" example:"jane@college.edu"`
	Password string `json:"password" example:"secret123"`
	Role     string `json:"role,omitempty" example:"student" enums:"student,admin"`
}

type RegisterResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
	Email   string `json:"email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp" example:"042917"`
}

type ResendOTPRequest struct {
	Email string `json:"email"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// User is the public view of an account.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role" enums:"student,admin"`
}

// AuthResponse is returned by verify-otp and login, alongside the session
// cookie.
type AuthResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
}

type MeResponse struct {
	User User `json:"user"`
}

// ============================================================================
// Event Types
// ============================================================================

// Person is an organiser or attendee as embedded in an event.
type Person struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Event struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Date            string    `json:"date" example:"2025-03-15"`
	Time            string    `json:"time" example:"9:00 AM - 5:00 PM"`
	Venue           string    `json:"venue"`
	Image           string    `json:"image"`
	Organiser       Person    `json:"organiser"`
	MaxCapacity     int       `json:"maxCapacity"`
	RegisteredCount int       `json:"registeredCount"`
	SpotsLeft       int       `json:"spotsLeft"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`

	// RegisteredStudents is only populated on GET /events/{id}.
	RegisteredStudents []Person `json:"registeredStudents,omitempty"`
}

// EventRequest creates or updates an event. On update, empty fields keep
// their current value. Image may be a URL or a data URL upload.
type EventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date" example:"2025-03-15"`
	Time        string `json:"time"`
	Venue       string `json:"venue"`
	Image       string `json:"image"`
	MaxCapacity int    `json:"maxCapacity,omitempty" example:"200"`
}

type EventResponse struct {
	Message string `json:"message"`
	Event   Event  `json:"event"`
}

type IsOrganiserResponse struct {
	IsOrganiser bool `json:"isOrganiser"`
}

// ============================================================================
// Registration Types
// ============================================================================

type RegistrationRequest struct {
	EventID string `json:"eventId"`
}

type Registration struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	EventID      string     `json:"eventId"`
	QRCode       string     `json:"qrCode"`
	TicketToken  string     `json:"ticketToken"`
	RegisteredAt time.Time  `json:"registrationDate"`
	Attended     bool       `json:"attended"`
	AttendedAt   *time.Time `json:"attendedAt,omitempty"`
	Event        *Event     `json:"event,omitempty"`
}

type RegistrationResponse struct {
	Message      string       `json:"message"`
	Registration Registration `json:"registration"`
}

type CheckRegistrationResponse struct {
	IsRegistered bool          `json:"isRegistered"`
	Registration *Registration `json:"registration"`
}

type CheckInRequest struct {
	Token string `json:"token"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse is returned by /livez and /readyz; only readyz fills Checks.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
}

// JWKSResponse holds the public keys that verify ticket tokens.
type JWKSResponse jwtx.JWKS
