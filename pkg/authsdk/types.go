package authsdk

import "time"

// ============================================================================
// Errors
// ============================================================================

// ErrorResponse is the body of every non-2xx JSON response. Errors maps
// field names to messages and is only present for 400 validation failures.
type ErrorResponse struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// ============================================================================
// Auth
// ============================================================================

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Username     string `json:"username"`
	EmailAddress string `json:"email_address,omitempty"`
	Password     string `json:"password"`
}

// LoginRequest is the body of POST /api/auth/login. EmailAddress is only
// checked when the server requires email binding.
type LoginRequest struct {
	Username     string `json:"username"`
	EmailAddress string `json:"email_address,omitempty"`
	Password     string `json:"password"`
}

// MessageResponse is the plain {status, message} success body.
type MessageResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Status  int    `json:"status"`
	Token   string `json:"token"`
	Message string `json:"message"`
}

// MeResponse describes the identity decoded from the caller's token.
type MeResponse struct {
	Status     int       `json:"status"`
	Username   string    `json:"username"`
	Role       string    `json:"role"`
	IssuedAt   time.Time `json:"issuedAt"`
	Expiration time.Time `json:"expiration"`
}

// ============================================================================
// Profile
// ============================================================================

// ProfileUpdateRequest is the body of POST /api/me/update. DateOfBirth is
// YYYY-MM-DD; empty fields clear the stored value.
type ProfileUpdateRequest struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	PlaceOfBirth string `json:"place_of_birth"`
	DateOfBirth  string `json:"date_of_birth"`
}

// ProfileData is the stored profile as returned by GET /api/me/profile.
type ProfileData struct {
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PlaceOfBirth string    `json:"place_of_birth"`
	DateOfBirth  string    `json:"date_of_birth"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ProfileResponse struct {
	Status int         `json:"status"`
	Data   ProfileData `json:"data"`
}

// ============================================================================
// Files
// ============================================================================

// UploadResponse is returned by POST /api/files/upload. FileURL is relative
// to the service root.
type UploadResponse struct {
	Status   int    `json:"status"`
	Message  string `json:"message"`
	FileName string `json:"fileName"`
	FileURL  string `json:"fileUrl"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results for critical dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports each dependency as "ok" or "error: ...".
type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
	Storage  string `json:"storage"`
}
