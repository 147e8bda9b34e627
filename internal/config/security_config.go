// config/security_config.go
package config

import "strings"

type SecurityLevel int

const (
	SecurityPublic      SecurityLevel = iota // No authentication
	SecurityAccess                           // Access token required
	SecurityCoordinator                      // Access token with coordinator or admin role
)

// EndpointSecurityConfig maps "METHOD route-template" to the required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Health - Public
	"GET /healthz": SecurityPublic,

	// Resource catalog
	"GET /api/v1/resources":      SecurityAccess,
	"GET /api/v1/resources/{id}": SecurityAccess,
	"POST /api/v1/resources":     SecurityCoordinator,
	"PUT /api/v1/resources/{id}": SecurityCoordinator,

	// Slots
	"GET /api/v1/slots":                 SecurityAccess,
	"GET /api/v1/resources/{id}/slots":  SecurityCoordinator,
	"POST /api/v1/resources/{id}/slots": SecurityCoordinator,
	"PUT /api/v1/slots/{id}/status":     SecurityCoordinator,

	// Bookings - household
	"POST /api/v1/bookings":             SecurityAccess,
	"GET /api/v1/bookings/mine":         SecurityAccess,
	"GET /api/v1/bookings/{id}":         SecurityAccess,
	"POST /api/v1/bookings/{id}/cancel": SecurityAccess,

	// Bookings - coordinator
	"GET /api/v1/bookings":                  SecurityCoordinator,
	"POST /api/v1/bookings/{id}/approve":    SecurityCoordinator,
	"POST /api/v1/bookings/{id}/deny":       SecurityCoordinator,
	"POST /api/v1/bookings/{id}/collection": SecurityCoordinator,

	// Accounts
	"POST /api/v1/households":               SecurityCoordinator,
	"POST /api/v1/households/{id}/deposits": SecurityCoordinator,
	"GET /api/v1/account/balance":           SecurityAccess,
	"GET /api/v1/account/transactions":      SecurityAccess,

	// Notifications
	"GET /api/v1/notifications":            SecurityAccess,
	"POST /api/v1/notifications/{id}/read": SecurityAccess,
}

// GetSecurityLevel returns the security level for a method and route template
func GetSecurityLevel(method, route string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[strings.ToUpper(method)+" "+route]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityCoordinator
}
