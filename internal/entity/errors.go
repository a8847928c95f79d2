package entity

import "errors"

// Domain errors
var (
	// Generation errors
	ErrMalformedOutput  = errors.New("backend output is not a recoverable JSON object")
	ErrSchemaViolation  = errors.New("structured payload violates the response schema")
	ErrBackendRejected  = errors.New("backend rejected the generation request")
	ErrGenerationFailed = errors.New("generation failed")

	// Persistence errors
	ErrPersistenceFailed     = errors.New("persistence sink write failed")
	ErrMissingRequiredFields = errors.New("section, participant id and role are required for persistence")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrRoleLocked      = errors.New("role is locked for this session")
	ErrRoleRequired    = errors.New("a role must be selected before chatting")
	ErrInvalidRole     = errors.New("invalid role")

	// Validation errors
	ErrMissingField  = errors.New("required field is missing")
	ErrInvalidFormat = errors.New("invalid format")
	ErrUnknownMode   = errors.New("unknown mode key")
)
