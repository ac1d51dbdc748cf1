package domain

import "errors"

var (
	// ErrDuplicateMessage indicates a provider message id that has already
	// produced a persisted request.
	ErrDuplicateMessage = errors.New("duplicate provider message id")

	// ErrTenantNotFound indicates no active tenant owns the receiving number.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrRoomSlotNotFound indicates no device slot row exists for the
	// (room, tenant) pair.
	ErrRoomSlotNotFound = errors.New("room device slot not found")

	// ErrCapacityExhausted indicates the room's device capacity is fully
	// allocated.
	ErrCapacityExhausted = errors.New("room device capacity exhausted")

	// ErrNotAuthorized indicates the sender could not be authorized for the
	// tenant and auto-pairing did not produce an authorization.
	ErrNotAuthorized = errors.New("sender not authorized")
)
