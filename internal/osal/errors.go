package osal

import "errors"

// Sentinel errors mirror the OSAL return codes documented in
// osapi-os-loader.h (OS_ERROR, OS_INVALID_POINTER, OS_ERR_NO_FREE_IDS,
// OS_ERR_NAME_TAKEN, OS_ERR_INVALID_ID).
var (
	ErrInvalidPointer = errors.New("osal: invalid pointer")
	ErrNoFreeIDs      = errors.New("osal: no free ids")
	ErrNameTaken      = errors.New("osal: name already taken")
	ErrInvalidID      = errors.New("osal: invalid id")
	ErrNotFound       = errors.New("osal: symbol or module not found")
	ErrNotRegistered  = errors.New("osal: no module registered for file path")
)
