package entity

import "errors"

// Standard domain errors
var (
	ErrInvalidRequest  = errors.New("invalid request parameters")
	ErrRequestInFlight = errors.New("a request for this operation is already in progress")
	ErrAnalysisFailed  = errors.New("waste image analysis failed")
	ErrInternalServer  = errors.New("an internal error occurred")
)
