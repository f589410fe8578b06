// Package faults is the minimal error-kind taxonomy of the service.
// Kinds separate request faults from archive-level, per-item and
// system-level failures so boundaries can map them without string
// matching.
package faults

import (
	"errors"
	"net/http"

	"toolcheck/internal/archive"
	"toolcheck/internal/detection"
)

// Kind is the error classification code.
type Kind string

const (
	KindInput   Kind = "input"
	KindArchive Kind = "archive"
	KindItem    Kind = "item"
	KindSystem  Kind = "system"
)

// Request-validation sentinels raised at the transport boundary.
var (
	ErrEmptyPayload    = errors.New("payload is empty")
	ErrPayloadTooLarge = errors.New("payload exceeds the size limit")
	ErrNotAnImage      = errors.New("payload must be an image")
	ErrNotAnArchive    = errors.New("payload must be a zip archive")
	ErrBadThreshold    = errors.New("threshold must be within [0.0, 1.0]")
	ErrBadParameter    = errors.New("invalid request parameter")
)

// Classify maps an error onto its kind using sentinel errors only.
func Classify(err error) Kind {
	switch {
	case errors.Is(err, ErrEmptyPayload),
		errors.Is(err, ErrPayloadTooLarge),
		errors.Is(err, ErrNotAnImage),
		errors.Is(err, ErrNotAnArchive),
		errors.Is(err, ErrBadThreshold),
		errors.Is(err, ErrBadParameter):
		return KindInput
	case errors.Is(err, archive.ErrBadArchive):
		return KindArchive
	case errors.Is(err, detection.ErrDecode):
		return KindItem
	default:
		return KindSystem
	}
}

// HTTPStatus maps a kind onto the response code its boundary reports.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindInput, KindArchive:
		return http.StatusBadRequest
	case KindItem:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
