// Package state provides shared state information for use by workers and the master.
package state

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed render request.
type ErrorKind int

// These constants are the kinds of error a render request can fail with.
const (
	KindUnknown ErrorKind = iota
	KindInvalidScene
	KindInvalidCoordinate
	KindInvalidLight
	KindInvalidProjection
	KindComputation
	KindTransport
	KindSceneNotCached
)

var kindNames = map[ErrorKind]string{
	KindUnknown:           "UNKNOWN",
	KindInvalidScene:      "INVALID_SCENE",
	KindInvalidCoordinate: "INVALID_COORDINATE",
	KindInvalidLight:      "INVALID_LIGHT",
	KindInvalidProjection: "INVALID_PROJECTION",
	KindComputation:       "COMPUTATION_ERROR",
	KindTransport:         "TRANSPORT_ERROR",
	KindSceneNotCached:    "SCENE_NOT_CACHED",
}

// String returns the wire name of k.
func (k ErrorKind) String() string {
	if name, exists := kindNames[k]; exists {
		return name
	}
	return kindNames[KindUnknown]
}

// ParseErrorKind returns the kind with the wire name s, or KindUnknown.
func ParseErrorKind(s string) ErrorKind {
	for k, name := range kindNames {
		if name == s {
			return k
		}
	}
	return KindUnknown
}

// Validation returns whether k is a caller-correctable error that will recur on every retry.
func (k ErrorKind) Validation() bool {
	switch k {
	case KindInvalidScene, KindInvalidCoordinate, KindInvalidLight, KindInvalidProjection:
		return true
	}
	return false
}

// Error is an error with a kind attached.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Errorf returns a new *Error of kind k.
func Errorf(k ErrorKind, format string, args ...any) error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or KindUnknown if it has none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
