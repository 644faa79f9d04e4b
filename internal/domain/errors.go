package domain

import "errors"

var (
	// ErrInputNotFound means a snapshot file does not exist.
	ErrInputNotFound = errors.New("input not found")
	// ErrInputMalformed means a snapshot is not valid JSON or lacks Sources.
	ErrInputMalformed = errors.New("input malformed")
	// ErrRecordShape means a record lacks a field the analysis depends on.
	ErrRecordShape = errors.New("record shape error")
)
