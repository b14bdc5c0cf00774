package entity

import "errors"

var (
	ErrVersionConflict = errors.New("state version conflict")
	ErrNotFound        = errors.New("not found")
)
