package repository

import "errors"

// ErrNotFound is returned when a requested record does not exist in the database.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write loses a race: a conditional update saw a
// different version, or a project already has an actuals record.
var ErrConflict = errors.New("conflict")
