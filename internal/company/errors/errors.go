package errors

import (
	"fmt"
)

var (
	ErrNotFound     = fmt.Errorf("not found")
	ErrInvalidInput = fmt.Errorf("invalid input")
	// ErrConflict is returned when enrichment is triggered while a job
	// is already in flight for the record.
	ErrConflict = fmt.Errorf("conflict")
)
