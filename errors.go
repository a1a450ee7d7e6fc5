package gomart

import (
	"errors"
	"fmt"
)

var (
	ErrMissingOrder      = errors.New("gomart: order line references a missing order")
	ErrDuplicateOrder    = errors.New("gomart: duplicate order_id")
	ErrDuplicateHeldOut  = errors.New("gomart: user has more than one held-out order")
	ErrDuplicateTrainKey = errors.New("gomart: duplicate (user_id, product_id) in train lines")
	ErrRowCountMismatch  = errors.New("gomart: row count mismatch")
	ErrTableExists       = errors.New("gomart: table already exists")
	ErrTableNotFound     = errors.New("gomart: table not found")
	ErrInvalidTable      = errors.New("gomart: invalid table")
)

// StageError reports a failed pipeline stage with its row counts.
type StageError struct {
	Stage   string
	RowsIn  int
	RowsOut int
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s (rows in %d, rows out %d): %v", e.Stage, e.RowsIn, e.RowsOut, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
