package catalog

import "errors"

var (
	ErrInvalidImport   = errors.New("invalid import document")
	ErrUnknownProduct  = errors.New("unknown product")
	ErrDuplicateID     = errors.New("duplicate product id")
	ErrInvalidTemplate = errors.New("invalid template")
)
