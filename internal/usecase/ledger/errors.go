package ledger

import "errors"

var ErrInvalidInput = errors.New("invalid ledger input")
