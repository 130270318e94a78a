package workflow

import "errors"

var (
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrAlreadyPaid             = errors.New("payment already paid")
	ErrDualApprovalSameUser    = errors.New("dual approval requires a different approver")
	ErrUnsupportedAction       = errors.New("unsupported action")
	ErrEntityNotFound          = errors.New("entity not found")
)
