package workflow

import "errors"

var (
	// ErrNotFound means the transaction or user does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNotPending means the transaction has already been decided.
	ErrNotPending = errors.New("transaction is not pending")
	// ErrInsufficientBalance means the asset balance cannot cover the amount.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrNoDepositAddress means the user has no assigned deposit address.
	ErrNoDepositAddress = errors.New("no deposit address assigned")
	// ErrInvalidAddress means the destination fails the address format check.
	ErrInvalidAddress = errors.New("invalid bitcoin address")
	// ErrInvalidAmount means the amount is zero or negative.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrUnsupportedAsset means the crypto type is not supported.
	ErrUnsupportedAsset = errors.New("unsupported crypto type")
	// ErrInvalidStatus means the target status is not COMPLETED or FAILED.
	ErrInvalidStatus = errors.New("invalid target status")
)
