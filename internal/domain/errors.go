package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrNoBridge           = errors.New("no bridge for arbitrator")
	ErrUnknownChain       = errors.New("unknown chain")
	ErrInvalidQuestionID  = errors.New("invalid question id")
	ErrInvalidInput       = errors.New("invalid input")
	ErrWalletDisconnected = errors.New("wallet not connected")
	ErrRateLimited        = errors.New("rate limited")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrLockHeld           = errors.New("lock held")
)
