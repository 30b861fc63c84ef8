package domain

import "errors"

var (
	// ErrTerminalStatus: se intentó transicionar un record que ya está en un
	// estado terminal (EXECUTED, CANCELLED o FAILED).
	ErrTerminalStatus = errors.New("trade already in terminal status")

	// ErrRecordNotFound: el id no existe en el ledger.
	ErrRecordNotFound = errors.New("ledger record not found")
)
