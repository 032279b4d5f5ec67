package types

import (
	errorsmod "cosmossdk.io/errors"
)

// Codespace groups the registered error codes of this module.
const Codespace = "ballistics"

var (
	ErrInvalidConfig = errorsmod.Register(Codespace, 2, "invalid configuration")
	ErrInvalidUnit   = errorsmod.Register(Codespace, 3, "invalid value or unit")
	ErrRunNotFound   = errorsmod.Register(Codespace, 4, "run not found")
	ErrRunSuperseded = errorsmod.Register(Codespace, 5, "run superseded")
)
