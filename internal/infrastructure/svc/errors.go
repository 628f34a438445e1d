package svc

import "errors"

// ErrNoSymbols: the configuration lists no symbols to trade.
var ErrNoSymbols = errors.New("no symbols configured")

// ErrCredentialsUnavailable: the credential store cannot be built.
var ErrCredentialsUnavailable = errors.New("credential store initialization failed")
