package transport

import (
	"errors"
	"fmt"
)

// ConnectErrorKind classifies a failed connection attempt
type ConnectErrorKind int

const (
	// InvalidAddress means the address can never succeed (parse error, bad path)
	InvalidAddress ConnectErrorKind = iota
	// Unreachable means no candidate address accepted the connection
	Unreachable
)

var (
	ErrInvalidAddress = errors.New("transport: invalid address")
	ErrUnreachable    = errors.New("transport: endpoint unreachable")
)

func (k ConnectErrorKind) Error() string {
	switch k {
	case InvalidAddress:
		return ErrInvalidAddress.Error()
	case Unreachable:
		return ErrUnreachable.Error()
	default:
		return fmt.Sprintf("transport: unknown connect error %d", int(k))
	}
}

// ConnectError is returned by ParseEndpoint and ResolveAndConnect
type ConnectError struct {
	Kind    ConnectErrorKind
	Address string
	Err     error
}

func (e *ConnectError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (underlying: %v)", e.Kind.Error(), e.Address, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Address)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// Is matches ErrInvalidAddress and ErrUnreachable against the error kind
func (e *ConnectError) Is(target error) bool {
	switch target {
	case ErrInvalidAddress:
		return e.Kind == InvalidAddress
	case ErrUnreachable:
		return e.Kind == Unreachable
	}
	return false
}

// NewUnreachable wraps err as an Unreachable connect error
func NewUnreachable(address string, err error) *ConnectError {
	return &ConnectError{Kind: Unreachable, Address: address, Err: err}
}

// NewInvalidAddress wraps err as an InvalidAddress connect error
func NewInvalidAddress(address string, err error) *ConnectError {
	return &ConnectError{Kind: InvalidAddress, Address: address, Err: err}
}
