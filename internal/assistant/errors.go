package assistant

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated means no current user was supplied.
	ErrUnauthenticated = errors.New("usuário não autenticado")
	// ErrValidation marks request errors the caller can fix.
	ErrValidation = errors.New("requisição inválida")
)

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// TurnError is an infrastructure failure inside a chat turn, tagged with the
// phase that failed.
type TurnError struct {
	Phase Phase
	Err   error
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("chat turn failed while %s: %v", e.Phase, e.Err)
}

func (e *TurnError) Unwrap() error { return e.Err }
