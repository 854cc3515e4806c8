package service

import "fmt"

// ChainError marks a failure in one step of a resolution chain. The
// step names the entity being resolved when the chain broke.
type ChainError struct {
	Step string
	Err  error
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("sync chain failed at %s: %v", e.Step, e.Err)
}

func (e *ChainError) Unwrap() error {
	return e.Err
}

func chainStep(step string, err error) error {
	if err == nil {
		return nil
	}
	return &ChainError{Step: step, Err: err}
}
