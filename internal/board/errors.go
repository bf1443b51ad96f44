package board

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrKindMismatch = errors.New("item kind mismatch")
	ErrFinished     = errors.New("drawing already finished")
)

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func (e NotFoundError) Unwrap() error {
	return ErrNotFound
}

type KindError struct {
	ID   string
	Want Kind
	Got  Kind
}

func (e KindError) Error() string {
	return fmt.Sprintf("item %s is %s, not %s", e.ID, e.Got, e.Want)
}

func (e KindError) Unwrap() error {
	return ErrKindMismatch
}
