package model

import "errors"

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a resource already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")
	// ErrDataFault is returned when a step lacks data required to compile it.
	ErrDataFault = errors.New("data fault")
	// ErrExecutionFault is returned when a task can't finish its action.
	ErrExecutionFault = errors.New("execution fault")
)
