package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart     = errors.New("cart is empty, nothing to checkout")
	ErrCartChanged   = errors.New("cart changed since checkout started")
	ErrDraftNotFound = errors.New("checkout not found or expired")
)

// ConfigurationError means a collaborator could not be initialised.
type ConfigurationError struct {
	Component string
	Err       error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s is not configured: %v", e.Component, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// AuthRequiredError is returned when an action needs a signed-in user.
type AuthRequiredError struct {
	Action string
}

func (e *AuthRequiredError) Error() string {
	return fmt.Sprintf("please sign in to %s", e.Action)
}

// RemoteOperationError wraps any failure of the storage or identity collaborator.
type RemoteOperationError struct {
	Op  string
	Err error
}

func (e *RemoteOperationError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *RemoteOperationError) Unwrap() error {
	return e.Err
}

type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Kind)
	}
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func Remote(op string, err error) error {
	if err == nil {
		return nil
	}
	var remote *RemoteOperationError
	if errors.As(err, &remote) {
		return err
	}
	return &RemoteOperationError{Op: op, Err: err}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsAuthRequired(err error) bool {
	var a *AuthRequiredError
	return errors.As(err, &a)
}

func IsNotFound(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n)
}

func IsRemote(err error) bool {
	var r *RemoteOperationError
	return errors.As(err, &r)
}
