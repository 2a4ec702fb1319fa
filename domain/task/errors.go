package task

import (
	"errors"
	"fmt"
)

// Kind classifies a task error so callers can branch without type switches.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindBusinessRule
	KindStorage
)

// Error codes carried by *Error.
const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeTaskNotFound  = "TASK_NOT_FOUND"
	CodeOwnerNotFound = "USER_NOT_FOUND"
	CodeBusinessRule  = "BUSINESS_RULE_VIOLATION"
	CodeStorage       = "STORAGE_ERROR"
)

// Sentinels matched by errors.Is against any *Error of the same kind.
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrBusinessRule = errors.New("business rule violation")
	ErrStorage      = errors.New("storage error")
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindNotFound:
		return "NotFound"
	case KindBusinessRule:
		return "BusinessRuleViolation"
	case KindStorage:
		return "StorageError"
	default:
		return "Unknown"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) Kind {
	for _, k := range []Kind{KindValidation, KindNotFound, KindBusinessRule, KindStorage} {
		if k.String() == s {
			return k
		}
	}
	return KindUnknown
}

func (k Kind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindNotFound:
		return ErrNotFound
	case KindBusinessRule:
		return ErrBusinessRule
	case KindStorage:
		return ErrStorage
	default:
		return nil
	}
}

// Error is the tagged error returned by the service and every backend.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Field   string
	TaskID  int64
	OwnerID int64
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s [Code: %s]", e.Message, e.Code)
	if e.TaskID != 0 {
		msg += fmt.Sprintf(" [Task ID: %d]", e.TaskID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrNotFound) and friends match by kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindUnknown
}

// NewValidationError reports malformed input on field.
func NewValidationError(field, format string, args ...any) *Error {
	return &Error{
		Kind:    KindValidation,
		Code:    CodeValidation,
		Message: fmt.Sprintf(format, args...),
		Field:   field,
	}
}

// NewTaskNotFoundError reports a missing task.
func NewTaskNotFoundError(id int64) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    CodeTaskNotFound,
		Message: fmt.Sprintf("Task with id %d not found", id),
		TaskID:  id,
	}
}

// NewOwnerNotFoundError reports a missing owner.
func NewOwnerNotFoundError(ownerID int64) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    CodeOwnerNotFound,
		Message: fmt.Sprintf("User with id %d not found", ownerID),
		OwnerID: ownerID,
	}
}

// NewBusinessRuleError reports well-formed input that breaks a domain rule.
func NewBusinessRuleError(taskID, ownerID int64, format string, args ...any) *Error {
	return &Error{
		Kind:    KindBusinessRule,
		Code:    CodeBusinessRule,
		Message: fmt.Sprintf(format, args...),
		TaskID:  taskID,
		OwnerID: ownerID,
	}
}

// NewStorageError wraps a backend failure raised during op.
func NewStorageError(op string, err error) *Error {
	return &Error{
		Kind:    KindStorage,
		Code:    CodeStorage,
		Message: fmt.Sprintf("failed to %s", op),
		Err:     err,
	}
}
