package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrReplicationInProgress = errors.New("replication already in progress for this budget")
	ErrForbidden             = errors.New("permission denied")
)

// ValidationError maps field names to the rule they failed.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func NewValidationError(field string, rule string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: rule}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

type NotFoundError struct {
	Entity string
	Id     any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.Id)
}

type InvalidTransitionError struct {
	Current   BudgetStatus
	Requested BudgetStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.Current, e.Requested)
}

type NoItemsError struct {
	BudgetId int
}

func (e *NoItemsError) Error() string {
	return fmt.Sprintf("budget %d has no items", e.BudgetId)
}

type NotReleasedError struct {
	BudgetId int
	Status   BudgetStatus
}

func (e *NotReleasedError) Error() string {
	return fmt.Sprintf("budget %d must be released before replication (status=%s)", e.BudgetId, e.Status)
}

// NotEditableError is returned when items of a budget outside draft are mutated.
type NotEditableError struct {
	BudgetId int
	Status   BudgetStatus
	Archived bool
}

func (e *NotEditableError) Error() string {
	if e.Archived {
		return fmt.Sprintf("budget %d is archived", e.BudgetId)
	}
	return fmt.Sprintf("budget %d is not editable in status %s", e.BudgetId, e.Status)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
