package models

import (
	"fmt"
	"strings"
)

type BudgetStatus string

const (
	BudgetStatusDraft      BudgetStatus = "draft"
	BudgetStatusSubmitted  BudgetStatus = "submitted"
	BudgetStatusReviewed   BudgetStatus = "reviewed"
	BudgetStatusApproved   BudgetStatus = "approved"
	BudgetStatusRejected   BudgetStatus = "rejected"
	BudgetStatusReleased   BudgetStatus = "released"
	BudgetStatusReplicated BudgetStatus = "replicated"
)

var AllBudgetStatuses = []BudgetStatus{
	BudgetStatusDraft,
	BudgetStatusSubmitted,
	BudgetStatusReviewed,
	BudgetStatusApproved,
	BudgetStatusRejected,
	BudgetStatusReleased,
	BudgetStatusReplicated,
}

func ParseBudgetStatus(s string) (BudgetStatus, error) {
	status := BudgetStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", &ValidationError{Fields: map[string]string{"status": "oneof"}}
	}
	return status, nil
}

func (s BudgetStatus) IsValid() bool {
	switch s {
	case BudgetStatusDraft, BudgetStatusSubmitted, BudgetStatusReviewed, BudgetStatusApproved,
		BudgetStatusRejected, BudgetStatusReleased, BudgetStatusReplicated:
		return true
	}
	return false
}

// NextStatuses lists the statuses s may move to, itself included.
// replicated is terminal.
func (s BudgetStatus) NextStatuses() []BudgetStatus {
	switch s {
	case BudgetStatusDraft:
		return []BudgetStatus{BudgetStatusDraft, BudgetStatusSubmitted}
	case BudgetStatusSubmitted:
		return []BudgetStatus{BudgetStatusSubmitted, BudgetStatusReviewed}
	case BudgetStatusReviewed:
		return []BudgetStatus{BudgetStatusReviewed, BudgetStatusApproved, BudgetStatusRejected}
	case BudgetStatusApproved:
		return []BudgetStatus{BudgetStatusApproved, BudgetStatusReleased}
	case BudgetStatusRejected:
		return []BudgetStatus{BudgetStatusRejected, BudgetStatusDraft}
	case BudgetStatusReleased:
		return []BudgetStatus{BudgetStatusReleased, BudgetStatusReplicated}
	case BudgetStatusReplicated:
		return []BudgetStatus{BudgetStatusReplicated}
	}
	return nil
}

func (s BudgetStatus) CanTransitionTo(next BudgetStatus) bool {
	for _, allowed := range s.NextStatuses() {
		if allowed == next {
			return true
		}
	}
	return false
}

type ReplicationStatus string

const (
	ReplicationStatusCreated ReplicationStatus = "created"
	ReplicationStatusUpdated ReplicationStatus = "updated"
	ReplicationStatusSkipped ReplicationStatus = "skipped"
	ReplicationStatusError   ReplicationStatus = "error"
)

type ReplicationAction string

const (
	ReplicationActionBudget ReplicationAction = "replicate_budget"
	ReplicationActionSingle ReplicationAction = "replicate_single"
)

type UserRole string

const (
	UserRoleAdmin   UserRole = "admin"
	UserRoleManager UserRole = "manager"
	UserRoleMember  UserRole = "member"
)

func (r UserRole) CanManageBudgets() bool {
	return r == UserRoleAdmin || r == UserRoleManager
}

// Actor is the user a mutation is performed on behalf of.
type Actor struct {
	Id   int
	Role UserRole
}

func (a Actor) String() string {
	return fmt.Sprintf("%d(%s)", a.Id, a.Role)
}
