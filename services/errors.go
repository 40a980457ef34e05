package services

import (
	"errors"
	"fmt"
)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountNotEligible = errors.New("account cannot join the network")
	ErrReferrerNotFound   = errors.New("referrer is not a network member")
	ErrSelfReferral       = errors.New("account cannot refer itself")
	ErrAccountNotInTree   = errors.New("account is not in the network tree")
	ErrInvalidSale        = errors.New("invalid sale")
)

// DuplicateMemberError is returned when an account is already in the tree.
type DuplicateMemberError struct {
	AccountID string
}

func (e *DuplicateMemberError) Error() string {
	return fmt.Sprintf("account %s is already a network member", e.AccountID)
}

// ConfigurationError aborts a unit of work because the compensation plan is
// missing or malformed. Nothing is written when it is returned.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("plan configuration: %s: %v", e.Reason, e.Err)
	}
	return "plan configuration: " + e.Reason
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err is, or wraps, a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// IsDuplicateMember reports whether err is, or wraps, a DuplicateMemberError.
func IsDuplicateMember(err error) bool {
	var dup *DuplicateMemberError
	return errors.As(err, &dup)
}
