package database

import (
	"errors"

	"github.com/lib/pq"
)

const (
	uniqueViolation = "23505"
	checkViolation  = "23514"

	activePhoneIndex = "leads_active_phone_key"
	userEmailIndex   = "users_email_key"
)

func pqErrorCode(err error) (pq.ErrorCode, string, bool) {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return "", "", false
	}
	return pqErr.Code, pqErr.Constraint, true
}

func isUniqueViolation(err error, constraint string) bool {
	code, name, ok := pqErrorCode(err)
	return ok && code == uniqueViolation && name == constraint
}

func isCheckViolation(err error) bool {
	code, _, ok := pqErrorCode(err)
	return ok && code == checkViolation
}
