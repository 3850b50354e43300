package db

import "strings"

// IsUniqueViolation reports whether err looks like a unique constraint
// violation. Matching is on the error text because gorm flattens the driver
// error, which also keeps the check working under the sqlite test driver.
// When constraintName is given the text must reference that constraint.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" && strings.Contains(msg, constraintName) {
		return true
	}
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
