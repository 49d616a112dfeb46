package followscan

import (
	"errors"
)

var (
	ErrAuth   = errors.New("authentication failed")
	ErrConfig = errors.New("invalid configuration")

	// Profile could not be fetched. Not recorded in the ledger, so the account is retried on a later scan.
	ErrFetch           = errors.New("profile fetch failed")
	ErrProfileNotFound = errors.New("profile not found")

	// Account is already on the list; treated as success.
	ErrDuplicate   = errors.New("account already on list")
	ErrBlockAction = errors.New("adding account to list failed")

	ErrScanInProgress = errors.New("scan already in progress")
)
