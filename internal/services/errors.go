package services

import "errors"

// Work unit validation.
var (
	ErrMissingProject        = errors.New("work unit project missing")
	ErrMissingStartTime      = errors.New("work unit start time missing")
	ErrStopBeforeStart       = errors.New("work unit stop time before start time")
	ErrHoursWithoutStop      = errors.New("work unit hours without stop time")
	ErrInvalidDurationFormat = errors.New("invalid duration format")
	ErrInvalidTimeInput      = errors.New("invalid time input")
	ErrInvalidTimeZone       = errors.New("invalid time zone offset")
)

// Project hierarchy and rates.
var (
	ErrMissingProjectName      = errors.New("project name missing")
	ErrMissingParent           = errors.New("project parent missing")
	ErrDuplicateRootProject    = errors.New("root project already exists")
	ErrParentProjectNotFound   = errors.New("parent project not found")
	ErrClientNotFound          = errors.New("client not found")
	ErrProjectHierarchyCycle   = errors.New("project cannot be its own ancestor")
	ErrProjectHasChildren      = errors.New("project has child projects")
	ErrRootProjectDelete       = errors.New("root project cannot be deleted")
	ErrInvalidRateAmount       = errors.New("invalid rate amount")
	ErrRateNameMissing         = errors.New("rate name missing")
	ErrRatesRequireBaseProject = errors.New("rates are only kept on base projects")
	ErrRepositoryURLMissing    = errors.New("repository url missing")
	ErrBatchItemNotFound       = errors.New("batch item does not belong to project")
)

// Bills.
var (
	ErrBillUserMissing            = errors.New("bill user missing")
	ErrPartialDissociationFailure = errors.New("partial work unit dissociation failure")
	ErrWorkUnitAlreadyBilled      = errors.New("work unit already billed")
	ErrWorkUnitOwnerMismatch      = errors.New("work unit belongs to another user")
	ErrInvalidBillScope           = errors.New("invalid bill scope")
)

// Lookups.
var (
	ErrWorkUnitNotFound = errors.New("work unit not found")
	ErrProjectNotFound  = errors.New("project not found")
	ErrRateNotFound     = errors.New("rate not found")
	ErrBillNotFound     = errors.New("bill not found")
	ErrUserNotFound     = errors.New("user not found")
)
