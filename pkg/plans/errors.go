package plans

import "errors"

var (
	ErrPlanNotResolved      = errors.New("plan not resolved for given identifiers")
	ErrInvalidPlanCatalog   = errors.New("invalid plan catalog configuration")
	ErrFailedToLoadCatalog  = errors.New("failed to load plan catalog")
	ErrEmptyCatalog         = errors.New("plan catalog is empty")
	ErrDuplicatePriceID     = errors.New("duplicate price ID in plan catalog")
	ErrCatalogFileNotFound  = errors.New("plan catalog file not found")
)
