package recipe

import "errors"

// Domain errors for recipe operations

var (
	ErrMissingDishName = errors.New("generated recipe has no dish name")
	ErrRecipeNotFound  = errors.New("recipe not found")
	ErrNotPersisted    = errors.New("recipe has no datastore identity")

	// Engagement rule violations
	ErrInvalidScore   = errors.New("rating must be between 1 and 5")
	ErrAlreadyRated   = errors.New("recipe was already rated in this session")
	ErrEmptyComment   = errors.New("comment text is required")
	ErrCommentTooLong = errors.New("comment must not exceed 500 characters")

	ErrUnknownSortKey = errors.New("unknown sort key")
)
