package dto

type CreateCategoryInput struct {
	ParentID  *int64
	Name      string
	ImageURL  *string
	SortOrder int
}

// UpdateCategoryInput is a patch: nil fields are left unchanged.
type UpdateCategoryInput struct {
	ID         int64
	Name       *string
	ImageURL   *string
	SortOrder  *int
	ParentID   *int64 // Move under this parent
	MoveToRoot bool
}
