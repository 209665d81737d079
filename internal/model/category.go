package model

type Category struct {
	BaseModel
	ParentID  *int64     `db:"parent_id" json:"parent_id"` // Nullable, root when nil
	Name      string     `db:"name" json:"name"`
	ImageURL  *string    `db:"image_url" json:"image_url"`
	Depth     int        `db:"depth" json:"depth"`
	SortOrder int        `db:"sort_order" json:"sort_order"`
	IsLeaf    bool       `db:"is_leaf" json:"is_leaf"`
	Children  []Category `db:"-" json:"children,omitempty"` // For tree structure, not in DB
}

func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}
