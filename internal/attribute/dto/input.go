package dto

type CreateAttributeInput struct {
	CategoryID int64
	Key        string
	Label      string
	Type       string
	Unit       *string
	Required   bool
	SortOrder  int
	Options    []string // ENUM only; each entry is a label
}

type UpdateAttributeInput struct {
	ID        int64
	Label     *string
	Unit      *string
	Required  *bool
	SortOrder *int
	Active    *bool
}

type AddOptionInput struct {
	AttributeID int64
	Value       string
	Label       string
	SortOrder   *int
}
