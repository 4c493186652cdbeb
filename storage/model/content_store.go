package model

// ContentQuery filters a content listing. Zero values do not filter.
type ContentQuery struct {
	Statuses []Status
	Tiers    []SubscriptionTier
	// Search matches a substring of the title
	Search string
	Limit  int
	Offset int
}

// ContentStore abstracts CRUD access to one content resource
type ContentStore[T any] interface {
	// List returns the matching items and the total count ignoring Limit and Offset
	List(q ContentQuery) ([]T, int64, error)
	Get(id uint) (*T, error)
	Create(item *T) error
	// Update replaces the editable columns of the item with the passed id
	Update(id uint, item *T) (*T, error)
	Delete(id uint) error
}
