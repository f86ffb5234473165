package catalog

import "time"

// Product is a menu item belonging to exactly one vendor. BasePrice is the
// unit price snapshotted onto order items at placement time.
type Product struct {
	ID               int64
	VendorID         int64
	CategoryID       *int64
	Name             string
	ShortDescription string
	BasePrice        int64
	SortOrder        int
	IsActive         bool
	IsAvailable      bool
	CreatedAt        time.Time
}

// Orderable reports whether the product can appear on a new order.
func (p *Product) Orderable() bool {
	return p.IsActive && p.IsAvailable
}

// OptionGroup is a modifier category (e.g. "sauce"). MinSelect/MaxSelect of 0
// mean no explicit bound.
type OptionGroup struct {
	ID          int64
	VendorID    int64
	Name        string
	Description string
	IsRequired  bool
	MinSelect   int
	MaxSelect   int
	SortOrder   int
	IsActive    bool
}

// OptionItem is a selectable choice inside a group. PriceDelta is signed and
// may reduce the price.
type OptionItem struct {
	ID          int64
	GroupID     int64
	Name        string
	Description string
	PriceDelta  int64
	SortOrder   int
	IsActive    bool
}

// ProductOptionGroup links a product to an option group. The nullable
// override fields replace the group's own rule when set; nil inherits.
type ProductOptionGroup struct {
	ProductID int64
	Group     OptionGroup
	Items     []OptionItem

	IsRequired *bool
	MinSelect  *int
	MaxSelect  *int
	SortOrder  int
	IsActive   bool
}

// EffectiveRequired resolves the product-level override against the group
// default.
func (l *ProductOptionGroup) EffectiveRequired() bool {
	if l.IsRequired != nil {
		return *l.IsRequired
	}
	return l.Group.IsRequired
}

func (l *ProductOptionGroup) EffectiveMinSelect() int {
	if l.MinSelect != nil {
		return *l.MinSelect
	}
	return l.Group.MinSelect
}

func (l *ProductOptionGroup) EffectiveMaxSelect() int {
	if l.MaxSelect != nil {
		return *l.MaxSelect
	}
	return l.Group.MaxSelect
}
