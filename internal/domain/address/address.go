package address

import "time"

// Address is a delivery destination owned by a user. Orders keep a reference
// to the address row; the row itself is never deleted once referenced.
type Address struct {
	ID            int64
	UserID        int64
	Title         string
	ReceiverName  string
	ReceiverPhone string
	City          string
	District      string
	Street        string
	FullText      string
	Notes         string
	Latitude      *float64
	Longitude     *float64
	IsDefault     bool
	IsActive      bool
	CreatedAt     time.Time
}
