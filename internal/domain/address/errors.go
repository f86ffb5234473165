package address

import "errors"

var (
	ErrAddressNotFound = errors.New("address not found")
	ErrAddressNotOwned = errors.New("address belongs to another user")
	ErrAddressRequired = errors.New("a delivery address is required")
)
