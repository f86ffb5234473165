package mysql

import (
	"github.com/hsdarestani/vaadehrep/internal/config"
	domaccount "github.com/hsdarestani/vaadehrep/internal/domain/account"
	domaddress "github.com/hsdarestani/vaadehrep/internal/domain/address"
	domcatalog "github.com/hsdarestani/vaadehrep/internal/domain/catalog"
	domorder "github.com/hsdarestani/vaadehrep/internal/domain/order"
	domvendor "github.com/hsdarestani/vaadehrep/internal/domain/vendor"
)

// Each repository must satisfy the domain contract it backs; a signature
// drift here breaks the wiring in cmd/api.
var (
	_ domaccount.Repository = (*UserRepository)(nil)
	_ domaddress.Repository = (*AddressRepository)(nil)
	_ domvendor.Repository  = (*VendorRepository)(nil)
	_ domcatalog.Repository = (*CatalogRepository)(nil)
	_ domorder.Repository   = (*OrderRepository)(nil)
	_ config.Store          = (*SettingRepository)(nil)
)
