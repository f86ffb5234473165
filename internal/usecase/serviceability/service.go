// Package serviceability decides whether a vendor can fulfil an order for a
// geographic point, and on what delivery terms.
package serviceability

import (
	"context"

	domorder "github.com/hsdarestani/vaadehrep/internal/domain/order"
	domvendor "github.com/hsdarestani/vaadehrep/internal/domain/vendor"
	"github.com/hsdarestani/vaadehrep/pkg/geo"
)

type VendorRepository interface {
	GetByID(ctx context.Context, id int64) (*domvendor.Vendor, error)
	ListOpen(ctx context.Context) ([]*domvendor.Vendor, error)
	ListActiveLocations(ctx context.Context, vendorID int64) ([]domvendor.Location, error)
}

type OrderCounter interface {
	CountActiveByVendor(ctx context.Context, vendorID int64) (int64, error)
}

// FeeSettings supplies the administratively configured in-zone delivery fee.
type FeeSettings interface {
	InZoneDeliveryFee(ctx context.Context) int64
}

// Result is the serviceability decision for one vendor/point pair. When
// Serviceable is false the remaining fields are zero.
type Result struct {
	Serviceable     bool
	DeliveryType    domorder.DeliveryType
	DeliveryFee     int64
	NearestLocation *domvendor.Location
	DistanceMeters  *float64
}

type Service struct {
	vendors  VendorRepository
	orders   OrderCounter
	settings FeeSettings
}

func NewService(vendors VendorRepository, orders OrderCounter, settings FeeSettings) *Service {
	return &Service{vendors: vendors, orders: orders, settings: settings}
}

// Evaluate applies the capability flags in fixed priority: in-zone wins over
// the out-of-zone passthrough when both apply, because in-zone is cheaper
// and faster. The passthrough fee is zero; the courier collects it from the
// customer directly.
func (s *Service) Evaluate(ctx context.Context, v *domvendor.Vendor, coords *domorder.Coordinates) (Result, error) {
	if !v.IsOpen() {
		return Result{}, nil
	}

	if v.MaxActiveOrders > 0 {
		active, err := s.orders.CountActiveByVendor(ctx, v.ID)
		if err != nil {
			return Result{}, err
		}
		if active >= int64(v.MaxActiveOrders) {
			return Result{}, nil
		}
	}

	locations, err := s.vendors.ListActiveLocations(ctx, v.ID)
	if err != nil {
		return Result{}, err
	}

	nearest, distance := nearestLocation(locations, coords)

	if v.SupportsInZoneDelivery {
		switch {
		case countLocated(locations) == 0:
			// Vendors without located points are assumed always in-zone.
			return Result{
				Serviceable:  true,
				DeliveryType: domorder.DeliveryInZone,
				DeliveryFee:  s.settings.InZoneDeliveryFee(ctx),
			}, nil
		case nearest != nil && nearest.ServiceRadiusM > 0 && distance != nil && *distance <= float64(nearest.ServiceRadiusM):
			return Result{
				Serviceable:     true,
				DeliveryType:    domorder.DeliveryInZone,
				DeliveryFee:     s.settings.InZoneDeliveryFee(ctx),
				NearestLocation: nearest,
				DistanceMeters:  distance,
			}, nil
		}
		// Radius disabled or point out of range: fall through to passthrough.
	}

	if v.SupportsOutOfZonePassthrough {
		return Result{
			Serviceable:     true,
			DeliveryType:    domorder.DeliveryOutOfZonePassthru,
			DeliveryFee:     0,
			NearestLocation: nearest,
			DistanceMeters:  distance,
		}, nil
	}

	return Result{}, nil
}

// PickNearest returns the serviceable open vendor closest to coords, along
// with its evaluation. A serviceable vendor with unknown distance stays a
// candidate but loses to any vendor with a known smaller distance; otherwise
// the first vendor encountered wins. Returns (nil, zero, nil) when no vendor
// qualifies.
func (s *Service) PickNearest(ctx context.Context, coords *domorder.Coordinates) (*domvendor.Vendor, Result, error) {
	vendors, err := s.vendors.ListOpen(ctx)
	if err != nil {
		return nil, Result{}, err
	}

	var (
		best       *domvendor.Vendor
		bestResult Result
	)
	for _, v := range vendors {
		res, err := s.Evaluate(ctx, v, coords)
		if err != nil {
			return nil, Result{}, err
		}
		if !res.Serviceable {
			continue
		}
		if best == nil {
			best, bestResult = v, res
			continue
		}
		if res.DistanceMeters != nil &&
			(bestResult.DistanceMeters == nil || *res.DistanceMeters < *bestResult.DistanceMeters) {
			best, bestResult = v, res
		}
	}
	return best, bestResult, nil
}

// countLocated counts active points that actually carry coordinates; a row
// without lat/lng cannot anchor a radius check.
func countLocated(locations []domvendor.Location) int {
	n := 0
	for i := range locations {
		if locations[i].Lat != nil && locations[i].Lng != nil {
			n++
		}
	}
	return n
}

func nearestLocation(locations []domvendor.Location, coords *domorder.Coordinates) (*domvendor.Location, *float64) {
	if coords == nil {
		return nil, nil
	}
	var (
		nearest *domvendor.Location
		minDist float64
	)
	for i := range locations {
		loc := &locations[i]
		if loc.Lat == nil || loc.Lng == nil {
			continue
		}
		d := geo.DistanceMeters(coords.Latitude, coords.Longitude, *loc.Lat, *loc.Lng)
		if nearest == nil || d < minDist {
			nearest, minDist = loc, d
		}
	}
	if nearest == nil {
		return nil, nil
	}
	return nearest, &minDist
}
