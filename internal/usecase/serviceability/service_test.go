package serviceability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	domorder "github.com/hsdarestani/vaadehrep/internal/domain/order"
	domvendor "github.com/hsdarestani/vaadehrep/internal/domain/vendor"
)

type mockVendorRepository struct {
	vendors   []*domvendor.Vendor
	locations map[int64][]domvendor.Location
}

func newMockVendorRepository() *mockVendorRepository {
	return &mockVendorRepository{locations: make(map[int64][]domvendor.Location)}
}

func (m *mockVendorRepository) GetByID(ctx context.Context, id int64) (*domvendor.Vendor, error) {
	for _, v := range m.vendors {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, domvendor.ErrVendorNotFound
}

func (m *mockVendorRepository) ListOpen(ctx context.Context) ([]*domvendor.Vendor, error) {
	var open []*domvendor.Vendor
	for _, v := range m.vendors {
		if v.IsOpen() {
			open = append(open, v)
		}
	}
	return open, nil
}

func (m *mockVendorRepository) ListActiveLocations(ctx context.Context, vendorID int64) ([]domvendor.Location, error) {
	return m.locations[vendorID], nil
}

type mockOrderCounter struct {
	activeByVendor map[int64]int64
}

func (m *mockOrderCounter) CountActiveByVendor(ctx context.Context, vendorID int64) (int64, error) {
	return m.activeByVendor[vendorID], nil
}

type staticFees struct {
	inZone int64
}

func (f staticFees) InZoneDeliveryFee(ctx context.Context) int64 { return f.inZone }

func fl(v float64) *float64 { return &v }

func openVendor(id int64) *domvendor.Vendor {
	return &domvendor.Vendor{
		ID:                     id,
		Name:                   "vendor",
		IsActive:               true,
		IsVisible:              true,
		IsAcceptingOrders:      true,
		SupportsInZoneDelivery: true,
	}
}

func newTestService(repo *mockVendorRepository, counter *mockOrderCounter) *Service {
	if counter == nil {
		counter = &mockOrderCounter{activeByVendor: map[int64]int64{}}
	}
	return NewService(repo, counter, staticFees{inZone: 80000})
}

func TestEvaluate_ClosedVendorFailsFast(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domvendor.Vendor)
	}{
		{"inactive", func(v *domvendor.Vendor) { v.IsActive = false }},
		{"hidden", func(v *domvendor.Vendor) { v.IsVisible = false }},
		{"not accepting", func(v *domvendor.Vendor) { v.IsAcceptingOrders = false }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockVendorRepository()
			v := openVendor(1)
			tt.mutate(v)
			repo.vendors = append(repo.vendors, v)

			res, err := newTestService(repo, nil).Evaluate(context.Background(), v, nil)

			require.NoError(t, err)
			require.False(t, res.Serviceable)
			require.Empty(t, res.DeliveryType)
		})
	}
}

func TestEvaluate_CapacityGate(t *testing.T) {
	repo := newMockVendorRepository()
	v := openVendor(1)
	v.MaxActiveOrders = 1
	repo.vendors = append(repo.vendors, v)
	counter := &mockOrderCounter{activeByVendor: map[int64]int64{1: 1}}

	res, err := newTestService(repo, counter).Evaluate(context.Background(), v, &domorder.Coordinates{Latitude: 35.70, Longitude: 51.40})

	require.NoError(t, err)
	require.False(t, res.Serviceable)
}

func TestEvaluate_CapacityZeroMeansUnlimited(t *testing.T) {
	repo := newMockVendorRepository()
	v := openVendor(1)
	v.MaxActiveOrders = 0
	repo.vendors = append(repo.vendors, v)
	counter := &mockOrderCounter{activeByVendor: map[int64]int64{1: 500}}

	res, err := newTestService(repo, counter).Evaluate(context.Background(), v, nil)

	require.NoError(t, err)
	require.True(t, res.Serviceable)
}

func TestEvaluate_NoLocationVendorAlwaysInZone(t *testing.T) {
	repo := newMockVendorRepository()
	v := openVendor(1)
	repo.vendors = append(repo.vendors, v)
	svc := newTestService(repo, nil)

	for _, coords := range []*domorder.Coordinates{
		nil,
		{Latitude: 35.70, Longitude: 51.40},
		{Latitude: -12.0, Longitude: 130.9},
	} {
		res, err := svc.Evaluate(context.Background(), v, coords)
		require.NoError(t, err)
		require.True(t, res.Serviceable)
		require.Equal(t, domorder.DeliveryInZone, res.DeliveryType)
		require.Equal(t, int64(80000), res.DeliveryFee)
	}
}

func TestEvaluate_InZoneWithinRadius(t *testing.T) {
	repo := newMockVendorRepository()
	v := openVendor(1)
	repo.vendors = append(repo.vendors, v)
	repo.locations[1] = []domvendor.Location{
		{ID: 10, VendorID: 1, IsActive: true, Lat: fl(35.70), Lng: fl(51.40), ServiceRadiusM: 2000},
	}

	res, err := newTestService(repo, nil).Evaluate(context.Background(), v, &domorder.Coordinates{Latitude: 35.701, Longitude: 51.401})

	require.NoError(t, err)
	require.True(t, res.Serviceable)
	require.Equal(t, domorder.DeliveryInZone, res.DeliveryType)
	require.Equal(t, int64(80000), res.DeliveryFee)
	require.NotNil(t, res.NearestLocation)
	require.Equal(t, int64(10), res.NearestLocation.ID)
	require.NotNil(t, res.DistanceMeters)
	require.Less(t, *res.DistanceMeters, 2000.0)
}

func TestEvaluate_OutOfRangeNoPassthroughRejected(t *testing.T) {
	repo := newMockVendorRepository()
	v := openVendor(1)
	repo.vendors = append(repo.vendors, v)
	repo.locations[1] = []domvendor.Location{
		{ID: 10, VendorID: 1, IsActive: true, Lat: fl(35.70), Lng: fl(51.40), ServiceRadiusM: 2000},
	}

	// ~5km away.
	res, err := newTestService(repo, nil).Evaluate(context.Background(), v, &domorder.Coordinates{Latitude: 35.745, Longitude: 51.40})

	require.NoError(t, err)
	require.False(t, res.Serviceable)
}

func TestEvaluate_PassthroughNeverFallsBackToInZone(t *testing.T) {
	repo := newMockVendorRepository()
	v := openVendor(1)
	v.SupportsOutOfZonePassthrough = true
	repo.vendors = append(repo.vendors, v)
	repo.locations[1] = []domvendor.Location{
		{ID: 10, VendorID: 1, IsActive: true, Lat: fl(35.70), Lng: fl(51.40), ServiceRadiusM: 2000},
	}

	res, err := newTestService(repo, nil).Evaluate(context.Background(), v, &domorder.Coordinates{Latitude: 35.80, Longitude: 51.60})

	require.NoError(t, err)
	require.True(t, res.Serviceable)
	require.Equal(t, domorder.DeliveryOutOfZonePassthru, res.DeliveryType)
	require.Zero(t, res.DeliveryFee, "passthrough courier fee is collected by the courier, not the platform")
}

func TestEvaluate_ZeroRadiusLocationFallsThrough(t *testing.T) {
	repo := newMockVendorRepository()
	v := openVendor(1)
	repo.vendors = append(repo.vendors, v)
	repo.locations[1] = []domvendor.Location{
		{ID: 10, VendorID: 1, IsActive: true, Lat: fl(35.70), Lng: fl(51.40), ServiceRadiusM: 0},
	}

	res, err := newTestService(repo, nil).Evaluate(context.Background(), v, &domorder.Coordinates{Latitude: 35.70, Longitude: 51.40})

	require.NoError(t, err)
	require.False(t, res.Serviceable)
}

func TestEvaluate_NeitherCapabilityNeverServiceable(t *testing.T) {
	repo := newMockVendorRepository()
	v := openVendor(1)
	v.SupportsInZoneDelivery = false
	v.SupportsOutOfZonePassthrough = false
	repo.vendors = append(repo.vendors, v)

	res, err := newTestService(repo, nil).Evaluate(context.Background(), v, &domorder.Coordinates{Latitude: 35.70, Longitude: 51.40})

	require.NoError(t, err)
	require.False(t, res.Serviceable)
}

func TestPickNearest_PrefersSmallestDistance(t *testing.T) {
	repo := newMockVendorRepository()
	far := openVendor(1)
	near := openVendor(2)
	repo.vendors = append(repo.vendors, far, near)
	repo.locations[1] = []domvendor.Location{
		{ID: 10, VendorID: 1, IsActive: true, Lat: fl(35.75), Lng: fl(51.45), ServiceRadiusM: 20000},
	}
	repo.locations[2] = []domvendor.Location{
		{ID: 20, VendorID: 2, IsActive: true, Lat: fl(35.701), Lng: fl(51.401), ServiceRadiusM: 20000},
	}

	v, res, err := newTestService(repo, nil).PickNearest(context.Background(), &domorder.Coordinates{Latitude: 35.70, Longitude: 51.40})

	require.NoError(t, err)
	require.NotNil(t, v)
	require.Equal(t, int64(2), v.ID)
	require.True(t, res.Serviceable)
}

func TestPickNearest_KnownDistanceBeatsUnknown(t *testing.T) {
	repo := newMockVendorRepository()
	unlocated := openVendor(1) // serviceable everywhere, but no distance
	located := openVendor(2)
	repo.vendors = append(repo.vendors, unlocated, located)
	repo.locations[2] = []domvendor.Location{
		{ID: 20, VendorID: 2, IsActive: true, Lat: fl(35.701), Lng: fl(51.401), ServiceRadiusM: 20000},
	}

	v, _, err := newTestService(repo, nil).PickNearest(context.Background(), &domorder.Coordinates{Latitude: 35.70, Longitude: 51.40})

	require.NoError(t, err)
	require.NotNil(t, v)
	require.Equal(t, int64(2), v.ID)
}

func TestPickNearest_NoCandidates(t *testing.T) {
	repo := newMockVendorRepository()
	v := openVendor(1)
	v.SupportsInZoneDelivery = false
	repo.vendors = append(repo.vendors, v)

	picked, res, err := newTestService(repo, nil).PickNearest(context.Background(), nil)

	require.NoError(t, err)
	require.Nil(t, picked)
	require.False(t, res.Serviceable)
}
