package enrich

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/directory-enrich/internal/model"
	"github.com/sells-group/directory-enrich/internal/publish"
	"github.com/sells-group/directory-enrich/internal/research"
	"github.com/sells-group/directory-enrich/pkg/geocode"
)

func strPtr(s string) *string { return &s }

type updateCall struct {
	id string
	u  model.RecordUpdate
}

type fakeStore struct {
	records   []model.Record
	updates   []updateCall
	failIDs   map[string]bool
	limits    []int
	selectErr error
	listErr   error
}

func (f *fakeStore) SelectIncomplete(_ context.Context, limit int) ([]model.Record, error) {
	f.limits = append(f.limits, limit)
	if f.selectErr != nil {
		return nil, f.selectErr
	}
	var out []model.Record
	for _, r := range f.records {
		if r.IsIncomplete() && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) ListRecords(context.Context) ([]model.Record, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.records, nil
}

func (f *fakeStore) UpdateByID(_ context.Context, id string, u model.RecordUpdate) error {
	if f.failIDs[id] {
		return errors.New("connection refused")
	}
	f.updates = append(f.updates, updateCall{id: id, u: u})
	return nil
}

type fakeGeocoder struct {
	coord *geocode.Coordinate
	calls []geocode.AddressInput
}

func (f *fakeGeocoder) Geocode(_ context.Context, addr geocode.AddressInput) *geocode.Coordinate {
	f.calls = append(f.calls, addr)
	return f.coord
}

func coordinate(lat, lng string) *geocode.Coordinate {
	return &geocode.Coordinate{Lat: json.Number(lat), Lng: json.Number(lng)}
}

type fakeResearcher struct {
	result *research.Result
	err    error
	items  [][]research.Item
}

func (f *fakeResearcher) Research(_ context.Context, items []research.Item) (*research.Result, error) {
	f.items = append(f.items, items)
	return f.result, f.err
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Name() string { return "mock" }

func (m *mockPublisher) Publish(ctx context.Context, sig publish.Signal) error {
	return m.Called(ctx, sig).Error(0)
}
