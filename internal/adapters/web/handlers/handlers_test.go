package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/switchmap/internal/core/domain"
)

type fakeStore struct {
	topo      domain.TopologyData
	neighbors map[int][]domain.SwitchNode
}

func (f *fakeStore) Topology(site string) domain.TopologyData { return f.topo }

func (f *fakeStore) Neighbors(switchID int) ([]domain.SwitchNode, []domain.LinkEdge, bool) {
	n, ok := f.neighbors[switchID]
	return n, nil, ok
}

type fakeInventory struct {
	switches []domain.SwitchNode
	log      []domain.DiscoveryEntry
	err      error
}

func (f *fakeInventory) Switches(ctx context.Context, site string) ([]domain.SwitchNode, error) {
	if f.err != nil {
		return nil, f.err
	}
	if site == "" {
		return f.switches, nil
	}
	var out []domain.SwitchNode
	for _, sw := range f.switches {
		if sw.SiteCode == site {
			out = append(out, sw)
		}
	}
	return out, nil
}

func (f *fakeInventory) DiscoveryLog(ctx context.Context, limit int) ([]domain.DiscoveryEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.log) {
		return f.log[:limit], nil
	}
	return f.log, nil
}

func TestHandleGetTopology(t *testing.T) {
	store := &fakeStore{topo: domain.TopologyData{
		Nodes: []domain.SwitchNode{{ID: 1, Hostname: "s3-core-01", SiteCode: "3"}},
	}}
	h := NewTopologyHandler(store, nil, time.Minute)

	req := httptest.NewRequest(http.MethodGet, "/api/topology?site=3", nil)
	w := httptest.NewRecorder()
	h.HandleGetTopology(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var got domain.TopologyData
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got.Nodes, 1)
	assert.Equal(t, "s3-core-01", got.Nodes[0].Hostname)
}

func TestHandleNeighbors(t *testing.T) {
	store := &fakeStore{neighbors: map[int][]domain.SwitchNode{
		7: {{ID: 8, Hostname: "s3-acc-08"}},
	}}
	h := &GraphHandler{Store: store}

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/graph/neighbors/7", nil), map[string]string{"id": "7"})
	w := httptest.NewRecorder()
	h.HandleNeighbors(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "s3-acc-08")
}

func TestHandleNeighborsUnknownSwitch(t *testing.T) {
	h := &GraphHandler{Store: &fakeStore{neighbors: map[int][]domain.SwitchNode{}}}

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/graph/neighbors/99", nil), map[string]string{"id": "99"})
	w := httptest.NewRecorder()
	h.HandleNeighbors(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleQueryMacRejectsGarbage(t *testing.T) {
	h := &GraphHandler{}

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/graph/mac/zz", nil), map[string]string{"mac": "not-a-mac"})
	w := httptest.NewRecorder()
	h.HandleQueryMac(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleListSwitchesFiltersBySite(t *testing.T) {
	inv := &fakeInventory{switches: []domain.SwitchNode{
		{ID: 1, Hostname: "s3-core-01", SiteCode: "3"},
		{ID: 2, Hostname: "s5-core-01", SiteCode: "5"},
	}}
	h := NewSwitchHandler(inv)

	req := httptest.NewRequest(http.MethodGet, "/api/switches?site=5", nil)
	w := httptest.NewRecorder()
	h.HandleList(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var got []domain.SwitchNode
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "s5-core-01", got[0].Hostname)
}

func TestHandleListSwitchesStorageError(t *testing.T) {
	h := NewSwitchHandler(&fakeInventory{err: errors.New("db locked")})

	req := httptest.NewRequest(http.MethodGet, "/api/switches", nil)
	w := httptest.NewRecorder()
	h.HandleList(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHandleDiscoveryLogLimit(t *testing.T) {
	inv := &fakeInventory{log: []domain.DiscoveryEntry{
		{SwitchID: 1, Success: true},
		{SwitchID: 2, Success: false},
	}}
	h := NewSwitchHandler(inv)

	req := httptest.NewRequest(http.MethodGet, "/api/discovery-log?limit=1", nil)
	w := httptest.NewRecorder()
	h.HandleDiscoveryLog(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var got []domain.DiscoveryEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Len(t, got, 1)

	req = httptest.NewRequest(http.MethodGet, "/api/discovery-log?limit=bogus", nil)
	w = httptest.NewRecorder()
	h.HandleDiscoveryLog(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
