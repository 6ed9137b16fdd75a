package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubinix-warun/suibase/pkg/config"
	"github.com/ubinix-warun/suibase/pkg/types"
	"github.com/ubinix-warun/suibase/pkg/wsworker"
)

func newTestServer(t *testing.T, statsOf StatsFunc) (*Server, *config.Store) {
	t.Helper()
	catalog := config.DefaultCatalog()
	store := config.NewStore(catalog)
	if statsOf == nil {
		statsOf = func(string) (wsworker.Stats, bool) { return wsworker.Stats{}, false }
	}
	return NewServer(catalog, store, statsOf), store
}

func TestHealthzAlwaysHealthy(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzNotReadyWithoutConnectedWorker(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReadyzReadyWhenAllWorkdirsConnected(t *testing.T) {
	srv, _ := newTestServer(t, func(string) (wsworker.Stats, bool) {
		return wsworker.Stats{Connected: true}, true
	})

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAddAndListPackages(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	body, _ := json.Marshal(packageView{PackageID: "abc123", PackageUUID: "u1", PackageName: "pkg", PackageTimestamp: "1"})
	req := httptest.NewRequest(http.MethodPost, "/workdirs/localnet/packages", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/workdirs/localnet/packages", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp packagesResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Packages, 1)
	assert.Equal(t, "u1", resp.Packages[0].PackageUUID)
}

func TestRemovePackage(t *testing.T) {
	srv, store := newTestServer(t, nil)
	store.DesiredSet(types.WorkdirIdxLocalnet).AddInstance(types.PackageIdentity{PackageID: "abc123", PackageUUID: "u1", PackageName: "pkg", PackageTimestamp: "1"})

	req := httptest.NewRequest(http.MethodDelete, "/workdirs/localnet/packages/u1", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	assert.Empty(t, store.DesiredSet(types.WorkdirIdxLocalnet).IterMostRecentPackageInstance())
}

func TestUnknownWorkdirReturnsNotFound(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/workdirs/mainnet/packages", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddPackageRejectsMissingFields(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	body, _ := json.Marshal(packageView{PackageName: "pkg"})
	req := httptest.NewRequest(http.MethodPost, "/workdirs/localnet/packages", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
