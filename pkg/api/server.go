package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ubinix-warun/suibase/pkg/config"
	"github.com/ubinix-warun/suibase/pkg/log"
	"github.com/ubinix-warun/suibase/pkg/metrics"
	"github.com/ubinix-warun/suibase/pkg/types"
	"github.com/ubinix-warun/suibase/pkg/wsworker"
)

// StatsFunc returns the current connection/tracker stats for one workdir by
// name, or ok=false if no WebSocketWorker has been started for it yet.
type StatsFunc func(workdirName string) (stats wsworker.Stats, ok bool)

// Server is suibased's HTTP surface.
type Server struct {
	catalog *config.Catalog
	store   *config.Store
	statsOf StatsFunc
	mux     *http.ServeMux
	logger  zerolog.Logger
}

// NewServer builds the HTTP surface. statsOf is consulted by /readyz and
// the packages dump endpoint; pass a function that reads from whatever
// holds the live *wsworker.Worker pointers (they can be replaced by
// pkg/supervisor on restart, so callers should guard their own lookup).
func NewServer(catalog *config.Catalog, store *config.Store, statsOf StatsFunc) *Server {
	s := &Server{
		catalog: catalog,
		store:   store,
		statsOf: statsOf,
		mux:     http.NewServeMux(),
		logger:  log.WithComponent("api"),
	}

	s.mux.HandleFunc("/healthz", s.healthHandler)
	s.mux.HandleFunc("/readyz", s.readyHandler)
	s.mux.Handle("/metrics", metrics.Handler())
	s.mux.HandleFunc("GET /workdirs/{name}/packages", s.listPackagesHandler)
	s.mux.HandleFunc("POST /workdirs/{name}/packages", s.addPackageHandler)
	s.mux.HandleFunc("DELETE /workdirs/{name}/packages/{id}", s.removePackageHandler)

	return s
}

// Handler returns the HTTP handler, for embedding or testing.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves the HTTP surface on addr until the process exits or the
// listener errors.
func (s *Server) Start(addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	s.logger.Info().Str("addr", addr).Msg("HTTP API listening")
	return server.ListenAndServe()
}

func (s *Server) workdirByName(name string) (types.WorkdirIdx, bool) {
	idx, err := types.ParseWorkdirIdx(name)
	if err != nil {
		return 0, false
	}
	if _, ok := s.catalog.Lookup(idx); !ok {
		return 0, false
	}
	return idx, true
}

type packageView struct {
	PackageID        string `json:"package_id"`
	PackageUUID      string `json:"package_uuid"`
	PackageName      string `json:"package_name"`
	PackageTimestamp string `json:"package_timestamp"`
}

type packagesResponse struct {
	Packages []packageView   `json:"packages"`
	Stats    *wsworker.Stats `json:"stats,omitempty"`
}

func (s *Server) listPackagesHandler(w http.ResponseWriter, r *http.Request) {
	idx, ok := s.workdirByName(r.PathValue("name"))
	if !ok {
		http.Error(w, "unknown workdir", http.StatusNotFound)
		return
	}

	instances := s.store.DesiredSet(idx).IterMostRecentPackageInstance()
	resp := packagesResponse{Packages: make([]packageView, 0, len(instances))}
	for _, pkg := range instances {
		resp.Packages = append(resp.Packages, packageView{
			PackageID:        pkg.PackageID,
			PackageUUID:      pkg.PackageUUID,
			PackageName:      pkg.PackageName,
			PackageTimestamp: pkg.PackageTimestamp,
		})
	}
	if stats, ok := s.statsOf(r.PathValue("name")); ok {
		resp.Stats = &stats
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) addPackageHandler(w http.ResponseWriter, r *http.Request) {
	idx, ok := s.workdirByName(r.PathValue("name"))
	if !ok {
		http.Error(w, "unknown workdir", http.StatusNotFound)
		return
	}

	var body packageView
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	if body.PackageID == "" || body.PackageUUID == "" {
		http.Error(w, "package_id and package_uuid are required", http.StatusBadRequest)
		return
	}

	added := s.store.DesiredSet(idx).AddInstance(types.PackageIdentity{
		PackageID:        body.PackageID,
		PackageUUID:      body.PackageUUID,
		PackageName:      body.PackageName,
		PackageTimestamp: body.PackageTimestamp,
	})

	s.logger.Info().Str("workdir", r.PathValue("name")).Str("package_uuid", body.PackageUUID).Bool("added", added).Msg("package added to desired set")
	writeJSON(w, http.StatusAccepted, map[string]bool{"added": added})
}

func (s *Server) removePackageHandler(w http.ResponseWriter, r *http.Request) {
	idx, ok := s.workdirByName(r.PathValue("name"))
	if !ok {
		http.Error(w, "unknown workdir", http.StatusNotFound)
		return
	}

	uuid := r.PathValue("id")
	s.store.DesiredSet(idx).RemoveUUID(uuid)
	s.logger.Info().Str("workdir", r.PathValue("name")).Str("package_uuid", uuid).Msg("package removed from desired set")
	w.WriteHeader(http.StatusNoContent)
}
