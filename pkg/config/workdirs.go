package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ubinix-warun/suibase/pkg/types"
)

// WorkdirConfig is one entry of the transport catalog: which workdir, and
// which node endpoint its WebSocketWorker dials.
type WorkdirConfig struct {
	Idx      types.WorkdirIdx
	Name     string
	Endpoint string
}

// Catalog is the ordered, immutable-after-load list of workdirs the
// daemon manages.
type Catalog struct {
	Workdirs []WorkdirConfig
}

// fileFormat is the on-disk YAML shape.
//
//	enabled:
//	  - localnet
//	  - testnet
//	endpoints:
//	  testnet: wss://my-fullnode.example.com:443
type fileFormat struct {
	Enabled   []string          `yaml:"enabled"`
	Endpoints map[string]string `yaml:"endpoints"`
}

// DefaultCatalog returns the catalog the daemon falls back to when no
// config file is supplied: localnet only, at its well-known endpoint.
// Dialing devnet, testnet, or mainnet by default would reach a real
// network; those three workdirs must be explicitly enabled.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Workdirs: []WorkdirConfig{
			{
				Idx:      types.WorkdirIdxLocalnet,
				Name:     types.WorkdirIdxLocalnet.String(),
				Endpoint: types.DefaultEndpoints[types.WorkdirIdxLocalnet],
			},
		},
	}
}

// LoadCatalog reads a YAML catalog file. A workdir named in "enabled"
// uses its default endpoint unless overridden under "endpoints".
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read catalog %s: %w", path, err)
	}

	var ff fileFormat
	if err := yaml.Unmarshal(raw, &ff); err != nil {
		return nil, fmt.Errorf("config: parse catalog %s: %w", path, err)
	}

	if len(ff.Enabled) == 0 {
		return DefaultCatalog(), nil
	}

	cat := &Catalog{}
	for _, name := range ff.Enabled {
		idx, err := types.ParseWorkdirIdx(name)
		if err != nil {
			return nil, fmt.Errorf("config: catalog %s: %w", path, err)
		}
		endpoint := types.DefaultEndpoints[idx]
		if override, ok := ff.Endpoints[name]; ok && override != "" {
			endpoint = override
		}
		cat.Workdirs = append(cat.Workdirs, WorkdirConfig{
			Idx:      idx,
			Name:     name,
			Endpoint: endpoint,
		})
	}
	return cat, nil
}

// Lookup returns the entry for idx, if the catalog manages it.
func (c *Catalog) Lookup(idx types.WorkdirIdx) (WorkdirConfig, bool) {
	for _, wc := range c.Workdirs {
		if wc.Idx == idx {
			return wc, true
		}
	}
	return WorkdirConfig{}, false
}
