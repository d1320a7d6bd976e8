package plans

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Source loads a plan catalog at startup.
type Source interface {
	Load(ctx context.Context) (*Catalog, error)
}

// StaticSource serves a catalog built in code. Useful for tests and
// deployments where the catalog ships with the binary.
type StaticSource struct {
	PlanList  []Plan
	Fallbacks []Fallback
}

func (s StaticSource) Load(_ context.Context) (*Catalog, error) {
	return NewCatalog(s.PlanList, s.Fallbacks)
}

// FileSource loads the catalog from a YAML file:
//
//	plans:
//	  - price_id: pri_01h8xce4qhqfwqvqcd2rfk0j1v
//	    type: metered_subscription
//	    key_prefix: SUB
//	    site_limit: 5
//	fallbacks:
//	  - match: lifetime
//	    plan:
//	      type: perpetual
//	      key_prefix: LTD
//	      site_limit: -1
type FileSource struct {
	Path string
}

type catalogFile struct {
	Plans     []Plan     `yaml:"plans"`
	Fallbacks []Fallback `yaml:"fallbacks"`
}

func (s FileSource) Load(_ context.Context) (*Catalog, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Join(ErrFailedToLoadCatalog, ErrCatalogFileNotFound, err)
		}
		return nil, errors.Join(ErrFailedToLoadCatalog, err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Join(ErrFailedToLoadCatalog, fmt.Errorf("parse %s: %w", s.Path, err))
	}

	return NewCatalog(file.Plans, file.Fallbacks)
}
