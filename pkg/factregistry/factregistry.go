// Package factregistry loads Imbi project fact type definitions and
// validates fact values against them (C11), grounded on
// fact_registry.py. Definitions are cached to disk for a fixed 24h TTL
// under the process temp directory rather than the original's
// home-directory cache file, per an Open Question decision recorded in
// DESIGN.md.
package factregistry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/AWeber-Imbi/imbi-automations/pkg/logger"
	"github.com/AWeber-Imbi/imbi-automations/pkg/model"
)

const cacheTTL = 24 * time.Hour

var log = logger.ForComponent("factregistry")

// FactKind mirrors fact_type.py's three validation modes.
const (
	KindEnum     = "enum"
	KindRange    = "range"
	KindFreeForm = "free-form"
)

// FactTypeDefinition is a single fact type's validation rule set.
type FactTypeDefinition struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`
	Slug          string   `json:"slug"`
	Kind          string   `json:"fact_type"`
	ProjectTypeIDs []int   `json:"project_type_ids"`
	EnumValues    []string `json:"enum_values,omitempty"`
	MinValue      *float64 `json:"min_value,omitempty"`
	MaxValue      *float64 `json:"max_value,omitempty"`
}

// ValidateValue applies this definition's fact_type rule to value,
// returning an error describing the violation if any.
func (d FactTypeDefinition) ValidateValue(value string) error {
	switch d.Kind {
	case KindEnum:
		if len(d.EnumValues) == 0 {
			return fmt.Errorf("fact %q: enum values not loaded", d.Name)
		}
		for _, v := range d.EnumValues {
			if v == value {
				return nil
			}
		}
		return fmt.Errorf("fact %q: value must be one of: %s", d.Name, strings.Join(d.EnumValues, ", "))
	case KindRange:
		if d.MinValue == nil || d.MaxValue == nil {
			return fmt.Errorf("fact %q: range bounds not defined", d.Name)
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("fact %q: value must be numeric: %w", d.Name, err)
		}
		if f < *d.MinValue || f > *d.MaxValue {
			return fmt.Errorf("fact %q: value must be between %g and %g", d.Name, *d.MinValue, *d.MaxValue)
		}
		return nil
	default:
		return nil
	}
}

// Imbi is the subset of registry.Imbi the registry loads reference data
// from.
type Imbi interface {
	GetProjectTypes(ctx context.Context) ([]model.ProjectType, error)
	GetProjectFactTypes(ctx context.Context) ([]model.ProjectFactType, error)
	GetProjectFactTypeEnums(ctx context.Context) ([]model.ProjectFactTypeEnum, error)
	GetProjectFactTypeRanges(ctx context.Context) ([]model.ProjectFactTypeRange, error)
}

// Registry holds fact type definitions indexed for lookup by name or
// slug, plus the set of known project type slugs.
type Registry struct {
	bySlug           map[string][]FactTypeDefinition
	ProjectTypeSlugs map[string]struct{}

	hostname  string
	cachePath string
}

type cacheFile struct {
	Version          int                   `json:"version"`
	Hostname         string                `json:"hostname"`
	CachedAt         time.Time             `json:"cached_at"`
	ProjectTypeSlugs []string              `json:"project_type_slugs"`
	FactTypes        []FactTypeDefinition  `json:"fact_types"`
}

// Load builds a Registry, preferring a fresh disk cache over a round
// trip to the Imbi API. useCache false forces a reload.
func Load(ctx context.Context, client Imbi, hostname string, useCache bool) (*Registry, error) {
	r := &Registry{
		bySlug:           map[string][]FactTypeDefinition{},
		ProjectTypeSlugs: map[string]struct{}{},
		hostname:         hostname,
		cachePath:        filepath.Join(os.TempDir(), "imbi-automations", "fact-cache.json"),
	}

	if useCache {
		if cached, err := r.loadFromCache(); err == nil && cached {
			log.Printf("loaded fact types from cache")
			return r, nil
		}
	}

	if err := r.loadFromAPI(ctx, client); err != nil {
		return nil, fmt.Errorf("factregistry: load from api: %w", err)
	}
	if err := r.saveToCache(); err != nil {
		log.Printf("failed to write fact cache: %v", err)
	}
	return r, nil
}

func (r *Registry) loadFromCache() (bool, error) {
	data, err := os.ReadFile(r.cachePath)
	if err != nil {
		return false, err
	}
	var cf cacheFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return false, err
	}
	if cf.Hostname != r.hostname {
		return false, nil
	}
	if time.Since(cf.CachedAt) >= cacheTTL {
		return false, nil
	}
	for _, slug := range cf.ProjectTypeSlugs {
		r.ProjectTypeSlugs[slug] = struct{}{}
	}
	for _, fact := range cf.FactTypes {
		r.register(fact)
	}
	return true, nil
}

func (r *Registry) saveToCache() error {
	if err := os.MkdirAll(filepath.Dir(r.cachePath), 0o755); err != nil {
		return err
	}
	facts := r.all()
	slugs := make([]string, 0, len(r.ProjectTypeSlugs))
	for slug := range r.ProjectTypeSlugs {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	cf := cacheFile{
		Version:          1,
		Hostname:         r.hostname,
		CachedAt:         time.Now().UTC(),
		ProjectTypeSlugs: slugs,
		FactTypes:        facts,
	}
	data, err := json.MarshalIndent(cf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.cachePath, data, 0o644)
}

func (r *Registry) loadFromAPI(ctx context.Context, client Imbi) error {
	projectTypes, err := client.GetProjectTypes(ctx)
	if err != nil {
		return fmt.Errorf("get project types: %w", err)
	}
	for _, pt := range projectTypes {
		r.ProjectTypeSlugs[pt.Slug] = struct{}{}
	}

	factTypes, err := client.GetProjectFactTypes(ctx)
	if err != nil {
		return fmt.Errorf("get fact types: %w", err)
	}
	enums, err := client.GetProjectFactTypeEnums(ctx)
	if err != nil {
		return fmt.Errorf("get fact type enums: %w", err)
	}
	ranges, err := client.GetProjectFactTypeRanges(ctx)
	if err != nil {
		return fmt.Errorf("get fact type ranges: %w", err)
	}

	enumsByType := map[int][]string{}
	for _, e := range enums {
		enumsByType[e.FactTypeID] = append(enumsByType[e.FactTypeID], e.Value)
	}
	rangesByType := map[int]model.ProjectFactTypeRange{}
	for _, rg := range ranges {
		rangesByType[rg.FactTypeID] = rg
	}

	for _, ft := range factTypes {
		def := FactTypeDefinition{
			ID:   ft.ID,
			Name: ft.Name,
			Slug: NormalizeName(ft.Name),
			Kind: ft.Kind,
		}
		if vals, ok := enumsByType[ft.ID]; ok {
			def.EnumValues = vals
		}
		if rg, ok := rangesByType[ft.ID]; ok {
			min, max := rg.MinValue, rg.MaxValue
			def.MinValue, def.MaxValue = &min, &max
		}
		r.register(def)
	}
	log.Printf("loaded %d fact types from imbi api", len(r.all()))
	return nil
}

func (r *Registry) register(def FactTypeDefinition) {
	r.bySlug[def.Slug] = append(r.bySlug[def.Slug], def)
}

func (r *Registry) all() []FactTypeDefinition {
	var out []FactTypeDefinition
	for _, defs := range r.bySlug {
		out = append(out, defs...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// NormalizeName maps a fact display name to its slug form.
func NormalizeName(name string) string {
	s := strings.ToLower(name)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}

// Get returns the first fact type definition matching name or slug.
func (r *Registry) Get(nameOrSlug string) (FactTypeDefinition, bool) {
	defs := r.GetAll(nameOrSlug)
	if len(defs) == 0 {
		return FactTypeDefinition{}, false
	}
	return defs[0], true
}

// GetAll returns every fact type definition matching name or slug
// (multiple project types can share a fact name under different ids).
func (r *Registry) GetAll(nameOrSlug string) []FactTypeDefinition {
	return r.bySlug[NormalizeName(nameOrSlug)]
}

// ValidateValue validates value against the named fact's rules.
func (r *Registry) ValidateValue(factName, value string) error {
	def, ok := r.Get(factName)
	if !ok {
		return fmt.Errorf("factregistry: unknown fact type %q", factName)
	}
	return def.ValidateValue(value)
}
