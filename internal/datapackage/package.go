package datapackage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ecomigrate/internal/biosphere"
	"ecomigrate/internal/config"
	"ecomigrate/internal/reconcile"
	"ecomigrate/internal/textutil"
)

// ErrNothingToWrite is returned by sinks for a package without data.
var ErrNothingToWrite = errors.New("nothing to do: migration has no data")

// Mapping describes how the labels in a section address a database.
type Mapping struct {
	ExpressionLanguage string            `json:"expression language"`
	Labels             map[string]string `json:"labels"`
}

// Technosphere and biosphere label mappings for ecoSpold2 documents.
var (
	MappingEcoSpold2 = Mapping{
		ExpressionLanguage: "XPath",
		Labels: map[string]string{
			"name":              "//*:activity/*:activityName/text()",
			"location":          "//*:geography/*:shortname/text()",
			"reference product": "//*:intermediateExchange[*:outputGroup = '0' and @amount > 0]/*:name/text()",
			"unit":              "//*:intermediateExchange[*:outputGroup = '0' and @amount > 0]/*:unitName/text()",
		},
	}
	MappingEcoSpold2Biosphere = Mapping{
		ExpressionLanguage: "XPath",
		Labels: map[string]string{
			"name": "//*:elementaryExchange/*:name/text()",
			"unit": "//*:elementaryExchange/*:unitName/text()",
			"uuid": "//*:elementaryExchange/@elementaryExchangeId",
		},
	}
)

// Contributor is a datapackage contributor entry.
type Contributor struct {
	Title string   `json:"title"`
	Path  string   `json:"path,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// Mappings pairs the source and target label mappings.
type Mappings struct {
	Source Mapping `json:"source"`
	Target Mapping `json:"target"`
}

// Package is a migration datapackage document. Sections without data are
// left nil so they disappear from the encoded document.
type Package struct {
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	Version      string           `json:"version"`
	Homepage     string           `json:"homepage,omitempty"`
	Created      string           `json:"created"`
	Licenses     []config.License `json:"licenses"`
	Contributors []Contributor    `json:"contributors"`
	SourceID     string           `json:"source_id"`
	TargetID     string           `json:"target_id"`
	Mapping      Mappings         `json:"mapping"`

	Replace      json.RawMessage `json:"replace,omitempty"`
	Disaggregate json.RawMessage `json:"disaggregate,omitempty"`
	Delete       json.RawMessage `json:"delete,omitempty"`

	counts map[string]int
}

// Metadata carries the descriptive fields shared by both package kinds.
type Metadata struct {
	SourceID    string
	TargetID    string
	Description string
	Output      config.Output
	// AppVersion is named in the default description.
	AppVersion string
	Created    time.Time
}

func newPackage(meta Metadata, mapping Mapping) *Package {
	created := meta.Created
	if created.IsZero() {
		created = time.Now()
	}
	description := meta.Description
	if description == "" {
		description = meta.Output.Description
	}
	if description == "" {
		description = fmt.Sprintf("Data migration file from %s to %s generated with ecomigrate version %s",
			meta.SourceID, meta.TargetID, textutil.Ternary(meta.AppVersion == "", "dev", meta.AppVersion))
	}
	contributors := make([]Contributor, 0, len(meta.Output.Contributors))
	for _, c := range meta.Output.Contributors {
		var roles []string
		if c.Role != "" {
			roles = []string{c.Role}
		}
		contributors = append(contributors, Contributor{Title: c.Title, Path: c.Path, Roles: roles})
	}
	return &Package{
		Name:         meta.SourceID + "-" + meta.TargetID,
		Description:  description,
		Version:      meta.Output.Version,
		Homepage:     meta.Output.Homepage,
		Created:      created.UTC().Format(time.RFC3339),
		Licenses:     append([]config.License(nil), meta.Output.Licenses...),
		Contributors: contributors,
		SourceID:     meta.SourceID,
		TargetID:     meta.TargetID,
		Mapping:      Mappings{Source: mapping, Target: mapping},
		counts:       make(map[string]int),
	}
}

// NewTechnosphere builds the package for a technosphere result.
func NewTechnosphere(meta Metadata, res reconcile.Result) (*Package, error) {
	pkg := newPackage(meta, MappingEcoSpold2)
	if err := pkg.setSection(&pkg.Replace, "replace", len(res.Replace), res.Replace); err != nil {
		return nil, err
	}
	if err := pkg.setSection(&pkg.Disaggregate, "disaggregate", len(res.Disaggregate), res.Disaggregate); err != nil {
		return nil, err
	}
	return pkg, nil
}

// NewBiosphere builds the package for a biosphere result.
func NewBiosphere(meta Metadata, res biosphere.Result) (*Package, error) {
	pkg := newPackage(meta, MappingEcoSpold2Biosphere)
	if err := pkg.setSection(&pkg.Replace, "replace", len(res.Replace), res.Replace); err != nil {
		return nil, err
	}
	if err := pkg.setSection(&pkg.Delete, "delete", len(res.Delete), res.Delete); err != nil {
		return nil, err
	}
	return pkg, nil
}

func (p *Package) setSection(dst *json.RawMessage, name string, n int, data any) error {
	if n == 0 {
		return nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s section: %w", name, err)
	}
	*dst = raw
	p.counts[name] = n
	return nil
}

// Empty reports whether no section carries data.
func (p *Package) Empty() bool {
	return p == nil || (len(p.Replace) == 0 && len(p.Disaggregate) == 0 && len(p.Delete) == 0)
}

// Counts returns the number of entries per non-empty section.
func (p *Package) Counts() map[string]int {
	out := make(map[string]int, len(p.counts))
	for k, v := range p.counts {
		out[k] = v
	}
	return out
}

// Filename returns the file or object name the package is stored under.
func (p *Package) Filename() string {
	return textutil.SanitizeFileName(p.SourceID+"-"+p.TargetID) + ".json"
}

// Encode renders the package as indented JSON.
func (p *Package) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode datapackage: %w", err)
	}
	return append(data, '\n'), nil
}
