package patches

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"ecomigrate/internal/logging"
	"ecomigrate/internal/reconcile"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// OriginBuiltin labels patches shipped with the binary.
const OriginBuiltin = "builtin"

// Set is the patch list for one release pair.
type Set struct {
	SourceVersion string
	TargetVersion string
	Additive      []reconcile.AdditivePatch
	Corrective    []reconcile.CorrectivePatch
	// Origins holds where each patch came from, additive patches first.
	Origins []string
}

// Len returns the number of patches in the set.
func (s Set) Len() int { return len(s.Additive) + len(s.Corrective) }

type fileYAML struct {
	SourceVersion string           `yaml:"source_version"`
	TargetVersion string           `yaml:"target_version"`
	Additive      []additiveYAML   `yaml:"additive"`
	Corrective    []correctiveYAML `yaml:"corrective"`
}

type additiveYAML struct {
	Source  map[string]string   `yaml:"source"`
	Target  map[string]string   `yaml:"target"`
	Targets []map[string]string `yaml:"targets"`
	Comment string              `yaml:"comment"`
}

type correctiveYAML struct {
	Source  map[string]string `yaml:"source"`
	Target  map[string]string `yaml:"target"`
	Context string            `yaml:"context"`
	Comment string            `yaml:"comment"`
}

// FileName returns the patch file name for a release pair.
func FileName(source, target string) string {
	return source + "_" + target + ".yaml"
}

// Parse decodes a patch document. Field maps may use either the output
// labels (name, location, reference product, unit) or the catalog labels
// (activity_name, geography, product_name, unit).
func Parse(data []byte, origin string) (Set, error) {
	var doc fileYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Set{}, fmt.Errorf("parsing %s: %w", origin, err)
	}
	set := Set{SourceVersion: doc.SourceVersion, TargetVersion: doc.TargetVersion}

	for i, raw := range doc.Additive {
		patch, err := raw.patch()
		if err != nil {
			return Set{}, fmt.Errorf("%s: additive patch %d: %w", origin, i+1, err)
		}
		set.Additive = append(set.Additive, patch)
		set.Origins = append(set.Origins, origin)
	}
	for i, raw := range doc.Corrective {
		patch, err := raw.patch()
		if err != nil {
			return Set{}, fmt.Errorf("%s: corrective patch %d: %w", origin, i+1, err)
		}
		set.Corrective = append(set.Corrective, patch)
		set.Origins = append(set.Origins, origin)
	}
	return set, nil
}

func (a additiveYAML) patch() (reconcile.AdditivePatch, error) {
	source, err := reconcile.RecordFromFields(a.Source)
	if err != nil {
		return reconcile.AdditivePatch{}, fmt.Errorf("source: %w", err)
	}
	out := reconcile.AdditivePatch{Source: source, Comment: strings.TrimSpace(a.Comment)}
	switch {
	case len(a.Target) > 0 && len(a.Targets) > 0:
		return reconcile.AdditivePatch{}, errors.New("only one of target and targets may be set")
	case len(a.Target) > 0:
		if out.Target, err = delta(a.Target); err != nil {
			return reconcile.AdditivePatch{}, fmt.Errorf("target: %w", err)
		}
	case len(a.Targets) > 0:
		for i, fields := range a.Targets {
			d, err := delta(fields)
			if err != nil {
				return reconcile.AdditivePatch{}, fmt.Errorf("target %d: %w", i+1, err)
			}
			out.Targets = append(out.Targets, d)
		}
	default:
		return reconcile.AdditivePatch{}, errors.New("target or targets is required")
	}
	return out, nil
}

func (c correctiveYAML) patch() (reconcile.CorrectivePatch, error) {
	source, err := reconcile.RecordFromFields(c.Source)
	if err != nil {
		return reconcile.CorrectivePatch{}, fmt.Errorf("source: %w", err)
	}
	target, err := delta(c.Target)
	if err != nil {
		return reconcile.CorrectivePatch{}, fmt.Errorf("target: %w", err)
	}
	ctx, err := reconcile.ParseContext(strings.TrimSpace(c.Context))
	if err != nil {
		return reconcile.CorrectivePatch{}, err
	}
	return reconcile.CorrectivePatch{
		Source:  source,
		Target:  target,
		Context: ctx,
		Comment: strings.TrimSpace(c.Comment),
	}, nil
}

func delta(fields map[string]string) (reconcile.Delta, error) {
	d, err := reconcile.DeltaFromFields(fields)
	if err != nil {
		return reconcile.Delta{}, err
	}
	if d.Empty() {
		return reconcile.Delta{}, errors.New("no fields to change")
	}
	return d, nil
}

// Builtin returns the shipped patches for a release pair. ok is false when
// none exist.
func Builtin(source, target string) (set Set, ok bool, err error) {
	name := path.Join("builtin", FileName(source, target))
	data, err := builtinFS.ReadFile(name)
	if errors.Is(err, fs.ErrNotExist) {
		return Set{SourceVersion: source, TargetVersion: target}, false, nil
	}
	if err != nil {
		return Set{}, false, fmt.Errorf("read builtin patches: %w", err)
	}
	set, err = Parse(data, OriginBuiltin)
	if err != nil {
		return Set{}, false, err
	}
	return set, true, nil
}

// BuiltinPairs lists the release pairs with shipped patches as
// "source_target" names.
func BuiltinPairs() []string {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil
	}
	pairs := make([]string, 0, len(entries))
	for _, entry := range entries {
		pairs = append(pairs, strings.TrimSuffix(entry.Name(), ".yaml"))
	}
	sort.Strings(pairs)
	return pairs
}

// LoadFile reads a user patch file.
func LoadFile(filePath string) (Set, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return Set{}, fmt.Errorf("reading %s: %w", filePath, err)
	}
	return Parse(data, filePath)
}

// Load returns the builtin patches for the release pair followed by the
// patches in dir, if dir holds a file for the pair. A user file naming a
// different release pair is rejected.
func Load(dir, source, target string, logger *slog.Logger) (Set, error) {
	logger = logging.NewComponentLogger(logger, "patches")
	set, _, err := Builtin(source, target)
	if err != nil {
		return Set{}, err
	}
	if dir == "" {
		return set, nil
	}

	userPath := filepath.Join(dir, FileName(source, target))
	if _, err := os.Stat(userPath); errors.Is(err, fs.ErrNotExist) {
		logger.Debug("no user patch file", logging.String(logging.FieldPath, userPath))
		return set, nil
	}
	user, err := LoadFile(userPath)
	if err != nil {
		return Set{}, err
	}
	if (user.SourceVersion != "" && user.SourceVersion != source) || (user.TargetVersion != "" && user.TargetVersion != target) {
		return Set{}, fmt.Errorf("%s declares versions %s to %s, expected %s to %s",
			userPath, user.SourceVersion, user.TargetVersion, source, target)
	}
	logger.Info("loaded user patches",
		logging.String(logging.FieldPath, userPath),
		logging.Int("additive", len(user.Additive)),
		logging.Int("corrective", len(user.Corrective)),
	)
	return merge(set, user), nil
}

func merge(base, extra Set) Set {
	out := Set{SourceVersion: base.SourceVersion, TargetVersion: base.TargetVersion}
	out.Additive = append(append(out.Additive, base.Additive...), extra.Additive...)
	out.Corrective = append(append(out.Corrective, base.Corrective...), extra.Corrective...)
	nb := len(base.Additive)
	ne := len(extra.Additive)
	out.Origins = append(out.Origins, base.Origins[:nb]...)
	out.Origins = append(out.Origins, extra.Origins[:ne]...)
	out.Origins = append(out.Origins, base.Origins[nb:]...)
	out.Origins = append(out.Origins, extra.Origins[ne:]...)
	return out
}

// Entry is a flattened patch description for listings.
type Entry struct {
	Kind    string `json:"kind"`
	Context string `json:"context,omitempty"`
	Source  string `json:"source"`
	Change  string `json:"change"`
	Comment string `json:"comment,omitempty"`
	Origin  string `json:"origin"`
}

// Entries describes every patch in the set in application order.
func (s Set) Entries() []Entry {
	out := make([]Entry, 0, s.Len())
	for i, p := range s.Additive {
		change := p.Target.String()
		kind := "additive"
		if len(p.Targets) > 0 {
			kind = "disaggregate"
			change = fmt.Sprintf("%d targets", len(p.Targets))
		}
		out = append(out, Entry{Kind: kind, Source: p.Source.String(), Change: change, Comment: p.Comment, Origin: s.origin(i)})
	}
	for i, p := range s.Corrective {
		out = append(out, Entry{
			Kind:    "corrective",
			Context: string(p.Context),
			Source:  p.Source.String(),
			Change:  p.Target.String(),
			Comment: p.Comment,
			Origin:  s.origin(len(s.Additive) + i),
		})
	}
	return out
}

func (s Set) origin(i int) string {
	if i < len(s.Origins) {
		return s.Origins[i]
	}
	return ""
}
