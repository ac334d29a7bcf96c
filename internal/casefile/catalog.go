// Package casefile loads the case manifest, case definitions and suspect databases and validates that they can
// drive a game. Every problem found here is fatal: no playable state is produced from a broken document.
package casefile

import (
	"context"
	"encoding/json"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	"github.com/myrjola/gumshoe/internal/errors"
	"github.com/myrjola/gumshoe/internal/models"
	"gopkg.in/yaml.v3"
)

// DefaultManifestPath is where the manifest lives inside the data root.
const DefaultManifestPath = "cases-manifest.json"

var (
	ErrUnknownCase     = errors.NewSentinel("unknown case")
	ErrInvalidDocument = errors.NewSentinel("invalid document")
)

// Catalog holds every case listed in the manifest, loaded and validated.
type Catalog struct {
	manifest models.Manifest
	bundles  map[string]*Bundle
}

// Load reads the manifest at manifestPath from fsys and eagerly loads every listed case with its suspect database.
func Load(ctx context.Context, fsys fs.FS, manifestPath string, logger *slog.Logger) (*Catalog, error) {
	var (
		manifest models.Manifest
		err      error
	)
	if err = decode(fsys, manifestPath, &manifest); err != nil {
		return nil, errors.Wrap(err, "decode manifest", slog.String("path", manifestPath))
	}
	if err = validateManifest(manifest); err != nil {
		return nil, errors.Wrap(err, "validate manifest", slog.String("path", manifestPath))
	}
	if manifest.DefaultCaseID == "" {
		manifest.DefaultCaseID = manifest.Cases[0].ID
	}

	catalog := Catalog{
		manifest: manifest,
		bundles:  make(map[string]*Bundle, len(manifest.Cases)),
	}
	for _, entry := range manifest.Cases {
		if err = ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "load cancelled")
		}
		var bundle *Bundle
		if bundle, err = LoadBundle(fsys, entry); err != nil {
			return nil, errors.Wrap(err, "load case", slog.String("case_id", entry.ID))
		}
		catalog.bundles[entry.ID] = bundle
		logger.LogAttrs(ctx, slog.LevelDebug, "loaded case",
			slog.String("case_id", entry.ID),
			slog.Int("locations", len(bundle.Case.Locations)),
			slog.Int("suspects", len(bundle.Suspects.Suspects)))
	}

	return &catalog, nil
}

// Entries returns the manifest entries in manifest order.
func (c *Catalog) Entries() []models.ManifestEntry {
	return c.manifest.Cases
}

// DefaultID is the case started when the player has not picked one.
func (c *Catalog) DefaultID() string {
	return c.manifest.DefaultCaseID
}

// Bundle returns the loaded case with the given ID.
func (c *Catalog) Bundle(caseID string) (*Bundle, error) {
	bundle, ok := c.bundles[caseID]
	if !ok {
		return nil, errors.Wrap(ErrUnknownCase, "lookup case", slog.String("case_id", caseID))
	}
	return bundle, nil
}

// LoadBundle reads and validates one case definition and the suspect database it references.
func LoadBundle(fsys fs.FS, entry models.ManifestEntry) (*Bundle, error) {
	var (
		caseDef  models.Case
		suspects models.SuspectDatabase
		err      error
	)
	if err = decode(fsys, entry.Path, &caseDef); err != nil {
		return nil, errors.Wrap(err, "decode case", slog.String("path", entry.Path))
	}
	if caseDef.SuspectsData == "" {
		return nil, errors.Wrap(ErrInvalidDocument, "case has no suspectsData", slog.String("path", entry.Path))
	}
	if err = decode(fsys, caseDef.SuspectsData, &suspects); err != nil {
		return nil, errors.Wrap(err, "decode suspects", slog.String("path", caseDef.SuspectsData))
	}
	return NewBundle(entry, caseDef, suspects)
}

// decode unmarshals the document at name into v. Documents ending in .yaml or .yml are YAML, others JSON.
func decode(fsys fs.FS, name string, v any) error {
	name = cleanPath(name)
	content, err := fs.ReadFile(fsys, name)
	if err != nil {
		return errors.Wrap(err, "read file", slog.String("path", name))
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		if err = yaml.Unmarshal(content, v); err != nil {
			return errors.Wrap(errors.Join(ErrInvalidDocument, err), "parse YAML", slog.String("path", name))
		}
	default:
		if err = json.Unmarshal(content, v); err != nil {
			return errors.Wrap(errors.Join(ErrInvalidDocument, err), "parse JSON", slog.String("path", name))
		}
	}
	return nil
}

// cleanPath turns authored paths such as "./cases/a.json" or "/cases/a.json" into [fs.FS] paths.
func cleanPath(name string) string {
	return strings.TrimPrefix(path.Clean("/"+name), "/")
}
