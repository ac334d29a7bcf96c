package casefile

import (
	"log/slog"

	"github.com/myrjola/gumshoe/internal/errors"
	"github.com/myrjola/gumshoe/internal/models"
)

// Bundle is a validated case definition together with its suspect database and the lookup maps the engine needs.
// A Bundle is immutable and safe to share between sessions.
type Bundle struct {
	Entry    models.ManifestEntry
	Case     models.Case
	Suspects models.SuspectDatabase

	locations map[string]int
	fields    map[string]int
	suspects  map[string]int
}

// NewBundle validates caseDef and suspects and indexes them.
func NewBundle(entry models.ManifestEntry, caseDef models.Case, suspects models.SuspectDatabase) (*Bundle, error) {
	if err := Validate(caseDef, suspects); err != nil {
		return nil, errors.Wrap(err, "validate case", slog.String("case_id", entry.ID))
	}

	b := Bundle{
		Entry:     entry,
		Case:      caseDef,
		Suspects:  suspects,
		locations: make(map[string]int, len(caseDef.Locations)),
		fields:    make(map[string]int, len(suspects.Fields)),
		suspects:  make(map[string]int, len(suspects.Suspects)),
	}
	for i, location := range caseDef.Locations {
		b.locations[location.ID] = i
	}
	for i, field := range suspects.Fields {
		b.fields[field.ID] = i
	}
	for i, suspect := range suspects.Suspects {
		b.suspects[suspect.ID] = i
	}
	return &b, nil
}

// ID is the manifest ID of the case.
func (b *Bundle) ID() string {
	return b.Entry.ID
}

func (b *Bundle) Location(id string) (models.Location, bool) {
	i, ok := b.locations[id]
	if !ok {
		return models.Location{}, false //nolint:exhaustruct // zero value signals absence.
	}
	return b.Case.Locations[i], true
}

func (b *Bundle) Field(id string) (models.EvidenceField, bool) {
	i, ok := b.fields[id]
	if !ok {
		return models.EvidenceField{}, false //nolint:exhaustruct // zero value signals absence.
	}
	return b.Suspects.Fields[i], true
}

func (b *Bundle) Suspect(id string) (models.Suspect, bool) {
	i, ok := b.suspects[id]
	if !ok {
		return models.Suspect{}, false //nolint:exhaustruct // zero value signals absence.
	}
	return b.Suspects.Suspects[i], true
}

// FinalStop is the index of the last route entry.
func (b *Bundle) FinalStop() int {
	return len(b.Case.Route) - 1
}
