package casefile

import (
	"log/slog"

	"github.com/myrjola/gumshoe/internal/errors"
	"github.com/myrjola/gumshoe/internal/models"
)

func validateManifest(manifest models.Manifest) error {
	if len(manifest.Cases) == 0 {
		return errors.Wrap(ErrInvalidDocument, "manifest lists no cases")
	}
	var (
		problems []error
		seen     = make(map[string]bool, len(manifest.Cases))
	)
	for _, entry := range manifest.Cases {
		switch {
		case entry.ID == "":
			problems = append(problems, errors.New("case entry without id", slog.String("path", entry.Path)))
		case seen[entry.ID]:
			problems = append(problems, errors.New("duplicate case id", slog.String("case_id", entry.ID)))
		case entry.Path == "":
			problems = append(problems, errors.New("case entry without path", slog.String("case_id", entry.ID)))
		}
		seen[entry.ID] = true
	}
	if manifest.DefaultCaseID != "" && !seen[manifest.DefaultCaseID] {
		problems = append(problems, errors.New("default case is not listed",
			slog.String("case_id", manifest.DefaultCaseID)))
	}
	return invalid(problems)
}

// Validate reports every structural problem that would leave a case unplayable.
func Validate(caseDef models.Case, suspects models.SuspectDatabase) error {
	var problems []error
	problems = append(problems, validateSuspects(suspects)...)

	if caseDef.Title == "" {
		problems = append(problems, errors.New("case has no title"))
	}
	if caseDef.Settings.DeadlineHours <= 0 {
		problems = append(problems, errors.New("deadlineHours must be positive",
			slog.Int("deadline_hours", caseDef.Settings.DeadlineHours)))
	}
	for key, cost := range caseDef.Settings.ActionCosts {
		if cost < 0 {
			problems = append(problems, errors.New("negative action cost",
				slog.String("action", key), slog.Int("hours", cost)))
		}
	}

	locationIDs := make(map[string]bool, len(caseDef.Locations))
	for _, location := range caseDef.Locations {
		if location.ID == "" {
			problems = append(problems, errors.New("location without id", slog.String("name", location.Name)))
			continue
		}
		if locationIDs[location.ID] {
			problems = append(problems, errors.New("duplicate location id", slog.String("location_id", location.ID)))
		}
		locationIDs[location.ID] = true
		for _, option := range location.TravelOptions {
			if option.To == "" {
				problems = append(problems, errors.New("travel option without destination",
					slog.String("location_id", location.ID), slog.String("label", option.Label)))
			}
			if option.Hours < 0 {
				problems = append(problems, errors.New("negative travel hours",
					slog.String("location_id", location.ID), slog.String("to", option.To)))
			}
		}
	}

	if len(caseDef.Route) == 0 {
		problems = append(problems, errors.New("route is empty"))
	}
	stops := make(map[string]bool, len(caseDef.Route))
	for i, stop := range caseDef.Route {
		if !locationIDs[stop] {
			problems = append(problems, errors.New("route references unknown location",
				slog.Int("route_index", i), slog.String("location_id", stop)))
		}
		if stops[stop] {
			problems = append(problems, errors.New("duplicate route stop",
				slog.Int("route_index", i), slog.String("location_id", stop)))
		}
		stops[stop] = true
	}

	culpritFound := false
	for _, suspect := range suspects.Suspects {
		if suspect.ID == caseDef.SuspectID {
			culpritFound = true
			break
		}
	}
	if !culpritFound {
		problems = append(problems, errors.New("culprit is not in the suspect database",
			slog.String("suspect_id", caseDef.SuspectID)))
	}

	return invalid(problems)
}

func validateSuspects(suspects models.SuspectDatabase) []error {
	var problems []error
	fieldIDs := make(map[string]bool, len(suspects.Fields))
	for _, field := range suspects.Fields {
		if field.ID == "" || fieldIDs[field.ID] {
			problems = append(problems, errors.New("missing or duplicate evidence field id",
				slog.String("field_id", field.ID)))
		}
		fieldIDs[field.ID] = true
	}
	suspectIDs := make(map[string]bool, len(suspects.Suspects))
	for _, suspect := range suspects.Suspects {
		if suspect.ID == "" || suspectIDs[suspect.ID] {
			problems = append(problems, errors.New("missing or duplicate suspect id",
				slog.String("suspect_id", suspect.ID)))
		}
		suspectIDs[suspect.ID] = true
	}
	return problems
}

func invalid(problems []error) error {
	if len(problems) == 0 {
		return nil
	}
	return errors.Join(ErrInvalidDocument, errors.Join(problems...))
}
