package models

// SuspectDatabase is the immutable list of suspects a warrant is matched against.
type SuspectDatabase struct {
	Fields   []EvidenceField `json:"fields" yaml:"fields"`
	Suspects []Suspect       `json:"suspects" yaml:"suspects"`
}

// EvidenceField is one categorical attribute, e.g. hair color, with its enumerated legal values.
type EvidenceField struct {
	ID      string   `json:"id" yaml:"id"`
	Label   string   `json:"label" yaml:"label"`
	Options []string `json:"options" yaml:"options"`
}

// Allows reports whether value is one of the field's options.
func (f EvidenceField) Allows(value string) bool {
	for _, option := range f.Options {
		if option == value {
			return true
		}
	}
	return false
}

type Suspect struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	// Attributes maps evidence field IDs to the suspect's value.
	Attributes map[string]string `json:"attributes" yaml:"attributes"`
}
