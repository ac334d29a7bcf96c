package models

// Manifest lists the selectable cases.
type Manifest struct {
	DefaultCaseID string          `json:"defaultCaseId" yaml:"defaultCaseId"`
	Cases         []ManifestEntry `json:"cases" yaml:"cases"`
}

type ManifestEntry struct {
	ID       string `json:"id" yaml:"id"`
	Label    string `json:"label" yaml:"label"`
	Language string `json:"language" yaml:"language"`
	// Path of the case definition relative to the data root.
	Path string `json:"path" yaml:"path"`
}
