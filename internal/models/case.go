package models

// Case is an immutable case definition authored as a JSON or YAML document.
// It is loaded once and shared by every session playing the case.
type Case struct {
	Title string `json:"title" yaml:"title"`
	// SuspectsData is the path of the suspect database relative to the data root.
	SuspectsData string `json:"suspectsData" yaml:"suspectsData"`
	// SuspectID identifies the true culprit in the suspect database.
	SuspectID string   `json:"suspectId" yaml:"suspectId"`
	Briefing  Briefing `json:"briefing" yaml:"briefing"`
	// Route is the ordered list of location IDs. The first entry is the start and the last one the final
	// destination where the capture happens.
	Route     []string     `json:"route" yaml:"route"`
	Locations []Location   `json:"locations" yaml:"locations"`
	Settings  CaseSettings `json:"settings" yaml:"settings"`
	Ending    Ending       `json:"ending" yaml:"ending"`
	UI        CaseUI       `json:"ui" yaml:"ui"`
}

// Briefing is the dialogue shown when the case starts.
type Briefing struct {
	Speaker string `json:"speaker" yaml:"speaker"`
	Text    string `json:"text" yaml:"text"`
	Image   string `json:"image" yaml:"image"`
}

type Location struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Country     string `json:"country" yaml:"country"`
	Description string `json:"description" yaml:"description"`
	Image       string `json:"image" yaml:"image"`
	// Actions maps action IDs such as "witness" to the dialogue they trigger.
	Actions         map[string]Action `json:"actions" yaml:"actions"`
	TravelOptions   []TravelOption    `json:"travelOptions" yaml:"travelOptions"`
	WrongTravelText string            `json:"wrongTravelText" yaml:"wrongTravelText"`
}

// Label is the human-readable "name, country" form of the location.
func (l Location) Label() string {
	if l.Country == "" {
		return l.Name
	}
	return l.Name + ", " + l.Country
}

type Action struct {
	Speaker string   `json:"speaker" yaml:"speaker"`
	Text    string   `json:"text" yaml:"text"`
	Reveals []Reveal `json:"reveals" yaml:"reveals"`
}

type RevealType string

const (
	RevealTypeDestination RevealType = "destination"
	RevealTypeIdentity    RevealType = "identity"
)

// Reveal discloses either a travel hint or a suspect attribute when its action is performed.
type Reveal struct {
	Type RevealType `json:"type" yaml:"type"`
	// Value is the hinted location ID for destination reveals and the attribute value for identity reveals.
	Value string `json:"value" yaml:"value"`
	// ClueType categorises destination reveals, e.g. "currency" or "language".
	ClueType string `json:"clueType" yaml:"clueType"`
	// Field is the evidence field ID of identity reveals.
	Field string `json:"field" yaml:"field"`
}

type TravelOption struct {
	To    string `json:"to" yaml:"to"`
	Label string `json:"label" yaml:"label"`
	// Hours is the flight duration. Zero means the default flight duration.
	Hours int `json:"hours" yaml:"hours"`
}

type CaseSettings struct {
	DeadlineHours int `json:"deadlineHours" yaml:"deadlineHours"`
	// ActionCosts holds hour costs keyed by action ID plus the "warrant" and "capture" keys.
	// Missing keys fall back to the defaults of the engine.
	ActionCosts map[string]int `json:"actionCosts" yaml:"actionCosts"`
}

type Ending struct {
	SuccessText          string `json:"successText" yaml:"successText"`
	FailNoWarrantText    string `json:"failNoWarrantText" yaml:"failNoWarrantText"`
	FailWrongWarrantText string `json:"failWrongWarrantText" yaml:"failWrongWarrantText"`
	TimeoutText          string `json:"timeoutText" yaml:"timeoutText"`
}

// CaseUI holds asset paths relative to the data root.
type CaseUI struct {
	BackgroundImage       string `json:"backgroundImage" yaml:"backgroundImage"`
	FallbackLocationImage string `json:"fallbackLocationImage" yaml:"fallbackLocationImage"`
	TravelImage           string `json:"travelImage" yaml:"travelImage"`
	CaptureImage          string `json:"captureImage" yaml:"captureImage"`
	WarrantImage          string `json:"warrantImage" yaml:"warrantImage"`
}
