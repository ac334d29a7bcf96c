package models

const (
	DefaultSpeechModel = "gpt-4o-mini-tts"
	DefaultSpeechVoice = "alloy"
)

// SpeechVoices are the voices offered in the settings form.
var SpeechVoices = []string{"alloy", "ash", "coral", "echo", "fable", "onyx", "nova", "sage", "shimmer"}

// VoiceSettings are the speech synthesis preferences of a player.
type VoiceSettings struct {
	Enabled bool   `db:"enabled"`
	APIKey  string `db:"api_key"`
	Model   string `db:"model"`
	Voice   string `db:"voice"`
}

// DefaultVoiceSettings is text-only mode.
func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{
		Enabled: false,
		APIKey:  "",
		Model:   DefaultSpeechModel,
		Voice:   DefaultSpeechVoice,
	}
}

// Active reports whether dialogue should be spoken.
func (s VoiceSettings) Active() bool {
	return s.Enabled && s.APIKey != ""
}

// StatusText describes the speech mode after loading the settings.
func (s VoiceSettings) StatusText() string {
	if s.Active() {
		return "Voice enabled."
	}
	if s.Enabled {
		return "Voice marked as enabled but no API key. Staying in text mode."
	}
	return "Text mode active. Voice disabled."
}

// SavedStatusText describes the speech mode right after the player saved the settings.
func (s VoiceSettings) SavedStatusText() string {
	switch {
	case s.Enabled && s.APIKey == "":
		return "Voice marked as enabled but no API key. Staying in text mode."
	case s.Enabled:
		return "Settings saved. Voice ready for the next dialogues."
	default:
		return "Settings saved. Text mode active."
	}
}
