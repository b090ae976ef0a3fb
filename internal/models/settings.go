package models

// Theme is the reading theme of the app.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeSepia Theme = "sepia"
	ThemeDark  Theme = "dark"
)

// Language is the UI language.
type Language string

const (
	LanguageSwedish Language = "sv"
	LanguageEnglish Language = "en"
)

// Settings are the user preferences stored under their own key, next to the
// records.
type Settings struct {
	Theme          Theme       `json:"theme"`
	Language       Language    `json:"language"`
	PrivacyDefault PrivacyMode `json:"privacyDefault"`
	PanicLock      bool        `json:"panicLock"`
}

// DefaultSettings returns the settings used when nothing is stored.
func DefaultSettings() Settings {
	return Settings{
		Theme:          ThemeSepia,
		Language:       LanguageSwedish,
		PrivacyDefault: PrivacyOpen,
		PanicLock:      false,
	}
}

// Sanitize replaces out-of-range values with their defaults.
func (s Settings) Sanitize() Settings {
	d := DefaultSettings()
	switch s.Theme {
	case ThemeLight, ThemeSepia, ThemeDark:
	default:
		s.Theme = d.Theme
	}
	switch s.Language {
	case LanguageSwedish, LanguageEnglish:
	default:
		s.Language = d.Language
	}
	if !s.PrivacyDefault.Valid() {
		s.PrivacyDefault = d.PrivacyDefault
	}
	return s
}
