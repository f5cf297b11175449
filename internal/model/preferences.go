package model

// Preference keys.
const (
	PrefDarkMode           = "darkMode"
	PrefFontSize           = "fontSize"
	PrefTheme              = "theme"
	PrefAutoSave           = "autoSave"
	PrefShowLineNumbers    = "showLineNumbers"
	PrefWordWrap           = "wordWrap"
	PrefTabSize            = "tabSize"
	PrefPublicProfile      = "publicProfile"
	PrefDefaultPrivacy     = "defaultPrivacy"
	PrefAnalytics          = "analytics"
	PrefNotifications      = "notifications"
	PrefEmailNotifications = "emailNotifications"
	PrefSoundEffects       = "soundEffects"
)

// Preferences is a flat key→value bag. Values are whatever JSON decoding produced
// (bool, string, float64, ...); keys this package does not know about are kept.
type Preferences map[string]any

// DefaultPreferences returns a fresh copy of the built-in defaults.
func DefaultPreferences() Preferences {
	return Preferences{
		PrefDarkMode:           false,
		PrefFontSize:           "medium",
		PrefTheme:              "default",
		PrefAutoSave:           true,
		PrefShowLineNumbers:    true,
		PrefWordWrap:           true,
		PrefTabSize:            "2",
		PrefPublicProfile:      true,
		PrefDefaultPrivacy:     "public",
		PrefAnalytics:          true,
		PrefNotifications:      true,
		PrefEmailNotifications: false,
		PrefSoundEffects:       false,
	}
}

// MergePreferences overlays stored on top of the defaults key by key.
// A key missing from stored keeps its default; a key present in stored wins,
// even when its value is null.
func MergePreferences(stored map[string]any) Preferences {
	merged := DefaultPreferences()
	for k, v := range stored {
		merged[k] = v
	}
	return merged
}

// Bool returns the boolean value of key, or false.
func (p Preferences) Bool(key string) bool {
	v, _ := p[key].(bool)
	return v
}

// String returns the string value of key, or "".
func (p Preferences) String(key string) string {
	v, _ := p[key].(string)
	return v
}

// PrivateByDefault reports whether new pastes start private.
func (p Preferences) PrivateByDefault() bool {
	return p.String(PrefDefaultPrivacy) == "private"
}
