package common

// Storage key names. Both live in the same key-value scope; the record store
// only reacts to external changes of RecordsKey.
const (
	RecordsKey  = "pwb:pages:v1"
	SettingsKey = "pwb:settings:v1"
)
