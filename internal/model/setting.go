package model

// Setting is a single key-value row in the local settings store. Used for the
// per-user last-rollover-date marker and the first-visit onboarding marker.
type Setting struct {
	Key   string `gorm:"primaryKey"`
	Value string
}
