package domain

// Settings are a player's client preferences. They carry no game rules.
type Settings struct {
	DarkMode      bool `json:"dark_mode"`
	Notifications bool `json:"notifications"`
}

// DefaultSettings are seeded into every new profile.
func DefaultSettings() Settings {
	return Settings{DarkMode: true, Notifications: true}
}

// SettingsPatch names the preferences to change. Nil fields are kept.
type SettingsPatch struct {
	DarkMode      *bool
	Notifications *bool
}

// Empty reports whether the patch changes nothing.
func (sp SettingsPatch) Empty() bool {
	return sp.DarkMode == nil && sp.Notifications == nil
}

// ApplySettings merges patch into the profile's settings and returns the result.
func (p *GameProfile) ApplySettings(patch SettingsPatch) Settings {
	if p.Settings == nil {
		d := DefaultSettings()
		p.Settings = &d
	}
	if patch.DarkMode != nil {
		p.Settings.DarkMode = *patch.DarkMode
	}
	if patch.Notifications != nil {
		p.Settings.Notifications = *patch.Notifications
	}
	return *p.Settings
}

// CurrentSettings returns the profile's settings, or the defaults for a
// profile stored before settings existed.
func (p *GameProfile) CurrentSettings() Settings {
	if p.Settings == nil {
		return DefaultSettings()
	}
	return *p.Settings
}
