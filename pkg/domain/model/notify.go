package model

// NotifyAction shows a desktop notification on the machine running watch
type NotifyAction struct {
	Title   string `yaml:"title,omitempty"`
	Message string `yaml:"message"`
	// Sound is only honored on macOS; nil means play.
	Sound *bool `yaml:"sound,omitempty"`
}
