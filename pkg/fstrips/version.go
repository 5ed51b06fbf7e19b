package fstrips

// Version is the planning engine release reported by the CLI.
const Version = "0.9.0"

// GetVersion returns the engine version string.
func GetVersion() string {
	return Version
}
