package ir

// Version constants for the row-image encoding and the store.
const (
	// ImageVersion is the row-image encoding version written to history logs.
	ImageVersion = "1"

	// EngineVersion is the drillstore engine version.
	EngineVersion = "0.1.0"
)
