// Package version provides build information for the local agent.
package version

// These variables are set via ldflags during build, for example:
//
//	-X github.com/carverauto/localagent/pkg/version.vendorOUI=00D09E
//
//nolint:gochecknoglobals // These are intentionally global for ldflags injection
var (
	version      = "dev"
	buildID      = "dev"
	vendorOUI    = "000000"
	productClass = "LocalAgent"
	manufacturer = "Carver Automation"
	modelName    = "Generic"
)

// SupportedProtocols lists the message transports this build of the agent speaks.
const SupportedProtocols = "STOMP"

// GetVersion returns the current version
func GetVersion() string {
	return version
}

// GetBuildID returns the current build ID
func GetBuildID() string {
	return buildID
}

// GetFullVersion returns version with build ID
func GetFullVersion() string {
	return version + " (build: " + buildID + ")"
}

// VendorOUI returns the compiled-in organizationally unique identifier.
func VendorOUI() string {
	return vendorOUI
}

// ProductClass returns the compiled-in product class.
func ProductClass() string {
	return productClass
}

// Manufacturer returns the compiled-in manufacturer name.
func Manufacturer() string {
	return manufacturer
}

// ModelName returns the compiled-in model name.
func ModelName() string {
	return modelName
}
