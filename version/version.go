package version

// Populated at build time via ldflags, e.g.
// -ldflags "-X github.com/gatekeeperhq/gatekeeper/version.Version=v1.2.3"
var (
	Version   = "dev"
	Meta      = ""
	BuildDate = ""
)
