// Package utils provides bespoke, one off utils that don't make sense to be
// their own package
package utils

// Build metadata, set with -ldflags "-X".
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)

// UserAgent identifies huddle on outbound provider and inference calls.
func UserAgent() string {
	return "huddle/" + Version
}
