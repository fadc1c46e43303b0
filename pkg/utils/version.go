// Package utils provides small helpers shared by chatstream commands that
// don't make sense as their own package.
package utils

// Build information, overridden at link time:
//
//	-ldflags "-X github.com/papercomputeco/chatstream/pkg/utils.Version=v0.1.0"
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)
