//go:build !unix

package logging

import "os"

// Cross-process write serialization is unavailable; the in-process mutex still applies.
func lockFile(*os.File) error { return nil }

func unlockFile(*os.File) {}
