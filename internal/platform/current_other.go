//go:build !linux && !darwin && !windows

package platform

import "runtime"

// Current returns the capability set of the running OS.
func Current() Platform { return Unix(runtime.GOOS) }
