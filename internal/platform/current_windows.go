package platform

// Current returns the capability set of the running OS.
func Current() Platform { return Windows() }
