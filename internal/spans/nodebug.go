//go:build !debug

package spans

// debugBuild makes invariant violations panic instead of being logged.
const debugBuild = false
