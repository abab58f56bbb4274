// Package version resolves the application version from embedded build
// metadata.
package version

import (
	"runtime/debug"
	"strings"
)

const (
	unknownVersionFallbackConstant = "unknown"
	buildInfoDevelVersionValue     = "devel"
)

// BuildInfoProvider exposes runtime build metadata.
type BuildInfoProvider interface {
	Read() (*debug.BuildInfo, bool)
}

// Detector resolves application version strings.
type Detector struct {
	buildInfoProvider BuildInfoProvider
}

// NewDetector constructs a Detector backed by the supplied provider, or the
// runtime build metadata when provider is nil.
func NewDetector(provider BuildInfoProvider) *Detector {
	if provider == nil {
		provider = runtimeBuildInfoProvider{}
	}
	return &Detector{buildInfoProvider: provider}
}

// Detect resolves the application version using the runtime build metadata.
func Detect() string {
	return NewDetector(nil).Version()
}

// Version returns the detected application version string.
func (detector *Detector) Version() string {
	if detector == nil || detector.buildInfoProvider == nil {
		return unknownVersionFallbackConstant
	}

	buildInfo, buildInfoAvailable := detector.buildInfoProvider.Read()
	if !buildInfoAvailable || buildInfo == nil {
		return unknownVersionFallbackConstant
	}

	trimmedVersion := strings.TrimSpace(buildInfo.Main.Version)
	if len(trimmedVersion) == 0 {
		return unknownVersionFallbackConstant
	}
	if strings.EqualFold(strings.Trim(trimmedVersion, "()"), buildInfoDevelVersionValue) {
		return unknownVersionFallbackConstant
	}
	return trimmedVersion
}

type runtimeBuildInfoProvider struct{}

func (runtimeBuildInfoProvider) Read() (*debug.BuildInfo, bool) {
	return debug.ReadBuildInfo()
}
