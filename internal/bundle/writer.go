package bundle

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	writerRootRequiredMessageConstant    = "chart output directory must be provided"
	writerPathEscapeReasonTemplate       = "bundle path %q escapes the chart directory"
	writerCreateDirectoryTemplateConstant = "failed to create chart directory %q: %w"
	writerWriteFileTemplateConstant      = "failed to write chart file %q: %w"

	chartDirectoryPermissions = 0o755
	chartFilePermissions      = 0o644
)

// Write materializes an assembled bundle under rootDirectory, creating the
// chart directory tree as needed. Files are written in sorted path order so
// repeated runs touch the filesystem identically.
func Write(rootDirectory string, assembledBundle map[string]string) error {
	trimmedRoot := strings.TrimSpace(rootDirectory)
	if len(trimmedRoot) == 0 {
		return errors.New(writerRootRequiredMessageConstant)
	}

	bundlePaths := make([]string, 0, len(assembledBundle))
	for bundlePath := range assembledBundle {
		bundlePaths = append(bundlePaths, bundlePath)
	}
	sort.Strings(bundlePaths)

	for _, bundlePath := range bundlePaths {
		cleanedPath := filepath.Clean(bundlePath)
		if filepath.IsAbs(cleanedPath) || strings.HasPrefix(cleanedPath, "..") {
			return fmt.Errorf(writerPathEscapeReasonTemplate, bundlePath)
		}

		destinationPath := filepath.Join(trimmedRoot, cleanedPath)
		if directoryError := os.MkdirAll(filepath.Dir(destinationPath), chartDirectoryPermissions); directoryError != nil {
			return fmt.Errorf(writerCreateDirectoryTemplateConstant, filepath.Dir(destinationPath), directoryError)
		}
		if writeError := os.WriteFile(destinationPath, []byte(assembledBundle[bundlePath]), chartFilePermissions); writeError != nil {
			return fmt.Errorf(writerWriteFileTemplateConstant, destinationPath, writeError)
		}
	}
	return nil
}
