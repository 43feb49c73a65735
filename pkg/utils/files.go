package utils

import (
	"path/filepath"
	"strings"
)

// Extensions understood by the tools.
const (
	ScriptExt = ".lmd"
	AsmExt    = ".asm"
)

func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	// Convert to absolute path (resolves ../../ and cleans the path)
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}

	// Get the directory containing the file
	parentDir = filepath.Dir(fullPath)

	return fullPath, parentDir, nil
}

// DefaultOutputPath swaps the extension of inPath for .asm.
func DefaultOutputPath(inPath string) string {
	ext := filepath.Ext(inPath)
	if ext == "" {
		return inPath + AsmExt
	}
	return strings.TrimSuffix(inPath, ext) + AsmExt
}

// IsAssembly reports whether path names an assembly file rather than a
// statement script.
func IsAssembly(path string) bool {
	return strings.EqualFold(filepath.Ext(path), AsmExt)
}
