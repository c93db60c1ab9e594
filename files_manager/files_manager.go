package files_manager

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var netpbmExtensions = map[string]bool{
	".pbm": true,
	".pgm": true,
	".ppm": true,
	".pnm": true,
}

// IsNetpbmFile reports whether name has a Netpbm extension. AppleDouble
// companions ("._name") are excluded.
func IsNetpbmFile(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, "._") {
		return false
	}
	return netpbmExtensions[strings.ToLower(filepath.Ext(base))]
}

// outputSuffixes mark files written by an earlier run ("<base>-8bit.pgm").
var outputSuffixes = []string{"-8bit", "-16bit"}

// IsConvertedOutput reports whether name looks like a file this tool wrote.
func IsConvertedOutput(name string) bool {
	base := BaseName(name)
	for _, suffix := range outputSuffixes {
		if strings.HasSuffix(strings.ToLower(base), suffix) {
			return true
		}
	}
	return false
}

// GetNetpbmPaths lists the Netpbm files directly inside dir, sorted by name,
// and their total size in bytes. Outputs of earlier runs are left out.
func GetNetpbmPaths(dir string) ([]string, int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, err
	}
	files := make([]string, 0, len(entries))
	var size int64 = 0
	for _, entry := range entries {
		if entry.IsDir() || !IsNetpbmFile(entry.Name()) || IsConvertedOutput(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
		if info, err := entry.Info(); err == nil {
			size += info.Size()
		}
	}
	sort.Strings(files)
	return files, size, nil
}

// ResolveInputs expands command-line arguments into a list of files. Files
// are taken as given, whatever their extension; directories contribute their
// Netpbm files. Arguments that do not exist are returned in missing. Each
// file appears once, in argument order.
func ResolveInputs(args []string) (files []string, missing []string, err error) {
	seen := make(map[string]bool)
	add := func(path string) {
		abs, absErr := filepath.Abs(path)
		if absErr != nil {
			abs = filepath.Clean(path)
		}
		if !seen[abs] {
			seen[abs] = true
			files = append(files, abs)
		}
	}

	for _, arg := range args {
		info, statErr := os.Stat(arg)
		if statErr != nil {
			if os.IsNotExist(statErr) {
				missing = append(missing, arg)
				continue
			}
			return nil, nil, fmt.Errorf("stat %s: %w", arg, statErr)
		}
		if !info.IsDir() {
			add(arg)
			continue
		}
		dirFiles, _, dirErr := GetNetpbmPaths(arg)
		if dirErr != nil {
			return nil, nil, fmt.Errorf("scan directory %s: %w", arg, dirErr)
		}
		for _, f := range dirFiles {
			add(f)
		}
	}
	return files, missing, nil
}

// EnsureDir creates dir and its parents. An empty dir means "next to each
// source file" and is left alone.
func EnsureDir(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create target directory: %w", err)
	}
	return nil
}

// OutputDir returns where outputs for source go: targetDir if set, otherwise
// the directory holding source.
func OutputDir(targetDir, source string) string {
	if targetDir != "" {
		return targetDir
	}
	return filepath.Dir(source)
}

// BaseName returns the file name of path without its extension.
func BaseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func DeleteSource(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete source: %w", err)
	}
	return nil
}
