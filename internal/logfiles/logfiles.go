// Package logfiles reads the log files the workflow writes for each SIP.
package logfiles

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

const logSuffix = ".log"

// ErrInvalidName is returned for file names that would leave the log directory.
var ErrInvalidName = errors.New("invalid log file name")

// Reader lists and reads SIP logs stored under the package directory.
// Logs of a SIP live in <object_id>/<sip_filename>/logs/*.log.
type Reader struct {
	fs afero.Fs
}

// NewReader wraps a filesystem rooted at the package directory.
func NewReader(fsys afero.Fs) *Reader {
	return &Reader{fs: fsys}
}

// NewOsReader confines reads to packageDir on the local filesystem.
func NewOsReader(packageDir string) *Reader {
	return NewReader(afero.NewReadOnlyFs(afero.NewBasePathFs(afero.NewOsFs(), packageDir)))
}

// LogDir returns the directory holding the logs of a SIP.
func LogDir(objectID int64, sipFilename string) (string, error) {
	if err := validateName(sipFilename); err != nil {
		return "", err
	}
	return path.Join("/", strconv.FormatInt(objectID, 10), sipFilename, "logs"), nil
}

// Filenames returns the sorted names of the SIP's log files. A SIP without
// a log directory has no logs.
func (r *Reader) Filenames(objectID int64, sipFilename string) ([]string, error) {
	dir, err := LogDir(objectID, sipFilename)
	if err != nil {
		return nil, err
	}

	entries, err := afero.ReadDir(r.fs, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list logs of %s: %w", sipFilename, err)
	}

	names := []string{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), logSuffix) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Content returns the text of a single log file.
func (r *Reader) Content(objectID int64, sipFilename, logFilename string) (string, error) {
	dir, err := LogDir(objectID, sipFilename)
	if err != nil {
		return "", err
	}
	if err := validateName(logFilename); err != nil {
		return "", err
	}
	if !strings.HasSuffix(logFilename, logSuffix) {
		return "", ErrInvalidName
	}

	content, err := afero.ReadFile(r.fs, path.Join(dir, logFilename))
	if err != nil {
		return "", fmt.Errorf("read log %s: %w", logFilename, err)
	}
	return string(content), nil
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return ErrInvalidName
	}
	return nil
}
