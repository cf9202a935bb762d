// Package timezone determines the IANA zone the assistant acts in.
package timezone

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	// Zone data is embedded so lookups work in minimal containers.
	_ "time/tzdata"

	"github.com/teemow/calagent/internal/logging"
)

// Fallback is used whenever no zone can be determined.
const Fallback = "GMT"

// EnvOverride names the environment variable consulted before host detection.
const EnvOverride = "CALAGENT_TIMEZONE"

// Detector resolves the acting timezone. The zero value inspects the real
// host; the function fields exist so tests can fake it.
type Detector struct {
	// Override is an explicit zone name, e.g. from a flag or config file.
	Override string
	Logger   logging.Logger

	Getenv   func(string) string
	ReadFile func(string) ([]byte, error)
	Readlink func(string) (string, error)
	// Zoneinfo is searched for a copy of /etc/localtime when it is a
	// regular file. Defaults to /usr/share/zoneinfo.
	Zoneinfo fs.FS
}

// Resolve returns the acting location and its identifier. It never fails:
// problems are logged and the GMT fallback is returned.
func (d Detector) Resolve() (*time.Location, string) {
	logger := d.Logger
	if logger == nil {
		logger = logging.DefaultLogger()
	}

	for _, c := range d.candidates(logger) {
		loc, err := time.LoadLocation(c.name)
		if err != nil {
			logger.Warn("ignoring invalid timezone", "source", c.source, logging.Timezone(c.name), logging.Err(err))
			continue
		}
		logger.Debug("resolved timezone", "source", c.source, logging.Timezone(c.name))
		return loc, c.name
	}

	logger.Warn("could not determine host timezone, falling back", logging.Timezone(Fallback))
	loc, err := time.LoadLocation(Fallback)
	if err != nil {
		return time.UTC, Fallback
	}
	return loc, Fallback
}

// Resolve is shorthand for Detector{Override: override}.Resolve().
func Resolve(override string, logger logging.Logger) (*time.Location, string) {
	return Detector{Override: override, Logger: logger}.Resolve()
}

type candidate struct {
	source string
	name   string
}

func (d Detector) candidates(logger logging.Logger) []candidate {
	getenv := d.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	readFile := d.ReadFile
	if readFile == nil {
		readFile = os.ReadFile
	}
	readlink := d.Readlink
	if readlink == nil {
		readlink = os.Readlink
	}

	var out []candidate
	add := func(source, name string) {
		name = strings.TrimSpace(name)
		if name != "" {
			out = append(out, candidate{source: source, name: name})
		}
	}

	add("override", d.Override)
	add(EnvOverride, getenv(EnvOverride))
	add("TZ", strings.TrimPrefix(getenv("TZ"), ":"))

	if data, err := readFile("/etc/timezone"); err == nil {
		add("/etc/timezone", string(data))
	} else {
		logger.Debug("no /etc/timezone", logging.Err(err))
	}

	if target, err := readlink("/etc/localtime"); err == nil {
		add("/etc/localtime", zoneFromPath(target))
	} else if data, rerr := readFile("/etc/localtime"); rerr == nil {
		add("/etc/localtime", d.matchZoneinfo(data, logger))
	} else {
		logger.Debug("no /etc/localtime", logging.Err(err))
	}

	return out
}

// matchZoneinfo returns the name of the zoneinfo file whose content equals
// data, or "" when none does.
func (d Detector) matchZoneinfo(data []byte, logger logging.Logger) string {
	fsys := d.Zoneinfo
	if fsys == nil {
		fsys = os.DirFS(zoneinfoDir)
	}

	var match string
	err := fs.WalkDir(fsys, ".", func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if entry.IsDir() {
			if skipZoneDirs[p] {
				return fs.SkipDir
			}
			return nil
		}
		if skipZoneFiles[p] {
			return nil
		}
		info, err := entry.Info()
		if err != nil || info.Size() != int64(len(data)) {
			return nil
		}
		content, err := fs.ReadFile(fsys, p)
		if err == nil && bytes.Equal(content, data) {
			match = p
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		logger.Debug("failed to search zoneinfo", logging.Err(err))
	}
	return match
}

const zoneinfoDir = "/usr/share/zoneinfo"

var (
	skipZoneDirs  = map[string]bool{"posix": true, "right": true}
	skipZoneFiles = map[string]bool{"localtime": true, "posixrules": true, "Factory": true}
)

// zoneFromPath extracts "Europe/Berlin" from a zoneinfo path such as
// "/usr/share/zoneinfo/Europe/Berlin".
func zoneFromPath(p string) string {
	p = filepath.ToSlash(p)
	if i := strings.Index(p, "zoneinfo/"); i >= 0 {
		return p[i+len("zoneinfo/"):]
	}
	return ""
}
