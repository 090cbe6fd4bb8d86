// Package importdb maintains the known-imports database: the mapping from
// a free identifier (the name code refers to) to the import path that
// provides it. The base layer is supplied by the interpreter's symbol
// index; user layers are YAML files discovered through environment
// variables.
package importdb

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Carreau/pyflyby/internal/config"
)

// Entry maps one identifier to the package that provides it.
type Entry struct {
	Name    string `yaml:"name"`
	Path    string `yaml:"path"`
	Version string `yaml:"version,omitempty"`
}

type dbFile struct {
	Imports   []Entry  `yaml:"imports"`
	Mandatory []string `yaml:"mandatory,omitempty"`
}

// DB is the resolved database for one process invocation.
type DB struct {
	known     map[string]Entry
	mandatory []string
}

// New returns an empty database.
func New() *DB {
	return &DB{known: map[string]Entry{}}
}

// AddPackage registers an identifier -> import path mapping. Later
// registrations override earlier ones, so the base layer loads first and
// user database files shadow it.
func (db *DB) AddPackage(name, path string) {
	db.known[name] = Entry{Name: name, Path: path}
}

// Lookup resolves an identifier to its entry.
func (db *DB) Lookup(name string) (Entry, bool) {
	e, ok := db.known[name]
	return e, ok
}

// Mandatory returns import paths that every namespace must import at
// startup, in file order.
func (db *DB) Mandatory() []string {
	return db.mandatory
}

// Names returns all known identifiers, sorted. Used by help output.
func (db *DB) Names() []string {
	names := make([]string, 0, len(db.known))
	for n := range db.known {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LoadEnv layers YAML database files named by the PYFLYBY_* environment
// variables on top of the current contents. PYFLYBY_PATH is a
// colon-separated list of files or directories; the sentinel value EMPTY
// disables it entirely. PYFLYBY_KNOWN_IMPORTS_PATH and
// PYFLYBY_MANDATORY_IMPORTS_PATH name additional files.
func (db *DB) LoadEnv() error {
	path := os.Getenv(config.PathEnvVar)
	if path != config.EmptyPathSentinel {
		for _, p := range splitPathList(path) {
			if err := db.loadPath(p); err != nil {
				return err
			}
		}
	}
	for _, envVar := range []string{config.KnownImportsEnvVar, config.MandatoryImportsEnvVar} {
		for _, p := range splitPathList(os.Getenv(envVar)) {
			if err := db.loadPath(p); err != nil {
				return err
			}
		}
	}
	return nil
}

func splitPathList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, string(os.PathListSeparator)) {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

func (db *DB) loadPath(p string) error {
	info, err := os.Stat(p)
	if err != nil {
		// Missing entries in the search path are tolerated, like a
		// missing directory on $PATH.
		return nil
	}
	if info.IsDir() {
		entries, err := os.ReadDir(p)
		if err != nil {
			return fmt.Errorf("reading import database dir %s: %w", p, err)
		}
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || (!strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml")) {
				continue
			}
			if err := db.loadFile(filepath.Join(p, name)); err != nil {
				return err
			}
		}
		return nil
	}
	return db.loadFile(p)
}

func (db *DB) loadFile(p string) error {
	data, err := os.ReadFile(p)
	if err != nil {
		return fmt.Errorf("reading import database %s: %w", p, err)
	}
	return db.LoadYAML(data, p)
}

// LoadYAML layers one database document on top of the current contents.
func (db *DB) LoadYAML(data []byte, source string) error {
	var f dbFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parsing import database %s: %w", source, err)
	}
	for _, e := range f.Imports {
		if e.Name == "" {
			// Default the identifier to the import path's last element.
			e.Name = e.Path
			if i := strings.LastIndex(e.Name, "/"); i >= 0 {
				e.Name = e.Name[i+1:]
			}
		}
		db.known[e.Name] = e
	}
	db.mandatory = append(db.mandatory, f.Mandatory...)
	return nil
}
