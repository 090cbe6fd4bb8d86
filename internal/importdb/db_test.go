package importdb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Carreau/pyflyby/internal/config"
)

func TestLookup_BaseLayer(t *testing.T) {
	db := New()
	db.AddPackage("strings", "strings")
	e, ok := db.Lookup("strings")
	if !ok || e.Path != "strings" {
		t.Fatalf("Lookup(strings) = %+v, %v", e, ok)
	}
	if _, ok := db.Lookup("nosuch"); ok {
		t.Error("Lookup should miss for unknown identifier")
	}
}

func TestLoadYAML_OverridesBaseLayer(t *testing.T) {
	db := New()
	db.AddPackage("yaml", "gopkg.in/yaml.v2")
	doc := []byte(`
imports:
  - name: yaml
    path: gopkg.in/yaml.v3
    version: v3.0.1
  - path: github.com/kr/pretty
`)
	if err := db.LoadYAML(doc, "test.yaml"); err != nil {
		t.Fatalf("LoadYAML: %v", err)
	}
	e, ok := db.Lookup("yaml")
	if !ok || e.Path != "gopkg.in/yaml.v3" {
		t.Errorf("user layer should shadow base layer, got %+v", e)
	}
	// Entries without a name default to the path's last element.
	e, ok = db.Lookup("pretty")
	if !ok || e.Path != "github.com/kr/pretty" {
		t.Errorf("Lookup(pretty) = %+v, %v", e, ok)
	}
}

func TestLoadYAML_Mandatory(t *testing.T) {
	db := New()
	doc := []byte(`
mandatory:
  - fmt
  - strings
`)
	if err := db.LoadYAML(doc, "test.yaml"); err != nil {
		t.Fatalf("LoadYAML: %v", err)
	}
	got := db.Mandatory()
	if len(got) != 2 || got[0] != "fmt" || got[1] != "strings" {
		t.Errorf("Mandatory = %v", got)
	}
}

func TestLoadYAML_Malformed(t *testing.T) {
	db := New()
	if err := db.LoadYAML([]byte("imports: {not: [a, list"), "bad.yaml"); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestLoadEnv_EmptySentinelDisablesPath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "db.yaml")
	if err := os.WriteFile(file, []byte("imports:\n  - {name: x, path: example.com/x}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(config.PathEnvVar, config.EmptyPathSentinel)
	t.Setenv(config.KnownImportsEnvVar, "")
	t.Setenv(config.MandatoryImportsEnvVar, "")

	db := New()
	if err := db.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if _, ok := db.Lookup("x"); ok {
		t.Error("EMPTY sentinel should disable the search path")
	}

	t.Setenv(config.PathEnvVar, file)
	db = New()
	if err := db.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if _, ok := db.Lookup("x"); !ok {
		t.Error("file named by PYFLYBY_PATH should load")
	}
}

func TestLoadEnv_DirectoryOfFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("imports:\n  - {name: a, path: example.com/a}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("not yaml"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(config.PathEnvVar, dir)
	t.Setenv(config.KnownImportsEnvVar, "")
	t.Setenv(config.MandatoryImportsEnvVar, "")

	db := New()
	if err := db.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if _, ok := db.Lookup("a"); !ok {
		t.Error("yaml files in a PYFLYBY_PATH directory should load")
	}
}

func TestLoadEnv_MissingPathTolerated(t *testing.T) {
	t.Setenv(config.PathEnvVar, "/no/such/file.yaml")
	t.Setenv(config.KnownImportsEnvVar, "")
	t.Setenv(config.MandatoryImportsEnvVar, "")
	db := New()
	if err := db.LoadEnv(); err != nil {
		t.Errorf("missing search path entries should be tolerated, got %v", err)
	}
}
