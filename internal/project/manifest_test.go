package project

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"retarget/internal/pipeline"
)

func write(t *testing.T, path, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

const validManifest = `# test manifest
[project]
name = "demo"
assemblies = ["framework/*.yaml", "app.toml", "app.toml"]

[consumer]
references = ["mscorlib@2.0.0.0", "Lib @ 2.0", "App", "Pia"]
embed = ["Pia"]

[walk]
jobs = 4
max-findings = 50
`

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, ManifestName), validManifest)
	write(t, filepath.Join(root, "framework", "a.yaml"), "")
	write(t, filepath.Join(root, "framework", "b.yaml"), "")
	write(t, filepath.Join(root, "app.toml"), "")
	nested := filepath.Join(root, "src", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	m, ok, err := Discover(nested)
	if err != nil || !ok {
		t.Fatalf("Discover: ok=%v err=%v", ok, err)
	}
	if m.Root != root || m.Config.Project.Name != "demo" {
		t.Fatalf("unexpected manifest %+v", m)
	}
	if m.Config.Walk.Jobs != 4 || m.Config.Walk.MaxFindings != 50 {
		t.Fatalf("walk config = %+v", m.Config.Walk)
	}

	files, err := m.Files()
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	want := []string{
		filepath.Join(root, "framework", "a.yaml"),
		filepath.Join(root, "framework", "b.yaml"),
		filepath.Join(root, "app.toml"),
	}
	if strings.Join(files, ",") != strings.Join(want, ",") {
		t.Fatalf("Files() = %v, want %v", files, want)
	}

	refs, err := m.Consumer()
	if err != nil {
		t.Fatalf("Consumer: %v", err)
	}
	wantRefs := []pipeline.ConsumerRef{
		{Name: "mscorlib", Version: "2.0.0.0"},
		{Name: "Lib", Version: "2.0"},
		{Name: "App"},
		{Name: "Pia", Embed: true},
	}
	for i, r := range wantRefs {
		if refs[i] != r {
			t.Errorf("ref %d = %+v, want %+v", i, refs[i], r)
		}
	}
}

func TestDiscoverWithoutManifest(t *testing.T) {
	_, ok, err := Discover(t.TempDir())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	// A retarget.toml in an ancestor of the temp dir would be picked up.
	if ok {
		t.Skip("found a manifest above the temp directory")
	}
}

func TestLoadRejectsBadManifests(t *testing.T) {
	cases := map[string]string{
		"no project":    "[consumer]\nreferences = [\"A\"]\n",
		"no name":       "[project]\nassemblies = [\"a.toml\"]\n[consumer]\nreferences = [\"A\"]\n",
		"no assemblies": "[project]\nname = \"x\"\n[consumer]\nreferences = [\"A\"]\n",
		"no references": "[project]\nname = \"x\"\nassemblies = [\"a.toml\"]\n",
		"unknown key":   "[project]\nname = \"x\"\nassemblies = [\"a.toml\"]\nbogus = 1\n[consumer]\nreferences = [\"A\"]\n",
		"bad version":   "[project]\nname = \"x\"\nassemblies = [\"a.toml\"]\n[consumer]\nreferences = [\"A@x.y\"]\n",
		"stray embed":   "[project]\nname = \"x\"\nassemblies = [\"a.toml\"]\n[consumer]\nreferences = [\"A\"]\nembed = [\"B\"]\n",
		"negative jobs": "[project]\nname = \"x\"\nassemblies = [\"a.toml\"]\n[consumer]\nreferences = [\"A\"]\n[walk]\njobs = -1\n",
		"not toml":      "[project\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ManifestName)
			write(t, path, data)
			if _, err := Load(path); err == nil {
				t.Fatalf("expected error for %s", name)
			}
		})
	}
}

func TestFilesReportsEmptyPatterns(t *testing.T) {
	root := t.TempDir()
	m := &Manifest{Path: filepath.Join(root, ManifestName), Root: root,
		Config: Config{Project: ProjectConfig{Assemblies: []string{"missing/*.toml"}}}}
	if _, err := m.Files(); err == nil || !strings.Contains(err.Error(), "no files match") {
		t.Fatalf("Files() err = %v", err)
	}
}

func TestParseReference(t *testing.T) {
	for _, s := range []string{"", "@1.0", "A@", "A@1.2.3.4.5"} {
		if _, err := ParseReference(s); !errors.Is(err, ErrBadReference) {
			t.Errorf("ParseReference(%q) err = %v", s, err)
		}
	}
	ref, err := ParseReference(" Lib@1.0.0.0 ")
	if err != nil || ref.Name != "Lib" || ref.Version != "1.0.0.0" {
		t.Fatalf("ParseReference = %+v, %v", ref, err)
	}
}
