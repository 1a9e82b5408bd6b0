package ioutils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "SR001MS.WAV")
	if err := os.WriteFile(file, []byte("RIFF"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		want    bool
		wantErr bool
	}{
		{"existing file", file, true, false},
		{"existing dir", dir, true, false},
		{"missing", filepath.Join(dir, "SR001XY.WAV"), false, false},
		{"file as dir component", filepath.Join(file, "child"), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Exists(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Exists(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Exists(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")

	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir() error = %v", err)
	}
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir() on existing dir error = %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !info.IsDir() {
		t.Errorf("%s is not a directory", dir)
	}
}

func TestRemoveIfExists(t *testing.T) {
	file := filepath.Join(t.TempDir(), "SR001.flac")
	if err := os.WriteFile(file, []byte("fLaC"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := RemoveIfExists(file); err != nil {
		t.Fatalf("RemoveIfExists() error = %v", err)
	}
	if _, err := os.Stat(file); !os.IsNotExist(err) {
		t.Errorf("file still exists after RemoveIfExists()")
	}
	if err := RemoveIfExists(file); err != nil {
		t.Errorf("RemoveIfExists() on missing file error = %v", err)
	}
}
