package postprocess

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMoveFileSameFilesystem(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.flac")
	if err := os.WriteFile(src, []byte("audio-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	dest := filepath.Join(dir, "nested", "dest.flac")

	if err := moveFile(src, dest); err != nil {
		t.Fatalf("moveFile: %v", err)
	}
	if pathExists(src) {
		t.Error("source still exists after move")
	}
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading dest: %v", err)
	}
	if string(got) != "audio-bytes" {
		t.Errorf("dest contents = %q, want %q", got, "audio-bytes")
	}
}

func TestCopyAcrossDevicesPreservesContentAndRemovesSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.flac")
	if err := os.WriteFile(src, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}
	dest := filepath.Join(dir, "dest.flac")

	if err := copyAcrossDevices(src, dest); err != nil {
		t.Fatalf("copyAcrossDevices: %v", err)
	}
	if pathExists(src) {
		t.Error("source still exists after copy")
	}
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading dest: %v", err)
	}
	if string(got) != "payload" {
		t.Errorf("dest contents = %q, want %q", got, "payload")
	}
}

func TestPathExists(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "here.txt")
	if err := os.WriteFile(present, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !pathExists(present) {
		t.Error("expected pathExists to report true")
	}
	if pathExists(filepath.Join(dir, "missing.txt")) {
		t.Error("expected pathExists to report false")
	}
}

func TestCleanupEmptyDirRemovesOnlyWhenEmpty(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	if err := os.Mkdir(empty, 0o755); err != nil {
		t.Fatal(err)
	}
	cleanupEmptyDir(empty)
	if pathExists(empty) {
		t.Error("expected empty dir to be removed")
	}

	nonEmptyDir := filepath.Join(dir, "nonempty")
	if err := os.Mkdir(nonEmptyDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(nonEmptyDir, "f.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	cleanupEmptyDir(nonEmptyDir)
	if !pathExists(nonEmptyDir) {
		t.Error("non-empty dir should not have been removed")
	}
}
