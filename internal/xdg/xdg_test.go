// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package xdg

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigDir_EnvVar(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	got, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error = %v", err)
	}
	want := "/custom/config/keygate"
	if got != want {
		t.Errorf("ConfigDir() = %q, want %q", got, want)
	}
}

func TestConfigDir_Default(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "/home/testuser")
	got, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error = %v", err)
	}
	want := "/home/testuser/.config/keygate"
	if got != want {
		t.Errorf("ConfigDir() = %q, want %q", got, want)
	}
}

func TestFindConfigFile_Missing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	path, ok := FindConfigFile()
	if ok {
		t.Errorf("FindConfigFile() found %q in an empty directory", path)
	}
}

func TestFindConfigFile_Present(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)

	dir := filepath.Join(base, "keygate")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(want, []byte("pool:\n  workers: 2\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	got, ok := FindConfigFile()
	if !ok {
		t.Fatal("FindConfigFile() did not find the config file")
	}
	if got != want {
		t.Errorf("FindConfigFile() = %q, want %q", got, want)
	}
}

func TestFindConfigFile_DirectoryIsNotAFile(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)
	if err := os.MkdirAll(filepath.Join(base, "keygate", ConfigFileName), 0o700); err != nil {
		t.Fatal(err)
	}

	if _, ok := FindConfigFile(); ok {
		t.Error("FindConfigFile() accepted a directory")
	}
}
