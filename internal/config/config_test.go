package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadReadsYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dw.yaml")
	data := []byte(`data_dir: ` + filepath.ToSlash(filepath.Join(dir, "data")) + `
desktop_env: xfce
download_workers: 8
s3:
  region: eu-west-1
  use_path_style: true
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DesktopEnv != "xfce" {
		t.Fatalf("DesktopEnv = %q, want xfce", cfg.DesktopEnv)
	}
	if cfg.DownloadWorkers != 8 {
		t.Fatalf("DownloadWorkers = %d, want 8", cfg.DownloadWorkers)
	}
	if cfg.S3.Region != "eu-west-1" || !cfg.S3.UsePathStyle {
		t.Fatalf("S3 = %+v", cfg.S3)
	}
	wantState := filepath.Join(dir, "data", "wallpapers.json")
	if filepath.Clean(cfg.StateFile) != wantState {
		t.Fatalf("StateFile = %q, want %q (derived from data_dir)", cfg.StateFile, wantState)
	}
	if cfg.TaskName != "DailyWallpapers" {
		t.Fatalf("TaskName = %q, want default", cfg.TaskName)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dw.yaml")
	if err := os.WriteFile(path, []byte("log_level: info\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DW_LOG_LEVEL", "debug")
	t.Setenv("DW_S3_REGION", "us-east-2")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q, want env override", cfg.LogLevel)
	}
	if cfg.S3.Region != "us-east-2" {
		t.Fatalf("S3.Region = %q, want env override", cfg.S3.Region)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.DataDir = filepath.Join(dir, "data")
	cfg.StateFile = filepath.Join(dir, "data", "custom.json")
	cfg.B2.AccountID = "acct"
	cfg.B2.ApplicationKey = "key"

	path, err := SaveTo(cfg, filepath.Join(dir, "conf", "dw.yaml"))
	if err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.StateFile != cfg.StateFile {
		t.Fatalf("StateFile = %q, want %q", loaded.StateFile, cfg.StateFile)
	}
	if loaded.B2.AccountID != "acct" || loaded.B2.ApplicationKey != "key" {
		t.Fatalf("B2 = %+v", loaded.B2)
	}
}
