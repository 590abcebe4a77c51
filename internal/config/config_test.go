package config

import (
	"os"
	"path/filepath"
	"testing"
)

// chtmp moves the test into an isolated working directory and config home so
// real user config never leaks into assertions.
func chtmp(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()

	origWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(origWd) })

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change to temp dir: %v", err)
	}
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	return tmpDir
}

func TestGlobalPath(t *testing.T) {
	t.Run("with XDG_CONFIG_HOME set", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")
		want := filepath.Join("/custom/config", "docweaver", "docweaver.yml")
		if got := GlobalPath(); got != want {
			t.Errorf("GlobalPath() = %v, want %v", got, want)
		}
	})

	t.Run("without XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		got := GlobalPath()
		if !filepath.IsAbs(got) {
			t.Errorf("GlobalPath() should return absolute path, got %v", got)
		}
		if filepath.Base(got) != "docweaver.yml" {
			t.Errorf("GlobalPath() should end with docweaver.yml, got %v", got)
		}
	})
}

func TestProjectPath(t *testing.T) {
	if got := ProjectPath(); got != "docweaver.yml" {
		t.Errorf("ProjectPath() = %v, want docweaver.yml", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	chtmp(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.AssemblyStrategy != AssemblyBookMajor {
		t.Errorf("default assembly_strategy = %q, want %q", cfg.AssemblyStrategy, AssemblyBookMajor)
	}
	if cfg.ChunkSize != ChunkChapter {
		t.Errorf("default chunk_size = %q, want %q", cfg.ChunkSize, ChunkChapter)
	}
	if !cfg.ShowTopNav {
		t.Error("show_top_nav should default to true")
	}
	if cfg.ShowResourceCounts {
		t.Error("show_resource_counts should default to false")
	}
	if cfg.DataDir != ".docweaver" {
		t.Errorf("default data_dir = %q, want .docweaver", cfg.DataDir)
	}
	if cfg.APIRoot != "" {
		t.Errorf("api_root has no default, got %q", cfg.APIRoot)
	}
}

func TestLoadPrecedence(t *testing.T) {
	tmpDir := chtmp(t)

	// Global config
	globalDir := filepath.Join(tmpDir, "xdg", "docweaver")
	if err := os.MkdirAll(globalDir, 0755); err != nil {
		t.Fatal(err)
	}
	global := []byte("api_root: https://global.example.org\nchunk_size: verse\nnotify_email: global@example.org\n")
	if err := os.WriteFile(filepath.Join(globalDir, "docweaver.yml"), global, 0644); err != nil {
		t.Fatal(err)
	}

	// Project config overrides some keys
	project := []byte("api_root: https://project.example.org\n")
	if err := os.WriteFile("docweaver.yml", project, 0644); err != nil {
		t.Fatal(err)
	}

	t.Run("project overrides global, global fills the rest", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.APIRoot != "https://project.example.org" {
			t.Errorf("api_root = %q, want project value", cfg.APIRoot)
		}
		if cfg.ChunkSize != ChunkVerse {
			t.Errorf("chunk_size = %q, want global value %q", cfg.ChunkSize, ChunkVerse)
		}
		if cfg.NotifyEmail != "global@example.org" {
			t.Errorf("notify_email = %q, want global value", cfg.NotifyEmail)
		}
	})

	t.Run("env overrides files", func(t *testing.T) {
		t.Setenv("DOCWEAVER_API_ROOT", "https://env.example.org")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.APIRoot != "https://env.example.org" {
			t.Errorf("api_root = %q, want env value", cfg.APIRoot)
		}
	})
}

func TestValidate(t *testing.T) {
	valid := Config{
		APIRoot:          "https://api.example.org",
		AssemblyStrategy: AssemblyBookMajor,
		ChunkSize:        ChunkChapter,
	}

	t.Run("valid config passes", func(t *testing.T) {
		cfg := valid
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate failed: %v", err)
		}
	})

	t.Run("api_root is required", func(t *testing.T) {
		cfg := valid
		cfg.APIRoot = ""
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for missing api_root")
		}
	})

	t.Run("assembly strategy is an enum", func(t *testing.T) {
		cfg := valid
		cfg.AssemblyStrategy = "diagonal"
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for invalid assembly_strategy")
		}
	})

	t.Run("chunk size is an enum", func(t *testing.T) {
		cfg := valid
		cfg.ChunkSize = "paragraph"
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for invalid chunk_size")
		}
	})
}

func TestWriteAndReload(t *testing.T) {
	chtmp(t)

	cfg := &Config{
		APIRoot:          "https://api.example.org",
		AssemblyStrategy: AssemblyLanguageMajor,
		ChunkSize:        ChunkVerse,
		ShowTopNav:       true,
		DataDir:          ".docweaver",
		LogLevel:         "debug",
	}
	if err := WriteProject(cfg); err != nil {
		t.Fatalf("WriteProject failed: %v", err)
	}

	if !Exists() {
		t.Error("Exists should report the project config")
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.APIRoot != cfg.APIRoot {
		t.Errorf("api_root = %q, want %q", loaded.APIRoot, cfg.APIRoot)
	}
	if loaded.AssemblyStrategy != AssemblyLanguageMajor {
		t.Errorf("assembly_strategy = %q, want %q", loaded.AssemblyStrategy, AssemblyLanguageMajor)
	}
	if loaded.LogLevel != "debug" {
		t.Errorf("log_level = %q, want debug", loaded.LogLevel)
	}
}
