package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/mcp-training/pongarena/game/engine"
	"github.com/wricardo/mcp-training/pongarena/game/gameerr"
)

func createTestConfigDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	return dir
}

const (
	classicJSON = `{"name": "Classic", "description": "First to five", "winning_score": 5}`
	quickYAML   = "name: Quick Rally\ndescription: First to three\nwinning_score: 3\nball_speed: 8\n"
	brokenJSON  = `{"name": "Broken", "field_width": 10}`
)

func TestNewManager(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		if _, err := NewManager(filepath.Join(t.TempDir(), "nope")); err == nil {
			t.Error("Expected error for missing directory")
		}
	})

	t.Run("classic is default", func(t *testing.T) {
		dir := createTestConfigDir(t, map[string]string{"classic.json": classicJSON, "quick.yaml": quickYAML})
		m, err := NewManager(dir)
		if err != nil {
			t.Fatalf("NewManager failed: %v", err)
		}
		if m.GetDefault().Name != "Classic" {
			t.Errorf("Expected Classic default, got %q", m.GetDefault().Name)
		}
	})

	t.Run("first valid file when classic is missing", func(t *testing.T) {
		dir := createTestConfigDir(t, map[string]string{"quick.yaml": quickYAML, "a-broken.json": brokenJSON})
		m, _ := NewManager(dir)
		if m.GetDefault().Name != "Quick Rally" {
			t.Errorf("Expected Quick Rally default, got %q", m.GetDefault().Name)
		}
	})

	t.Run("built-in default for empty directory", func(t *testing.T) {
		m, _ := NewManager(t.TempDir())
		if err := engine.ValidateGameConfig(m.GetDefault()); err != nil {
			t.Errorf("Expected valid built-in default: %v", err)
		}
	})
}

func TestLoadConfig(t *testing.T) {
	dir := createTestConfigDir(t, map[string]string{
		"classic.json": classicJSON,
		"quick.yaml":   quickYAML,
		"broken.json":  brokenJSON,
	})
	m, _ := NewManager(dir)

	tests := []struct {
		name      string
		id        string
		wantErr   error
		wantName  string
		wantScore int
	}{
		{"json", "classic", nil, "Classic", 5},
		{"yaml", "quick", nil, "Quick Rally", 3},
		{"explicit extension", "quick.yaml", nil, "Quick Rally", 3},
		{"missing", "nope", ErrConfigNotFound, "", 0},
		{"path escape", "../classic", ErrConfigNotFound, "", 0},
		{"invalid", "broken", ErrInvalidConfig, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := m.LoadConfig(tt.id)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadConfig failed: %v", err)
			}
			if config.Name != tt.wantName || config.WinningScore != tt.wantScore {
				t.Errorf("Got %q/%d, want %q/%d", config.Name, config.WinningScore, tt.wantName, tt.wantScore)
			}
		})
	}

	t.Run("unset fields keep defaults", func(t *testing.T) {
		config, _ := m.LoadConfig("quick")
		if config.FieldWidth != engine.DefaultGameConfig().FieldWidth {
			t.Errorf("Expected default field width, got %v", config.FieldWidth)
		}
	})

	t.Run("callers get copies", func(t *testing.T) {
		a, _ := m.LoadConfig("classic")
		a.WinningScore = 42
		b, _ := m.LoadConfig("classic")
		if b.WinningScore != 5 {
			t.Error("Expected cached config to be unaffected by caller mutation")
		}
	})
}

func TestResolve(t *testing.T) {
	dir := createTestConfigDir(t, map[string]string{"classic.json": classicJSON})
	m, _ := NewManager(dir)

	config, err := m.Resolve("")
	if err != nil || config.Name != "Classic" {
		t.Errorf("Expected default for empty id, got %v, %v", config, err)
	}
	if _, err := m.Resolve("nope"); !errors.Is(err, gameerr.ErrUnknownConfig) {
		t.Errorf("Expected unknown config, got %v", err)
	}
}

func TestListConfigs(t *testing.T) {
	dir := createTestConfigDir(t, map[string]string{
		"classic.json": classicJSON,
		"quick.yaml":   quickYAML,
		"broken.json":  brokenJSON,
		"notes.txt":    "ignored",
	})
	m, _ := NewManager(dir)

	configs, err := m.ListConfigs()
	if err != nil {
		t.Fatalf("ListConfigs failed: %v", err)
	}
	if len(configs) != 2 {
		t.Fatalf("Expected 2 configs, got %d", len(configs))
	}
	if configs[0].ConfigID != "classic" || configs[1].ConfigID != "quick" {
		t.Errorf("Unexpected order: %s, %s", configs[0].ConfigID, configs[1].ConfigID)
	}
	if configs[1].Filename != "quick.yaml" || configs[1].WinningScore != 3 {
		t.Errorf("Unexpected info %+v", configs[1])
	}
}

func TestSaveConfig(t *testing.T) {
	dir := t.TempDir()
	m, _ := NewManager(dir)

	config := engine.DefaultGameConfig()
	config.Name = "Marathon"
	config.WinningScore = 21

	for _, name := range []string{"marathon", "long.yaml"} {
		t.Run(name, func(t *testing.T) {
			if err := m.SaveConfig(name, config); err != nil {
				t.Fatalf("SaveConfig failed: %v", err)
			}
			if err := m.RefreshCache(); err != nil {
				t.Fatalf("RefreshCache failed: %v", err)
			}
			loaded, err := m.LoadConfig(name)
			if err != nil {
				t.Fatalf("LoadConfig failed: %v", err)
			}
			if loaded.WinningScore != 21 {
				t.Errorf("Expected 21, got %d", loaded.WinningScore)
			}
		})
	}

	bad := engine.DefaultGameConfig()
	bad.WinningScore = 0
	if err := m.SaveConfig("bad", bad); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected invalid config, got %v", err)
	}
}

func TestConcurrentLoad(t *testing.T) {
	dir := createTestConfigDir(t, map[string]string{"classic.json": classicJSON, "quick.yaml": quickYAML})
	m, _ := NewManager(dir)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := "classic"
			if i%2 == 0 {
				name = "quick"
			}
			if _, err := m.LoadConfig(name); err != nil {
				t.Errorf("LoadConfig failed: %v", err)
			}
		}(i)
	}
	wg.Wait()
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("PONG_TEST_STR", "hello")
	t.Setenv("PONG_TEST_INT", "9090")
	t.Setenv("PONG_TEST_BAD_INT", "ninety")
	t.Setenv("PONG_TEST_BOOL", "true")
	t.Setenv("PONG_TEST_DUR", "90s")

	if got := EnvString("PONG_TEST_STR", "x"); got != "hello" {
		t.Errorf("EnvString = %q", got)
	}
	if got := EnvString("PONG_TEST_UNSET", "x"); got != "x" {
		t.Errorf("EnvString default = %q", got)
	}
	if got := EnvInt("PONG_TEST_INT", 1); got != 9090 {
		t.Errorf("EnvInt = %d", got)
	}
	if got := EnvInt("PONG_TEST_BAD_INT", 1); got != 1 {
		t.Errorf("EnvInt with bad value = %d", got)
	}
	if got := EnvBool("PONG_TEST_BOOL", false); !got {
		t.Error("EnvBool = false")
	}
	if got := EnvDuration("PONG_TEST_DUR", time.Second); got != 90*time.Second {
		t.Errorf("EnvDuration = %v", got)
	}
}
