package envconf

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

type basicConfig struct {
	Port    uint16        `env:"TEST_PORT"`
	Name    string        `env:"TEST_NAME" envDefault:"fallback"`
	Debug   bool          `env:"TEST_DEBUG" envDefault:"false"`
	Timeout time.Duration `env:"TEST_TIMEOUT" envDefault:"5s"`
}

func TestLoad_TagsAndDefaults(t *testing.T) {
	t.Setenv("TEST_PORT", "8080")
	t.Setenv("TEST_DEBUG", "true")

	var cfg basicConfig
	if err := Load(&cfg); err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("port: want 8080, got %d", cfg.Port)
	}
	if cfg.Name != "fallback" {
		t.Errorf("name: want fallback default, got %q", cfg.Name)
	}
	if !cfg.Debug {
		t.Error("debug: want true")
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("timeout: want 5s, got %v", cfg.Timeout)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	type cfg struct {
		Port uint16 `env:"TEST_REQUIRED_UNSET"`
	}

	var c cfg
	err := Load(&c)
	if !errors.Is(err, ErrMissingRequired) {
		t.Fatalf("want ErrMissingRequired, got %v", err)
	}
}

func TestLoad_TextUnmarshaler(t *testing.T) {
	type cfg struct {
		Level slog.Level `env:"TEST_LOG_LEVEL" envDefault:"INFO"`
	}

	t.Setenv("TEST_LOG_LEVEL", "DEBUG")

	var c cfg
	if err := Load(&c); err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Level != slog.LevelDebug {
		t.Fatalf("level: want DEBUG, got %v", c.Level)
	}
}

func TestLoad_NestedStructs(t *testing.T) {
	type inner struct {
		Host string `env:"TEST_NESTED_HOST" envDefault:"localhost"`
	}
	type outer struct {
		Inner    inner
		InnerPtr *inner
	}

	var c outer
	if err := Load(&c); err != nil {
		t.Fatalf("load: %v", err)
	}

	if c.Inner.Host != "localhost" {
		t.Errorf("nested: want localhost, got %q", c.Inner.Host)
	}
	if c.InnerPtr == nil || c.InnerPtr.Host != "localhost" {
		t.Errorf("nested pointer: got %+v", c.InnerPtr)
	}
}

func TestLoad_ParseErrors(t *testing.T) {
	type cfg struct {
		Port uint16 `env:"TEST_BAD_PORT"`
	}

	t.Setenv("TEST_BAD_PORT", "not-a-number")

	var c cfg
	if err := Load(&c); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_RejectsNonStructDestinations(t *testing.T) {
	t.Parallel()

	if err := Load(nil); err == nil {
		t.Error("nil destination should error")
	}

	var n int
	if err := Load(&n); err == nil {
		t.Error("pointer to non-struct should error")
	}

	var cfg basicConfig
	if err := Load(cfg); err == nil {
		t.Error("non-pointer should error")
	}
}
