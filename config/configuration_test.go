package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryLookup(t *testing.T) {
	cfg, err := NewConfigurationBuilder().
		AddInMemory(map[string]any{
			"server": map[string]any{
				"host":  "localhost",
				"port":  8080,
				"debug": "true",
			},
		}).
		Build()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Get("server:host"))
	assert.Equal(t, "localhost", cfg.Get("server.host"))
	assert.Equal(t, "8080", cfg.Get("server:port"))
	assert.Equal(t, "fallback", cfg.GetWithDefault("server:missing", "fallback"))

	port, err := cfg.GetInt("server:port")
	require.NoError(t, err)
	assert.Equal(t, 8080, port)

	debug, err := cfg.GetBool("server:debug")
	require.NoError(t, err)
	assert.True(t, debug)

	_, err = cfg.GetInt("server:nope")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	assert.Equal(t, "localhost", cfg.GetSection("server").Get("host"))
	assert.Empty(t, cfg.GetSection("nothing").GetAll())
}

func TestLaterSourcesOverride(t *testing.T) {
	first := map[string]any{"a": map[string]any{"x": 1, "y": 2}}
	cfg, err := NewConfigurationBuilder().
		AddInMemory(first).
		AddInMemory(map[string]any{"a": map[string]any{"y": 3}}).
		Build()
	require.NoError(t, err)

	assert.Equal(t, "1", cfg.Get("a:x"))
	assert.Equal(t, "3", cfg.Get("a:y"))
	// 源数据不被合并过程修改
	assert.Equal(t, 2, first["a"].(map[string]any)["y"])
}

func TestFileSources(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "settings.json")
	yamlPath := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"whitebox":{"logLevel":"debug"}}`), 0o600))
	require.NoError(t, os.WriteFile(yamlPath, []byte("whitebox:\n  hardened: true\n"), 0o600))

	cfg, err := NewConfigurationBuilder().
		AddJsonFile(jsonPath).
		AddYamlFile(yamlPath).
		AddYamlFile(filepath.Join(dir, "absent.yaml"), true).
		Build()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Get("whitebox:logLevel"))
	hardened, err := cfg.GetBool("whitebox:hardened")
	require.NoError(t, err)
	assert.True(t, hardened)

	_, err = NewConfigurationBuilder().AddJsonFile(filepath.Join(dir, "absent.json")).Build()
	assert.Error(t, err)
}

func TestEnvironmentVariables(t *testing.T) {
	t.Setenv("WBTEST_HARDENED", "true")
	t.Setenv("WBTEST_STANDINS_REDISADDR", "cache:6380")

	cfg, err := NewConfigurationBuilder().AddEnvironmentVariables("WBTEST_").Build()
	require.NoError(t, err)

	assert.Equal(t, "cache:6380", cfg.Get("standins:redisaddr"))
	hardened, err := cfg.GetBool("hardened")
	require.NoError(t, err)
	assert.True(t, hardened)
}

func TestLoadGeneric(t *testing.T) {
	type server struct {
		Host string `json:"host"`
		Port int    `json:"port"`
	}
	cfg, err := NewConfigurationBuilder().
		AddInMemory(map[string]any{"server": map[string]any{"host": "h", "port": 1}}).
		Build()
	require.NoError(t, err)

	s, err := Load[server](cfg, "server")
	require.NoError(t, err)
	assert.Equal(t, server{Host: "h", Port: 1}, s)

	_, err = Load[server](cfg, "client")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestLoadSettings(t *testing.T) {
	cfg, err := NewConfigurationBuilder().
		AddInMemory(map[string]any{
			"whitebox": map[string]any{
				"hardened": true,
				"standIns": map[string]any{"redisAddr": "r:1", "dialTimeout": "500ms"},
			},
		}).
		Build()
	require.NoError(t, err)

	s, err := LoadSettings(cfg, "whitebox")
	require.NoError(t, err)
	assert.True(t, s.Hardened)
	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, "r:1", s.StandIns.RedisAddr)
	assert.Equal(t, "file::memory:", s.StandIns.SQLiteDSN)
	assert.Equal(t, 500*time.Millisecond, s.StandIns.Dial())

	missing, err := LoadSettings(cfg, "other")
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), missing)
}

func TestEtcdKeyAndValue(t *testing.T) {
	assert.Equal(t, "whitebox:standIns:redisAddr", etcdKey("/app/whitebox/standIns/redisAddr", "/app"))
	assert.Equal(t, map[string]any{"a": float64(1)}, decodeEtcdValue([]byte(`{"a":1}`)))
	assert.Equal(t, map[string]any{"b": "c"}, decodeEtcdValue([]byte("b: c")))
	assert.Equal(t, "plain text", decodeEtcdValue([]byte("plain text")))
}

func BenchmarkConfigGet(b *testing.B) {
	cfg, _ := NewConfigurationBuilder().
		AddInMemory(map[string]any{"server": map[string]any{"host": "localhost"}}).
		Build()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cfg.Get("server:host")
	}
}
