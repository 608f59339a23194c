package config

import (
	"errors"
	"time"
)

// Settings 引擎设置
type Settings struct {
	// Hardened 为 true 时拒绝需要绕过可见性的写入
	Hardened bool     `json:"hardened" yaml:"hardened"`
	LogLevel string   `json:"logLevel" yaml:"logLevel"`
	StandIns StandIns `json:"standIns" yaml:"standIns"`
}

// StandIns 基础设施替身的连接参数，客户端都是惰性的，不会在创建时连网
type StandIns struct {
	SQLiteDSN     string   `json:"sqliteDsn" yaml:"sqliteDsn"`
	RedisAddr     string   `json:"redisAddr" yaml:"redisAddr"`
	MongoURI      string   `json:"mongoUri" yaml:"mongoUri"`
	EtcdEndpoints []string `json:"etcdEndpoints" yaml:"etcdEndpoints"`
	// DialTimeout 形如 "2s"，解析失败时按 2 秒处理
	DialTimeout string `json:"dialTimeout" yaml:"dialTimeout"`
}

// Dial 返回拨号超时
func (s StandIns) Dial() time.Duration {
	d, err := time.ParseDuration(s.DialTimeout)
	if err != nil || d <= 0 {
		return 2 * time.Second
	}
	return d
}

// DefaultSettings 默认设置
func DefaultSettings() Settings {
	return Settings{
		LogLevel: "info",
		StandIns: StandIns{
			SQLiteDSN:     "file::memory:",
			RedisAddr:     "localhost:6379",
			MongoURI:      "mongodb://localhost:27017",
			EtcdEndpoints: []string{"localhost:2379"},
			DialTimeout:   "2s",
		},
	}
}

// LoadSettings 在默认设置之上绑定 section，section 不存在时直接返回默认值
func LoadSettings(cfg Configuration, section string) (Settings, error) {
	settings := DefaultSettings()
	if cfg == nil {
		return settings, nil
	}
	if err := cfg.Bind(section, &settings); err != nil && !errors.Is(err, ErrKeyNotFound) {
		return settings, err
	}
	return settings, nil
}
