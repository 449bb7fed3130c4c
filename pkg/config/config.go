// Package config は各サービスの設定を読み込む。
//
// デフォルト値、CONFIG_FILEで指定したYAMLファイル、環境変数の順に適用し、
// 後から適用した値が優先される。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

// Gateway はPublic API Gatewayの設定。
type Gateway struct {
	// Port はリッスンポート。
	Port string
	// Debug がtrueの場合、Ginをデバッグモードで起動する。
	Debug bool
	// UserServiceURL はユーザーサービスのベースURL。
	UserServiceURL string
	// ListingServiceURL はリスティングサービスのベースURL。
	ListingServiceURL string
	// BackendTimeout はバックエンド呼び出し1回あたりのタイムアウト。
	BackendTimeout time.Duration
	// AllowedOrigins はCORSで許可するオリジン。
	AllowedOrigins []string
	// ServiceTokenSecret はサービス間トークンの署名鍵。空の場合はトークンを付与しない。
	ServiceTokenSecret string
}

// UserService はユーザーサービスの設定。
type UserService struct {
	// Port はリッスンポート。
	Port string
	// Debug がtrueの場合、Ginをデバッグモードで起動する。
	Debug bool
	// DBPath はSQLiteデータベースファイルのパス。
	DBPath string
	// ServiceTokenSecret はサービス間トークンの検証鍵。空の場合は検証しない。
	ServiceTokenSecret string
}

// gatewayFile はGateway設定ファイルのYAML構造。
type gatewayFile struct {
	Port               *string  `yaml:"port"`
	Debug              *bool    `yaml:"debug"`
	UserServiceURL     *string  `yaml:"user_service_url"`
	ListingServiceURL  *string  `yaml:"listing_service_url"`
	BackendTimeout     *string  `yaml:"backend_timeout"`
	AllowedOrigins     []string `yaml:"allowed_origins"`
	ServiceTokenSecret *string  `yaml:"service_token_secret"`
}

// userServiceFile はユーザーサービス設定ファイルのYAML構造。
type userServiceFile struct {
	Port               *string `yaml:"port"`
	Debug              *bool   `yaml:"debug"`
	DBPath             *string `yaml:"db_path"`
	ServiceTokenSecret *string `yaml:"service_token_secret"`
}

// LoadGateway は環境変数とCONFIG_FILEからGateway設定を読み込む。
func LoadGateway() (*Gateway, error) {
	return loadGateway(os.Getenv)
}

// LoadUserService は環境変数とCONFIG_FILEからユーザーサービス設定を読み込む。
func LoadUserService() (*UserService, error) {
	return loadUserService(os.Getenv)
}

func loadGateway(getenv func(string) string) (*Gateway, error) {
	cfg := &Gateway{
		Port:              "6000",
		Debug:             true,
		UserServiceURL:    "http://localhost:6001",
		ListingServiceURL: "http://localhost:6002",
		BackendTimeout:    10 * time.Second,
	}

	var file gatewayFile
	if err := readFile(getenv("CONFIG_FILE"), &file); err != nil {
		return nil, err
	}
	setString(&cfg.Port, file.Port)
	setBool(&cfg.Debug, file.Debug)
	setString(&cfg.UserServiceURL, file.UserServiceURL)
	setString(&cfg.ListingServiceURL, file.ListingServiceURL)
	setString(&cfg.ServiceTokenSecret, file.ServiceTokenSecret)
	if file.AllowedOrigins != nil {
		cfg.AllowedOrigins = file.AllowedOrigins
	}
	if file.BackendTimeout != nil {
		d, err := time.ParseDuration(*file.BackendTimeout)
		if err != nil {
			return nil, fmt.Errorf("backend_timeoutの解釈に失敗: %w", err)
		}
		cfg.BackendTimeout = d
	}

	overrideString(getenv, "PORT", &cfg.Port)
	if err := overrideBool(getenv, "DEBUG", &cfg.Debug); err != nil {
		return nil, err
	}
	overrideString(getenv, "USER_SERVICE_URL", &cfg.UserServiceURL)
	overrideString(getenv, "LISTING_SERVICE_URL", &cfg.ListingServiceURL)
	overrideString(getenv, "SERVICE_TOKEN_SECRET", &cfg.ServiceTokenSecret)
	if v := getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	if v := getenv("BACKEND_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("BACKEND_TIMEOUTの解釈に失敗: %w", err)
		}
		cfg.BackendTimeout = d
	}

	if cfg.BackendTimeout <= 0 {
		return nil, fmt.Errorf("backend_timeoutは正の値である必要があります: %s", cfg.BackendTimeout)
	}
	return cfg, nil
}

func loadUserService(getenv func(string) string) (*UserService, error) {
	cfg := &UserService{
		Port:   "6001",
		Debug:  true,
		DBPath: "users.db",
	}

	var file userServiceFile
	if err := readFile(getenv("CONFIG_FILE"), &file); err != nil {
		return nil, err
	}
	setString(&cfg.Port, file.Port)
	setBool(&cfg.Debug, file.Debug)
	setString(&cfg.DBPath, file.DBPath)
	setString(&cfg.ServiceTokenSecret, file.ServiceTokenSecret)

	overrideString(getenv, "PORT", &cfg.Port)
	if err := overrideBool(getenv, "DEBUG", &cfg.Debug); err != nil {
		return nil, err
	}
	overrideString(getenv, "DB_PATH", &cfg.DBPath)
	overrideString(getenv, "SERVICE_TOKEN_SECRET", &cfg.ServiceTokenSecret)

	return cfg, nil
}

// readFile はYAML設定ファイルを読み込む。pathが空の場合は何もしない。
func readFile(path string, out any) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("設定ファイルが見つかりません: %s", path)
		}
		return fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("設定ファイルの解釈に失敗: %w", err)
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func overrideString(getenv func(string) string, key string, dst *string) {
	if v := getenv(key); v != "" {
		*dst = v
	}
}

func overrideBool(getenv func(string) string, key string, dst *bool) error {
	v := getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%sの解釈に失敗: %w", key, err)
	}
	*dst = b
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
