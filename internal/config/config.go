package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

const (
	appDirName     = "dailywall"
	configFileName = "dw"
	stateFileName  = "wallpapers.json"
)

// S3Config holds credentials for s3:// wallpaper sources. Empty keys fall
// back to the default AWS credential chain.
type S3Config struct {
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	SessionToken    string `mapstructure:"session_token"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

type GCSConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
	Anonymous       bool   `mapstructure:"anonymous"`
}

// AzureConfig selects how az:// sources authenticate. ConnectionString wins
// over AccountURL; AccountURL alone means anonymous (public container) access.
type AzureConfig struct {
	ConnectionString string `mapstructure:"connection_string"`
	AccountURL       string `mapstructure:"account_url"`
}

type B2Config struct {
	AccountID      string `mapstructure:"account_id"`
	ApplicationKey string `mapstructure:"application_key"`
}

type Config struct {
	DataDir    string `mapstructure:"data_dir"`
	StateFile  string `mapstructure:"state_file"`
	CacheDir   string `mapstructure:"cache_dir"`
	DesktopEnv string `mapstructure:"desktop_env"`
	TaskName   string `mapstructure:"task_name"`

	LogLevel      string `mapstructure:"log_level"`
	LogFormat     string `mapstructure:"log_format"`
	LogFile       string `mapstructure:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`

	DownloadWorkers    int `mapstructure:"download_workers"`
	DownloadQueueSize  int `mapstructure:"download_queue_size"`
	HTTPTimeoutSeconds int `mapstructure:"http_timeout_seconds"`

	S3    S3Config    `mapstructure:"s3"`
	GCS   GCSConfig   `mapstructure:"gcs"`
	Azure AzureConfig `mapstructure:"azure"`
	B2    B2Config    `mapstructure:"b2"`
}

func Default() *Config {
	dataDir := defaultDataDir()
	return &Config{
		DataDir:            dataDir,
		StateFile:          filepath.Join(dataDir, stateFileName),
		CacheDir:           filepath.Join(dataDir, "cache"),
		TaskName:           "DailyWallpapers",
		LogLevel:           "info",
		LogFormat:          "text",
		LogMaxSizeMB:       10,
		LogMaxBackups:      3,
		DownloadWorkers:    4,
		DownloadQueueSize:  64,
		HTTPTimeoutSeconds: 30,
	}
}

// Load reads dw.yaml (or cfgFile when given) on top of Default and applies
// DW_* environment overrides. A missing config file is not an error.
func Load(cfgFile string) (*Config, error) {
	cfg := Default()
	v := newViper(cfg)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	// state_file and cache_dir follow a relocated data_dir unless set explicitly.
	if sf := v.GetString("state_file"); sf != "" {
		cfg.StateFile = sf
	} else {
		cfg.StateFile = filepath.Join(cfg.DataDir, stateFileName)
	}
	if cd := v.GetString("cache_dir"); cd != "" {
		cfg.CacheDir = cd
	} else {
		cfg.CacheDir = filepath.Join(cfg.DataDir, "cache")
	}

	return cfg, nil
}

// SaveTo writes cfg as YAML. An empty cfgFile writes dw.yaml in ConfigDir.
func SaveTo(cfg *Config, cfgFile string) (string, error) {
	v := viper.New()
	v.Set("data_dir", cfg.DataDir)
	v.Set("state_file", cfg.StateFile)
	v.Set("cache_dir", cfg.CacheDir)
	v.Set("desktop_env", cfg.DesktopEnv)
	v.Set("task_name", cfg.TaskName)
	v.Set("log_level", cfg.LogLevel)
	v.Set("log_format", cfg.LogFormat)
	v.Set("log_file", cfg.LogFile)
	v.Set("log_max_size_mb", cfg.LogMaxSizeMB)
	v.Set("log_max_backups", cfg.LogMaxBackups)
	v.Set("download_workers", cfg.DownloadWorkers)
	v.Set("download_queue_size", cfg.DownloadQueueSize)
	v.Set("http_timeout_seconds", cfg.HTTPTimeoutSeconds)
	v.Set("s3.region", cfg.S3.Region)
	v.Set("s3.endpoint", cfg.S3.Endpoint)
	v.Set("s3.access_key_id", cfg.S3.AccessKeyID)
	v.Set("s3.secret_access_key", cfg.S3.SecretAccessKey)
	v.Set("s3.session_token", cfg.S3.SessionToken)
	v.Set("s3.use_path_style", cfg.S3.UsePathStyle)
	v.Set("gcs.credentials_file", cfg.GCS.CredentialsFile)
	v.Set("gcs.anonymous", cfg.GCS.Anonymous)
	v.Set("azure.connection_string", cfg.Azure.ConnectionString)
	v.Set("azure.account_url", cfg.Azure.AccountURL)
	v.Set("b2.account_id", cfg.B2.AccountID)
	v.Set("b2.application_key", cfg.B2.ApplicationKey)

	cfgPath := cfgFile
	if cfgPath == "" {
		cfgPath = DefaultPath()
	}
	if dir := filepath.Dir(cfgPath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return "", err
		}
	}

	if err := v.WriteConfigAs(cfgPath); err != nil {
		return "", err
	}

	// May contain cloud credentials.
	return cfgPath, os.Chmod(cfgPath, 0o600)
}

func newViper(defaults *Config) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("DW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about.
	v.SetDefault("data_dir", defaults.DataDir)
	v.SetDefault("desktop_env", defaults.DesktopEnv)
	v.SetDefault("task_name", defaults.TaskName)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_format", defaults.LogFormat)
	v.SetDefault("log_file", defaults.LogFile)
	v.SetDefault("log_max_size_mb", defaults.LogMaxSizeMB)
	v.SetDefault("log_max_backups", defaults.LogMaxBackups)
	v.SetDefault("download_workers", defaults.DownloadWorkers)
	v.SetDefault("download_queue_size", defaults.DownloadQueueSize)
	v.SetDefault("http_timeout_seconds", defaults.HTTPTimeoutSeconds)
	for _, key := range []string{
		"state_file", "cache_dir",
		"s3.region", "s3.endpoint", "s3.access_key_id", "s3.secret_access_key", "s3.session_token",
		"gcs.credentials_file", "azure.connection_string", "azure.account_url",
		"b2.account_id", "b2.application_key",
	} {
		v.SetDefault(key, "")
	}
	v.SetDefault("s3.use_path_style", false)
	v.SetDefault("gcs.anonymous", false)
	return v
}

// ConfigDir is where dw.yaml lives by default.
func ConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, appDirName)
	}
	return "."
}

// DefaultPath is the dw.yaml that Load finds first when --config is unset.
func DefaultPath() string {
	return filepath.Join(ConfigDir(), configFileName+".yaml")
}

func defaultDataDir() string {
	switch runtime.GOOS {
	case "windows":
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return filepath.Join(dir, appDirName)
		}
	case "linux":
		if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
			return filepath.Join(dir, appDirName)
		}
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, ".local", "share", appDirName)
		}
	}
	return ConfigDir()
}
