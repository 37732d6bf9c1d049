package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/brandforge/gen-server/internal/utils/pathutil"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	FilesystemLocal = "local"
	FilesystemS3    = "s3"
)

const forgePrefix = "FORGE"

type Config struct {
	Port           int    `mapstructure:"port"`
	Host           string `mapstructure:"host"`
	Environment    string `mapstructure:"environment"`
	ForgeHome      string `mapstructure:"forge_home"`
	AssetsDir      string `mapstructure:"assets_dir"`
	TempDir        string `mapstructure:"temp_dir"`
	PublicDir      string `mapstructure:"public_dir"`
	MaxBodySize    int64  `mapstructure:"max_body_size"`
	FilesystemType string `mapstructure:"filesystem_type"`
	PersistOutputs bool   `mapstructure:"persist_outputs"`

	Replicate *ReplicateConfig `mapstructure:"replicate"`
	OpenAI    *OpenAIConfig    `mapstructure:"openai"`
	Quota     *QuotaConfig     `mapstructure:"quota"`
	S3        *S3Config        `mapstructure:"s3"`
}

type ReplicateConfig struct {
	APIKey string `mapstructure:"api_key"`

	// Model identifiers in "owner/name" form, as accepted by the
	// predictions API.
	VectorModel         string `mapstructure:"vector_model"`
	VectorFallbackModel string `mapstructure:"vector_fallback_model"`
	RasterFallbackModel string `mapstructure:"raster_fallback_model"`
}

type OpenAIConfig struct {
	APIKey      string `mapstructure:"api_key"`
	ImageModel  string `mapstructure:"image_model"`
	RefineModel string `mapstructure:"refine_model"`
}

type QuotaConfig struct {
	// DailyLimit caps generations per caller IP per UTC day.
	// Zero disables the quota middleware entirely.
	DailyLimit int `mapstructure:"daily_limit"`
}

type S3Config struct {
	Folder      string `mapstructure:"folder"`
	Region      string `mapstructure:"region_name"`
	Bucket      string `mapstructure:"bucket_name"`
	AccessKey   string `mapstructure:"access_key"`
	SecretKey   string `mapstructure:"secret_key"`
	PublicUrl   string `mapstructure:"public_url"`
	EndpointUrl string `mapstructure:"endpoint_url"`
}

var config *Config

// LoadEnvAndConfigFiles loads the .env and config.yaml files from the forge
// home directory and primes viper. Called once from the CLI before any
// command runs.
func LoadEnvAndConfigFiles() error {
	forgeHome, err := getForgeHome()
	if err != nil {
		return err
	}

	assetsDir, err := getSubDir(forgeHome, "assets_dir", "assets")
	if err != nil {
		return err
	}

	tempDir, err := getSubDir(forgeHome, "temp_dir", "temp")
	if err != nil {
		return err
	}

	viper.Set("forge_home", forgeHome)
	viper.Set("assets_dir", assetsDir)
	viper.Set("temp_dir", tempDir)

	envFile := viper.GetString("env_file")
	if envFile == "" {
		envFile = filepath.Join(forgeHome, ".env")
	}

	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("failed to load env file: %w", err)
		}
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix(forgePrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	configFile := viper.GetString("config_file")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
		viper.AddConfigPath(forgeHome)
	}

	if err := LoadConfig(false); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("No config file found. Using default config.")
			return unmarshalConfig()
		}
		return err
	}

	return nil
}

func LoadConfig(reload bool) error {
	if config != nil && !reload {
		return fmt.Errorf("config already loaded")
	}

	if err := viper.ReadInConfig(); err != nil {
		return err
	}

	return unmarshalConfig()
}

func unmarshalConfig() error {
	config = &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshalling config: %w", err)
	}

	applyDefaults(config)
	return nil
}

func GetConfig() *Config {
	return config
}

func MustGetConfig() *Config {
	if config == nil {
		panic("config not loaded")
	}

	return config
}

// Returns the forge home directory path, trying in order:
// 1. The `forge_home` flag from viper.
// 2. The `FORGE_HOME` environment variable.
// 3. The default home directory.
func getForgeHome() (string, error) {
	forgeHome := viper.GetString("forge_home")
	if forgeHome == "" {
		forgeHome = os.Getenv("FORGE_HOME")
		if forgeHome == "" {
			forgeHome = DefaultForgeHome
		}
	}

	forgeHome, err := pathutil.ExpandPath(forgeHome)
	if err != nil {
		return "", fmt.Errorf("failed to expand forge home path: %w", err)
	}

	return forgeHome, nil
}

func getSubDir(forgeHome string, key string, fallback string) (string, error) {
	if forgeHome == "" {
		return "", ErrForgeHomeNotSet
	}

	dir := viper.GetString(key)
	if dir == "" {
		dir = filepath.Join(forgeHome, fallback)
	}

	dir, err := pathutil.ExpandPath(dir)
	if err != nil {
		return "", ErrForgeHomeExpandFailed
	}

	return dir, nil
}

func CreateForgeHomeDirs(forgeHome string) error {
	subdirs := []string{"assets", "temp"}
	if err := os.MkdirAll(forgeHome, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create forge home directory: %w", err)
	}

	for _, subdir := range subdirs {
		dir := filepath.Join(forgeHome, subdir)
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("failed to create %s directory: %w", subdir, err)
		}
	}

	return nil
}
