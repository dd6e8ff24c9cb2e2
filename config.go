package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/liavyona/globalvax/pkg"
)

// Config holds the run configuration, loaded from flags, GLOBALVAX_* environment variables,
// .env files and an optional .globalvax.yaml, in that order of precedence.
type Config struct {
	TempDir     string
	S3Bucket    string
	S3Subfolder string
	PushToS3    bool
	Print       bool

	LogLevel  string
	LogFormat string

	Arango pkg.ArangoSettings
}

func loadEnvFiles() {
	for _, file := range []string{".env.local", ".env"} {
		if _, err := os.Stat(file); err == nil {
			if err := godotenv.Load(file); err != nil {
				log.Warn().Err(err).Str("file", file).Msg("Failed to load env file")
			}
		}
	}
}

// LoadConfig binds flags into a fresh viper instance and resolves the configuration.
func LoadConfig(flags *pflag.FlagSet) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix("globalvax")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("failed binding flags: %w", err)
	}

	if configFile := v.GetString("config"); configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed reading config %s: %w", configFile, err)
		}
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigType("yaml")
		v.SetConfigName(".globalvax")
		_ = v.ReadInConfig()
	}

	return &Config{
		TempDir:     v.GetString("temp-dir"),
		S3Bucket:    v.GetString("s3-bucket"),
		S3Subfolder: v.GetString("s3-subfolder"),
		PushToS3:    v.GetBool("push-to-s3"),
		Print:       v.GetBool("print"),
		LogLevel:    v.GetString("log-level"),
		LogFormat:   v.GetString("log-format"),
		Arango: pkg.ArangoSettings{
			Endpoint:    os.Getenv("ARANGO_ENDPOINT"),
			Username:    os.Getenv("ARANGO_USER_NAME"),
			Password:    os.Getenv("ARANGO_PASS"),
			Certificate: os.Getenv("ARANGO_CERTIFICATE"),
			Database:    os.Getenv("ARANGO_DATABASE"),
		},
	}, nil
}
