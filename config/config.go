// Package config loads sheets-merge settings from defaults, an optional YAML file, a .env file
// and SHEETS_MERGE_* environment variables, in increasing order of precedence.
package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/dealdesk/sheets-merge/log"
)

const EnvPrefix = "SHEETS_MERGE"

type Config struct {
	// Google holds the spreadsheet and API client settings.
	Google Google `mapstructure:"google"`
	// Merge holds the reconciliation settings.
	Merge Merge `mapstructure:"merge"`
	// Log holds the application and log worksheet settings.
	Log Log `mapstructure:"log"`
}

type Google struct {
	// Credentials is the OAuth2 client secret file.
	Credentials string `mapstructure:"credentials" default:".google/credentials.json"`
	// Tokens is the directory for cached OAuth2 tokens.
	Tokens string `mapstructure:"tokens" default:".google"`
	// URL is the target spreadsheet URL.
	URL string `mapstructure:"url" default:""`
	// Range is the target worksheet range, header row first.
	Range string `mapstructure:"range" default:""`
	// Workdir holds backups and temporary files.
	Workdir string `mapstructure:"workdir" default:"."`
	// Rate is the maximum number of API requests per second. 0 disables pacing.
	Rate int `mapstructure:"rate" default:"1"`
	// Retries is the maximum number of retries for a failed API request.
	Retries uint64 `mapstructure:"retries" default:"5"`
}

type Merge struct {
	Keys   []string `mapstructure:"keys" default:"Opp No,Detail Key"`
	Status string   `mapstructure:"status" default:"Check Update"`
	// Policy is the duplicate target key policy, 'first' or 'reject'.
	Policy string `mapstructure:"policy" default:"first"`
	// Ignore lists glob patterns for columns excluded from comparison.
	Ignore []string `mapstructure:"ignore" default:""`
	// Header is the 1-based header row of source files.
	Header int `mapstructure:"header" default:"1"`
	// Sheet is the workbook sheet read from source files without an explicit '#sheet'. Empty
	// selects the first sheet.
	Sheet string `mapstructure:"sheet" default:""`
}

type Log struct {
	Level  string `mapstructure:"level" default:"info"`
	Format string `mapstructure:"format" default:"console"`
	File   string `mapstructure:"file" default:"sheets-merge.log"`
	// Range is the log worksheet range. Empty disables the log worksheet.
	Range string `mapstructure:"range" default:"Log!A1:H"`
	// Retention is the number of days of log worksheet records to keep. 0 keeps everything.
	Retention int `mapstructure:"retention" default:"30"`
}

func (l Log) Logger() log.Config {
	return log.Config{
		Level:  l.Level,
		Format: l.Format,
		File:   l.File,
	}
}

// LoadConfig loads the configuration. 'file' is an optional YAML configuration file and
// 'dir' is the directory searched for a .env file.
func LoadConfig(dir string, file string) (*Config, error) {
	envPath := ".env"
	if dir != "" && dir != "." {
		envPath = dir + "/.env"
	}

	// a missing .env file is not an error
	_ = godotenv.Overload(envPath)

	v := viper.New()

	bindValues(v, Config{}, "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading configuration file %v (%w)", file, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Merge.Keys = trim(config.Merge.Keys)
	config.Merge.Ignore = trim(config.Merge.Ignore)

	return &config, nil
}

// bindValues registers every key with its 'default' tag value so that AutomaticEnv also
// applies to keys without a configuration file entry.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		v.SetDefault(key, field.Tag.Get("default"))
	}
}

func trim(list []string) []string {
	trimmed := []string{}
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			trimmed = append(trimmed, s)
		}
	}

	return trimmed
}
