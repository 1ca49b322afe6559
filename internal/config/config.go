package config

import (
	"fmt"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"

	"github.com/kolah/oinkctl/internal/logging"
	"github.com/kolah/oinkctl/internal/patch"
)

const (
	DefaultFile      = "oinkctl.yaml"
	DefaultErrorFile = "oinkctl-error.log"
)

type Config struct {
	Spec       string           `koanf:"spec"`
	Host       string           `koanf:"host"`
	Timeout    time.Duration    `koanf:"timeout"`
	Auth       AuthConfig       `koanf:"auth"`
	Patch      PatchConfig      `koanf:"patch"`
	Log        LogConfig        `koanf:"log"`
	Output     OutputConfig     `koanf:"output"`
	Validation ValidationConfig `koanf:"validate"`
	// AdditionalInitialisms extend the word list used to derive model
	// attribute names.
	AdditionalInitialisms []string `koanf:"additional-initialisms"`
}

type AuthConfig struct {
	Token        string `koanf:"token"`
	TokenURL     string `koanf:"token-url"`
	ClientID     string `koanf:"client-id"`
	ClientSecret string `koanf:"client-secret"`
}

// ClientCredentials reports whether the OAuth2 client-credentials grant is
// configured. Without a token URL the document's oauth2 scheme supplies it.
func (a AuthConfig) ClientCredentials() bool {
	return a.TokenURL != "" || a.ClientID != ""
}

type PatchConfig struct {
	PathStyle string `koanf:"path-style"`
}

type LogConfig struct {
	Level     string `koanf:"level"`
	Format    string `koanf:"format"`
	ErrorFile string `koanf:"error-file"`
}

type OutputConfig struct {
	Pretty  bool `koanf:"pretty"`
	Compact bool `koanf:"compact"`
}

type ValidationConfig struct {
	Requests bool `koanf:"requests"`
	Payloads bool `koanf:"payloads"`
}

func defaults() map[string]any {
	return map[string]any{
		"timeout":           "30s",
		"patch.path-style":  string(patch.SlashPath),
		"log.level":         "info",
		"log.format":        "text",
		"log.error-file":    DefaultErrorFile,
		"validate.payloads": true,
	}
}

// BindFlags binds the configuration flags shared by every command.
func BindFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	flags.StringP("config", "c", "", "Config file path (default: "+DefaultFile+")")
	flags.StringP("spec", "s", "", "OpenAPI document path")
	flags.String("host", "", "API base URL (default: first server of the document)")
	flags.Duration("timeout", 0, "HTTP timeout")
	flags.String("token", "", "Static bearer token")
	flags.String("token-url", "", "OAuth2 token endpoint for client credentials")
	flags.String("client-id", "", "OAuth2 client id")
	flags.String("client-secret", "", "OAuth2 client secret")
	flags.String("path-style", "", "Patch path style: slash, dot")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("log-format", "", "Log format: text, json")
	flags.String("error-log", "", "File receiving failed command details")
	flags.Bool("pretty", false, "Always pretty-print JSON")
	flags.Bool("compact", false, "Always print compact JSON")
	flags.Bool("validate-requests", false, "Validate requests against the document before sending")
	flags.Bool("validate-payloads", true, "Validate --data payloads against the request schema")
	flags.StringSlice("additional-initialisms", nil, "Additional initialisms for attribute names")
}

func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			configFile = DefaultFile
		}
	}

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	flagsMap := buildFlagsMap(cmd)
	if len(flagsMap) > 0 {
		if err := k.Load(confmap.Provider(flagsMap, "."), nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"spec":                   "spec",
	"host":                   "host",
	"timeout":                "timeout",
	"token":                  "auth.token",
	"token-url":              "auth.token-url",
	"client-id":              "auth.client-id",
	"client-secret":          "auth.client-secret",
	"path-style":             "patch.path-style",
	"log-level":              "log.level",
	"log-format":             "log.format",
	"error-log":              "log.error-file",
	"pretty":                 "output.pretty",
	"compact":                "output.compact",
	"validate-requests":      "validate.requests",
	"validate-payloads":      "validate.payloads",
	"additional-initialisms": "additional-initialisms",
}

// buildFlagsMap collects the flags set on the command line so they override
// the file.
func buildFlagsMap(cmd *cobra.Command) map[string]any {
	m := make(map[string]any)
	flags := cmd.Flags()

	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		switch f.Value.Type() {
		case "bool":
			v, _ := flags.GetBool(name)
			m[key] = v
		case "duration":
			v, _ := flags.GetDuration(name)
			m[key] = v
		case "stringSlice":
			v, _ := flags.GetStringSlice(name)
			m[key] = v
		default:
			m[key] = f.Value.String()
		}
	}
	return m
}

func (c *Config) Validate() error {
	if c.Spec == "" {
		return fmt.Errorf("spec file is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("invalid timeout: %s", c.Timeout)
	}
	if _, err := patch.ParsePathStyle(c.Patch.PathStyle); err != nil {
		return err
	}
	if !logging.ValidLevel(c.Log.Level) {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Log.Level)
	}

	validFormats := map[string]bool{"": true, "text": true, "json": true}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("invalid log format: %s (valid: text, json)", c.Log.Format)
	}

	if c.Output.Pretty && c.Output.Compact {
		return fmt.Errorf("pretty and compact output are mutually exclusive")
	}

	if c.Auth.ClientCredentials() && c.Auth.ClientID == "" {
		return fmt.Errorf("client credentials need a client id")
	}
	return nil
}
