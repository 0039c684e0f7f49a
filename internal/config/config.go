package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/devusSs/kraken-selfbot/internal/utils"
)

// Environment variable which overrides selfbot.token, may also be set via a .env file.
const TokenEnv = "SELFBOT_TOKEN"

type Config struct {
	Selfbot struct {
		Token  string `yaml:"token"`  // user account token, NOT a bot token
		Prefix string `yaml:"prefix"` // prefix to call commands from chat, like "!" or "."
	} `yaml:"selfbot"`
	NSFW struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"nsfw"`
	RelationshipLogs struct {
		Enabled       bool     `yaml:"enabled"`
		WebhookURL    string   `yaml:"webhook_url"`
		TrackAllUsers bool     `yaml:"track_all_users"`
		SpecialUsers  []string `yaml:"special_users"` // user ids whose status / activity changes are forwarded
	} `yaml:"relationship_logs"`
	DebugMode struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"debug_mode"`
	VCCommand struct {
		AutoReconnect  bool `yaml:"auto_reconnect"`
		MaxAttempts    int  `yaml:"max_attempts"`
		ReconnectDelay int  `yaml:"reconnect_delay"` // seconds
	} `yaml:"vc_command"`
	NitroSniper struct {
		Enabled    bool   `yaml:"enabled"`
		ConfigPath string `yaml:"config_path"`
	} `yaml:"nitro_sniper"`
	ClientProperties struct {
		Browser string `yaml:"browser"`
	} `yaml:"client_properties"`
	Stalk struct {
		Directory string `yaml:"directory"`
	} `yaml:"stalk"`
	// Optional audit store, disabled by default.
	Database struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Database string `yaml:"database"`
	} `yaml:"database"`
}

// Instances new config from yaml file and applies defaults, but does not check for any missing keys or errors.
//
// A .env file next to the working directory may override the token.
func LoadConfig(cfgPath string) (*Config, error) {
	f, err := os.Open(cfgPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config %s: %w", cfgPath, err)
	}

	// Missing .env is fine, the token may be in the config itself.
	_ = godotenv.Load()

	if token := os.Getenv(TokenEnv); token != "" {
		cfg.Selfbot.Token = token
	}

	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	c.Selfbot.Token = strings.TrimSpace(c.Selfbot.Token)

	if c.Selfbot.Prefix == "" {
		c.Selfbot.Prefix = "!"
	}

	if c.VCCommand.MaxAttempts == 0 {
		c.VCCommand.MaxAttempts = 3
	}

	if c.VCCommand.ReconnectDelay == 0 {
		c.VCCommand.ReconnectDelay = 5
	}

	if c.NitroSniper.ConfigPath == "" {
		c.NitroSniper.ConfigPath = "./files/sniper.json"
	}

	if c.ClientProperties.Browser == "" {
		c.ClientProperties.Browser = "Discord Client"
	}

	if c.Stalk.Directory == "" {
		c.Stalk.Directory = "./files/stalk"
	}

	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
}

// Checks config for important or missing keys / values and returns error if missing.
func (c *Config) CheckConfig() error {
	if c.Selfbot.Token == "" {
		return fmt.Errorf("missing key: selfbot token")
	}

	if strings.HasPrefix(c.Selfbot.Token, "Bot ") {
		return fmt.Errorf("invalid key: selfbot token must be a user token, not a bot token")
	}

	if strings.ContainsAny(c.Selfbot.Token, " \t\n") {
		return fmt.Errorf("invalid key: selfbot token contains whitespace")
	}

	if strings.ContainsAny(c.Selfbot.Prefix, " \t\n") {
		return fmt.Errorf("invalid key: selfbot prefix contains whitespace")
	}

	if c.RelationshipLogs.WebhookURL != "" && !strings.HasPrefix(c.RelationshipLogs.WebhookURL, "https://") {
		return fmt.Errorf("invalid key: relationship logs webhook url must use https")
	}

	if c.VCCommand.MaxAttempts < 0 {
		return fmt.Errorf("invalid key: vc command max attempts %d", c.VCCommand.MaxAttempts)
	}

	if c.VCCommand.ReconnectDelay < 0 {
		return fmt.Errorf("invalid key: vc command reconnect delay %d", c.VCCommand.ReconnectDelay)
	}

	if c.Database.Enabled {
		if c.Database.Host == "" {
			return fmt.Errorf("missing key: database host")
		}

		if c.Database.User == "" {
			return fmt.Errorf("missing key: database user")
		}

		if c.Database.Password == "" {
			return fmt.Errorf("missing key: database password")
		}

		if c.Database.Database == "" {
			return fmt.Errorf("missing key: database database")
		}
	}

	return nil
}

// Delay between two voice reconnect attempts.
func (c *Config) ReconnectDelay() time.Duration {
	return time.Duration(c.VCCommand.ReconnectDelay) * time.Second
}

// Reports whether presence changes of the user should be forwarded to the relationship notifier.
func (c *Config) TracksUser(userID string) bool {
	if c.RelationshipLogs.TrackAllUsers {
		return true
	}
	return utils.ContainsString(c.RelationshipLogs.SpecialUsers, userID)
}
