package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds the remote-admin configuration shared by the CLI and serve mode.
type Config struct {
	Transport     string        `mapstructure:"transport" validate:"oneof=winrm ssh"`
	Credentials   Credentials   `mapstructure:"credentials"`
	WinRM         WinRM         `mapstructure:"winrm"`
	SSH           SSH           `mapstructure:"ssh"`
	Probe         Probe         `mapstructure:"probe"`
	Round         Round         `mapstructure:"round"`
	Server        string        `mapstructure:"server"`
	Listen        string        `mapstructure:"listen" validate:"required"`
	HTTPListen    string        `mapstructure:"http_listen" validate:"required"`
	EnableSwagger bool          `mapstructure:"enable_swagger"`
	ClientSecret  string        `mapstructure:"client_secret"`
	ApiSecret     string        `mapstructure:"api_secret"`
	Logging       Logging       `mapstructure:"logging"`
	SessionIdle   time.Duration `mapstructure:"session_idle" validate:"gte=0"`
}

// Credentials authenticate against remote hosts. An empty domain selects
// Basic auth for WinRM and NTLM otherwise.
type Credentials struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Domain   string `mapstructure:"domain"`
}

type WinRM struct {
	Port     int           `mapstructure:"port" validate:"gte=0,lte=65535"`
	HTTPS    bool          `mapstructure:"https"`
	Insecure bool          `mapstructure:"insecure"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

type SSH struct {
	Port           int           `mapstructure:"port" validate:"gte=0,lte=65535"`
	Timeout        time.Duration `mapstructure:"timeout" validate:"gte=0"`
	PrivateKeyFile string        `mapstructure:"private_key_file"`
	Passphrase     string        `mapstructure:"passphrase"`
}

// Probe configures the TCP liveness check run before each host.
type Probe struct {
	Ports   []int         `mapstructure:"ports" validate:"dive,gt=0,lte=65535"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// Round configures fan-out behavior. A zero UnitTimeout lets each host run
// until its query returns.
type Round struct {
	UnitTimeout time.Duration `mapstructure:"unit_timeout" validate:"gte=0"`
}

type Logging struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

var validate = validator.New()

// Load reads configuration from file and environment.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("remote-admin")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/remote-admin")
	}

	v.SetDefault("transport", "winrm")
	v.SetDefault("credentials.username", "")
	v.SetDefault("credentials.password", "")
	v.SetDefault("credentials.domain", "")
	v.SetDefault("winrm.port", 0)
	v.SetDefault("winrm.https", false)
	v.SetDefault("winrm.insecure", true)
	v.SetDefault("winrm.timeout", "60s")
	v.SetDefault("ssh.port", 22)
	v.SetDefault("ssh.timeout", "30s")
	v.SetDefault("ssh.private_key_file", "")
	v.SetDefault("ssh.passphrase", "")
	v.SetDefault("probe.ports", []int{5985, 5986, 445, 22})
	v.SetDefault("probe.timeout", "2s")
	v.SetDefault("round.unit_timeout", "0s")
	v.SetDefault("server", "")
	v.SetDefault("listen", ":9560")
	v.SetDefault("http_listen", ":9561")
	v.SetDefault("enable_swagger", true)
	v.SetDefault("client_secret", "")
	v.SetDefault("api_secret", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("session_idle", "30m")

	v.SetEnvPrefix("REMOTE_ADMIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Transport = strings.ToLower(cfg.Transport)
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints. Call it again after applying flag overrides.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// PrivateKey reads the configured SSH key file, if any.
func (c *Config) PrivateKey() ([]byte, error) {
	if c.SSH.PrivateKeyFile == "" {
		return nil, nil
	}
	data, err := os.ReadFile(c.SSH.PrivateKeyFile)
	if err != nil {
		return nil, fmt.Errorf("read ssh private key: %w", err)
	}
	return data, nil
}
