package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	yaml "gopkg.in/yaml.v2"
)

// reading config error is fatal, and exits main thread
func processError(err error) {
	fmt.Println(err)
	os.Exit(2)
}

func configPath() string {
	if p := os.Getenv("CONFIG_FILE"); p != "" {
		return p
	}
	return "config.yml"
}

func readFile(cfg *Configuration) {
	f, err := os.Open(configPath())
	if err != nil {
		processError(err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	err = decoder.Decode(cfg)
	if err != nil {
		processError(err)
	}
}

func readEnv(cfg *Configuration) {
	err := envconfig.Process("", cfg)
	if err != nil {
		processError(err)
	}
}

func applyDefaults(cfg *Configuration) {
	if cfg.Swap.PollInterval <= 0 {
		cfg.Swap.PollInterval = DEFAULT_POLL_INTERVAL
	}
	if cfg.Swap.ConfirmWait <= 0 {
		cfg.Swap.ConfirmWait = DEFAULT_CONFIRM_WAIT
	}
	if cfg.Swap.DefaultTimelock <= 0 {
		cfg.Swap.DefaultTimelock = DEFAULT_TIMELOCK
	}
	if cfg.Swap.ExpiryGrace <= 0 {
		cfg.Swap.ExpiryGrace = DEFAULT_EXPIRY_GRACE
	}
	if cfg.Swap.PollFailureLimit <= 0 {
		cfg.Swap.PollFailureLimit = DEFAULT_POLL_FAILURE_LIMIT
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
}

func Init() {
	readFile(&Config)
	readEnv(&Config)
	applyDefaults(&Config)
}
