package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/getsocialkit/socialkit/simulate"
)

type Config struct {
	TempPath     string `mapstructure:"TEMP_PATH"` // working dir for downloaded media
	LogLevel     string `mapstructure:"LOG_LEVEL"`
	CacheBackend string `mapstructure:"CACHE_BACKEND"` // memory, bolt, redis
	CachePath    string `mapstructure:"CACHE_PATH"`    // bolt file, unused otherwise
	RedisAddr    string `mapstructure:"REDIS_ADDR"`    // host:port for the redis backend

	TaskStoreType string `mapstructure:"TASK_STORE_TYPE"` // sqlite, postgres, mysql
	TaskStoreDSN  string `mapstructure:"TASK_STORE_DSN"`

	Simulate     Simulate `mapstructure:"SIMULATE"`
	SimulateTest bool     `mapstructure:"SIMULATE_TEST"`
}

// Simulate is the endpoint block of the simulated-login service.
type Simulate struct {
	PostVideo          string `mapstructure:"post_video"`
	QueryTask          string `mapstructure:"query_task"`
	AccountList        string `mapstructure:"account_list"`
	BindAccount        string `mapstructure:"bind_account"`
	SubmitVerification string `mapstructure:"submit_verification"`
	UnbindAccount      string `mapstructure:"unbind_account"`
}

// Endpoints converts the block into the simulate client form.
func (s Simulate) Endpoints() simulate.Endpoints {
	return simulate.Endpoints{
		PostVideo:          s.PostVideo,
		QueryTask:          s.QueryTask,
		AccountList:        s.AccountList,
		BindAccount:        s.BindAccount,
		SubmitVerification: s.SubmitVerification,
		UnbindAccount:      s.UnbindAccount,
	}
}

func LoadConfig() (*Config, error) {
	viper.SetDefault("TEMP_PATH", "")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("CACHE_BACKEND", "memory")
	viper.SetDefault("CACHE_PATH", "socialkit.cache")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("TASK_STORE_TYPE", "sqlite")
	viper.SetDefault("TASK_STORE_DSN", "socialkit.db")
	viper.SetDefault("SIMULATE_TEST", false)

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
