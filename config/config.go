package config

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/carhive/rental-service/pkg/kafka"
	"github.com/carhive/rental-service/pkg/logger"
	"github.com/carhive/rental-service/pkg/postgres"

	"github.com/kelseyhightower/envconfig"
)

type HTTPServer struct {
	Host         string        `yaml:"host" envconfig:"RENTAL_HTTP_HOST" default:"0.0.0.0"`
	Port         string        `yaml:"port" envconfig:"RENTAL_HTTP_PORT" default:"8080"`
	ReadTimeout  time.Duration `yaml:"readTimeout" envconfig:"HTTP_READ" default:"30s"`
	WriteTimeout time.Duration
}

type Sweep struct {
	Interval time.Duration `yaml:"interval" envconfig:"SWEEP_INTERVAL" default:"24h"`
}

type Config struct {
	Server   HTTPServer   `yaml:"server"`
	Database postgres.DB  `yaml:"db"`
	Kafka    kafka.Config `yaml:"kafka"`
	Sweep    Sweep        `yaml:"sweep"`
	Log      logger.Log   `yaml:"log"`
}

var (
	once sync.Once
	cfg  *Config
)

// NewConfig reads config from environment.
func NewConfig(ops ...Option) *Config {
	once.Do(func() {
		var config Config
		err := envconfig.Process("", &config)
		if err != nil {
			log.Fatal("NewConfig ", err)
		}
		// options run after envconfig: a tagged default would otherwise
		// overwrite any field an option pre-set
		for _, op := range ops {
			op(&config)
		}
		cfg = &config
		printConfig(cfg)
	})

	return cfg
}

func printConfig(cfg *Config) {
	jscfg, _ := json.MarshalIndent(cfg, "", "	") //nolint:errcheck
	fmt.Println(string(jscfg))
}
