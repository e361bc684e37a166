package config

import "github.com/kelseyhightower/envconfig"

type Config struct {
	Rest     Rest
	Database Database
	Log      Log
	Limits   Limits
}

type Rest struct {
	Address           string `envconfig:"ADDRESS" default:":8080"`
	Mode              string `envconfig:"GIN_MODE" default:"release"`
	ReadHeaderTimeout int64  `envconfig:"READ_HEADER_TIMEOUT" default:"5"`
	IdleTimeout       int64  `envconfig:"IDLE_TIMEOUT" default:"120"`
	ShutdownTimeout   int64  `envconfig:"SHUTDOWN_TIMEOUT" default:"10"`
}

type Database struct {
	Path string `envconfig:"DATABASE_PATH" default:"musictogether.db"`
}

type Log struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
}

type Limits struct {
	// Websocket connection attempts allowed per client IP per window.
	ConnectLimit         int   `envconfig:"WS_CONNECT_LIMIT" default:"30"`
	ConnectWindowSeconds int64 `envconfig:"WS_CONNECT_WINDOW" default:"60"`
}

func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
