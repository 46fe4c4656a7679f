package config

import (
	"net"
	"strconv"
)

// RedisConfig contains Redis job store configuration.
type RedisConfig struct {
	Target   string `env:"REDIS_TARGET"   envDefault:"localhost"`
	Port     int    `env:"REDIS_PORT"     envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB"       envDefault:"0"`
}

// Addr returns the host:port address for the Redis client.
func (r RedisConfig) Addr() string {
	return net.JoinHostPort(r.Target, strconv.Itoa(r.Port))
}
