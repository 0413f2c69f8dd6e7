package cache

import "github.com/payout/backend/internal/infrastructure/config"

func configRedis(host string, port int) config.RedisConfig {
	return config.RedisConfig{Host: host, Port: port}
}
