package config

import (
	"github.com/knadh/koanf/providers/confmap"
)

func DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"telegram": map[string]interface{}{
			"token": "",
			"debug": false,
		},
		"database": map[string]interface{}{
			"uri": "",
		},
		"reminders": map[string]interface{}{
			"timezone":            "America/Bogota",
			"default_hour":        "09:00",
			"retry_every_minutes": 60,
			"max_retries":         24,
		},
		"scheduler": map[string]interface{}{
			"interval_seconds": 30,
		},
		"log": map[string]interface{}{
			"level": "info",
		},
	}
}

func NewDefaultProvider() *confmap.Confmap {
	return confmap.Provider(DefaultConfig(), ".")
}
