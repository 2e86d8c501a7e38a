package config

import (
	"github.com/fsnotify/fsnotify"

	"github.com/Armin-kho/gold-live-rates/internal/logger"
)

// Watch reloads the config file whenever it is written and hands the new value to fn.
// An invalid edit is logged and ignored.
func Watch(path string, fn func(*Config)) {
	if path == "" {
		return
	}
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		logger.Warnf("[config] not watching %s: %v", path, err)
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := decode(v)
		if err != nil {
			logger.Warnf("[config] reload %s rejected: %v", e.Name, err)
			return
		}
		logger.Infof("[config] reloaded %s", e.Name)
		fn(cfg)
	})
	v.WatchConfig()
}
