package configwatcher

import (
	"path/filepath"
	"sync"
	"time"

	"launchpad_backend/internal/config"
	"launchpad_backend/pkg/logger"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// reloadDebounce 编辑器保存常触发多个事件，合并为一次重载
const reloadDebounce = time.Second

type ConfigReloader func(cfg interface{})

// WatchConfig watches the config file and invokes reloader with a freshly
// parsed config after each settled change. Editors that replace the file
// (rename + create) are handled by re-arming the watch on its directory.
func WatchConfig(configPath string, _ interface{}, reloader ConfigReloader) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		logger.Log.Error("config watcher: resolve path failed", zap.Error(err))
		return
	}
	dir := filepath.Dir(absPath)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Log.Error("config watcher: create failed", zap.Error(err))
		return
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		logger.Log.Error("config watcher: watch failed", zap.String("dir", dir), zap.Error(err))
		return
	}

	var (
		mu      sync.Mutex
		pending *time.Timer
	)
	reload := func() {
		newCfg, err := config.LoadConfig(dir)
		if err != nil {
			logger.Log.Error("config reload failed, keeping previous config", zap.Error(err))
			return
		}
		reloader(newCfg)
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != absPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			mu.Lock()
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(reloadDebounce, reload)
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Log.Error("config watcher error", zap.Error(err))
		}
	}
}
