package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"reflect"
	"sync"

	"github.com/bytedance/gopkg/util/gopool"
	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"zerosum/pkg/logger"
)

const envPrefix = "ZEROSUM"

// allKeys fixes the order in which change callbacks fire.
var allKeys = []string{
	KeyLLMModel, KeyProvider, KeyAPIKey, KeyBaseURL,
	KeyChunkTokens, KeyFinalTokenLimit, KeyMaxIterations,
	KeyLogLevel, KeyUseFileLogging, KeyLogPath,
	KeyESAddresses, KeyESUsername, KeyESPassword, KeyESIndex,
	KeyHistoryPath,
}

// ChangeFunc receives the previous and the new value of a key.
type ChangeFunc func(old, new any)

// Store holds the live configuration and notifies subscribers when a value changes.
// It is safe for concurrent use.
type Store struct {
	// vmu guards v and watcher; viper itself is not safe for concurrent use.
	vmu     sync.Mutex
	v       *viper.Viper
	watcher *fsnotify.Watcher

	mu  sync.RWMutex
	cfg Config

	subMu sync.Mutex
	subs  map[string][]ChangeFunc
}

// Load reads .env (if present), the config file and ZEROSUM_* environment variables.
// An empty path searches for zerosum.yaml in the working directory and $HOME/.zerosum.
func Load(path string) (*Store, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warnf("[Config] load .env: %v", err)
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("zerosum")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.zerosum")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		logger.Debugf("[Config] no config file found, using defaults and environment")
	}
	return NewStore(v)
}

// NewStore wraps an existing viper instance, registering defaults and env binding.
func NewStore(v *viper.Viper) (*Store, error) {
	if v == nil {
		v = viper.New()
	}
	d := Default()
	v.SetDefault(KeyLLMModel, d.LLMModel)
	v.SetDefault(KeyProvider, d.Provider)
	v.SetDefault(KeyAPIKey, "")
	v.SetDefault(KeyBaseURL, "")
	v.SetDefault(KeyChunkTokens, d.ChunkTokens)
	v.SetDefault(KeyFinalTokenLimit, d.FinalTokenLimit)
	v.SetDefault(KeyMaxIterations, d.MaxIterations)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyUseFileLogging, d.UseFileLogging)
	v.SetDefault(KeyLogPath, d.LogPath)
	v.SetDefault(KeyESAddresses, []string{})
	v.SetDefault(KeyESUsername, "")
	v.SetDefault(KeyESPassword, "")
	v.SetDefault(KeyESIndex, d.ESIndex)
	v.SetDefault(KeyHistoryPath, d.HistoryPath)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	s := &Store{v: v, subs: make(map[string][]ChangeFunc)}
	if err := v.Unmarshal(&s.cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns a snapshot of the current configuration.
func (s *Store) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// OnChange registers fn to run whenever key changes value.
func (s *Store) OnChange(key string, fn func(old, new any)) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subs[key] = append(s.subs[key], fn)
}

// Set overrides a single value at runtime. Subscribers of key run only if the
// value actually changed. An invalid value is rolled back.
func (s *Store) Set(key string, value any) error {
	if !isKey(key) {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	s.vmu.Lock()
	prevValue := s.v.Get(key)
	s.v.Set(key, value)
	prev, next, err := s.reloadLocked()
	if err != nil {
		s.v.Set(key, prevValue)
	}
	s.vmu.Unlock()
	if err != nil {
		return err
	}
	s.notifyChanges(prev, next)
	return nil
}

// Watch re-reads the config file whenever it changes on disk. It reports false
// when no file is in use or the file cannot be watched.
func (s *Store) Watch() bool {
	s.vmu.Lock()
	defer s.vmu.Unlock()
	if s.watcher != nil {
		return true
	}
	path := s.v.ConfigFileUsed()
	if path == "" {
		return false
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Errorf("[Config] create watcher: %v", err)
		return false
	}
	file := filepath.Clean(path)
	// Editors often replace the file, so watch its directory.
	if err := w.Add(filepath.Dir(file)); err != nil {
		_ = w.Close()
		logger.Errorf("[Config] watch %s: %v", file, err)
		return false
	}
	s.watcher = w
	gopool.Go(func() { s.watchLoop(w, file) })
	return true
}

// Close stops watching the config file.
func (s *Store) Close() error {
	s.vmu.Lock()
	w := s.watcher
	s.watcher = nil
	s.vmu.Unlock()
	if w == nil {
		return nil
	}
	return w.Close()
}

// FileUsed returns the config file path, or "" when running on defaults.
func (s *Store) FileUsed() string {
	s.vmu.Lock()
	defer s.vmu.Unlock()
	return s.v.ConfigFileUsed()
}

func (s *Store) watchLoop(w *fsnotify.Watcher, file string) {
	for {
		select {
		case e, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(e.Name) != file || e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			logger.Infof("[Config] %s changed (%s), reloading", e.Name, e.Op)
			if err := s.reloadFile(); err != nil {
				logger.Errorf("[Config] reload failed: %v", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Errorf("[Config] watcher: %v", err)
		}
	}
}

func (s *Store) reloadFile() error {
	s.vmu.Lock()
	var (
		prev, next Config
		err        error
	)
	if err = s.v.ReadInConfig(); err != nil {
		err = fmt.Errorf("read config: %w", err)
	} else {
		prev, next, err = s.reloadLocked()
	}
	s.vmu.Unlock()
	if err != nil {
		return err
	}
	s.notifyChanges(prev, next)
	return nil
}

// reloadLocked decodes and validates viper's state and swaps it in. The caller
// holds vmu, so snapshots are installed in the order viper was changed.
func (s *Store) reloadLocked() (prev, next Config, err error) {
	if err := s.v.Unmarshal(&next); err != nil {
		return Config{}, Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := next.Validate(); err != nil {
		return Config{}, Config{}, err
	}
	s.mu.Lock()
	prev = s.cfg
	s.cfg = next
	s.mu.Unlock()
	return prev, next, nil
}

// notifyChanges runs the subscribers of every key that differs between prev and next.
func (s *Store) notifyChanges(prev, next Config) {
	before, after := prev.values(), next.values()
	for _, key := range allKeys {
		if reflect.DeepEqual(before[key], after[key]) {
			continue
		}
		s.notify(key, before[key], after[key])
	}
}

func (s *Store) notify(key string, old, new any) {
	s.subMu.Lock()
	fns := append([]ChangeFunc(nil), s.subs[key]...)
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(old, new)
	}
}

func isKey(key string) bool {
	for _, k := range allKeys {
		if k == key {
			return true
		}
	}
	return false
}
