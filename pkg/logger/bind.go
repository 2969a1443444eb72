package logger

// Config keys the logger reacts to. They match the keys of the application config.
const (
	KeyLogLevel       = "log_level"
	KeyUseFileLogging = "use_file_logging"
	KeyLogPath        = "log_path"
)

// Notifier is the subscribe half of an observable configuration.
type Notifier interface {
	OnChange(key string, fn func(old, new any))
}

// Bind subscribes the logger to runtime changes of the logging settings.
func Bind(n Notifier) {
	n.OnChange(KeyLogLevel, func(_, v any) {
		level, _ := v.(string)
		if err := SetLevel(level); err != nil {
			Errorf("log level update failed: %v", err)
			return
		}
		Infof("Log level updated to %s", level)
	})
	n.OnChange(KeyUseFileLogging, func(_, v any) {
		enabled, _ := v.(bool)
		if err := SetFileLogging(enabled); err != nil {
			Errorf("file logging update failed: %v", err)
			return
		}
		Infof("File logging set to %v", enabled)
	})
	n.OnChange(KeyLogPath, func(_, v any) {
		path, _ := v.(string)
		if err := SetLogPath(path); err != nil {
			Errorf("log path update failed: %v", err)
			return
		}
		Infof("File logging updated to %s", path)
	})
}
