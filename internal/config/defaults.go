package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultConfig returns the default configuration with platform paths.
func DefaultConfig() *Config {
	dataDir := PlatformDataDir()
	return &Config{
		Version: Version,
		Buffer: BufferConfig{
			Capacity: 4096,
		},
		Field: FieldConfig{
			MaxReadBytes:         8192,
			ExtraEditableClasses: []string{},
		},
		Engine: EngineConfig{
			RetryDelayMs:   20,
			RecheckDelayMs: 10,
			DetectEvery:    16,
			StrategyOrder:  []string{},
		},
		Verify: VerifyConfig{
			ShortTextMax:        50,
			PrefixLen:           50,
			SimilarityThreshold: 0.85,
		},
		Insertion: InsertionConfig{
			InterKeyDelayMs: 2,
			PasteSettleMs:   15,
		},
		Dictionary: DictionaryConfig{
			WordlistPath:      "",
			UserWordlistPath:  filepath.Join(PlatformConfigDir(), "words.json"),
			FrequencyDBPath:   filepath.Join(dataDir, "frequency.db"),
			WatchUserWordlist: true,
			MinPrefixLen:      2,
		},
		Suggest: SuggestConfig{
			MaxCandidates:  8,
			CacheSize:      256,
			FuzzyThreshold: 0.90,
		},
		Logging: LoggingConfig{
			Level:         "info",
			Format:        "text",
			Output:        "file",
			FilePath:      filepath.Join(PlatformLogDir(), "sysinput.log"),
			RedactContent: true,
		},
	}
}

// PlatformDataDir returns the platform-specific data directory.
//
// Platform paths:
//   - Windows: %LOCALAPPDATA%\sysinput\
//   - macOS:   ~/Library/Application Support/sysinput/
//   - Linux:   $XDG_DATA_HOME/sysinput/ or ~/.local/share/sysinput/
func PlatformDataDir() string {
	if envDir := os.Getenv("SYSINPUT_DATA_DIR"); envDir != "" {
		return envDir
	}
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(windowsLocalAppData(), "sysinput")
	case "darwin":
		home := userHome()
		return filepath.Join(home, "Library", "Application Support", "sysinput")
	default:
		if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
			return filepath.Join(xdgData, "sysinput")
		}
		return filepath.Join(userHome(), ".local", "share", "sysinput")
	}
}

// PlatformConfigDir returns the platform-specific config directory.
//
// Platform paths:
//   - Windows: %APPDATA%\sysinput\
//   - macOS:   ~/Library/Application Support/sysinput/
//   - Linux:   $XDG_CONFIG_HOME/sysinput/ or ~/.config/sysinput/
func PlatformConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = windowsLocalAppData()
		}
		return filepath.Join(appData, "sysinput")
	case "darwin":
		return PlatformDataDir()
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			return filepath.Join(xdgConfig, "sysinput")
		}
		return filepath.Join(userHome(), ".config", "sysinput")
	}
}

// PlatformLogDir returns the platform-specific log directory.
//
// Platform paths:
//   - Windows: %LOCALAPPDATA%\sysinput\logs\
//   - macOS:   ~/Library/Logs/sysinput/
//   - Linux:   ~/.local/share/sysinput/logs/
func PlatformLogDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(windowsLocalAppData(), "sysinput", "logs")
	case "darwin":
		return filepath.Join(userHome(), "Library", "Logs", "sysinput")
	default:
		return filepath.Join(PlatformDataDir(), "logs")
	}
}

func windowsLocalAppData() string {
	if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
		return localAppData
	}
	return filepath.Join(userHome(), "AppData", "Local")
}

func userHome() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	home, _ := os.UserHomeDir()
	return home
}
