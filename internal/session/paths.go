package session

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.wam.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".wam")
}

// Dir returns the session-specific directory.
func Dir(name string) string {
	return filepath.Join(BaseDir(), "sessions", name)
}

// LockPath returns the lock file path for a session.
func LockPath(name string) string {
	return filepath.Join(Dir(name), "LOCK")
}

// StoreDir returns the directory holding the bridge-written databases.
func StoreDir(name string) string {
	return filepath.Join(Dir(name), "store")
}

// MessagesDBPath returns the archive database path (chats and messages).
func MessagesDBPath(name string) string {
	return filepath.Join(StoreDir(name), "messages.db")
}

// WhatsAppDBPath returns the whatsmeow identity database path (device and
// contact tables, written by the bridge).
func WhatsAppDBPath(name string) string {
	return filepath.Join(StoreDir(name), "whatsapp.db")
}

// LogDir returns the log directory for a session.
func LogDir(name string) string {
	return filepath.Join(Dir(name), "logs")
}

// LogPath returns the daemon log file path.
func LogPath(name string) string {
	return filepath.Join(LogDir(name), "wamd.log")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// EnsureDir creates the session directory tree with proper permissions.
func EnsureDir(name string) error {
	dirs := []string{
		Dir(name),
		StoreDir(name),
		LogDir(name),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
