// Package persistence stores the simulate publish tasks and account
// binding attempts the host wants to keep across restarts. The backend
// is selected by name from a dialector registry.
package persistence

import (
	"fmt"
	"sync"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DialectorOpener is an alias for a function that returns a
// gorm.Dialector for a given DSN.
type DialectorOpener = func(string) gorm.Dialector

var (
	registryMu sync.RWMutex
	openers    = make(map[string]DialectorOpener)
)

func init() {
	Register("sqlite", sqlite.Open)
	Register("postgres", postgres.Open)
	Register("mysql", mysql.Open)
}

// Register adds a storage backend to the registry.
func Register(name string, opener DialectorOpener) {
	registryMu.Lock()
	defer registryMu.Unlock()
	openers[name] = opener
}

// Open connects to the named backend and migrates the task schema.
func Open(name, dsn string) (*Store, error) {
	registryMu.RLock()
	opener, ok := openers[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("persistence: unknown storage backend %q", name)
	}

	db, err := gorm.Open(opener(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	store := NewStore(db)
	if err := store.AutoMigrate(); err != nil {
		return nil, err
	}
	return store, nil
}
