package db

import (
	"fmt"
	"sync/atomic"

	"gorm.io/driver/sqlite"
)

var memoryDBSeq atomic.Int64

// OpenMemory opens a private, migrated in-memory SQLite database. Each call
// gets its own database so tests do not share rows.
func OpenMemory() (Database, error) {
	name := fmt.Sprintf("file:users-%d?mode=memory&cache=shared&_foreign_keys=1", memoryDBSeq.Add(1))
	return Open(sqlite.Open(name), PoolOptions{MaxOpenConns: 1, MaxIdleConns: 1})
}
