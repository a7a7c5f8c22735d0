package databaseaccess

import (
	"encoding/binary"
	"fmt"
	"path/filepath"

	"github.com/Ethernal-Tech/deposit-relayer/common"
	"github.com/Ethernal-Tech/deposit-relayer/relayer/core"
)

// NewDatabase opens a bbolt database at filePath or an in-memory one when filePath is empty
func NewDatabase(filePath string) (core.Database, error) {
	if filePath == "" {
		db := NewMemoryDatabase()

		return db, db.Init("")
	}

	if err := common.CreateDirectoryIfNotExists(filepath.Dir(filePath)); err != nil {
		return nil, fmt.Errorf("failed to create directory for relayer database: %w", err)
	}

	db := &BBoltDatabase{}
	if err := db.Init(filePath); err != nil {
		return nil, err
	}

	return db, nil
}

// NewReadOnlyDatabase opens an existing bbolt database at filePath without modifying it
func NewReadOnlyDatabase(filePath string) (core.Database, error) {
	db := &BBoltDatabase{}
	if err := db.InitReadOnly(filePath); err != nil {
		return nil, err
	}

	return db, nil
}

func uint64ToKey(value uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, value)

	return key
}
