package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Database is the handle every repository receives. Each call to Transaction
// is one unit of work: fn runs inside a fresh transaction which commits when
// fn returns nil and rolls back on an error or a panic. The error from fn is
// returned unchanged.
type Database interface {
	GetDB() *gorm.DB
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	Close() error
}

type GormDatabase struct {
	DB *gorm.DB
}

func (g *GormDatabase) GetDB() *gorm.DB { return g.DB }

func (g *GormDatabase) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.DB.WithContext(ctx).Transaction(fn)
}

func (g *GormDatabase) Close() error {
	sqlDB, err := g.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}
