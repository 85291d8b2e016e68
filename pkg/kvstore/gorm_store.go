package kvstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const DefaultTable = "kv_entries"

type Entry struct {
	Key       string         `gorm:"column:entry_key;primaryKey;size:191"`
	Value     datatypes.JSON `gorm:"column:entry_value;not null"`
	UpdatedAt time.Time
}

type GormStore struct {
	DB    *gorm.DB
	table string
}

// NewGormStore migrates the entry table and returns a store over it.
func NewGormStore(ctx context.Context, db *gorm.DB, table string) (*GormStore, error) {
	if table == "" {
		table = DefaultTable
	}
	if err := db.WithContext(ctx).Table(table).AutoMigrate(&Entry{}); err != nil {
		return nil, errors.Wrapf(err, "kvstore: migrate %s", table)
	}
	return &GormStore{DB: db, table: table}, nil
}

// NewInMemory returns a store on a private in-memory sqlite database.
func NewInMemory() (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "kvstore: open memory")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "kvstore: open memory")
	}
	// every pooled connection would otherwise see its own empty database
	sqlDB.SetMaxOpenConns(1)
	return NewGormStore(context.Background(), db, DefaultTable)
}

func (s *GormStore) query(ctx context.Context) *gorm.DB {
	return s.DB.WithContext(ctx).Table(s.table)
}

func (s *GormStore) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	var e Entry
	err := s.query(ctx).Where("entry_key = ?", key).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "kvstore: get %s", key)
	}
	if err := json.Unmarshal(e.Value, dst); err != nil {
		return false, errors.Wrapf(err, "kvstore: decode %s", key)
	}
	return true, nil
}

func (s *GormStore) Put(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "kvstore: encode %s", key)
	}
	e := Entry{Key: key, Value: datatypes.JSON(raw), UpdatedAt: time.Now()}
	err = s.query(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"entry_value", "updated_at"}),
	}).Create(&e).Error
	return errors.Wrapf(err, "kvstore: put %s", key)
}

func (s *GormStore) Delete(ctx context.Context, key string) error {
	err := s.query(ctx).Where("entry_key = ?", key).Delete(&Entry{}).Error
	return errors.Wrapf(err, "kvstore: delete %s", key)
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
