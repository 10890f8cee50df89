// Package store persists listening history, likes, and playlists on MySQL.
package store

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Config represents database connection configuration.
type Config struct {
	Host     string `yaml:"host" default:"127.0.0.1"`
	Port     int    `yaml:"port" default:"3306"`
	User     string `yaml:"user" default:"swipebox"`
	Password string `yaml:"password"`
	Name     string `yaml:"name" default:"swipebox"`

	MaxOpenConns int `yaml:"max_open_conns" default:"10"`
	MaxIdleConns int `yaml:"max_idle_conns" default:"5"`
}

// DSN builds the MySQL connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.Name)
}

// Store is the taste store. Safe for concurrent use; every mutation runs in
// its own transaction. Read failures are logged and return empty or false so
// the feed keeps moving; mutations surface wrapped errors.
type Store struct {
	db *gorm.DB
}

// Open connects to MySQL and migrates the schema.
func Open(cfg Config) (*Store, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get underlying sql.DB")
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Song{}, &Playlist{}, &PlaylistSong{}, &SearchQuery{}); err != nil {
		return nil, errors.Wrap(err, "failed to migrate schema")
	}

	return NewWithDB(db), nil
}

// NewWithDB wraps an existing GORM handle.
func NewWithDB(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get underlying sql.DB")
	}
	return sqlDB.Close()
}
