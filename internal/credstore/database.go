package credstore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/ihza212325/trashpin/internal/config"
)

// Credential is a single key/value row.
type Credential struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

// ProfileCache holds the last fetched profile of the signed-in user as raw
// JSON so schema changes on the auth server never break the table.
type ProfileCache struct {
	ID        uint           `gorm:"primaryKey"`
	Payload   datatypes.JSON `gorm:"type:jsonb"`
	UpdatedAt time.Time
}

// profileRowID keeps the cache to a single row.
const profileRowID = 1

// Database stores credentials in Postgres, falling back to SQLite when the
// server is unreachable.
type Database struct {
	db         *gorm.DB
	sqlDB      *sql.DB
	savedLocal bool
	logger     zerolog.Logger
}

// NewDatabase connects and migrates the credential tables.
func NewDatabase(cfg config.DBConfig, log zerolog.Logger) (*Database, error) {
	d := &Database{logger: log}

	var err error
	d.db, err = openPostgres(cfg, log)
	if err == nil {
		d.sqlDB, err = d.db.DB()
		if err == nil {
			err = d.sqlDB.Ping()
		}
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to connect to Postgres DB, trying SQLite")
		d.savedLocal = true
		d.db, err = openSqlite(cfg.SqliteFilePath, log)
		if err != nil {
			return nil, fmt.Errorf("failed to get local SQLite DB: %w", err)
		}
		d.sqlDB, err = d.db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access sql interface: %w", err)
		}
	} else {
		log.Info().Msg("Connected to database")
		d.sqlDB.SetMaxOpenConns(10)
	}

	if err := d.db.AutoMigrate(&Credential{}, &ProfileCache{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return d, nil
}

// openPostgres returns a connection to the Postgres database.
func openPostgres(cfg config.DBConfig, log zerolog.Logger) (*gorm.DB, error) {
	dsn := fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		cfg.Host,
		cfg.Port,
		cfg.Username,
		cfg.Password,
		cfg.Database,
	)

	log.Debug().Msgf("Connecting to Postgres DB at '%s'", dsn)

	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
}

// openSqlite returns a connection to a SQLite database.
// If path is empty, uses an in-memory database.
func openSqlite(path string, log zerolog.Logger) (*gorm.DB, error) {
	dsn := path
	if dsn == "" {
		dsn = "file::memory:?cache=shared"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if path != "" {
		log.Info().Str("path", path).Msg("Using local SQLite DB")
	} else {
		log.Info().Msg("Using local SQLite DB in memory")
	}

	pragmas := []string{
		"PRAGMA user_version = 1;",
		"PRAGMA journal_mode = MEMORY;",
		"PRAGMA synchronous = OFF;",
		"PRAGMA temp_store = MEMORY;",
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %w", err)
		}
	}

	return db, nil
}

// SavedLocal reports whether the store fell back to SQLite.
func (d *Database) SavedLocal() bool {
	return d.savedLocal
}

func (d *Database) Get(key string) (string, error) {
	var cred Credential
	err := d.db.First(&cred, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return cred.Value, nil
}

func (d *Database) Set(key, value string) error {
	return d.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&Credential{Key: key, Value: value}).Error
}

func (d *Database) Delete(key string) error {
	return d.db.Delete(&Credential{}, "key = ?", key).Error
}

func (d *Database) SaveProfile(payload []byte) error {
	return d.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&ProfileCache{
		ID:        profileRowID,
		Payload:   datatypes.JSON(payload),
		UpdatedAt: time.Now(),
	}).Error
}

func (d *Database) Profile() ([]byte, error) {
	var cache ProfileCache
	err := d.db.First(&cache, "id = ?", profileRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(cache.Payload), nil
}

func (d *Database) Close() error {
	if d.sqlDB != nil {
		return d.sqlDB.Close()
	}
	return nil
}
