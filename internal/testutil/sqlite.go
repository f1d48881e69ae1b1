// Package testutil provides database fixtures for package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"golang-stock-recommender/internal/entity"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewSQLiteDB opens a private in-memory database with every table migrated.
// The pool is capped at one connection so the shared-cache database lives as
// long as the test.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(entity.AllModels...))
	return db
}

// Fixture seeds rows for tests.
type Fixture struct {
	t  *testing.T
	db *gorm.DB
}

// NewFixture binds a fixture to db.
func NewFixture(t *testing.T, db *gorm.DB) *Fixture {
	return &Fixture{t: t, db: db}
}

// Sector creates a sector.
func (f *Fixture) Sector(name string) entity.Sector {
	f.t.Helper()
	s := entity.Sector{Name: name}
	require.NoError(f.t, f.db.Create(&s).Error)
	return s
}

// Company creates a company linked to the given sectors.
func (f *Fixture) Company(name string, sectors ...entity.Sector) entity.Company {
	f.t.Helper()
	c := entity.Company{Name: name}
	require.NoError(f.t, f.db.Create(&c).Error)
	for _, s := range sectors {
		require.NoError(f.t, f.db.Create(&entity.CompanySector{CompanyID: c.ID, SectorID: s.ID}).Error)
	}
	return c
}

// DefaultReadiness is the counter a fixture user starts with.
const DefaultReadiness = -5

// User creates a user with the default readiness counter and sector interests.
func (f *Fixture) User(email string, sectors ...entity.Sector) entity.User {
	f.t.Helper()
	u := entity.User{Email: email, Name: email, HardReady: DefaultReadiness}
	require.NoError(f.t, f.db.Create(&u).Error)
	for _, s := range sectors {
		require.NoError(f.t, f.db.Create(&entity.UserSector{UserID: u.ID, SectorID: s.ID}).Error)
	}
	return u
}

// SetReadiness forces the readiness counter, including to zero.
func (f *Fixture) SetReadiness(userID uint, value int) {
	f.t.Helper()
	require.NoError(f.t, f.db.Model(&entity.User{}).Where("id = ?", userID).UpdateColumn("hard_ready", value).Error)
}

// Readiness reads the readiness counter.
func (f *Fixture) Readiness(userID uint) int {
	f.t.Helper()
	var u entity.User
	require.NoError(f.t, f.db.First(&u, userID).Error)
	return u.HardReady
}

// Entry reads a ledger entry.
func (f *Fixture) Entry(userID, companyID uint) entity.FollowLedgerEntry {
	f.t.Helper()
	var e entity.FollowLedgerEntry
	require.NoError(f.t, f.db.Where("user_id = ? AND company_id = ?", userID, companyID).Take(&e).Error)
	return e
}

// Ledger writes a ledger entry directly.
func (f *Fixture) Ledger(userID, companyID uint, state entity.FollowState, distance uint32) {
	f.t.Helper()
	e := entity.FollowLedgerEntry{UserID: userID, CompanyID: companyID, State: state, Distance: distance}
	require.NoError(f.t, f.db.Create(&e).Error)
}
