package rules

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/clearcart/pricing-engine/pkg/db/models"
	"github.com/clearcart/pricing-engine/pkg/redis"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	// A second connection would see a different in-memory database.
	sqlDB.SetMaxOpenConns(1)

	if err := conn.AutoMigrate(&models.PricingRule{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func intPtr(v int) *int {
	return &v
}

func decPtr(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

// fakeCache is an in-memory stand-in for the redis client.
type fakeCache struct {
	entries map[string]string
	gets    int
	sets    int
	dels    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]string{}}
}

func (f *fakeCache) RuleKey(skuID string) string {
	return strings.Join([]string{"pricing", "rule", skuID}, ":")
}

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	f.gets++
	val, ok := f.entries[key]
	if !ok {
		return "", redis.ErrMiss
	}
	return val, nil
}

func (f *fakeCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.sets++
	switch v := value.(type) {
	case []byte:
		f.entries[key] = string(v)
	case string:
		f.entries[key] = v
	}
	return nil
}

func (f *fakeCache) Del(_ context.Context, keys ...string) error {
	f.dels++
	for _, key := range keys {
		delete(f.entries, key)
	}
	return nil
}
