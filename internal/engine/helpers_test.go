package engine_test

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"tablesync/internal/config"
	"tablesync/internal/engine"
)

const (
	testKey = "0123456789abcdef0123456789abcdef"
	testIV  = "abcdef9876543210"

	srcDSN = "postgres://u:p@src:5432/app"
	tgtDSN = "postgres://u:p@tgt:5432/app"
)

func testConfig() *config.Config {
	return &config.Config{
		Encryption: config.EncryptionConfig{Key: testKey, IV: testIV, Fields: []string{"email"}},
		Sync:       config.SyncConfig{MaxRows: 100000, BatchSize: 500},
	}
}

// mockOpener hands out prepared sqlmock handles per DSN, in order.
type mockOpener struct {
	mu  sync.Mutex
	dbs map[string][]*sql.DB
}

func (o *mockOpener) add(dsn string, db *sql.DB) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.dbs == nil {
		o.dbs = make(map[string][]*sql.DB)
	}
	o.dbs[dsn] = append(o.dbs[dsn], db)
}

func (o *mockOpener) open(driverName, dsn string) (*sql.DB, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	queue := o.dbs[dsn]
	if len(queue) == 0 {
		return nil, fmt.Errorf("no mock prepared for %s", dsn)
	}
	o.dbs[dsn] = queue[1:]
	return queue[0], nil
}

func newMock(t *testing.T, o *mockOpener, dsn string) sqlmock.Sqlmock {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	o.add(dsn, db)
	return mock
}

func newSync(cfg *config.Config, o *mockOpener) *engine.Synchronizer {
	return engine.New(cfg, engine.WithOpener(o.open))
}

func verify(t *testing.T, mocks ...sqlmock.Sqlmock) {
	t.Helper()
	for _, m := range mocks {
		if err := m.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
	}
}

// capture records string arguments it is matched against.
type capture struct {
	values *[]string
}

func (c capture) Match(v driver.Value) bool {
	s, ok := v.(string)
	if ok {
		*c.values = append(*c.values, s)
	}
	return ok
}
