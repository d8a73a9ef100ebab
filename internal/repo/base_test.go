package repo

import (
	"context"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return conn
}

func TestBaseDBBindsContext(t *testing.T) {
	conn := openTestDB(t)
	base := NewBase(conn)

	ctx := context.Background()
	bound := base.DB(ctx)

	if bound == nil || bound.Statement == nil {
		t.Fatal("expected a statement-carrying session")
	}
	if bound.Statement.Context != ctx {
		t.Fatalf("context did not flow through, got %v", bound.Statement.Context)
	}
}

func TestBaseDBNilContextReturnsRawConnection(t *testing.T) {
	conn := openTestDB(t)
	base := NewBase(conn)

	if got := base.DB(nil); got != conn {
		t.Fatal("nil context should return the raw connection")
	}
}
