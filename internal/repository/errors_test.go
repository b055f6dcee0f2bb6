package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
)

func TestIsDuplicateKey(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a@b.ie' for key 'uq_users_email'"}
	if !isDuplicateKey(dup) {
		t.Fatal("1062 not detected")
	}
	if !isDuplicateKey(fmt.Errorf("insert user: %w", dup)) {
		t.Fatal("wrapped 1062 not detected")
	}
	if isDuplicateKey(&mysql.MySQLError{Number: 1452}) {
		t.Fatal("foreign key error reported as duplicate")
	}
	if isDuplicateKey(errors.New("Duplicate entry")) {
		t.Fatal("plain error reported as duplicate")
	}
}

func TestNullIfEmpty(t *testing.T) {
	if v := nullIfEmpty(""); v.Valid {
		t.Fatalf("empty = %+v, want NULL", v)
	}
	if v := nullIfEmpty("x"); !v.Valid || v.String != "x" {
		t.Fatalf("x = %+v", v)
	}
}
