package database

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"
	"testing"
	"testing/fstest"
)

func TestOpenMigrationsOrdersVersions(t *testing.T) {
	fsys := fstest.MapFS{
		"000002_payment_intents.up.sql":           {Data: []byte("CREATE TABLE payment_intents ();")},
		"000002_payment_intents.down.sql":         {Data: []byte("DROP TABLE payment_intents;")},
		"000001_reservation_submissions.up.sql":   {Data: []byte("CREATE TABLE reservation_submissions ();")},
		"000001_reservation_submissions.down.sql": {Data: []byte("DROP TABLE reservation_submissions;")},
		"README.md": {Data: []byte("notes")},
	}

	src, err := OpenMigrations(fsys)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer src.Close()

	first, err := src.First()
	if err != nil || first != 1 {
		t.Fatalf("expected first version 1, got %d, %v", first, err)
	}
	next, err := src.Next(first)
	if err != nil || next != 2 {
		t.Fatalf("expected next version 2, got %d, %v", next, err)
	}
	if _, err := src.Next(next); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected no version after 2, got %v", err)
	}

	body, name, err := src.ReadUp(2)
	if err != nil {
		t.Fatalf("read up 2: %v", err)
	}
	defer body.Close()
	sql, _ := io.ReadAll(body)
	if name != "payment_intents" || !strings.Contains(string(sql), "CREATE TABLE payment_intents") {
		t.Fatalf("unexpected migration %q: %s", name, sql)
	}
}

func TestOpenMigrationsRejectsDuplicateVersions(t *testing.T) {
	fsys := fstest.MapFS{
		"000001_a.up.sql":  {Data: []byte("SELECT 1;")},
		"0000001_b.up.sql": {Data: []byte("SELECT 1;")},
	}
	if _, err := OpenMigrations(fsys); err == nil {
		t.Fatal("expected duplicate version error")
	}
}

func TestRepositoryMigrationsAreReversible(t *testing.T) {
	src, err := OpenMigrations(os.DirFS("../../../migrations"))
	if err != nil {
		t.Fatalf("open migrations dir: %v", err)
	}
	defer src.Close()

	count := 0
	for v, err := src.First(); err == nil; v, err = src.Next(v) {
		up, _, err := src.ReadUp(v)
		if err != nil {
			t.Fatalf("version %d has no up file: %v", v, err)
		}
		up.Close()
		down, _, err := src.ReadDown(v)
		if err != nil {
			t.Fatalf("version %d has no down file: %v", v, err)
		}
		down.Close()
		count++
	}
	if count == 0 {
		t.Fatal("expected migrations in the repository")
	}
}
