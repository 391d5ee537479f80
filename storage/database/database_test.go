package database

import "testing"

func TestLevelDBPutGetDelete(t *testing.T) {
	dir := t.TempDir()
	db, err := NewLDBDatabase(dir, 16, 16)
	if err != nil {
		t.Fatalf("NewLDBDatabase: %v", err)
	}
	defer db.Close()

	key, val := []byte("k"), []byte("v")
	if err := db.Put(key, val); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := db.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "v" {
		t.Fatalf("expected v, got %s", got)
	}
	if ok, _ := db.Has(key); !ok {
		t.Fatal("expected key present")
	}
	if err := db.Delete(key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ok, _ := db.Has(key); ok {
		t.Fatal("expected key gone after delete")
	}
}

func TestTableNamespacesKeys(t *testing.T) {
	dir := t.TempDir()
	db, err := NewLDBDatabase(dir, 16, 16)
	if err != nil {
		t.Fatalf("NewLDBDatabase: %v", err)
	}
	defer db.Close()

	headers := NewTable(db, "h-")
	bodies := NewTable(db, "b-")

	if err := headers.Put([]byte("x"), []byte("header")); err != nil {
		t.Fatal(err)
	}
	if err := bodies.Put([]byte("x"), []byte("body")); err != nil {
		t.Fatal(err)
	}

	hv, _ := headers.Get([]byte("x"))
	bv, _ := bodies.Get([]byte("x"))
	if string(hv) != "header" || string(bv) != "body" {
		t.Fatalf("table prefixes collided: h=%s b=%s", hv, bv)
	}
}

func TestBatchWrite(t *testing.T) {
	dir := t.TempDir()
	db, err := NewLDBDatabase(dir, 16, 16)
	if err != nil {
		t.Fatalf("NewLDBDatabase: %v", err)
	}
	defer db.Close()

	batch := db.NewBatch()
	batch.Put([]byte("a"), []byte("1"))
	batch.Put([]byte("b"), []byte("2"))
	if err := batch.Write(); err != nil {
		t.Fatalf("batch write: %v", err)
	}

	for k, want := range map[string]string{"a": "1", "b": "2"} {
		got, err := db.Get([]byte(k))
		if err != nil {
			t.Fatalf("Get(%s): %v", k, err)
		}
		if string(got) != want {
			t.Fatalf("Get(%s) = %s, want %s", k, got, want)
		}
	}
}
