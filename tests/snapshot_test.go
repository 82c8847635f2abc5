package tests

import (
	"runtime"
	"testing"

	"github.com/lithdew/mdbxt"
)

func TestReaderSnapshotIsolation(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	db := newTestDB(t)
	defer db.cleanup()

	env := newEnv(t, db.path, mdbxt.EnvFlags{})
	defer env.Close()

	mustPut(t, env, "snap", []byte("k"), []byte("old"))

	before, err := env.Begin(nil, mdbxt.TxnFlags{ReadOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	defer before.Abort()

	dbi, err := before.OpenNamed("snap", mdbxt.DBFlags{})
	if err != nil {
		t.Fatal(err)
	}

	// A write commits while the reader is live.
	mustPut(t, env, "snap", []byte("k"), []byte("new"))

	// The reader's snapshot never advances.
	v, err := before.Get(dbi, []byte("k"))
	if err != nil {
		t.Fatal(err)
	}
	if string(v) != "old" {
		t.Fatalf("reader saw a later commit: %q", v)
	}

	after, err := env.Begin(nil, mdbxt.TxnFlags{ReadOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	defer after.Abort()
	v, err = after.Get(dbi, []byte("k"))
	if err != nil {
		t.Fatal(err)
	}
	if string(v) != "new" {
		t.Fatalf("fresh reader missed the commit: %q", v)
	}

	if after.ID() <= before.ID() {
		t.Fatalf("snapshot ids did not advance: %d then %d",
			before.ID(), after.ID())
	}
}

func TestReaderTable(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	db := newTestDB(t)
	defer db.cleanup()

	env := newEnv(t, db.path, mdbxt.EnvFlags{})
	defer env.Close()

	maxReaders, err := env.MaxReaders()
	if err != nil {
		t.Fatal(err)
	}
	if maxReaders == 0 {
		t.Fatal("reader table has zero capacity")
	}

	reader, err := env.Begin(nil, mdbxt.TxnFlags{ReadOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	info, err := env.Info()
	if err != nil {
		t.Fatal(err)
	}
	if info.NumReaders == 0 {
		t.Error("live reader not counted in the reader table")
	}
	reader.Abort()

	// Nothing is stale in-process, so nothing is reclaimed.
	n, err := env.Purge()
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("purge reclaimed %d slots with no dead readers", n)
	}
}
