package tests

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/lithdew/mdbxt"
)

func TestGetOrPut(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	db := newTestDB(t)
	defer db.cleanup()

	env := newEnv(t, db.path, mdbxt.EnvFlags{})
	defer env.Close()

	err := env.Update(func(txn *mdbxt.Txn) error {
		dbi, err := txn.OpenNamed("gop", mdbxt.DBFlags{CreateIfMissing: true})
		if err != nil {
			return err
		}

		// First call on an absent key stores and reports absence.
		existing, err := txn.GetOrPut(dbi, []byte("k"), []byte("original"))
		if err != nil {
			return err
		}
		if existing != nil {
			t.Fatalf("absent key reported existing value %q", existing)
		}

		// Second call with a different value returns the original,
		// unchanged.
		existing, err = txn.GetOrPut(dbi, []byte("k"), []byte("intruder"))
		if err != nil {
			return err
		}
		if string(existing) != "original" {
			t.Fatalf("existing value: got %q, want %q", existing, "original")
		}
		got, err := txn.Get(dbi, []byte("k"))
		if err != nil {
			return err
		}
		if string(got) != "original" {
			t.Fatalf("stored value mutated: %q", got)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestReserveWriteBranch(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	db := newTestDB(t)
	defer db.cleanup()

	env := newEnv(t, db.path, mdbxt.EnvFlags{})
	defer env.Close()

	payload := []byte("filled in after the reservation")

	err := env.Update(func(txn *mdbxt.Txn) error {
		dbi, err := txn.OpenNamed("rsv", mdbxt.DBFlags{CreateIfMissing: true})
		if err != nil {
			return err
		}
		buf, found, err := txn.Reserve(dbi, []byte("k"), len(payload), mdbxt.PutFlags{})
		if err != nil {
			return err
		}
		if found {
			t.Fatal("reservation on absent key reported found")
		}
		if len(buf) != len(payload) {
			t.Fatalf("reserved %d bytes, want %d", len(buf), len(payload))
		}
		copy(buf, payload)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	err = env.View(func(txn *mdbxt.Txn) error {
		dbi, err := txn.OpenNamed("rsv", mdbxt.DBFlags{})
		if err != nil {
			return err
		}
		got, err := txn.Get(dbi, []byte("k"))
		if err != nil {
			return err
		}
		if !bytes.Equal(got, payload) {
			t.Fatalf("read back %q, want %q", got, payload)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

// The found-existing branch returns a borrowed view of the existing value;
// the only signal separating "found" from "written" is the result itself,
// which makes it easy to misuse. Pin the behavior down.
func TestReserveFoundBranch(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	db := newTestDB(t)
	defer db.cleanup()

	env := newEnv(t, db.path, mdbxt.EnvFlags{})
	defer env.Close()

	mustPut(t, env, "rsv", []byte("k"), []byte("already here"))

	err := env.Update(func(txn *mdbxt.Txn) error {
		dbi, err := txn.OpenNamed("rsv", mdbxt.DBFlags{})
		if err != nil {
			return err
		}
		buf, found, err := txn.Reserve(dbi, []byte("k"), 64,
			mdbxt.PutFlags{DontOverwriteKey: true})
		if err != nil {
			return err
		}
		if !found {
			t.Fatal("reservation on existing key did not report found")
		}
		if string(buf) != "already here" {
			t.Fatalf("found branch returned %q", buf)
		}
		got, err := txn.Get(dbi, []byte("k"))
		if err != nil {
			return err
		}
		if string(got) != "already here" {
			t.Fatalf("existing value disturbed: %q", got)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestCursorGetOrPutAndReserve(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	db := newTestDB(t)
	defer db.cleanup()

	env := newEnv(t, db.path, mdbxt.EnvFlags{})
	defer env.Close()

	err := env.Update(func(txn *mdbxt.Txn) error {
		dbi, err := txn.OpenNamed("rsv", mdbxt.DBFlags{CreateIfMissing: true})
		if err != nil {
			return err
		}
		cur, err := txn.OpenCursor(dbi)
		if err != nil {
			return err
		}
		defer cur.Close()

		existing, err := cur.GetOrPut([]byte("k"), []byte("first"))
		if err != nil {
			return err
		}
		if existing != nil {
			t.Fatalf("cursor GetOrPut on absent key found %q", existing)
		}
		existing, err = cur.GetOrPut([]byte("k"), []byte("second"))
		if err != nil {
			return err
		}
		if string(existing) != "first" {
			t.Fatalf("cursor GetOrPut: got %q, want %q", existing, "first")
		}

		buf, found, err := cur.Reserve([]byte("k2"), 3, mdbxt.PutFlags{})
		if err != nil {
			return err
		}
		if found {
			t.Fatal("cursor Reserve on absent key reported found")
		}
		copy(buf, "abc")
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}
