package tests

import (
	"bytes"
	"fmt"
	"runtime"
	"testing"

	"github.com/lithdew/mdbxt"
)

func TestPutGetSameTxn(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	db := newTestDB(t)
	defer db.cleanup()

	env := newEnv(t, db.path, mdbxt.EnvFlags{})
	defer env.Close()

	txn, err := env.Begin(nil, mdbxt.TxnFlags{})
	if err != nil {
		t.Fatal(err)
	}
	defer txn.Abort()

	dbi, err := txn.OpenNamed("crud", mdbxt.DBFlags{CreateIfMissing: true})
	if err != nil {
		t.Fatal(err)
	}

	key := []byte("key\x00with\xffarbitrary bytes")
	val := []byte{0x00, 0xff, 0x7f, 0x80, 0x01}
	if err := txn.Put(dbi, key, val, mdbxt.PutFlags{}); err != nil {
		t.Fatal(err)
	}

	got, err := txn.Get(dbi, key)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, val) {
		t.Fatalf("Get in same txn: got %x, want %x", got, val)
	}
}

func TestPutGetAcrossCommit(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	db := newTestDB(t)
	defer db.cleanup()

	env := newEnv(t, db.path, mdbxt.EnvFlags{})
	defer env.Close()

	entries := map[string]string{
		"key1":  "value1",
		"key2":  "value2",
		"key3":  "value3",
		"hello": "world",
		"foo":   "bar",
	}
	err := env.Update(func(txn *mdbxt.Txn) error {
		dbi, err := txn.OpenNamed("crud", mdbxt.DBFlags{CreateIfMissing: true})
		if err != nil {
			return err
		}
		for k, v := range entries {
			if err := txn.Put(dbi, []byte(k), []byte(v), mdbxt.PutFlags{}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	err = env.View(func(txn *mdbxt.Txn) error {
		dbi, err := txn.OpenNamed("crud", mdbxt.DBFlags{})
		if err != nil {
			return err
		}
		for k, v := range entries {
			got, err := txn.Get(dbi, []byte(k))
			if err != nil {
				return fmt.Errorf("get %q: %w", k, err)
			}
			if string(got) != v {
				t.Errorf("get %q: got %q, want %q", k, got, v)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestDontOverwriteKey(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	db := newTestDB(t)
	defer db.cleanup()

	env := newEnv(t, db.path, mdbxt.EnvFlags{})
	defer env.Close()

	err := env.Update(func(txn *mdbxt.Txn) error {
		dbi, err := txn.OpenNamed("crud", mdbxt.DBFlags{CreateIfMissing: true})
		if err != nil {
			return err
		}
		if err := txn.Put(dbi, []byte("k"), []byte("v1"), mdbxt.PutFlags{}); err != nil {
			return err
		}

		err = txn.Put(dbi, []byte("k"), []byte("v2"), mdbxt.PutFlags{DontOverwriteKey: true})
		if !mdbxt.IsAlreadyExists(err) {
			t.Fatalf("expected AlreadyExists, got %v", err)
		}
		got, err := txn.Get(dbi, []byte("k"))
		if err != nil {
			return err
		}
		if string(got) != "v1" {
			t.Fatalf("value changed by failed no-overwrite put: %q", got)
		}

		// Without the flag the overwrite goes through.
		if err := txn.Put(dbi, []byte("k"), []byte("v2"), mdbxt.PutFlags{}); err != nil {
			return err
		}
		got, err = txn.Get(dbi, []byte("k"))
		if err != nil {
			return err
		}
		if string(got) != "v2" {
			t.Fatalf("plain put did not overwrite: %q", got)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestDeleteThenNotFound(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	db := newTestDB(t)
	defer db.cleanup()

	env := newEnv(t, db.path, mdbxt.EnvFlags{})
	defer env.Close()

	mustPut(t, env, "crud", []byte("gone"), []byte("soon"))

	err := env.Update(func(txn *mdbxt.Txn) error {
		dbi, err := txn.OpenNamed("crud", mdbxt.DBFlags{})
		if err != nil {
			return err
		}
		if err := txn.Del(dbi, []byte("gone")); err != nil {
			return err
		}
		if _, err := txn.Get(dbi, []byte("gone")); !mdbxt.IsNotFound(err) {
			t.Fatalf("expected NotFound after delete, got %v", err)
		}
		// Deleting an absent key is a NotFound error, not a fault.
		if err := txn.Del(dbi, []byte("never existed")); !mdbxt.IsNotFound(err) {
			t.Fatalf("expected NotFound for absent key, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestDropDatabase(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	db := newTestDB(t)
	defer db.cleanup()

	env := newEnv(t, db.path, mdbxt.EnvFlags{})
	defer env.Close()

	mustPut(t, env, "droppable", []byte("a"), []byte("1"))

	// Empty: entries vanish, handle stays valid.
	err := env.Update(func(txn *mdbxt.Txn) error {
		dbi, err := txn.OpenNamed("droppable", mdbxt.DBFlags{})
		if err != nil {
			return err
		}
		if err := txn.Drop(dbi, false); err != nil {
			return err
		}
		stat, err := txn.Stat(dbi)
		if err != nil {
			return err
		}
		if stat.Entries != 0 {
			t.Fatalf("emptied database still has %d entries", stat.Entries)
		}
		return txn.Put(dbi, []byte("b"), []byte("2"), mdbxt.PutFlags{})
	})
	if err != nil {
		t.Fatal(err)
	}

	// Delete: the definition itself goes away.
	err = env.Update(func(txn *mdbxt.Txn) error {
		dbi, err := txn.OpenNamed("droppable", mdbxt.DBFlags{})
		if err != nil {
			return err
		}
		return txn.Drop(dbi, true)
	})
	if err != nil {
		t.Fatal(err)
	}

	err = env.View(func(txn *mdbxt.Txn) error {
		_, err := txn.OpenNamed("droppable", mdbxt.DBFlags{})
		if !mdbxt.IsNotFound(err) {
			t.Fatalf("expected NotFound opening deleted database, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestSequence(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	db := newTestDB(t)
	defer db.cleanup()

	env := newEnv(t, db.path, mdbxt.EnvFlags{})
	defer env.Close()

	err := env.Update(func(txn *mdbxt.Txn) error {
		dbi, err := txn.OpenNamed("seq", mdbxt.DBFlags{CreateIfMissing: true})
		if err != nil {
			return err
		}
		v, err := txn.Sequence(dbi, 5)
		if err != nil {
			return err
		}
		if v != 0 {
			t.Fatalf("fresh sequence: got %d, want 0", v)
		}
		v, err = txn.Sequence(dbi, 0)
		if err != nil {
			return err
		}
		if v != 5 {
			t.Fatalf("sequence after +5: got %d, want 5", v)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}
