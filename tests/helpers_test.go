package tests

import (
	"os"
	"testing"

	"github.com/lithdew/mdbxt"
)

type testDB struct {
	path    string
	cleanup func()
}

func newTestDB(t *testing.T) *testDB {
	t.Helper()
	dir, err := os.MkdirTemp("", "mdbxt-test-*")
	if err != nil {
		t.Fatal(err)
	}
	return &testDB{
		path: dir,
		cleanup: func() {
			os.RemoveAll(dir)
		},
	}
}

// newEnv opens an environment at path with enough headroom for every test
// in this package.
func newEnv(t *testing.T, path string, flags mdbxt.EnvFlags) *mdbxt.Env {
	t.Helper()
	env, err := mdbxt.NewEnv(mdbxt.Default)
	if err != nil {
		t.Fatal(err)
	}
	if err := env.SetMapSize(1 << 30); err != nil {
		t.Fatal(err)
	}
	if err := env.SetMaxDBs(10); err != nil {
		t.Fatal(err)
	}
	if err := env.Open(path, flags, 0644); err != nil {
		t.Fatal(err)
	}
	return env
}

// mustPut writes one pair through a committed write transaction.
func mustPut(t *testing.T, env *mdbxt.Env, name string, key, value []byte) {
	t.Helper()
	err := env.Update(func(txn *mdbxt.Txn) error {
		db, err := txn.OpenNamed(name, mdbxt.DBFlags{CreateIfMissing: true})
		if err != nil {
			return err
		}
		return txn.Put(db, key, value, mdbxt.PutFlags{})
	})
	if err != nil {
		t.Fatal(err)
	}
}
