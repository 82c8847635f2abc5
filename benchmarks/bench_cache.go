package benchmarks

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/tecbot/gorocksdb"
	bolt "go.etcd.io/bbolt"

	"github.com/lithdew/mdbxt"
)

// Cached benchmark database directory
const benchCacheDir = "testdata/benchdb"

var (
	cacheMu     sync.Mutex
	mdbxtEnvs   = make(map[string]*mdbxt.Env)
	boltDBs     = make(map[string]*bolt.DB)
	rocksDBs    = make(map[string]*gorocksdb.DB)
	sampleCache = make(map[string][][]byte)
)

// getCachedEnv returns a cached populated environment, creating it if needed.
// The database file lives in testdata/benchdb/plain_<size>.db and survives
// across runs.
func getCachedEnv(b *testing.B, size int) (*mdbxt.Env, [][]byte) {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	key := fmt.Sprintf("plain_%d", size)
	path := filepath.Join(benchCacheDir, fmt.Sprintf("plain_%d.db", size))

	if env, ok := mdbxtEnvs[key]; ok {
		return env, sampleCache[key]
	}

	if err := os.MkdirAll(benchCacheDir, 0755); err != nil {
		b.Fatal(err)
	}
	exists := fileExists(path)

	env, err := mdbxt.NewEnv(mdbxt.Default)
	if err != nil {
		b.Fatal(err)
	}
	if err := env.SetMapSize(1 << 32); err != nil {
		b.Fatal(err)
	}
	if err := env.SetMaxDBs(10); err != nil {
		b.Fatal(err)
	}
	flags := mdbxt.EnvFlags{
		PathIsFile:     true,
		UseWritableMap: true,
		Runtime:        mdbxt.RuntimeFlags{DontSyncMetadata: true},
	}
	if err := env.Open(path, flags, 0644); err != nil {
		b.Fatal(err)
	}

	if !exists {
		b.Logf("Creating cached DB with %d keys...", size)
		populateEnvCached(b, env, size)
	} else {
		b.Logf("Using cached DB with %d keys", size)
	}

	samples := collectSampleKeys(b, env, size)

	mdbxtEnvs[key] = env
	sampleCache[key] = samples
	return env, samples
}

func populateEnvCached(b *testing.B, env *mdbxt.Env, numKeys int) {
	batchSize := 100_000
	key := make([]byte, 8)
	val := make([]byte, 32)

	for written := 0; written < numKeys; written += batchSize {
		end := written + batchSize
		if end > numKeys {
			end = numKeys
		}
		err := env.Update(func(txn *mdbxt.Txn) error {
			dbi, err := txn.OpenNamed("bench", mdbxt.DBFlags{CreateIfMissing: true})
			if err != nil {
				return err
			}
			for i := written; i < end; i++ {
				binary.BigEndian.PutUint64(key, uint64(i))
				binary.BigEndian.PutUint64(val, uint64(i))
				if err := txn.Put(dbi, key, val, mdbxt.PutFlags{DataAlreadySorted: true}); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			b.Fatal(err)
		}
	}
}

// collectSampleKeys walks every 97th entry so random-get benchmarks touch a
// spread of pages.
func collectSampleKeys(b *testing.B, env *mdbxt.Env, size int) [][]byte {
	var samples [][]byte
	err := env.View(func(txn *mdbxt.Txn) error {
		dbi, err := txn.OpenNamed("bench", mdbxt.DBFlags{})
		if err != nil {
			return err
		}
		cur, err := txn.OpenCursor(dbi)
		if err != nil {
			return err
		}
		defer cur.Close()

		i := 0
		k, _, err := cur.First()
		for err == nil {
			if i%97 == 0 {
				samples = append(samples, append([]byte(nil), k...))
			}
			i++
			k, _, err = cur.Next()
		}
		if !mdbxt.IsNotFound(err) {
			return err
		}
		return nil
	})
	if err != nil {
		b.Fatal(err)
	}
	if len(samples) == 0 {
		b.Fatalf("no sample keys collected from %d entries", size)
	}
	return samples
}

// getCachedBoltDB returns a cached populated BoltDB, creating it if needed.
func getCachedBoltDB(b *testing.B, size int) *bolt.DB {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	key := fmt.Sprintf("bolt_%d", size)
	path := filepath.Join(benchCacheDir, fmt.Sprintf("plain_%d_bolt.db", size))

	if db, ok := boltDBs[key]; ok {
		return db
	}

	if err := os.MkdirAll(benchCacheDir, 0755); err != nil {
		b.Fatal(err)
	}
	exists := fileExists(path)

	db, err := bolt.Open(path, 0644, &bolt.Options{
		NoSync:         true,
		NoFreelistSync: true,
	})
	if err != nil {
		b.Fatal(err)
	}

	if !exists {
		b.Logf("Creating cached BoltDB with %d keys...", size)
		populateBoltDBCached(b, db, size)
	} else {
		b.Logf("Using cached BoltDB with %d keys", size)
	}

	boltDBs[key] = db
	return db
}

func populateBoltDBCached(b *testing.B, db *bolt.DB, numKeys int) {
	batchSize := 100_000
	key := make([]byte, 8)
	val := make([]byte, 32)

	for written := 0; written < numKeys; written += batchSize {
		end := written + batchSize
		if end > numKeys {
			end = numKeys
		}
		err := db.Update(func(tx *bolt.Tx) error {
			bucket, err := tx.CreateBucketIfNotExists([]byte("bench"))
			if err != nil {
				return err
			}
			for i := written; i < end; i++ {
				binary.BigEndian.PutUint64(key, uint64(i))
				binary.BigEndian.PutUint64(val, uint64(i))
				if err := bucket.Put(key, val); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			b.Fatal(err)
		}
	}
}

// getCachedRocksDB returns a cached populated RocksDB, creating it if needed.
func getCachedRocksDB(b *testing.B, size int) *gorocksdb.DB {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	key := fmt.Sprintf("rocks_%d", size)
	path := filepath.Join(benchCacheDir, fmt.Sprintf("plain_%d_rocks.db", size))

	if db, ok := rocksDBs[key]; ok {
		return db
	}

	if err := os.MkdirAll(benchCacheDir, 0755); err != nil {
		b.Fatal(err)
	}
	exists := fileExists(path)

	opts := gorocksdb.NewDefaultOptions()
	opts.SetCreateIfMissing(true)
	opts.SetWriteBufferSize(64 * 1024 * 1024)
	opts.SetMaxWriteBufferNumber(3)
	opts.SetTargetFileSizeBase(64 * 1024 * 1024)

	db, err := gorocksdb.OpenDb(opts, path)
	if err != nil {
		b.Fatal(err)
	}

	if !exists {
		b.Logf("Creating cached RocksDB with %d keys...", size)
		populateRocksDBCached(b, db, size)
	} else {
		b.Logf("Using cached RocksDB with %d keys", size)
	}

	rocksDBs[key] = db
	return db
}

func populateRocksDBCached(b *testing.B, db *gorocksdb.DB, numKeys int) {
	wo := gorocksdb.NewDefaultWriteOptions()
	defer wo.Destroy()

	key := make([]byte, 8)
	val := make([]byte, 32)

	batch := gorocksdb.NewWriteBatch()
	defer batch.Destroy()

	batchSize := 100_000

	for i := 0; i < numKeys; i++ {
		binary.BigEndian.PutUint64(key, uint64(i))
		binary.BigEndian.PutUint64(val, uint64(i))
		batch.Put(key, val)

		if (i+1)%batchSize == 0 {
			if err := db.Write(wo, batch); err != nil {
				b.Fatal(err)
			}
			batch.Clear()
		}
	}
	if batch.Count() > 0 {
		if err := db.Write(wo, batch); err != nil {
			b.Fatal(err)
		}
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// CleanupBenchCache closes all cached environments.
// Call this in TestMain or after benchmarks complete.
func CleanupBenchCache() {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	for _, env := range mdbxtEnvs {
		env.Close()
	}
	for _, db := range boltDBs {
		db.Close()
	}
	for _, db := range rocksDBs {
		db.Close()
	}
	mdbxtEnvs = make(map[string]*mdbxt.Env)
	boltDBs = make(map[string]*bolt.DB)
	rocksDBs = make(map[string]*gorocksdb.DB)
	sampleCache = make(map[string][][]byte)
}

// DeleteBenchCache removes all cached database files.
func DeleteBenchCache() error {
	return os.RemoveAll(benchCacheDir)
}
