// Package mdbxt is a typed access layer over libmdbx, an embedded
// transactional B-tree key-value store.
//
// mdbxt does not reimplement the storage engine. It drives libmdbx through
// github.com/erigontech/mdbx-go and adds the pieces a caller otherwise has to
// get right by hand:
//   - structured flag sets instead of raw bitmasks, with an exact
//     bidirectional codec for every recognized option
//   - a closed error taxonomy decoded at a single boundary, separating
//     engine conditions from OS passthrough codes
//   - a transaction/cursor protocol that polices nesting discipline and
//     illegal in-place mutation instead of corrupting data
//
// Concurrency comes entirely from the engine: a single writer, any number of
// readers, each reader observing a consistent snapshot as of its begin time.
//
// Byte slices returned by Get and cursor operations are borrowed views into
// the environment's memory mapping. They stay valid only until the owning
// transaction ends or, for a writable cursor, until the cursor moves or
// mutates. Copy before that point if the data must outlive it.
//
// Basic usage:
//
//	env, err := mdbxt.NewEnv(mdbxt.Default)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer env.Close()
//
//	env.SetMaxDBs(8)
//	err = env.Open("/path/to/db", mdbxt.EnvFlags{PathIsFile: true}, 0644)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = env.Update(func(txn *mdbxt.Txn) error {
//	    db, err := txn.OpenNamed("people", mdbxt.DBFlags{CreateIfMissing: true})
//	    if err != nil {
//	        return err
//	    }
//	    return txn.Put(db, []byte("key"), []byte("value"), mdbxt.PutFlags{})
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
package mdbxt
