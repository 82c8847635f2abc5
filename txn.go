package mdbxt

import (
	"github.com/erigontech/mdbx-go/mdbx"
)

// Txn is one atomic unit of work against an environment.
//
// A write transaction holds the environment's single writer slot from Begin
// until Commit or Abort. Read-only transactions pin the snapshot that was
// current at their begin time and may be Reset and later Renewed instead of
// being reopened.
//
// While a nested child transaction is active the parent is unusable; every
// parent operation fails with TransactionNotAborted until the child reaches
// a terminal state.
type Txn struct {
	txn      *mdbx.Txn
	env      *Env
	parent   *Txn
	child    *Txn
	readOnly bool
	done     bool
}

// usable rejects operations on a transaction that is suspended by an active
// child or already terminated.
func (t *Txn) usable(op string) error {
	if t.child != nil {
		return &Error{Kind: KindTransactionNotAborted, Op: op}
	}
	if t.done {
		return &Error{Kind: KindTransactionNotAborted, Op: op, Code: codeBadTxn}
	}
	return nil
}

// finish marks the transaction terminal and resumes the parent.
func (t *Txn) finish() {
	t.done = true
	if t.parent != nil && t.parent.child == t {
		t.parent.child = nil
	}
}

// ID returns the transaction's monotonic id. Read-only transactions report
// the id of the snapshot they observe.
func (t *Txn) ID() uint64 {
	return t.txn.ID()
}

// ReadOnly reports whether the transaction was begun read-only.
func (t *Txn) ReadOnly() bool {
	return t.readOnly
}

// Commit makes the transaction's writes durable and ends it. For a nested
// transaction the writes become part of the parent instead of hitting the
// file.
func (t *Txn) Commit() error {
	if err := t.usable("txn_commit"); err != nil {
		return err
	}
	_, err := t.txn.Commit()
	t.finish()
	return operr("txn_commit", err)
}

// Abort discards the transaction's writes and ends it. For a nested
// transaction the parent is untouched. Abort on an already-terminated
// transaction is a no-op.
func (t *Txn) Abort() {
	if t.done {
		return
	}
	t.txn.Abort()
	t.finish()
}

// Reset releases a read-only transaction's snapshot and reader slot while
// keeping the handle allocated for a later Renew.
func (t *Txn) Reset() {
	t.txn.Reset()
}

// Renew rebinds a Reset read-only transaction to the current snapshot.
func (t *Txn) Renew() error {
	return operr("txn_renew", t.txn.Renew())
}

// Get returns the value stored under key. The returned slice is a borrowed
// view into the environment's mapping, valid only until the transaction
// ends.
func (t *Txn) Get(db DB, key []byte) ([]byte, error) {
	if err := t.usable("get"); err != nil {
		return nil, err
	}
	v, err := t.txn.Get(db.dbi, key)
	if err != nil {
		return nil, operr("get", err)
	}
	return v, nil
}

// Put stores value under key. Without flags an existing key is overwritten;
// see PutFlags for conflict and ordering behavior.
func (t *Txn) Put(db DB, key, value []byte, flags PutFlags) error {
	if err := t.usable("put"); err != nil {
		return err
	}
	return operr("put", t.txn.Put(db.dbi, key, value, flags.Mask()))
}

// GetOrPut atomically stores value under key if the key is absent. When the
// key already exists nothing is written and the existing value is returned
// as a borrowed view; when the write happens the result is nil.
//
// The conflict detection is the engine's no-overwrite write primitive, not
// a read followed by a write.
func (t *Txn) GetOrPut(db DB, key, value []byte) ([]byte, error) {
	if err := t.usable("get_or_put"); err != nil {
		return nil, err
	}
	err := operr("get_or_put", t.txn.Put(db.dbi, key, value, bitNoOverwrite))
	if err == nil {
		return nil, nil
	}
	if !IsAlreadyExists(err) {
		return nil, err
	}
	existing, gerr := t.txn.Get(db.dbi, key)
	if gerr != nil {
		return nil, operr("get_or_put", gerr)
	}
	return existing, nil
}

// Reserve allocates space for a value of n bytes under key without
// supplying the bytes, returning a mutable borrowed view for the caller to
// fill before the transaction ends. This avoids a redundant copy when the
// value is produced incrementally.
//
// With flags.DontOverwriteKey an existing key is not touched; the existing
// value is returned instead, with found set. The returned view must be
// treated as read-only in that case. Callers should branch on found rather
// than assume the buffer is theirs to fill.
func (t *Txn) Reserve(db DB, key []byte, n int, flags PutFlags) (buf []byte, found bool, err error) {
	if err := t.usable("reserve"); err != nil {
		return nil, false, err
	}
	buf, rerr := t.txn.PutReserve(db.dbi, key, n, flags.Mask())
	err = operr("reserve", rerr)
	if err == nil {
		return buf, false, nil
	}
	if !IsAlreadyExists(err) {
		return nil, false, err
	}
	existing, gerr := t.txn.Get(db.dbi, key)
	if gerr != nil {
		return nil, false, operr("reserve", gerr)
	}
	return existing, true, nil
}

// Del removes key and, in a duplicate database, every item stored under it.
// Deleting an absent key fails with NotFound.
func (t *Txn) Del(db DB, key []byte) error {
	if err := t.usable("del"); err != nil {
		return err
	}
	return operr("del", t.txn.Del(db.dbi, key, nil))
}

// DelItem removes the single matching key/value pair from a duplicate
// database, leaving the key's other items in place.
func (t *Txn) DelItem(db DB, key, value []byte) error {
	if err := t.usable("del_item"); err != nil {
		return err
	}
	return operr("del_item", t.txn.Del(db.dbi, key, value))
}

// OpenCursor opens a cursor over db, bound to this transaction.
func (t *Txn) OpenCursor(db DB) (*Cursor, error) {
	if err := t.usable("cursor_open"); err != nil {
		return nil, err
	}
	cur, err := t.txn.OpenCursor(db.dbi)
	if err != nil {
		return nil, operr("cursor_open", err)
	}
	return &Cursor{cur: cur, txn: t, db: db}, nil
}
