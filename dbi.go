package mdbxt

import "github.com/erigontech/mdbx-go/mdbx"

// DB is an opaque reference to one named (or the default) sorted key space.
// Handles are opened within a transaction but stay valid for the life of
// the environment; the engine caches them process-wide.
type DB struct {
	dbi   mdbx.DBI
	name  string
	flags DBFlags
}

// Name returns the database's name. The default key space has no name.
func (db DB) Name() string {
	return db.name
}

// Flags returns the flag set the handle was opened with.
func (db DB) Flags() DBFlags {
	return db.flags
}

// CmpFunc is a three-way ordering function over raw byte spans. A negative
// result orders a before b, zero treats them as equal, positive orders a
// after b.
type CmpFunc = func(a, b []byte) int

// OpenRoot opens the environment's default key space.
func (t *Txn) OpenRoot(flags DBFlags) (DB, error) {
	if err := t.usable("dbi_open"); err != nil {
		return DB{}, err
	}
	dbi, err := t.txn.OpenRoot(flags.Mask())
	if err != nil {
		return DB{}, operr("dbi_open", err)
	}
	return DB{dbi: dbi, flags: flags}, nil
}

// OpenNamed opens a named database, creating it first when
// flags.CreateIfMissing is set and the transaction is writable.
//
// Ordering flags are fixed in the database definition when it is created;
// reopening with conflicting ordering flags fails with
// IncompatibleOperation.
func (t *Txn) OpenNamed(name string, flags DBFlags) (DB, error) {
	if err := t.usable("dbi_open"); err != nil {
		return DB{}, err
	}
	dbi, err := t.txn.OpenDBISimple(name, flags.Mask())
	if err != nil {
		return DB{}, operr("dbi_open", err)
	}
	return DB{dbi: dbi, name: name, flags: flags}, nil
}

// SetKeyOrder installs cmp as the key comparator for db. The comparator is
// registered with the engine once and governs every subsequent comparison
// in that database, not just this transaction's. It must be installed
// before any data operation touches the database, every time the
// environment is opened.
func (t *Txn) SetKeyOrder(db *DB, cmp CmpFunc) error {
	return t.setOrder("dbi_set_key_order", db, cmp, nil)
}

// SetItemOrder installs cmp as the comparator for duplicate values under
// one key. Only meaningful for databases opened with AllowDuplicateKeys;
// otherwise fails with IncompatibleOperation. The same install-before-use
// rule as SetKeyOrder applies.
func (t *Txn) SetItemOrder(db *DB, cmp CmpFunc) error {
	if !db.flags.AllowDuplicateKeys {
		return &Error{Kind: KindIncompatibleOperation, Op: "dbi_set_item_order"}
	}
	return t.setOrder("dbi_set_item_order", db, nil, cmp)
}

// setOrder re-registers the handle through the engine's
// open-with-comparator surface; the engine keeps the comparator on its
// process-wide handle. Custom ordering is only available for named
// databases, since the default key space cannot be reopened by name.
func (t *Txn) setOrder(op string, db *DB, cmp, dcmp CmpFunc) error {
	if err := t.usable(op); err != nil {
		return err
	}
	if db.name == "" {
		return &Error{Kind: KindIncompatibleOperation, Op: op}
	}
	ccmp, ok := comparatorHandle(cmpKeyRole, db.name, cmp)
	if !ok {
		return &Error{Kind: KindMaxNumDatabasesLimitReached, Op: op}
	}
	cdcmp, ok := comparatorHandle(cmpItemRole, db.name, dcmp)
	if !ok {
		return &Error{Kind: KindMaxNumDatabasesLimitReached, Op: op}
	}
	dbi, err := t.txn.OpenDBI(db.name, db.flags.Mask(), ccmp, cdcmp)
	if err != nil {
		return operr(op, err)
	}
	db.dbi = dbi
	return nil
}

// Stat returns tree statistics for one database.
func (t *Txn) Stat(db DB) (*Stat, error) {
	if err := t.usable("dbi_stat"); err != nil {
		return nil, err
	}
	st, err := t.txn.StatDBI(db.dbi)
	if err != nil {
		return nil, operr("dbi_stat", err)
	}
	return &Stat{
		PageSize:      st.PSize,
		Depth:         st.Depth,
		BranchPages:   st.BranchPages,
		LeafPages:     st.LeafPages,
		OverflowPages: st.OverflowPages,
		Entries:       st.Entries,
	}, nil
}

// Flags returns the flag set recorded in the database's definition, which
// may be wider than what the handle was opened with.
func (t *Txn) Flags(db DB) (DBFlags, error) {
	if err := t.usable("dbi_flags"); err != nil {
		return DBFlags{}, err
	}
	mask, err := t.txn.Flags(db.dbi)
	if err != nil {
		return DBFlags{}, operr("dbi_flags", err)
	}
	return DBFlagsFromMask(mask), nil
}

// Sequence reads the database's persistent sequence counter, and when
// increment is nonzero also advances it. Returns the value before the
// increment.
func (t *Txn) Sequence(db DB, increment uint64) (uint64, error) {
	if err := t.usable("dbi_sequence"); err != nil {
		return 0, err
	}
	v, err := t.txn.Sequence(db.dbi, increment)
	if err != nil {
		return 0, operr("dbi_sequence", err)
	}
	return v, nil
}

// Drop empties a database, or deletes its definition entirely when del is
// set. After a delete the handle is dead; after an empty it remains valid.
func (t *Txn) Drop(db DB, del bool) error {
	if err := t.usable("dbi_drop"); err != nil {
		return err
	}
	return operr("dbi_drop", t.txn.Drop(db.dbi, del))
}
