package mdbxt

import (
	"fmt"
	"os"

	"github.com/erigontech/mdbx-go/mdbx"
	"golang.org/x/sys/unix"
)

// Label tags an environment for the engine's diagnostics.
type Label = mdbx.Label

// Default is the default environment label.
const Default = mdbx.Default

// Env is a handle to one memory-mapped database file. An Env must outlive
// every transaction, database handle and cursor derived from it.
//
// Conflicting lock modes on one path across processes are the engine's
// business; the binding adds no locking of its own.
type Env struct {
	env    *mdbx.Env
	path   string
	opened bool
}

// Stat holds read-only tree statistics for an environment or one database.
type Stat struct {
	PageSize      uint   // Size of a database page
	Depth         uint   // Height of the B-tree
	BranchPages   uint64 // Number of internal pages
	LeafPages     uint64 // Number of leaf pages
	OverflowPages uint64 // Number of overflow pages
	Entries       uint64 // Number of entries
}

// Info holds read-only environment information.
type Info struct {
	MapSize    int64 // Size of the memory mapping
	LastPageNo int64 // Number of the last used page
	LastTxnID  int64 // ID of the last committed transaction
	MaxReaders uint  // Reader slot table capacity
	NumReaders uint  // Reader slots currently in use
	PageSize   uint  // Database page size
}

// NewEnv creates an unopened environment. Map size, reader and database
// limits must be configured before Open; the engine rejects them afterwards.
func NewEnv(label Label) (*Env, error) {
	env, err := mdbx.NewEnv(label)
	if err != nil {
		return nil, operr("env_create", err)
	}
	return &Env{env: env}, nil
}

// SetMapSize sets the growth ceiling of the memory mapping, in bytes.
//
// After Open this must only be called while no transaction is active in the
// process; the engine documents but does not police that precondition.
func (e *Env) SetMapSize(size int64) error {
	return operr("env_set_mapsize", e.env.SetGeometry(-1, -1, int(size), -1, -1, -1))
}

// SetMaxDBs sets how many named databases the environment can hold. Only
// effective before Open.
func (e *Env) SetMaxDBs(n uint64) error {
	return operr("env_set_maxdbs", e.env.SetOption(mdbx.OptMaxDB, n))
}

// SetMaxReaders sets the reader slot table capacity. Only effective before
// Open.
func (e *Env) SetMaxReaders(n uint64) error {
	return operr("env_set_maxreaders", e.env.SetOption(mdbx.OptMaxReaders, n))
}

// Open opens the environment at path. With flags.PathIsFile the path names
// the data file itself, otherwise a directory that will contain data and
// lock files. mode is the POSIX permission set for created files.
func (e *Env) Open(path string, flags EnvFlags, mode os.FileMode) error {
	// The engine copies the path into a NUL-terminated buffer; reject
	// anything the platform cannot represent rather than truncate.
	if len(path)+1 > unix.PathMax {
		return &Error{Kind: KindInvalidParameter, Op: "env_open",
			Code: int(unix.ENAMETOOLONG)}
	}
	mask := flags.Mask()
	if !flags.ReadOnly {
		mask |= bitCreate
	}
	if err := operr("env_open", e.env.Open(path, mask, mode)); err != nil {
		return err
	}
	e.path = path
	e.opened = true
	debugf("env open %q flags=%#x", path, mask)
	return nil
}

// Close releases the environment. Every derived transaction and cursor must
// already be finished.
func (e *Env) Close() {
	if e == nil || e.env == nil {
		return
	}
	debugf("env close %q", e.path)
	e.env.Close()
	e.opened = false
}

// Path returns the path the environment was opened at.
func (e *Env) Path() string {
	return e.path
}

// CopyTo writes a consistent point-in-time backup of the environment to
// dest. With compact the copy omits free pages and renumbers the rest. Safe
// concurrently with ongoing transactions; consistency is the engine's
// guarantee and the binding adds no synchronization.
func (e *Env) CopyTo(dest string, compact bool) error {
	var flags uint
	if compact {
		flags |= bitCopyCompact
	}
	return envCopy(e.env, dest, flags)
}

// PipeTo streams a consistent point-in-time backup into an already-open
// file descriptor, with the same guarantees as CopyTo.
func (e *Env) PipeTo(fd uintptr, compact bool) error {
	var flags uint
	if compact {
		flags |= bitCopyCompact
	}
	return envCopyFD(e.env, fd, flags)
}

// MaxKeySize returns the largest key size the environment accepts.
func (e *Env) MaxKeySize() int {
	return e.env.MaxKeySize()
}

// MaxReaders returns the reader slot table capacity.
func (e *Env) MaxReaders() (uint64, error) {
	n, err := e.env.GetOption(mdbx.OptMaxReaders)
	if err != nil {
		return 0, operr("env_get_maxreaders", err)
	}
	return n, nil
}

// Flags returns the environment's active flag set.
func (e *Env) Flags() (EnvFlags, error) {
	mask, err := e.env.Flags()
	if err != nil {
		return EnvFlags{}, operr("env_get_flags", err)
	}
	return EnvFlagsFromMask(mask), nil
}

// EnableFlags turns on a subset of the runtime-mutable flags. Flags outside
// RuntimeFlags are immutable after Open and cannot be expressed here.
func (e *Env) EnableFlags(flags RuntimeFlags) error {
	return operr("env_set_flags", e.env.SetFlags(flags.Mask()))
}

// DisableFlags turns off a subset of the runtime-mutable flags.
func (e *Env) DisableFlags(flags RuntimeFlags) error {
	return operr("env_unset_flags", e.env.UnsetFlags(flags.Mask()))
}

// Stat returns statistics for the environment's main tree.
func (e *Env) Stat() (*Stat, error) {
	st, err := e.env.Stat()
	if err != nil {
		return nil, operr("env_stat", err)
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

// Info returns information about the environment's mapping, last pages and
// reader table.
func (e *Env) Info() (*Info, error) {
	info, err := e.env.Info(nil)
	if err != nil {
		return nil, operr("env_info", err)
	}
	return &Info{
		MapSize:    info.MapSize,
		LastPageNo: info.LastPNO,
		LastTxnID:  info.LastTxnID,
		MaxReaders: info.MaxReaders,
		NumReaders: info.NumReaders,
		PageSize:   info.PageSize,
	}, nil
}

// FD returns the open file descriptor of the environment's data file.
func (e *Env) FD() (uintptr, error) {
	return envFD(e.env)
}

// Sync flushes buffered data to disk. With force the flush is synchronous
// and unconditional, even under a no-sync durability mode.
func (e *Env) Sync(force bool) error {
	return operr("env_sync", e.env.Sync(force, false))
}

// Purge scans the reader lock table and reclaims slots still held by dead
// processes. Returns the number of slots reclaimed. Never blocks writers.
func (e *Env) Purge() (int, error) {
	n, err := e.env.ReaderCheck()
	if err != nil {
		return 0, operr("env_reader_check", err)
	}
	if n > 0 {
		debugf("env purge reclaimed %d reader slots", n)
	}
	return n, nil
}

// CloseDB releases a database handle. Closing is advisory: the engine
// caches handles process-wide and reuses them across transactions.
func (e *Env) CloseDB(db DB) {
	e.env.CloseDBI(db.dbi)
}

// Begin starts a transaction against the environment. A non-nil parent
// nests the new transaction inside it and suspends the parent until the
// child commits or aborts.
//
// At most one write transaction is active per environment at any instant;
// readers run in parallel against their own snapshots.
func (e *Env) Begin(parent *Txn, flags TxnFlags) (*Txn, error) {
	if parent != nil {
		if err := parent.usable("txn_begin"); err != nil {
			return nil, err
		}
	}
	var ptxn *mdbx.Txn
	if parent != nil {
		ptxn = parent.txn
	}
	txn, err := e.env.BeginTxn(ptxn, flags.Mask())
	if err != nil {
		return nil, operr("txn_begin", err)
	}
	t := &Txn{txn: txn, env: e, parent: parent, readOnly: flags.ReadOnly}
	if parent != nil {
		parent.child = t
	}
	return t, nil
}

// TxnOp is a function run inside a managed transaction by View, Update and
// RunTxn.
type TxnOp func(txn *Txn) error

// View runs fn inside a read-only transaction and always aborts it.
func (e *Env) View(fn TxnOp) error {
	return e.RunTxn(TxnFlags{ReadOnly: true}, fn)
}

// Update runs fn inside a write transaction, committing when fn returns nil
// and aborting otherwise.
func (e *Env) Update(fn TxnOp) error {
	return e.RunTxn(TxnFlags{}, fn)
}

// RunTxn runs fn inside a transaction begun with flags. The transaction is
// committed when fn returns nil and aborted when it returns an error.
// Read-only transactions are always aborted; their commit is a no-op anyway.
func (e *Env) RunTxn(flags TxnFlags, fn TxnOp) error {
	txn, err := e.Begin(nil, flags)
	if err != nil {
		return err
	}
	if err := fn(txn); err != nil {
		txn.Abort()
		return err
	}
	if flags.ReadOnly {
		txn.Abort()
		return nil
	}
	return txn.Commit()
}

// LoggerFunc receives debug trace lines when installed with SetLogger.
type LoggerFunc func(msg string, args ...any)

var globalLogger LoggerFunc

// SetLogger installs a destination for the binding's debug trace. A nil
// logger disables tracing. Returns the previous logger.
func SetLogger(logger LoggerFunc) LoggerFunc {
	prev := globalLogger
	globalLogger = logger
	return prev
}

func debugf(format string, args ...any) {
	if globalLogger != nil {
		globalLogger(fmt.Sprintf(format, args...))
	}
}
