package mdbxt

// Engine bit values - must match libmdbx's ABI
const (
	// Environment open bits
	bitValidation      uint = 0x00002000
	bitNoSubdir        uint = 0x00004000
	bitReadOnly        uint = 0x00020000
	bitExclusive       uint = 0x00400000
	bitAccede          uint = 0x40000000
	bitWriteMap        uint = 0x00080000
	bitNoStickyThreads uint = 0x00200000
	bitNoReadAhead     uint = 0x00800000
	bitNoMemInit       uint = 0x01000000
	bitLifoReclaim     uint = 0x04000000

	// Durability bits, mutable at runtime
	bitNoMetaSync uint = 0x00040000
	bitSafeNoSync uint = 0x00010000

	// Transaction begin bits
	bitTxnReadOnly uint = 0x00020000
	bitTxnTry      uint = 0x10000000

	// Database open bits
	bitReverseKey uint = 0x02
	bitDupSort    uint = 0x04
	bitIntegerKey uint = 0x08
	bitDupFixed   uint = 0x10
	bitIntegerDup uint = 0x20
	bitReverseDup uint = 0x40
	bitCreate     uint = 0x40000

	// Write bits
	bitNoOverwrite uint = 0x10
	bitNoDupData   uint = 0x20
	bitCurrent     uint = 0x40
	bitAllDups     uint = 0x80
	bitReserve     uint = 0x10000
	bitAppend      uint = 0x20000
	bitAppendDup   uint = 0x40000
	bitMultiple    uint = 0x80000

	// Copy bits
	bitCopyCompact uint = 0x01
)

// RuntimeFlags is the subset of environment flags that may be toggled after
// the environment is opened, via Env.EnableFlags and Env.DisableFlags.
// Everything outside this set is fixed at open time; keeping the mutable
// subset as its own type makes toggling an immutable flag unrepresentable.
type RuntimeFlags struct {
	// DontSyncMetadata skips flushing the meta page after commit. A system
	// crash may lose the last committed transactions, but not corrupt the
	// database.
	DontSyncMetadata bool

	// FlushAsynchronously lets the OS flush dirty pages at its own pace
	// instead of synchronously at commit. Weakens durability, never
	// consistency.
	FlushAsynchronously bool
}

// Mask encodes the flag set into the engine's bitmask.
func (f RuntimeFlags) Mask() uint {
	var m uint
	if f.DontSyncMetadata {
		m |= bitNoMetaSync
	}
	if f.FlushAsynchronously {
		m |= bitSafeNoSync
	}
	return m
}

// RuntimeFlagsFromMask decodes the engine's bitmask. Inverse of Mask for
// every defined bit.
func RuntimeFlagsFromMask(m uint) RuntimeFlags {
	return RuntimeFlags{
		DontSyncMetadata:    m&bitNoMetaSync != 0,
		FlushAsynchronously: m&bitSafeNoSync != 0,
	}
}

// EnvFlags is the structured form of the environment-open option surface.
// The zero value is the engine's fully durable default mode.
type EnvFlags struct {
	// PathIsFile treats the open path as the data file itself rather than
	// a directory that contains it.
	PathIsFile bool

	// ReadOnly opens the environment without write access. No lockfile
	// modifications, no write transactions.
	ReadOnly bool

	// Exclusive refuses to share the environment with other processes.
	Exclusive bool

	// AdoptOpenMode takes over the mode flags already in effect when the
	// environment is open in another process, instead of failing on a
	// mismatch.
	AdoptOpenMode bool

	// UseWritableMap maps the file with write permission and writes pages
	// in place. Faster, but a stray write through the mapping corrupts the
	// database.
	UseWritableMap bool

	// UnboundFromThread allows transactions to migrate between OS threads.
	UnboundFromThread bool

	// DisableReadAhead turns off OS readahead. Helps when the database is
	// much larger than RAM and access is random.
	DisableReadAhead bool

	// DontInitMemory skips zero-initialization of freshly allocated pages
	// before they are written. The pages may leak previous heap contents
	// into the file.
	DontInitMemory bool

	// ReclaimNewestFirst recycles freed pages LIFO instead of FIFO, which
	// keeps the working set hot at the cost of delaying space reuse.
	ReclaimNewestFirst bool

	// ExtraValidation enables additional engine-side structure checking.
	ExtraValidation bool

	// Runtime carries the durability flags that remain mutable after open.
	Runtime RuntimeFlags
}

// Mask encodes the flag set into the engine's bitmask.
func (f EnvFlags) Mask() uint {
	m := f.Runtime.Mask()
	if f.PathIsFile {
		m |= bitNoSubdir
	}
	if f.ReadOnly {
		m |= bitReadOnly
	}
	if f.Exclusive {
		m |= bitExclusive
	}
	if f.AdoptOpenMode {
		m |= bitAccede
	}
	if f.UseWritableMap {
		m |= bitWriteMap
	}
	if f.UnboundFromThread {
		m |= bitNoStickyThreads
	}
	if f.DisableReadAhead {
		m |= bitNoReadAhead
	}
	if f.DontInitMemory {
		m |= bitNoMemInit
	}
	if f.ReclaimNewestFirst {
		m |= bitLifoReclaim
	}
	if f.ExtraValidation {
		m |= bitValidation
	}
	return m
}

// EnvFlagsFromMask decodes the engine's bitmask. Inverse of Mask for every
// defined bit.
func EnvFlagsFromMask(m uint) EnvFlags {
	return EnvFlags{
		PathIsFile:         m&bitNoSubdir != 0,
		ReadOnly:           m&bitReadOnly != 0,
		Exclusive:          m&bitExclusive != 0,
		AdoptOpenMode:      m&bitAccede != 0,
		UseWritableMap:     m&bitWriteMap != 0,
		UnboundFromThread:  m&bitNoStickyThreads != 0,
		DisableReadAhead:   m&bitNoReadAhead != 0,
		DontInitMemory:     m&bitNoMemInit != 0,
		ReclaimNewestFirst: m&bitLifoReclaim != 0,
		ExtraValidation:    m&bitValidation != 0,
		Runtime:            RuntimeFlagsFromMask(m),
	}
}

// TxnFlags is the structured form of the transaction-begin option surface.
type TxnFlags struct {
	// ReadOnly begins a snapshot read transaction. Read-only transactions
	// can be Reset and later Renewed against a fresh snapshot.
	ReadOnly bool

	// DontWait fails with DeviceOrResourceBusy instead of blocking when
	// another write transaction holds the writer lock.
	DontWait bool

	// DontFlush skips the data sync when this transaction commits.
	DontFlush bool

	// DontSyncMetadata skips the meta page sync when this transaction
	// commits.
	DontSyncMetadata bool
}

// Mask encodes the flag set into the engine's bitmask.
func (f TxnFlags) Mask() uint {
	var m uint
	if f.ReadOnly {
		m |= bitTxnReadOnly
	}
	if f.DontWait {
		m |= bitTxnTry
	}
	if f.DontFlush {
		m |= bitSafeNoSync
	}
	if f.DontSyncMetadata {
		m |= bitNoMetaSync
	}
	return m
}

// TxnFlagsFromMask decodes the engine's bitmask. Inverse of Mask for every
// defined bit.
func TxnFlagsFromMask(m uint) TxnFlags {
	return TxnFlags{
		ReadOnly:         m&bitTxnReadOnly != 0,
		DontWait:         m&bitTxnTry != 0,
		DontFlush:        m&bitSafeNoSync != 0,
		DontSyncMetadata: m&bitNoMetaSync != 0,
	}
}

// DBFlags is the structured form of the database-open option surface.
// Ordering flags are recorded in the database definition on first creation;
// reopening with different ordering flags fails with IncompatibleOperation.
type DBFlags struct {
	// ReverseKeyOrder compares keys back to front.
	ReverseKeyOrder bool

	// AllowDuplicateKeys lets one key map to a sorted set of values.
	AllowDuplicateKeys bool

	// KeysAreIntegers interprets keys as native-endian unsigned integers
	// of uniform size.
	KeysAreIntegers bool

	// DuplicatesAreFixedSize asserts that all values under a key have the
	// same size, enabling batched page access.
	DuplicatesAreFixedSize bool

	// DuplicatesAreIntegers interprets duplicate values as native-endian
	// unsigned integers of uniform size. Implies fixed-size duplicates.
	DuplicatesAreIntegers bool

	// ReverseDuplicateOrder compares duplicate values back to front.
	ReverseDuplicateOrder bool

	// CreateIfMissing creates the named database if it does not exist.
	CreateIfMissing bool
}

// Mask encodes the flag set into the engine's bitmask.
func (f DBFlags) Mask() uint {
	var m uint
	if f.ReverseKeyOrder {
		m |= bitReverseKey
	}
	if f.AllowDuplicateKeys {
		m |= bitDupSort
	}
	if f.KeysAreIntegers {
		m |= bitIntegerKey
	}
	if f.DuplicatesAreFixedSize {
		m |= bitDupFixed
	}
	if f.DuplicatesAreIntegers {
		m |= bitIntegerDup
	}
	if f.ReverseDuplicateOrder {
		m |= bitReverseDup
	}
	if f.CreateIfMissing {
		m |= bitCreate
	}
	return m
}

// DBFlagsFromMask decodes the engine's bitmask. Inverse of Mask for every
// defined bit.
func DBFlagsFromMask(m uint) DBFlags {
	return DBFlags{
		ReverseKeyOrder:        m&bitReverseKey != 0,
		AllowDuplicateKeys:     m&bitDupSort != 0,
		KeysAreIntegers:        m&bitIntegerKey != 0,
		DuplicatesAreFixedSize: m&bitDupFixed != 0,
		DuplicatesAreIntegers:  m&bitIntegerDup != 0,
		ReverseDuplicateOrder:  m&bitReverseDup != 0,
		CreateIfMissing:        m&bitCreate != 0,
	}
}

// PutFlags is the structured form of the write-call option surface.
type PutFlags struct {
	// DontOverwriteKey turns a write to an existing key into an
	// AlreadyExists failure instead of an overwrite. GetOrPut and Reserve
	// recover that failure into a value-returning result.
	DontOverwriteKey bool

	// DontOverwriteItem is the duplicate-database analogue: fail with
	// AlreadyExists when the exact key/value pair is already present.
	DontOverwriteItem bool

	// DataAlreadySorted asserts keys arrive in ascending order so the
	// engine can append without searching. Violating the assertion
	// corrupts iteration order; the engine does not detect it.
	DataAlreadySorted bool

	// ItemsAlreadySorted is the duplicate-value analogue of
	// DataAlreadySorted.
	ItemsAlreadySorted bool
}

// Mask encodes the flag set into the engine's bitmask.
func (f PutFlags) Mask() uint {
	var m uint
	if f.DontOverwriteKey {
		m |= bitNoOverwrite
	}
	if f.DontOverwriteItem {
		m |= bitNoDupData
	}
	if f.DataAlreadySorted {
		m |= bitAppend
	}
	if f.ItemsAlreadySorted {
		m |= bitAppendDup
	}
	return m
}

// PutFlagsFromMask decodes the engine's bitmask. Inverse of Mask for every
// defined bit.
func PutFlagsFromMask(m uint) PutFlags {
	return PutFlags{
		DontOverwriteKey:   m&bitNoOverwrite != 0,
		DontOverwriteItem:  m&bitNoDupData != 0,
		DataAlreadySorted:  m&bitAppend != 0,
		ItemsAlreadySorted: m&bitAppendDup != 0,
	}
}
