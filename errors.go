package mdbxt

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/erigontech/mdbx-go/mdbx"
	"golang.org/x/sys/unix"
)

// Kind names one failure in the closed taxonomy every engine and OS status
// code is decoded into. The zero Kind is reserved for "not an mdbxt error".
type Kind int

const (
	// Key/record conflicts
	KindAlreadyExists Kind = iota + 1
	KindNotFound

	// Structural corruption
	KindPageNotFound
	KindPageCorrupted
	KindFileNotDatabase
	KindVersionMismatch

	// Capacity limits
	KindMapSizeLimitReached
	KindMaxNumDatabasesLimitReached
	KindMaxNumReadersLimitReached
	KindTooManyEnvironmentsOpen
	KindTransactionTooBig
	KindCursorStackLimitReached
	KindOutOfPageMemory

	// Resizing races
	KindDatabaseExceedsMapSizeLimit

	// Misuse
	KindIncompatibleOperation
	KindInvalidReaderLocktableSlotReuse
	KindTransactionNotAborted
	KindUnsupportedSize
	KindBadDatabaseHandle
	KindInvalidParameter

	// OS passthrough
	KindNoSuchFileOrDirectory
	KindInputOutputError
	KindOutOfMemory
	KindReadOnly
	KindDeviceOrResourceBusy
	KindNoSpaceLeftOnDevice
	KindFileAlreadyExists
)

var kindMessages = map[Kind]string{
	KindAlreadyExists:                   "key/data pair already exists",
	KindNotFound:                        "key/data pair not found",
	KindPageNotFound:                    "requested page not found",
	KindPageCorrupted:                   "database page is corrupted",
	KindFileNotDatabase:                 "file is not a valid database",
	KindVersionMismatch:                 "database version mismatch",
	KindMapSizeLimitReached:             "environment map size limit reached",
	KindMaxNumDatabasesLimitReached:     "environment max databases limit reached",
	KindMaxNumReadersLimitReached:       "environment max readers limit reached",
	KindTooManyEnvironmentsOpen:         "too many open environments",
	KindTransactionTooBig:               "transaction has too many dirty pages",
	KindCursorStackLimitReached:         "cursor stack depth limit reached",
	KindOutOfPageMemory:                 "out of page memory",
	KindDatabaseExceedsMapSizeLimit:     "database grew past the map size limit",
	KindIncompatibleOperation:           "operation incompatible with database flags",
	KindInvalidReaderLocktableSlotReuse: "reader locktable slot reused invalidly",
	KindTransactionNotAborted:           "transaction must be aborted first",
	KindUnsupportedSize:                 "unsupported key or value size",
	KindBadDatabaseHandle:               "invalid database handle",
	KindInvalidParameter:                "invalid parameter",
	KindNoSuchFileOrDirectory:           "no such file or directory",
	KindInputOutputError:                "input/output error",
	KindOutOfMemory:                     "out of memory",
	KindReadOnly:                        "write attempted on read-only target",
	KindDeviceOrResourceBusy:            "device or resource busy",
	KindNoSpaceLeftOnDevice:             "no space left on device",
	KindFileAlreadyExists:               "file already exists",
}

// String returns the taxonomy name's message.
func (k Kind) String() string {
	if msg, ok := kindMessages[k]; ok {
		return msg
	}
	return fmt.Sprintf("unknown kind %d", int(k))
}

// Error is an mdbxt error: one taxonomy Kind, the operation that surfaced
// it, and the raw engine/OS status code for diagnostics.
type Error struct {
	Kind Kind
	Op   string
	Code int
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("mdbxt: %s: %s (%d)", e.Op, e.Kind, e.Code)
	}
	return fmt.Sprintf("mdbxt: %s: %s", e.Op, e.Kind)
}

// Is reports whether target carries the same Kind. This lets callers match
// against &Error{Kind: KindNotFound} with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// Engine status codes - must match libmdbx's ABI
const (
	codeKeyExist           = -30799
	codeNotFound           = -30798
	codePageNotFound       = -30797
	codeCorrupted          = -30796
	codePanic              = -30795
	codeVersionMismatch    = -30794
	codeInvalid            = -30793
	codeMapFull            = -30792
	codeDBsFull            = -30791
	codeReadersFull        = -30790
	codeTxnFull            = -30788
	codeCursorFull         = -30787
	codePageFull           = -30786
	codeUnableExtendMap    = -30785
	codeIncompatible       = -30784
	codeBadReaderSlot      = -30783
	codeBadTxn             = -30782
	codeBadValSize         = -30781
	codeBadDBI             = -30780
	codeProblem            = -30779
	codeBusy               = -30778
	codeMultipleValues     = -30421
	codeBadSignature       = -30420
	codeWannaRecovery      = -30419
	codeKeyMismatch        = -30418
	codeDatabaseTooLarge   = -30417
	codeThreadMismatch     = -30416
	codeTxnOverlapping     = -30415
	codeBacklogDepleted    = -30414
	codeDuplicatedCLK      = -30413
	codeDanglingDBI        = -30412
	codeOusted             = -30411
	codeMVCCRetarded       = -30410
)

// engineKinds maps every documented engine status code to its Kind.
var engineKinds = map[int]Kind{
	codeKeyExist:         KindAlreadyExists,
	codeNotFound:         KindNotFound,
	codePageNotFound:     KindPageNotFound,
	codeCorrupted:        KindPageCorrupted,
	codeVersionMismatch:  KindVersionMismatch,
	codeInvalid:          KindFileNotDatabase,
	codeMapFull:          KindMapSizeLimitReached,
	codeDBsFull:          KindMaxNumDatabasesLimitReached,
	codeReadersFull:      KindMaxNumReadersLimitReached,
	codeTxnFull:          KindTransactionTooBig,
	codeCursorFull:       KindCursorStackLimitReached,
	codePageFull:         KindOutOfPageMemory,
	codeUnableExtendMap:  KindDatabaseExceedsMapSizeLimit,
	codeIncompatible:     KindIncompatibleOperation,
	codeBadReaderSlot:    KindInvalidReaderLocktableSlotReuse,
	codeBadTxn:           KindTransactionNotAborted,
	codeBadValSize:       KindUnsupportedSize,
	codeBadDBI:           KindBadDatabaseHandle,
	codeBusy:             KindDeviceOrResourceBusy,
	codeMultipleValues:   KindIncompatibleOperation,
	codeBadSignature:     KindBadDatabaseHandle,
	codeWannaRecovery:    KindReadOnly,
	codeKeyMismatch:      KindNotFound,
	codeDatabaseTooLarge: KindMapSizeLimitReached,
	codeThreadMismatch:   KindIncompatibleOperation,
	codeTxnOverlapping:   KindIncompatibleOperation,
	codeDuplicatedCLK:    KindFileAlreadyExists,
	codeDanglingDBI:      KindBadDatabaseHandle,
	codeOusted:           KindInvalidReaderLocktableSlotReuse,
	codeMVCCRetarded:     KindInvalidReaderLocktableSlotReuse,
}

// osKinds maps the documented OS passthrough errnos. These share numbers
// with nothing in the engine range; the engine's own "already exists" and
// the filesystem's EEXIST stay distinct Kinds.
var osKinds = map[syscall.Errno]Kind{
	unix.ENOENT:  KindNoSuchFileOrDirectory,
	unix.EIO:     KindInputOutputError,
	unix.ENOMEM:  KindOutOfMemory,
	unix.EACCES:  KindReadOnly,
	unix.EROFS:   KindReadOnly,
	unix.EPERM:   KindReadOnly,
	unix.EBUSY:   KindDeviceOrResourceBusy,
	unix.EAGAIN:  KindDeviceOrResourceBusy,
	unix.EINVAL:  KindInvalidParameter,
	unix.ENOSPC:  KindNoSpaceLeftOnDevice,
	unix.EEXIST:  KindFileAlreadyExists,
	unix.EMFILE:  KindTooManyEnvironmentsOpen,
	unix.ENFILE:  KindTooManyEnvironmentsOpen,
	unix.ENODATA: KindNotFound,
	unix.ENOSYS:  KindIncompatibleOperation,
}

// operr decodes one engine call result into the taxonomy. Every fallible
// engine call in this package passes through here and nowhere else.
//
// The binding reports failures in three shapes: the bare ErrNotFound
// sentinel for a missed lookup, an *OpError carrying either an engine
// status or a relayed OS errno, and raw Errno values on a few direct
// paths. The OpError wrapper matches only by Is, never by As, so its
// payload is taken out by hand here.
//
// A status outside the documented set means the binding and the engine
// disagree about the contract; that is not recoverable by the caller, so it
// escalates instead of propagating as a typed error.
func operr(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, mdbx.ErrNotFound) {
		return &Error{Kind: KindNotFound, Op: op, Code: codeNotFound}
	}

	var oe *mdbx.OpError
	if errors.As(err, &oe) {
		switch inner := oe.Errno.(type) {
		case mdbx.Errno:
			return coderr(op, int(inner))
		case syscall.Errno:
			return oserr(op, inner)
		}
		panic(fmt.Sprintf("mdbxt: %s: engine returned undecodable error: %v", op, err))
	}

	var errno mdbx.Errno
	if errors.As(err, &errno) {
		return coderr(op, int(errno))
	}

	var sys syscall.Errno
	if errors.As(err, &sys) {
		return oserr(op, sys)
	}

	panic(fmt.Sprintf("mdbxt: %s: engine returned undecodable error: %v", op, err))
}

// coderr decodes a raw engine status code.
func coderr(op string, code int) error {
	if code > 0 {
		// Engine relayed an OS errno through its status channel.
		return oserr(op, syscall.Errno(code))
	}
	if kind, ok := engineKinds[code]; ok {
		return &Error{Kind: kind, Op: op, Code: code}
	}
	// codePanic, codeProblem, codeBacklogDepleted and anything
	// undocumented land here.
	panic(fmt.Sprintf("mdbxt: %s: engine status %d outside documented contract", op, code))
}

// reterr decodes the integer status of a direct engine call. Zero and the
// engine's "result true" pseudo-status both mean success.
func reterr(op string, ret int) error {
	if ret == 0 || ret == -1 {
		return nil
	}
	return coderr(op, ret)
}

func oserr(op string, sys syscall.Errno) error {
	if kind, ok := osKinds[sys]; ok {
		return &Error{Kind: kind, Op: op, Code: int(sys)}
	}
	panic(fmt.Sprintf("mdbxt: %s: OS errno %d outside documented contract", op, int(sys)))
}

// KindOf returns err's taxonomy Kind, or zero when err is not an mdbxt
// error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsNotFound reports whether err is a NotFound failure.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsAlreadyExists reports whether err is an AlreadyExists failure.
func IsAlreadyExists(err error) bool {
	return KindOf(err) == KindAlreadyExists
}
