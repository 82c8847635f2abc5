package mdbxt

/*
#include <stdlib.h>

typedef struct MDBX_env MDBX_env;

extern int mdbx_env_copy(MDBX_env *env, const char *dest, unsigned flags);
extern int mdbx_env_copy2fd(MDBX_env *env, int fd, unsigned flags);
extern int mdbx_env_get_fd(const MDBX_env *env, int *fd);
*/
import "C"

import (
	"unsafe"

	"github.com/erigontech/mdbx-go/mdbx"
)

// The binding compiles the whole engine into its package object but stops
// short of wrapping the backup surface, so these three calls go straight
// to the engine symbols through the raw environment handle.

func envCopy(env *mdbx.Env, dest string, flags uint) error {
	cdest := C.CString(dest)
	defer C.free(unsafe.Pointer(cdest))
	ret := C.mdbx_env_copy((*C.MDBX_env)(env.CHandle()), cdest, C.uint(flags))
	return reterr("env_copy", int(ret))
}

func envCopyFD(env *mdbx.Env, fd uintptr, flags uint) error {
	ret := C.mdbx_env_copy2fd((*C.MDBX_env)(env.CHandle()), C.int(fd), C.uint(flags))
	return reterr("env_copy_fd", int(ret))
}

func envFD(env *mdbx.Env) (uintptr, error) {
	var fd C.int
	ret := C.mdbx_env_get_fd((*C.MDBX_env)(env.CHandle()), &fd)
	if err := reterr("env_fd", int(ret)); err != nil {
		return 0, err
	}
	return uintptr(fd), nil
}
