//go:build linux

package simple

import (
	"golang.org/x/sys/unix"

	"judge_engine/lib/customfields"
)

func applyAddressSpaceLimit(pid int, limit customfields.Memory) error {
	if limit == 0 {
		return nil
	}
	lim := unix.Rlimit{Cur: limit.Val(), Max: limit.Val()}
	return unix.Prlimit(pid, unix.RLIMIT_AS, &lim, nil)
}
