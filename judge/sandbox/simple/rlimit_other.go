//go:build !linux

package simple

import "judge_engine/lib/customfields"

// Address space limits need prlimit, which only exists on linux. Other
// platforms run with the wall clock cutoff alone.
func applyAddressSpaceLimit(pid int, limit customfields.Memory) error {
	return nil
}
