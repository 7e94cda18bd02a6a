package preflight

import (
	"fmt"
	"syscall"
)

// MinFileDescriptors is the floor below which pantry warns regardless of
// pool size.
const MinFileDescriptors = 256

// CheckFileDescriptors warns when the soft limit cannot hold the
// verification pool's connections plus the floor.
func (c *Checker) CheckFileDescriptors(parallelism int) CheckResult {
	result := CheckResult{Name: "file_descriptors"}

	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("failed to check file descriptor limit: %v", err)
		return result
	}

	need := uint64(MinFileDescriptors + max(parallelism, 0))
	result.Message = fmt.Sprintf("%d (minimum: %d)", rLimit.Cur, need)
	if rLimit.Cur < need {
		result.Status = StatusWarn
		result.Details = "Run 'ulimit -n 1024' or lower search.verify_parallelism"
		return result
	}
	result.Status = StatusPass
	return result
}
