package sandbox

// ISandbox is one scratch directory in which child processes run. A sandbox
// is reused between runs of one owner; Cleanup wipes it for the next one.
type ISandbox interface {
	Init() error
	Dir() string
	Run(config *ExecuteConfig) *RunResult
	Cleanup()
	Delete()
}
