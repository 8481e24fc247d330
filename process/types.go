package process

// ProcessID represents a unique identifier for a process
type ProcessID int

// InvalidPID is the identifier carried by a handle whose name did not resolve.
const InvalidPID ProcessID = -1

// IsValid reports whether pid refers to a resolved process.
func (pid ProcessID) IsValid() bool {
	return pid > 0
}

// ProcessIdentity is the immutable pairing of a resolved PID and the name used to resolve it.
type ProcessIdentity struct {
	PID  ProcessID // InvalidPID when the name matched nothing
	Name string    // Name as requested, not as read back from comm
}
