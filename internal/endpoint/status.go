package endpoint

// OfferedDeadlineMissedStatus reports that a DataWriter failed to write a
// key instance within its DEADLINE period (§4.6).
type OfferedDeadlineMissedStatus struct {
	TotalCount  int
	InstanceKey string
}

// RequestedDeadlineMissedStatus is the reader-side counterpart: no sample
// for InstanceKey arrived within the reader's requested DEADLINE period.
type RequestedDeadlineMissedStatus struct {
	TotalCount  int
	InstanceKey string
}

// LivelinessLostStatus reports that a DataWriter failed to assert
// liveliness within its lease duration.
type LivelinessLostStatus struct {
	TotalCount int
}

// LivelinessChangedStatus tracks the reader-side count of matched writers
// currently considered alive versus not-alive.
type LivelinessChangedStatus struct {
	AliveCount    int
	NotAliveCount int
}

// SampleRejectedStatus reports a sample that could not be accepted into a
// DataReader's history (resource limits, rejected by QoS).
type SampleRejectedStatus struct {
	TotalCount int
	Reason     string
}

// IncompatibleQosStatus reports a QoS mismatch recorded by the matcher
// against a remote endpoint (§3 compatibility table, §8 scenario S5).
type IncompatibleQosStatus struct {
	TotalCount   int
	LastPolicies []string
}
