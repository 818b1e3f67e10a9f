// Package endpoint implements the typed DataWriter/DataReader runtime on
// top of the reliability engine: encode-and-submit on the write path,
// decode-dedup-enqueue on the read path, plus the WaitSet/Condition event
// model and the QoS-driven watchdogs (DEADLINE, LIVELINESS, OWNERSHIP)
// that sit above it (§4.6).
package endpoint

import "github.com/naskel/hdds/internal/rtps/cdr"

// Sample is implemented by topic types usable with DataWriter/DataReader.
// There is no IDL compiler in this repository, so types implement both
// cdr.Codec and key extraction by hand. InstanceKey returns the DDS key
// value as a comparable string; unkeyed topics return "" for every
// sample, which collapses DEADLINE/OWNERSHIP/history-per-instance
// tracking onto a single instance.
type Sample interface {
	cdr.Codec
	InstanceKey() string
}
