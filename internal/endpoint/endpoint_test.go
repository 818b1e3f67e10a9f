package endpoint

import (
	"github.com/naskel/hdds/internal/rtps/cdr"
)

// testSample is a hand-written Sample implementation used across this
// package's tests, standing in for a would-be IDL-generated topic type.
type testSample struct {
	Key   string
	Value int32
}

func (s *testSample) EncodeCDR(w *cdr.Writer) error {
	w.WriteString(s.Key)
	w.WriteInt32(s.Value)
	return nil
}

func (s *testSample) DecodeCDR(r *cdr.Reader) error {
	key, err := r.ReadString()
	if err != nil {
		return err
	}
	value, err := r.ReadInt32()
	if err != nil {
		return err
	}
	s.Key = key
	s.Value = value
	return nil
}

func (s *testSample) InstanceKey() string { return s.Key }
