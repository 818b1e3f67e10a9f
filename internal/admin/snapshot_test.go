package admin

import (
	"testing"
	"time"

	"github.com/naskel/hdds/internal/discovery"
	"github.com/naskel/hdds/internal/reliability"
	"github.com/naskel/hdds/internal/rtps/guid"
	"github.com/stretchr/testify/assert"
)

func TestVendorIDStringFormatsAsHex(t *testing.T) {
	assert.Equal(t, "01ff", vendorIDString([2]byte{0x01, 0xff}))
}

func TestLocatorStringsPreservesOrder(t *testing.T) {
	locs := []guid.Locator{
		guid.NewUDPv4Locator([]byte{10, 0, 0, 1}, 7400),
		guid.NewUDPv4Locator([]byte{10, 0, 0, 2}, 7401),
	}
	out := locatorStrings(locs)
	assert.Len(t, out, 2)
	assert.NotEqual(t, out[0], out[1])
}

func TestParticipantSummaryCombinesLocatorSets(t *testing.T) {
	proxy := discovery.ParticipantProxy{
		GUID:                       guid.New(guid.GUIDPrefix{1}, guid.EntityIDParticipant),
		ParticipantName:            "peer-1",
		VendorID:                   [2]byte{0x01, 0x0f},
		LeaseDuration:              20 * time.Second,
		DefaultUnicastLocators:     []guid.Locator{guid.NewUDPv4Locator([]byte{10, 0, 0, 1}, 7411)},
		MetatrafficUnicastLocators: []guid.Locator{guid.NewUDPv4Locator([]byte{10, 0, 0, 1}, 7410)},
	}

	s := participantSummary(proxy, "cyclonedds")
	assert.Equal(t, "peer-1", s.Name)
	assert.Equal(t, "cyclonedds", s.Dialect)
	assert.Equal(t, int64(20000), s.LeaseDurationMS)
	assert.Len(t, s.Locators, 2)
}

func TestEndpointSummaryCarriesKind(t *testing.T) {
	e := discovery.EndpointProxy{TopicName: "sensors", TypeName: "Sample"}
	s := endpointSummary(e, "writer")
	assert.Equal(t, "writer", s.Kind)
	assert.Equal(t, "sensors", s.Topic)
}

func TestWriterProxySummaryReportsMissingCount(t *testing.T) {
	reader := guid.New(guid.GUIDPrefix{2}, guid.EntityID{0, 0, 1, 0xc7})
	proxy := reliability.NewWriterProxy(reader, nil)
	summary := writerProxySummary(proxy)
	assert.Equal(t, reader.String(), summary.GUID)
	assert.Equal(t, 0, summary.MissingCount)
}

func TestReaderProxySummaryCarriesGUID(t *testing.T) {
	writer := guid.New(guid.GUIDPrefix{3}, guid.EntityID{0, 0, 1, 0xc2})
	proxy := reliability.NewReaderProxy(writer, nil)
	summary := readerProxySummary(proxy)
	assert.Equal(t, writer.String(), summary.GUID)
}
