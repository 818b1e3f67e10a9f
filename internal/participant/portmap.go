package participant

// PortMapping holds the four well-known ports a participant computes from
// its domain ID and participant index, following the RTPS discovery port
// formula with HDDS's vendor-specific user-data multicast offset (§6):
//
//	metatraffic multicast = 7400 + 250*d
//	metatraffic unicast   = 7400 + 250*d + 10 + 2*p
//	user data multicast   = metatraffic multicast + 1
//	user data unicast     = 7400 + 250*d + 11 + 2*p
type PortMapping struct {
	MetatrafficMulticast uint32
	MetatrafficUnicast   uint32
	UserDataMulticast    uint32
	UserDataUnicast      uint32
}

// DefaultMulticastGroup is the multicast address HDDS joins for both
// metatraffic and user-data discovery traffic (§6).
const DefaultMulticastGroup = "239.255.0.1"

// ComputePortMapping derives the port mapping for domain d and
// participant index p (the Nth participant bound on this host within the
// domain, starting at 0).
func ComputePortMapping(domain, participantIndex uint32) PortMapping {
	base := 7400 + 250*domain
	return PortMapping{
		MetatrafficMulticast: base,
		MetatrafficUnicast:   base + 10 + 2*participantIndex,
		UserDataMulticast:    base + 1,
		UserDataUnicast:      base + 11 + 2*participantIndex,
	}
}

// maxParticipantIndexProbe bounds how many participant indices Build will
// try before giving up finding a free unicast port pair, mirroring the
// "fallback to next offset if in use" rule without probing forever on a
// host with every index already occupied (§4.7 step 2).
const maxParticipantIndexProbe = 120
