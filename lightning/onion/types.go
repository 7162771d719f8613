// Package onion implements the Sphinx-style onion packet construction and
// processing pipeline of C11 (spec.md §4.11): fixed-size packets that
// hide the full payment route from every hop but the sender, each hop
// able to decrypt only its own layer and learn only the next hop to
// forward to.
package onion

// Wire-level sizing constants, carried verbatim from spec.md §4.11.
const (
	PacketSize        = 1366
	PerHopPayloadSize = 65
	MaxHops           = 20

	// RoutingInfoSize is the fixed size of the routing_info field: the
	// packet minus its version byte, ephemeral pubkey, and HMAC.
	RoutingInfoSize = PacketSize - 1 - 33 - 32
)

// Packet is the fixed-size onion packet forwarded hop to hop.
type Packet struct {
	Version         uint8
	EphemeralPubKey [33]byte
	RoutingInfo     [RoutingInfoSize]byte
	HMAC            [32]byte
}

// PerHopPayload carries one hop's forwarding instructions.
type PerHopPayload struct {
	AmountMsat        uint64
	OutgoingCLTVValue uint32
	ShortChannelID    uint64
	TLV               map[uint64][]byte

	// nextHMAC is the HMAC the sender precomputed for the packet this
	// hop will forward, keyed on the next hop's shared secret (which
	// only the sender and that hop can derive). It travels inside this
	// hop's own encrypted payload since nothing else in the packet is
	// both addressed to this hop and cleartext after decryption.
	nextHMAC [32]byte
}

// IsFinalHop reports whether this payload marks the packet's final
// recipient (spec.md §4.11: short_channel_id == 0).
func (p PerHopPayload) IsFinalHop() bool {
	return p.ShortChannelID == 0
}

// RouteHop is one hop of a route being used to construct a packet.
type RouteHop struct {
	NodeID          [33]byte
	ShortChannelID  uint64
	AmountMsat      uint64
	CLTVExpiryDelta uint16
	FeeMsat         uint64
}

// ProcessResult is the outcome of processing an incoming packet at a hop.
type ProcessResult struct {
	Payload PerHopPayload

	// FinalHop is true when this node is the payment's destination;
	// Next and NextChannelID are populated only when false.
	FinalHop      bool
	Next          *Packet
	NextChannelID uint64
}
