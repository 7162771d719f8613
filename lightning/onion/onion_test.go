package onion

import (
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

func genNode(t *testing.T) (*secp256k1.PrivateKey, *Router, [33]byte) {
	t.Helper()
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("GeneratePrivateKey: %v", err)
	}
	var nodeID [33]byte
	copy(nodeID[:], priv.PubKey().SerializeCompressed())
	return priv, NewRouter(priv), nodeID
}

func TestConstructRejectsEmptyRoute(t *testing.T) {
	_, sender, _ := genNode(t)
	_, err := sender.Construct(nil, []byte("ad"))
	serr, ok := err.(*Error)
	if !ok || serr.Kind != ErrKindEmptyRoute {
		t.Fatalf("expected ErrKindEmptyRoute, got %v", err)
	}
}

func TestConstructRejectsTooManyHops(t *testing.T) {
	_, sender, _ := genNode(t)
	route := make([]RouteHop, MaxHops+1)
	for i := range route {
		_, _, nodeID := genNode(t)
		route[i] = RouteHop{NodeID: nodeID}
	}
	_, err := sender.Construct(route, []byte("ad"))
	serr, ok := err.(*Error)
	if !ok || serr.Kind != ErrKindTooManyHops {
		t.Fatalf("expected ErrKindTooManyHops, got %v", err)
	}
}

func TestThreeHopRoundTrip(t *testing.T) {
	_, sender, _ := genNode(t)
	_, hop1, node1 := genNode(t)
	_, hop2, node2 := genNode(t)
	_, hop3, node3 := genNode(t)

	route := []RouteHop{
		{NodeID: node1, ShortChannelID: 111, AmountMsat: 100000, CLTVExpiryDelta: 40},
		{NodeID: node2, ShortChannelID: 222, AmountMsat: 99500, CLTVExpiryDelta: 40},
		{NodeID: node3, ShortChannelID: 0, AmountMsat: 99000},
	}
	associatedData := []byte("payment-hash-placeholder")

	packet, err := sender.Construct(route, associatedData)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}

	result1, err := hop1.Process(packet, associatedData)
	if err != nil {
		t.Fatalf("hop1 Process: %v", err)
	}
	if result1.FinalHop {
		t.Fatal("hop1 should not be the final hop")
	}
	if result1.NextChannelID != 111 {
		t.Fatalf("hop1 wants to forward via channel 111, got %d", result1.NextChannelID)
	}

	result2, err := hop2.Process(result1.Next, associatedData)
	if err != nil {
		t.Fatalf("hop2 Process: %v", err)
	}
	if result2.FinalHop {
		t.Fatal("hop2 should not be the final hop")
	}

	result3, err := hop3.Process(result2.Next, associatedData)
	if err != nil {
		t.Fatalf("hop3 Process: %v", err)
	}
	if !result3.FinalHop {
		t.Fatal("hop3 should be the final hop")
	}
	if result3.Payload.AmountMsat != 99000 {
		t.Fatalf("final amount_msat = %d, want 99000", result3.Payload.AmountMsat)
	}
}

func TestProcessRejectsTamperedHMAC(t *testing.T) {
	_, sender, _ := genNode(t)
	_, hop1, node1 := genNode(t)

	route := []RouteHop{{NodeID: node1, ShortChannelID: 0, AmountMsat: 1000}}
	packet, err := sender.Construct(route, []byte("ad"))
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	packet.HMAC[0] ^= 0xff

	_, err = hop1.Process(packet, []byte("ad"))
	serr, ok := err.(*Error)
	if !ok || serr.Kind != ErrKindInvalidHMAC {
		t.Fatalf("expected ErrKindInvalidHMAC, got %v", err)
	}
}

func TestProcessRejectsWrongAssociatedData(t *testing.T) {
	_, sender, _ := genNode(t)
	_, hop1, node1 := genNode(t)

	route := []RouteHop{{NodeID: node1, ShortChannelID: 0, AmountMsat: 1000}}
	packet, err := sender.Construct(route, []byte("ad"))
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}

	_, err = hop1.Process(packet, []byte("different-ad"))
	serr, ok := err.(*Error)
	if !ok || serr.Kind != ErrKindInvalidHMAC {
		t.Fatalf("expected ErrKindInvalidHMAC, got %v", err)
	}
}
