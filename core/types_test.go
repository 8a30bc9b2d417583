package core

import "testing"

func TestNormalizeAddress(t *testing.T) {
	addr, err := NormalizeAddress(" 0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B ")
	if err != nil || addr != "0xab5801a7d398351b8be11c439e05c5b3259aec9b" {
		t.Fatalf("got %v %v", addr, err)
	}
	if _, err := NormalizeAddress("   "); err == nil {
		t.Fatalf("expected empty error")
	}
	if _, err := NormalizeAddress("not-an-address"); err == nil {
		t.Fatalf("expected invalid address error")
	}
}

func TestValidEventType(t *testing.T) {
	if !ValidEventType(ProfilePublished) {
		t.Fatal("ProfilePublished should be known")
	}
	if ValidEventType(EventType("Bogus")) {
		t.Fatal("unknown type accepted")
	}
}

func TestStatusEligible(t *testing.T) {
	if !StatusLogged.Eligible() || !StatusVerified.Eligible() {
		t.Fatal("Logged and Verified must be eligible")
	}
	if StatusFraud.Eligible() {
		t.Fatal("Fraud must not be eligible")
	}
}

func TestAmountUnits(t *testing.T) {
	v := RewardValue{Amount: "50", Currency: "OGN"}
	n, err := v.AmountUnits()
	if err != nil || n.Int64() != 50 {
		t.Fatalf("got %v %v", n, err)
	}
	if _, err := (RewardValue{Amount: "x"}).AmountUnits(); err == nil {
		t.Fatal("expected parse error")
	}
}
