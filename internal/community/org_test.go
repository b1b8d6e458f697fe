package community

import "testing"

func TestValid(t *testing.T) {
	for _, org := range Organizations() {
		if !org.Valid() {
			t.Fatalf("%s should be valid", org)
		}
	}
	if Organization("").Valid() {
		t.Fatal("empty org should be invalid")
	}
	if Organization("ces").Valid() {
		t.Fatal("org codes are case sensitive")
	}
}
