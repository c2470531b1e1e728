package relationship

import "testing"

func TestClassify(t *testing.T) {
	table := New(map[uint32]map[uint32]Kind{
		1: {2: P2C, 3: C2P},
	})
	if got := table.Classify(1, 2); got != P2C {
		t.Fatalf("got %v, want P2C", got)
	}
	if got := table.Classify(1, 3); got != C2P {
		t.Fatalf("got %v, want C2P", got)
	}
	if got := table.Classify(1, 99); got != None {
		t.Fatalf("got %v, want None for an unrecorded neighbor", got)
	}
	if got := table.Classify(99, 1); got != None {
		t.Fatalf("got %v, want None for an unrecorded AS", got)
	}
}

func TestCheckCustomerAndImportOnlyProvider(t *testing.T) {
	table := New(map[uint32]map[uint32]Kind{
		1: {2: P2C, 3: C2P, 4: P2P},
	})
	if !table.CheckCustomer(1, 2) {
		t.Fatal("expected AS 2 to be a customer of AS 1")
	}
	if table.CheckCustomer(1, 3) {
		t.Fatal("did not expect AS 3 to be a customer of AS 1")
	}
	if !table.CheckImportOnlyProvider(1, 3) {
		t.Fatal("expected AS 3 to be a provider of AS 1")
	}
	if table.CheckImportOnlyProvider(1, 4) {
		t.Fatal("did not expect a peer to be classified as a provider")
	}
}

func TestSpecialUphill(t *testing.T) {
	cases := []struct {
		prev, next Kind
		want       bool
	}{
		{P2C, C2P, true},
		{P2P, C2P, true},
		{C2P, C2P, false},
		{P2C, P2P, false},
		{P2C, P2C, false},
		{None, C2P, false},
	}
	for _, c := range cases {
		if got := SpecialUphill(c.prev, c.next); got != c.want {
			t.Errorf("SpecialUphill(%v, %v) = %v, want %v", c.prev, c.next, got, c.want)
		}
	}
}

func TestNewWithNilMap(t *testing.T) {
	table := New(nil)
	if got := table.Classify(1, 2); got != None {
		t.Fatalf("got %v, want None", got)
	}
}
