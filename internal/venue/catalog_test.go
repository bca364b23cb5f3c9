package venue

import "testing"

func testCatalog() *Catalog {
	return NewCatalog([]Venue{
		{Name: "KRS Seminar Hall", Capacity: 50},
		{Name: "Civil Seminar Hall", Capacity: 75},
		{Name: "ECE Seminar Hall", Capacity: 100},
		{Name: "MS Auditorium", Capacity: 500},
	})
}

func TestCapacityOf(t *testing.T) {
	c := testCatalog()
	if n, ok := c.CapacityOf("ECE Seminar Hall"); !ok || n != 100 {
		t.Fatalf("CapacityOf(ECE Seminar Hall) = %d, %v; want 100, true", n, ok)
	}
	if _, ok := c.CapacityOf("Main Hall"); ok {
		t.Fatal("expected Main Hall to be unknown to the catalog")
	}
}

func TestNewCatalogSkipsBlankAndDuplicates(t *testing.T) {
	c := NewCatalog([]Venue{
		{Name: "A", Capacity: 10},
		{Name: "  ", Capacity: 99},
		{Name: "A", Capacity: 20},
	})
	if got := len(c.List()); got != 1 {
		t.Fatalf("List length: got %d, want 1", got)
	}
	if n, _ := c.CapacityOf("A"); n != 10 {
		t.Fatalf("duplicate overwrote capacity: got %d, want 10", n)
	}
}

func TestRecommendOrdersSuitableFirstBySize(t *testing.T) {
	got := testCatalog().Recommend(80)
	want := []struct {
		name     string
		suitable bool
	}{
		{"ECE Seminar Hall", true},
		{"MS Auditorium", true},
		{"KRS Seminar Hall", false},
		{"Civil Seminar Hall", false},
	}
	if len(got) != len(want) {
		t.Fatalf("Recommend length: got %d, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Name != w.name || got[i].Suitable != w.suitable {
			t.Errorf("position %d: got %s/%v, want %s/%v", i, got[i].Name, got[i].Suitable, w.name, w.suitable)
		}
	}
}

func TestPoolFirstFree(t *testing.T) {
	pool := Pool{"Main Hall", "Conference Room", "Auditorium"}

	tests := []struct {
		name     string
		occupied []string
		want     string
		ok       bool
	}{
		{"nothing occupied", nil, "Main Hall", true},
		{"skips occupied in list order", []string{"Main Hall"}, "Conference Room", true},
		{"ignores venues outside the pool", []string{"KRS Seminar Hall", "Main Hall", "Conference Room"}, "Auditorium", true},
		{"all occupied", []string{"Auditorium", "Conference Room", "Main Hall"}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := pool.FirstFree(tt.occupied)
			if got != tt.want || ok != tt.ok {
				t.Fatalf("FirstFree(%v) = %q, %v; want %q, %v", tt.occupied, got, ok, tt.want, tt.ok)
			}
		})
	}
}
