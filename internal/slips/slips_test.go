package slips

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bakehouse/internal/domain"
)

func writeRouteFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "routes.csv")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write route file: %v", err)
	}
	return path
}

func TestReadRoutes(t *testing.T) {
	path := writeRouteFile(t, "Order_Number,Bike,Route,Stop on Route\n1001,Red Bike,North,3\n1002,Blue Bike,South/East,12\n")

	routes, err := ReadRoutes(path, nil)
	if err != nil {
		t.Fatalf("ReadRoutes: %v", err)
	}
	if len(routes) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(routes))
	}
	if r := routes[1001]; r.Bike != "Red Bike" || r.Route != "North" || r.Stop != 3 {
		t.Fatalf("unexpected route %+v", r)
	}
}

func TestReadRoutes_MalformedStopFallsBackToOne(t *testing.T) {
	path := writeRouteFile(t, "Order_Number,Bike,Route,Stop on Route\n1001,Red Bike,North,first\n")

	routes, err := ReadRoutes(path, nil)
	if err != nil {
		t.Fatalf("ReadRoutes: %v", err)
	}
	if routes[1001].Stop != 1 {
		t.Fatalf("expected fallback stop 1, got %d", routes[1001].Stop)
	}
}

func TestReadRoutes_DuplicateKeepsFirst(t *testing.T) {
	path := writeRouteFile(t, "Order_Number,Bike,Route,Stop on Route\n1001,Red Bike,North,3\n1001,Blue Bike,South,4\n")

	routes, err := ReadRoutes(path, nil)
	if err != nil {
		t.Fatalf("ReadRoutes: %v", err)
	}
	if routes[1001].Route != "North" {
		t.Fatalf("expected first row kept, got %+v", routes[1001])
	}
}

func TestReadRoutes_MissingColumn(t *testing.T) {
	path := writeRouteFile(t, "Order_Number,Bike\n1001,Red Bike\n")

	_, err := ReadRoutes(path, nil)
	if !errors.Is(err, domain.ErrMalformedInput) {
		t.Fatalf("expected ErrMalformedInput, got %v", err)
	}
}

func TestSlipFileName(t *testing.T) {
	order := domain.CompressedOrder{ID: 1001}

	name := slipFileName(order, RouteStop{Route: "North Loop", Stop: 3}, true)
	if name != "North_Loop_03.html" {
		t.Fatalf("name = %q", name)
	}

	name = slipFileName(order, RouteStop{Route: "South/East", Stop: 12}, true)
	if name != "SouthofEast_12.html" {
		t.Fatalf("name = %q", name)
	}

	if name = slipFileName(order, RouteStop{}, false); name != "1001.html" {
		t.Fatalf("fallback name = %q", name)
	}
}

func TestBuildSlipHTML(t *testing.T) {
	order := domain.CompressedOrder{
		ID:              1001,
		Email:           "a@example.com",
		DeliveryDate:    time.Date(2021, 1, 23, 0, 0, 0, 0, time.UTC),
		Lineitems:       "Extra Loaf|Extra Loaf|Granola",
		ShippingAddress: "Ada Lovelace,<br>London",
		BillingAddress:  "Ada Lovelace,<br>London",
		DeliveryNotes:   "ring the bell",
	}

	html, err := buildSlipHTML(order, RouteStop{Bike: "Red Bike", Route: "North", Stop: 3}, true, "Butter & Crust")
	if err != nil {
		t.Fatalf("buildSlipHTML: %v", err)
	}

	for _, want := range []string{
		"Order #1001",
		"2021-01-23",
		"Ada Lovelace,<br>London",
		"<strong>Extra Loaf</strong>",
		"<strong>2</strong>",
		"Granola",
		"ring the bell",
		"Route North, stop 03",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("slip html missing %q", want)
		}
	}
	// Single-quantity items are not bolded.
	if strings.Contains(html, "<strong>Granola</strong>") {
		t.Error("single-quantity item should not be bold")
	}
}

func TestScratchDir(t *testing.T) {
	parent := t.TempDir()

	dir, err := NewScratchDir(parent)
	if err != nil {
		t.Fatalf("NewScratchDir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir.Path(), "a.html"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := dir.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	entries, err := os.ReadDir(dir.Path())
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty dir, got %d entries", len(entries))
	}

	if err := dir.Remove(); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(dir.Path()); !os.IsNotExist(err) {
		t.Fatalf("expected dir removed, stat err=%v", err)
	}
}
