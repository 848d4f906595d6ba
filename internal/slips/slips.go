// Package slips renders per-order packing slips for one delivery date,
// sorted by delivery route, and binds them into a single PDF via the
// wkhtmltopdf binary.
package slips

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"bakehouse/internal/domain"
)

// RouteStop is one row of the route-assignment table, keyed by order ID.
type RouteStop struct {
	Bike  string
	Route string
	Stop  int
}

type historyReader interface {
	SelectByDeliveryDate(ctx context.Context, start, end time.Time) ([]domain.CompressedOrder, error)
}

// Renderer builds packing slips from the order history store.
type Renderer struct {
	store      historyReader
	shopName   string
	wkhtmltox  string
	workParent string
	logger     *log.Logger
}

func NewRenderer(store historyReader, shopName, wkhtmltopdfPath, workParent string, logger *log.Logger) *Renderer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Renderer{
		store:      store,
		shopName:   shopName,
		wkhtmltox:  wkhtmltopdfPath,
		workParent: workParent,
		logger:     logger,
	}
}

// Generate renders every order delivered on deliveryDate into the output
// PDF. Orders with a route assignment are named so that lexical file
// order equals delivery order; unrouted orders fall back to their ID.
func (r *Renderer) Generate(ctx context.Context, deliveryDate time.Time, routesPath, outFile string) error {
	routes, err := ReadRoutes(routesPath, r.logger)
	if err != nil {
		return err
	}

	orders, err := r.store.SelectByDeliveryDate(ctx, deliveryDate, deliveryDate.AddDate(0, 0, 1))
	if err != nil {
		return fmt.Errorf("load orders: %w", err)
	}
	if len(orders) == 0 {
		return fmt.Errorf("orders for %s: %w", deliveryDate.Format("2006-01-02"), domain.ErrNotFound)
	}

	scratch, err := NewScratchDir(r.workParent)
	if err != nil {
		return err
	}
	defer scratch.Remove()

	var files []string
	for _, order := range orders {
		stop, routed := routes[order.ID]
		if !routed {
			r.logger.Printf("slips: no route row for order #%d, falling back to ID ordering", order.ID)
		}

		html, err := buildSlipHTML(order, stop, routed, r.shopName)
		if err != nil {
			return fmt.Errorf("render order #%d: %w", order.ID, err)
		}

		path := filepath.Join(scratch.Path(), slipFileName(order, stop, routed))
		if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
			return fmt.Errorf("write slip for order #%d: %w", order.ID, err)
		}
		files = append(files, path)
	}

	// Lexical order of the generated names is delivery order.
	sort.Strings(files)

	if err := r.renderPDF(ctx, files, outFile); err != nil {
		return err
	}
	r.logger.Printf("slips: rendered %d packing slips to %s", len(files), outFile)
	return nil
}

// ReadRoutes parses the route-assignment CSV. Required columns:
// Order_Number, Bike, Route, Stop on Route. Unparsable stop numbers fall
// back to stop 1 with a warning; route files are hand-maintained.
func ReadRoutes(path string, logger *log.Logger) (map[int]RouteStop, error) {
	if path == "" {
		return map[int]RouteStop{}, nil
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open route file: %w", err)
	}
	defer f.Close()

	csvr := csv.NewReader(f)
	csvr.FieldsPerRecord = -1

	headers, err := csvr.Read()
	if err != nil {
		return nil, fmt.Errorf("read route headers: %w", err)
	}
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[strings.TrimSpace(h)] = i
	}
	for _, col := range []string{"Order_Number", "Bike", "Route", "Stop on Route"} {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("route file missing column %q: %w", col, domain.ErrMalformedInput)
		}
	}

	pick := func(record []string, key string) string {
		pos, ok := index[key]
		if !ok || pos >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[pos])
	}

	routes := make(map[int]RouteStop)
	for {
		record, err := csvr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read route row: %w", err)
		}

		orderID, err := strconv.Atoi(pick(record, "Order_Number"))
		if err != nil {
			return nil, fmt.Errorf("route row order number %q: %w", pick(record, "Order_Number"), domain.ErrMalformedInput)
		}

		stopStr := pick(record, "Stop on Route")
		stop, err := strconv.Atoi(stopStr)
		if err != nil {
			logger.Printf("slips: warning: cannot parse stop %q for order #%d, using stop 1", stopStr, orderID)
			stop = 1
		}

		if _, dup := routes[orderID]; dup {
			logger.Printf("slips: warning: duplicate route rows for order #%d, keeping the first", orderID)
			continue
		}
		routes[orderID] = RouteStop{
			Bike:  pick(record, "Bike"),
			Route: pick(record, "Route"),
			Stop:  stop,
		}
	}
	return routes, nil
}

type slipItem struct {
	Description string
	Quantity    int
	Strong      bool
}

type slipData struct {
	ShopName        string
	OrderID         int
	DeliveryDate    string
	ShippingAddress template.HTML
	BillingAddress  template.HTML
	Items           []slipItem
	Notes           string
	Bike            string
	Route           string
	Stop            string
}

func buildSlipHTML(order domain.CompressedOrder, stop RouteStop, routed bool, shopName string) (string, error) {
	// Rebuild per-item quantities from the repeated tokens.
	counts := make(map[string]int)
	var itemOrder []string
	for _, token := range order.LineitemTokens() {
		if counts[token] == 0 {
			itemOrder = append(itemOrder, token)
		}
		counts[token]++
	}

	items := make([]slipItem, 0, len(itemOrder))
	for _, desc := range itemOrder {
		items = append(items, slipItem{
			Description: desc,
			Quantity:    counts[desc],
			Strong:      counts[desc] > 1,
		})
	}

	data := slipData{
		ShopName:        shopName,
		OrderID:         order.ID,
		DeliveryDate:    order.DeliveryDate.Format("2006-01-02"),
		ShippingAddress: template.HTML(order.ShippingAddress),
		BillingAddress:  template.HTML(order.BillingAddress),
		Items:           items,
		Notes:           order.DeliveryNotes,
	}
	if routed {
		data.Bike = stop.Bike
		data.Route = stop.Route
		data.Stop = padStop(stop.Stop)
	}

	var b strings.Builder
	if err := slipTemplate.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// slipFileName encodes the delivery order into the file name: route then
// zero-padded stop, with characters unsafe for file names replaced.
func slipFileName(order domain.CompressedOrder, stop RouteStop, routed bool) string {
	if !routed || strings.TrimSpace(stop.Route) == "" {
		return strconv.Itoa(order.ID) + ".html"
	}
	name := stop.Route + "_" + padStop(stop.Stop) + ".html"
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "/", "of")
	return name
}

func padStop(stop int) string {
	if stop < 10 {
		return "0" + strconv.Itoa(stop)
	}
	return strconv.Itoa(stop)
}

func (r *Renderer) renderPDF(ctx context.Context, htmlFiles []string, outFile string) error {
	if r.wkhtmltox == "" {
		return fmt.Errorf("wkhtmltopdf path not configured")
	}
	args := append(append([]string{}, htmlFiles...), outFile)
	cmd := exec.CommandContext(ctx, r.wkhtmltox, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("wkhtmltopdf: %w: %s", err, out)
	}
	return nil
}
