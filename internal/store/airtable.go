package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"bakehouse/internal/domain"
)

const (
	defaultAirtableBaseURL = "https://api.airtable.com/v0"

	// Airtable caps batch create/update requests at 10 records.
	airtableBatchSize = 10
)

// AirtableConfig locates the hosted CompressedOrderHistory table.
type AirtableConfig struct {
	BaseURL string // defaults to the public API host
	BaseID  string
	APIKey  string
	Table   string
}

type airtableHistory struct {
	cfg    AirtableConfig
	client *http.Client
	logger *log.Logger
}

// NewAirtable returns a History backed by a hosted Airtable base. The
// backend offers no transactional isolation; sync failures may leave a
// partially applied batch, which a retry completes because the merge is
// keyed and idempotent.
func NewAirtable(cfg AirtableConfig, client *http.Client, logger *log.Logger) History {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultAirtableBaseURL
	}
	if cfg.Table == "" {
		cfg.Table = "CompressedOrderHistory"
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &airtableHistory{cfg: cfg, client: client, logger: logger}
}

type airtableRecord struct {
	ID     string         `json:"id,omitempty"`
	Fields airtableFields `json:"fields"`
}

// Sync replaces matched rows whole, so no field is omitempty: a blank
// value must clear whatever the hosted table held before.
type airtableFields struct {
	ID              int     `json:"ID"`
	Email           string  `json:"Email"`
	DeliveryDate    string  `json:"DeliveryDate"`
	Lineitems       string  `json:"Lineitems"`
	BillingAddress  string  `json:"BillingAddress"`
	ShippingAddress string  `json:"ShippingAddress"`
	Total           float64 `json:"Total"`
	DeliveryNotes   string  `json:"DeliveryNotes"`
}

type airtablePage struct {
	Records []airtableRecord `json:"records"`
	Offset  string           `json:"offset,omitempty"`
}

func (s *airtableHistory) MaxDeliveryDate(ctx context.Context) (time.Time, bool, error) {
	records, err := s.list(ctx, url.Values{"fields[]": {"DeliveryDate"}})
	if err != nil {
		return time.Time{}, false, err
	}

	var max time.Time
	found := false
	for _, r := range records {
		d, err := parseAirtableDate(r.Fields.DeliveryDate)
		if err != nil {
			continue
		}
		if !found || d.After(max) {
			max = d
			found = true
		}
	}
	return max, found, nil
}

func (s *airtableHistory) MostRecentByEmail(ctx context.Context, deliveryDate time.Time, lookbackDays int) (map[string]domain.CompressedOrder, error) {
	cutoff := deliveryDate.AddDate(0, 0, -lookbackDays)
	records, err := s.listByDateRange(ctx, cutoff, deliveryDate)
	if err != nil {
		return nil, err
	}

	result := make(map[string]domain.CompressedOrder)
	for _, rec := range records {
		existing, ok := result[rec.Email]
		if !ok || rec.DeliveryDate.After(existing.DeliveryDate) {
			result[rec.Email] = rec
		}
	}
	s.logger.Printf("store: most recent by email date=%s lookback=%dd count=%d",
		deliveryDate.Format("2006-01-02"), lookbackDays, len(result))
	return result, nil
}

func (s *airtableHistory) SelectByDeliveryDate(ctx context.Context, start, end time.Time) ([]domain.CompressedOrder, error) {
	return s.listByDateRange(ctx, start, end)
}

func (s *airtableHistory) GetByIDs(ctx context.Context, ids []int) ([]domain.CompressedOrder, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	records, err := s.list(ctx, url.Values{"filterByFormula": {idFormula(ids)}})
	if err != nil {
		return nil, err
	}
	result := toDomain(records)
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Sync partitions the batch into updates of existing rows (matched by
// order ID) and inserts of new ones. Airtable has no multi-field keyed
// merge, so only the ID key is supported.
func (s *airtableHistory) Sync(ctx context.Context, records []domain.CompressedOrder, key []string) error {
	if len(key) != 1 || key[0] != "ID" {
		return fmt.Errorf("airtable history only supports syncing on the ID key, got %v", key)
	}
	if len(records) == 0 {
		return nil
	}

	ids := make([]int, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	existing, err := s.list(ctx, url.Values{"filterByFormula": {idFormula(ids)}})
	if err != nil {
		return fmt.Errorf("look up existing records: %w", err)
	}
	recordIDByOrderID := make(map[int]string, len(existing))
	for _, r := range existing {
		recordIDByOrderID[r.Fields.ID] = r.ID
	}

	var inserts, updates []airtableRecord
	for _, rec := range records {
		at := airtableRecord{Fields: toAirtableFields(rec)}
		if recID, ok := recordIDByOrderID[rec.ID]; ok {
			at.ID = recID
			updates = append(updates, at)
		} else {
			inserts = append(inserts, at)
		}
	}

	if err := s.writeBatches(ctx, http.MethodPost, inserts); err != nil {
		return fmt.Errorf("insert records: %w", err)
	}
	if err := s.writeBatches(ctx, http.MethodPatch, updates); err != nil {
		return fmt.Errorf("update records: %w", err)
	}

	s.logger.Printf("store: sync staged=%d updated=%d inserted=%d", len(records), len(updates), len(inserts))
	return nil
}

func (s *airtableHistory) listByDateRange(ctx context.Context, start, end time.Time) ([]domain.CompressedOrder, error) {
	formula := fmt.Sprintf(
		"AND({DeliveryDate}>=DATETIME_PARSE('%s','YYYY-MM-DD'),{DeliveryDate}<DATETIME_PARSE('%s','YYYY-MM-DD'))",
		start.Format("2006-01-02"), end.Format("2006-01-02"),
	)
	records, err := s.list(ctx, url.Values{"filterByFormula": {formula}})
	if err != nil {
		return nil, err
	}
	result := toDomain(records)
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *airtableHistory) list(ctx context.Context, params url.Values) ([]airtableRecord, error) {
	var all []airtableRecord
	offset := ""
	for {
		q := url.Values{}
		for k, vs := range params {
			q[k] = vs
		}
		if offset != "" {
			q.Set("offset", offset)
		}

		var page airtablePage
		if err := s.do(ctx, http.MethodGet, "?"+q.Encode(), nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Records...)
		if page.Offset == "" {
			return all, nil
		}
		offset = page.Offset
	}
}

func (s *airtableHistory) writeBatches(ctx context.Context, method string, records []airtableRecord) error {
	for start := 0; start < len(records); start += airtableBatchSize {
		end := start + airtableBatchSize
		if end > len(records) {
			end = len(records)
		}
		body := airtablePage{Records: records[start:end]}
		if err := s.do(ctx, method, "", body, nil); err != nil {
			return err
		}
	}
	return nil
}

func (s *airtableHistory) do(ctx context.Context, method, query string, body, out any) error {
	endpoint := fmt.Sprintf("%s/%s/%s%s", s.cfg.BaseURL, s.cfg.BaseID, url.PathEscape(s.cfg.Table), query)

	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("airtable %s %s: status %d: %s", method, s.cfg.Table, resp.StatusCode, msg)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func idFormula(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = "{ID}=" + strconv.Itoa(id)
	}
	if len(parts) == 1 {
		return parts[0]
	}
	var b bytes.Buffer
	b.WriteString("OR(")
	for i, p := range parts {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p)
	}
	b.WriteByte(')')
	return b.String()
}

func toAirtableFields(rec domain.CompressedOrder) airtableFields {
	return airtableFields{
		ID:              rec.ID,
		Email:           rec.Email,
		DeliveryDate:    rec.DeliveryDate.Format("2006-01-02"),
		Lineitems:       rec.Lineitems,
		BillingAddress:  rec.BillingAddress,
		ShippingAddress: rec.ShippingAddress,
		Total:           rec.Total,
		DeliveryNotes:   rec.DeliveryNotes,
	}
}

func toDomain(records []airtableRecord) []domain.CompressedOrder {
	result := make([]domain.CompressedOrder, 0, len(records))
	for _, r := range records {
		date, err := parseAirtableDate(r.Fields.DeliveryDate)
		if err != nil {
			// Rows with unparseable dates are data-quality noise the
			// pipeline cannot act on; skip them.
			continue
		}
		result = append(result, domain.CompressedOrder{
			ID:              r.Fields.ID,
			Email:           r.Fields.Email,
			DeliveryDate:    date,
			Lineitems:       r.Fields.Lineitems,
			BillingAddress:  r.Fields.BillingAddress,
			ShippingAddress: r.Fields.ShippingAddress,
			Total:           r.Fields.Total,
			DeliveryNotes:   r.Fields.DeliveryNotes,
		})
	}
	return result
}

func parseAirtableDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range []string{"2006-01-02", "2006-01-02T15:04:05.000Z", time.RFC3339} {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}
