package compress

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Policy decides what happens to chronology advisories. The original
// workflow asked the operator on a terminal; batch runs need a
// non-interactive answer instead.
type Policy int

const (
	// PolicyWarn logs each advisory and continues.
	PolicyWarn Policy = iota
	// PolicyFail turns any advisory into an error before the fold starts.
	PolicyFail
	// PolicySilent discards advisories.
	PolicySilent
)

// ParsePolicy maps a configuration string to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "warn":
		return PolicyWarn, nil
	case "fail":
		return PolicyFail, nil
	case "silent":
		return PolicySilent, nil
	}
	return PolicyWarn, fmt.Errorf("unknown chronology policy %q", s)
}

// chronologyAdvisories inspects the new delivery date against the store
// and returns human-readable advisories. None of them is fatal by
// itself; the policy decides.
func (p *Processor) chronologyAdvisories(ctx context.Context, deliveryDate time.Time) ([]string, error) {
	var advisories []string

	if deliveryDate.Weekday() != time.Saturday {
		advisories = append(advisories, "delivery date is not a Saturday")
	}

	last, ok, err := p.store.MaxDeliveryDate(ctx)
	if err != nil {
		return nil, fmt.Errorf("query last delivery date: %w", err)
	}
	if !ok {
		advisories = append(advisories, "no previous deliveries on record (first run)")
		return advisories, nil
	}

	gapDays := int(deliveryDate.Sub(last).Hours() / 24)
	if gapDays > 7 {
		advisories = append(advisories,
			fmt.Sprintf("gap of %d days since last delivery on %s; a delivery may have been skipped",
				gapDays, last.Format("2006-01-02")))
	}
	if gapDays < 0 {
		advisories = append(advisories,
			fmt.Sprintf("delivery date precedes last processed delivery on %s (non-chronological insert)",
				last.Format("2006-01-02")))
	}
	return advisories, nil
}

func (p *Processor) applyPolicy(advisories []string) error {
	if len(advisories) == 0 || p.policy == PolicySilent {
		return nil
	}
	if p.policy == PolicyFail {
		return fmt.Errorf("chronology check failed: %s", strings.Join(advisories, "; "))
	}
	for _, a := range advisories {
		p.logger.Printf("compress: warning: %s", a)
	}
	return nil
}
