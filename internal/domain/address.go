package domain

import "strings"

// Address holds the address columns of one export row. Every field is
// optional; blank means the row did not carry that field.
type Address struct {
	Name     string
	Street   string
	Address1 string
	Address2 string
	Company  string
	City     string
	Zip      string
	Province string
	Country  string
	Phone    string
}

// Merge overwrites each field with the candidate's value when that value
// is non-blank. Later rows of an order may carry a fuller address than
// earlier ones, so the last non-blank write wins; blank candidates never
// erase data already present.
func (a *Address) Merge(other Address) {
	merge(&a.Name, other.Name)
	merge(&a.Street, other.Street)
	merge(&a.Address1, other.Address1)
	merge(&a.Address2, other.Address2)
	merge(&a.Company, other.Company)
	merge(&a.City, other.City)
	merge(&a.Zip, other.Zip)
	merge(&a.Province, other.Province)
	merge(&a.Country, other.Country)
	merge(&a.Phone, other.Phone)
}

func merge(dst *string, candidate string) {
	if strings.TrimSpace(candidate) != "" {
		*dst = candidate
	}
}

// addressSeparator is part of the stored-record format: packing slips
// inject the rendered address straight into HTML.
const addressSeparator = ",<br>"

// Render flattens the address into its display string: non-blank fields
// joined in fixed order, postcode uppercased, no trailing separator.
// Street and province are intentionally absent from the rendered form.
func (a Address) Render() string {
	fields := []string{
		a.Name,
		a.Company,
		a.Address1,
		a.Address2,
		a.City,
		strings.ToUpper(a.Zip),
		a.Country,
		a.Phone,
	}

	var b strings.Builder
	for _, f := range fields {
		if f == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(addressSeparator)
		}
		b.WriteString(f)
	}
	return b.String()
}
