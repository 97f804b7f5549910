package registry

import "encoding/json"

// Company is the normalized subset of a registry lookup consumed by the
// widget. Every field is optional; the record is useful as soon as a name
// or CVR is present.
type Company struct {
	CVR          string `json:"cvr,omitempty"`
	Name         string `json:"name,omitempty"`
	Address      string `json:"address,omitempty"`
	Zipcode      string `json:"zipcode,omitempty"`
	City         string `json:"city,omitempty"`
	IndustryCode string `json:"industrycode,omitempty"`
	IndustryDesc string `json:"industrydesc,omitempty"`
	Employees    *int   `json:"employees,omitempty"`
}

// Usable reports whether the record carries enough data to show the
// company panel.
func (c *Company) Usable() bool {
	return c != nil && (c.Name != "" || c.CVR != "")
}

// upstreamRecord mirrors the loose field aliases the upstream registry
// has used across versions. Normalization picks the first populated alias.
type upstreamRecord struct {
	CVR          json.Number `json:"cvr"`
	VAT          json.Number `json:"vat"`
	Name         string      `json:"name"`
	LegacyName   string      `json:"virksomhedsnavn"`
	Address      string      `json:"address"`
	Zip          string      `json:"zip"`
	Zipcode      string      `json:"zipcode"`
	City         string      `json:"city"`
	IndustryCode json.Number `json:"industrycode"`
	MainIndustry json.Number `json:"main_industrycode"`
	IndustryDesc string      `json:"industrydesc"`
	MainDesc     string      `json:"main_industrycode_tekst"`
	Employees    *int        `json:"employees"`
	EmployeeYear *int        `json:"employeesYear"`
	LegacyCount  *int        `json:"antal_ansatte"`
}

func (r upstreamRecord) normalize() *Company {
	company := &Company{
		CVR:          firstNonEmpty(r.CVR.String(), r.VAT.String()),
		Name:         firstNonEmpty(r.Name, r.LegacyName),
		Address:      r.Address,
		Zipcode:      firstNonEmpty(r.Zip, r.Zipcode),
		City:         r.City,
		IndustryCode: firstNonEmpty(r.IndustryCode.String(), r.MainIndustry.String()),
		IndustryDesc: firstNonEmpty(r.IndustryDesc, r.MainDesc),
	}
	switch {
	case r.Employees != nil:
		company.Employees = r.Employees
	case r.EmployeeYear != nil:
		company.Employees = r.EmployeeYear
	case r.LegacyCount != nil:
		company.Employees = r.LegacyCount
	}
	return company
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
