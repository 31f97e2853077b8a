package companieshouse

// Address is a registered or service address.
type Address struct {
	AddressLine1 string `json:"address_line_1,omitempty"`
	AddressLine2 string `json:"address_line_2,omitempty"`
	Locality     string `json:"locality,omitempty"`
	Region       string `json:"region,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
	Country      string `json:"country,omitempty"`
}

// OneLine renders the address as a single comma-separated string, skipping
// empty components.
func (a Address) OneLine() string {
	parts := make([]string, 0, 6)
	for _, p := range []string{a.AddressLine1, a.AddressLine2, a.Locality, a.Region, a.PostalCode, a.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

// SearchResponse is a page of company search hits.
type SearchResponse struct {
	TotalResults int          `json:"total_results"`
	Items        []SearchItem `json:"items"`
}

// SearchItem is one company search hit.
type SearchItem struct {
	Title          string  `json:"title"`
	CompanyNumber  string  `json:"company_number"`
	CompanyStatus  string  `json:"company_status,omitempty"`
	CompanyType    string  `json:"company_type,omitempty"`
	AddressSnippet string  `json:"address_snippet,omitempty"`
	Address        Address `json:"address"`
	DateOfCreation string  `json:"date_of_creation,omitempty"`
}

// Profile is a company's full registered profile.
type Profile struct {
	CompanyName             string   `json:"company_name"`
	CompanyNumber           string   `json:"company_number"`
	CompanyStatus           string   `json:"company_status"`
	DateOfCreation          string   `json:"date_of_creation,omitempty"`
	SICCodes                []string `json:"sic_codes,omitempty"`
	RegisteredOfficeAddress Address  `json:"registered_office_address"`
}

// OfficerList is a company's officers.
type OfficerList struct {
	TotalResults int       `json:"total_results"`
	Items        []Officer `json:"items"`
}

// Officer is one company officer appointment.
type Officer struct {
	Name        string `json:"name"`
	OfficerRole string `json:"officer_role"`
	AppointedOn string `json:"appointed_on,omitempty"`
	ResignedOn  string `json:"resigned_on,omitempty"`
}
