package domain

// Address is a postal address snapshot. Country and State are expected to be
// short region codes ("US", "CA"), not free text, so rate lookups can key on
// them directly.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
}

func (a Address) IsZero() bool {
	return a == Address{}
}

// CustomerContact is the contact snapshot stored on an order.
type CustomerContact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}
