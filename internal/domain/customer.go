package domain

import (
	"time"

	"github.com/google/uuid"
)

type CustomerRole string

const (
	CustomerRoleStandard CustomerRole = "standard"
	CustomerRoleAdmin    CustomerRole = "admin"
)

// Customer is the read model the domain services need for order eligibility
// checks. Account management itself lives outside this module.
type Customer struct {
	ID        uuid.UUID    `json:"id"`
	Name      string       `json:"name"`
	Email     string       `json:"email"`
	Role      CustomerRole `json:"role"`
	IsActive  bool         `json:"is_active"`
	CreatedAt time.Time    `json:"created_at"`
}

func (c *Customer) CanPlaceOrders() bool {
	return c != nil && c.IsActive
}
