package domain

import "time"

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

func (r Role) Valid() bool {
	return r == RoleBuyer || r == RoleSeller
}

type User struct {
	ID        string
	Username  string
	Role      Role
	CreatedAt time.Time
}

type SellerList struct {
	Sellers []string `json:"sellers"`
}
