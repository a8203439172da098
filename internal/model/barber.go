package model

// Barber is a bookable staff member stored in the scheduling database.
// Barbers are managed out of band; the API only lists them so a customer
// can pick one when reserving.
type Barber struct {
	ID        uint64 `json:"id"`        // barbers.id
	Name      string `json:"name"`      // barbers.name
	Specialty string `json:"specialty"` // barbers.specialty
}
