package models

// Catalog holds the suggestion lists offered by booking forms.
// Values outside the lists are still accepted.
type Catalog struct {
	AccommodationTypes []string `yaml:"accommodation_types" json:"accommodation_types"`
	RoomTypes          []string `yaml:"room_types" json:"room_types"`
}

// DefaultCatalog returns the built-in suggestion lists.
func DefaultCatalog() Catalog {
	return Catalog{
		AccommodationTypes: []string{
			"Hotel", "Resort", "Apartment", "Villa", "Hostel", "Guest House", "Bed & Breakfast",
		},
		RoomTypes: []string{
			"Single Room", "Double Room", "Twin Room", "Triple Room", "Family Room",
			"Suite", "Deluxe Room", "Standard Room", "Premium Room",
		},
	}
}

// WithDefaults fills empty lists from DefaultCatalog.
func (c Catalog) WithDefaults() Catalog {
	def := DefaultCatalog()
	if len(c.AccommodationTypes) == 0 {
		c.AccommodationTypes = def.AccommodationTypes
	}
	if len(c.RoomTypes) == 0 {
		c.RoomTypes = def.RoomTypes
	}
	return c
}
