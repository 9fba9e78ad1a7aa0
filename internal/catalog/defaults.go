package catalog

import "workcal/internal/model"

// VacationType is the built-in type counted against the allowance.
func VacationType() model.EventType {
	return model.EventType{
		ID:          model.VacationTypeID,
		Name:        "Dovolenka",
		Color:       "bg-blue-500",
		TextColor:   "text-white",
		Icon:        "sun",
		IsDeletable: false,
	}
}

// DefaultTypes is the catalog a fresh installation starts with.
func DefaultTypes() []model.EventType {
	return []model.EventType{
		VacationType(),
		{ID: "sick", Name: "PN / OČR", Color: "bg-red-500", TextColor: "text-white", Icon: "heart"},
		{ID: "doctor", Name: "Lekár", Color: "bg-teal-500", TextColor: "text-white", Icon: "plus-circle"},
		{ID: "home-office", Name: "Home office", Color: "bg-purple-500", TextColor: "text-white", Icon: "home"},
		{ID: "business-trip", Name: "Služobná cesta", Color: "bg-orange-500", TextColor: "text-white", Icon: "briefcase", IsDeletable: true},
	}
}

// Default returns a catalog holding DefaultTypes.
func Default() *Catalog {
	c, err := New(DefaultTypes()...)
	if err != nil {
		panic("catalog: invalid default types: " + err.Error())
	}
	return c
}
