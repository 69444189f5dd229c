package types

// Dimensions is the typed shape of a product's physical dimensions.
// Stored as jsonb via the gorm json serializer.
type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Unit   string  `json:"unit"`
}

// IsZero reports whether no dimension has been set.
func (d Dimensions) IsZero() bool {
	return d.Length == 0 && d.Width == 0 && d.Height == 0 && d.Unit == ""
}
