package headshots

import (
	"bytes"
	"encoding/json"
)

// ID accepts both JSON strings and numbers; the headshot API is not consistent.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// Production defines model for Production.
type Production struct {
	ID                   ID                   `json:"id"`
	Title                string               `json:"title,omitempty"`
	OverviewImage        string               `json:"overview_image,omitempty"`
	ProductionQuantities []ProductionQuantity `json:"production_quantities,omitempty"`
}

// ProductionQuantity defines model for ProductionQuantity.
type ProductionQuantity struct {
	ID        ID          `json:"id"`
	Amount    int32       `json:"amount"`
	PlusPrice json.Number `json:"plus_price,omitempty"`
}

// CreateHeadshotJSONRequestBody defines body for CreateHeadshot.
type CreateHeadshotJSONRequestBody struct {
	Email    string `json:"email"`
	FileName string `json:"file_name"`
	Quantity string `json:"quantity"`
	Status   string `json:"status"`
}

// Headshot defines model for Headshot.
type Headshot struct {
	ID                       ID     `json:"id"`
	FileName                 string `json:"file_name,omitempty"`
	CloudinaryImageSecureURL string `json:"cloudinary_image_secure_url,omitempty"`
	Status                   string `json:"status,omitempty"`
}

// Error defines model for Error.
type Error struct {
	Message *string `json:"message,omitempty"`
	Status  *string `json:"status,omitempty"`
}
