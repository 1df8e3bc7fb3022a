package document

import "time"

// Document is the persistent record for one purchasable legal document.
// It is looked up by a human-shareable token and driven through the status
// machine in status.go by the fulfillment flows; nothing else may set
// Status directly.
type Document struct {
	ID                  string     `json:"id" bson:"_id,omitempty"`
	Token               string     `json:"token" bson:"token"`
	DocumentType        string     `json:"documentType" bson:"documentType"`
	Content             string     `json:"content,omitempty" bson:"content,omitempty"`
	Price               int64      `json:"price" bson:"price"`
	Status              Status     `json:"status" bson:"status"`
	UserObservations    string     `json:"userObservations,omitempty" bson:"userObservations,omitempty"`
	UserObservationDate *time.Time `json:"userObservationDate,omitempty" bson:"userObservationDate,omitempty"`
	CreatedAt           time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// Free reports whether the document is delivered without payment.
func (d *Document) Free() bool { return d.Price == 0 }
