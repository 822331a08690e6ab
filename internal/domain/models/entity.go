package models

import "strings"

// EntityType represents the type of an extracted entity
type EntityType string

const (
	EntityTypePhone         EntityType = "phone"
	EntityTypeEmail         EntityType = "email"
	EntityTypeURL           EntityType = "url"
	EntityTypeUPI           EntityType = "upi"
	EntityTypeIP            EntityType = "ip"
	EntityTypeIFSC          EntityType = "ifsc"
	EntityTypePAN           EntityType = "pan"
	EntityTypeCryptoWallet  EntityType = "crypto_wallet"
	EntityTypeInvoiceID     EntityType = "invoice_id"
	EntityTypeDomain        EntityType = "domain"
	EntityTypeQRPlaceholder EntityType = "qr_placeholder"

	// Named-entity labels accepted from the NLP oracle
	EntityTypePerson  EntityType = "PERSON"
	EntityTypeOrg     EntityType = "ORG"
	EntityTypeGPE     EntityType = "GPE"
	EntityTypeProduct EntityType = "PRODUCT"
	EntityTypeEvent   EntityType = "EVENT"
)

// Entity is a single typed value extracted from case text. Entities are
// immutable once emitted; within one case they are content-addressed by
// (Type, Normalized()).
type Entity struct {
	Type       EntityType `json:"type"`
	Value      string     `json:"value"`
	Confidence float64    `json:"confidence"`
	Context    string     `json:"context,omitempty"`
}

// Normalized returns the lowercased, whitespace-collapsed value used as
// the entity's content address.
func (e Entity) Normalized() string {
	return NormalizeValue(e.Value)
}

// Key returns the (type, normalized) dedup key.
func (e Entity) Key() string {
	return string(e.Type) + ":" + e.Normalized()
}

// NormalizeValue lowercases a value and collapses runs of whitespace.
func NormalizeValue(v string) string {
	return strings.Join(strings.Fields(strings.ToLower(v)), " ")
}

// OSINTApplicable reports whether the entity type is subject to OSINT
// enrichment.
func (t EntityType) OSINTApplicable() bool {
	switch t {
	case EntityTypeEmail, EntityTypeURL, EntityTypeDomain, EntityTypeIP:
		return true
	default:
		return false
	}
}
