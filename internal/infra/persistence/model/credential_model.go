// Package model contains the persistence-layer representations of domain
// objects, kept separate so storage concerns never leak into entities.
package model

import "time"

// CredentialModel is one durable credential slot. Kind is the slot name and
// primary key; there is exactly one row per slot.
type CredentialModel struct {
	Kind      string `gorm:"primaryKey;size:64"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

// TableName overrides the default GORM table name.
func (CredentialModel) TableName() string {
	return "credentials"
}
