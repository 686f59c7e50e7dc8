package models

import "time"

// StorageArea is a user-configurable code for a physical storage location.
type StorageArea struct {
	ID        string    `bson:"_id" json:"id"`
	Code      string    `bson:"area_code" json:"area_code"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// ItemType classifies stored items by name.
type ItemType struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// User is the authenticated operator resolved from the user directory.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}
