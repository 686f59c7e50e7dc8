package models

import "time"

// DateLayout is the calendar date format accepted on the API and used in exports.
const DateLayout = "2006-01-02"

// Collection names a record collection that can be listed page by page.
type Collection string

const (
	CollectionInflow  Collection = "inflow"
	CollectionOutflow Collection = "outflow"
)

// Valid reports whether c names a listable collection.
func (c Collection) Valid() bool {
	return c == CollectionInflow || c == CollectionOutflow
}

// InflowRecord captures an item that entered storage and has not left yet.
type InflowRecord struct {
	ID           string    `bson:"_id" json:"id"`
	UserID       string    `bson:"user_id" json:"user_id"`
	Name         string    `bson:"name" json:"name"`
	MobileNumber string    `bson:"mobile_number" json:"mobile_number"`
	Quantity     int       `bson:"quantity" json:"quantity"`
	AreaStored   string    `bson:"area_stored" json:"area_stored"`
	ItemTypeID   string    `bson:"item_type_id" json:"item_type_id"`
	ItemTypeName string    `bson:"item_type_name" json:"item_type_name"`
	InflowDate   time.Time `bson:"inflow_date" json:"inflow_date"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

// OutflowRecord captures an item that left storage. Price and TotalPrice are
// frozen when the record is created.
type OutflowRecord struct {
	ID           string    `bson:"_id" json:"id"`
	UserID       string    `bson:"user_id" json:"user_id"`
	InflowID     string    `bson:"inflow_id" json:"inflow_id"`
	Name         string    `bson:"name" json:"name"`
	MobileNumber string    `bson:"mobile_number" json:"mobile_number"`
	Quantity     int       `bson:"quantity" json:"quantity"`
	AreaStored   string    `bson:"area_stored" json:"area_stored"`
	ItemTypeID   string    `bson:"item_type_id" json:"item_type_id"`
	ItemTypeName string    `bson:"item_type_name" json:"item_type_name"`
	InflowDate   time.Time `bson:"inflow_date" json:"inflow_date"`
	OutflowDate  time.Time `bson:"outflow_date" json:"outflow_date"`
	Price        float64   `bson:"price" json:"price"`
	TotalPrice   float64   `bson:"total_price" json:"total_price"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

// ListItem is the projection shared by inflow and outflow rows in incremental listings.
type ListItem struct {
	ID           string    `bson:"_id" json:"id"`
	Name         string    `bson:"name" json:"name"`
	MobileNumber string    `bson:"mobile_number" json:"mobile_number"`
	Quantity     int       `bson:"quantity" json:"quantity"`
	AreaStored   string    `bson:"area_stored" json:"area_stored"`
	ItemTypeName string    `bson:"item_type_name" json:"item_type_name"`
	TotalPrice   float64   `bson:"total_price,omitempty" json:"total_price,omitempty"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

// InflowInput is the caller-supplied payload for creating or editing an inflow record.
type InflowInput struct {
	Name         string `json:"name"`
	MobileNumber string `json:"mobile_number"`
	Quantity     int    `json:"quantity"`
	AreaStored   string `json:"area_stored"`
	ItemTypeID   string `json:"item_type_id"`
	InflowDate   string `json:"inflow_date"`
}

// OutflowInput is the caller-supplied payload that moves an inflow record out of storage.
// Empty fields fall back to the inflow record's values; an empty OutflowDate means today.
type OutflowInput struct {
	InflowID     string `json:"inflow_id"`
	Name         string `json:"name"`
	MobileNumber string `json:"mobile_number"`
	Quantity     int    `json:"quantity"`
	AreaStored   string `json:"area_stored"`
	ItemTypeID   string `json:"item_type_id"`
	OutflowDate  string `json:"outflow_date"`
}

// SearchField names the inflow attribute matched by a search.
type SearchField string

const (
	SearchByName   SearchField = "name"
	SearchByMobile SearchField = "mobile_number"
)
