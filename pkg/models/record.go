package models

import "time"

// Coordinate is a geographic point. A nil *Coordinate means "not yet
// resolved"; once set it is never overwritten.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// LogisticsRecord is the structured payload extracted from an
// Order-classified message. Fields the extractor could not confidently
// populate stay empty; that is a valid outcome, not an error. Message
// metadata is denormalized onto the record for persistence joins.
type LogisticsRecord struct {
	LoadingAddress       string      `json:"loading_address"`
	UnloadingAddress     string      `json:"unloading_address"`
	LoadingDate          string      `json:"loading_date"`
	UnloadingDate        string      `json:"unloading_date"`
	LoadingCoordinates   *Coordinate `json:"loading_coordinates,omitempty"`
	UnloadingCoordinates *Coordinate `json:"unloading_coordinates,omitempty"`
	CargoDescription     string      `json:"cargo_description"`
	Weight               string      `json:"weight"`
	VehicleType          string      `json:"vehicle_type"`
	SpecialRequirements  string      `json:"special_requirements"`

	MessageID      string    `json:"message_id"`
	MessageSubject string    `json:"subject"`
	MessageSender  string    `json:"sender"`
	MessageDate    time.Time `json:"date"`
}

// OrderEvent is the broker payload published after a record has been
// persisted.
type OrderEvent struct {
	MessageID   string    `json:"message_id"`
	Subject     string    `json:"subject"`
	Sender      string    `json:"sender"`
	PersistedAt time.Time `json:"persisted_at"`
	RunID       string    `json:"run_id,omitempty"`
}
