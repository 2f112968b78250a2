package models

import "strconv"

// -----------------------------------------------------------------------------
// Alert wire payload (matches the endpoint contract exactly)
// -----------------------------------------------------------------------------

// MAlertMessage is one alert frame:
//
//	{"event":"alert","data":{"user_id":"...","coords":{"latitude":"...","longitude":"..."}}}
//
// Coordinates are serialized as decimal strings, not numbers. The receiving
// endpoint depends on that, so the quirk is preserved here.
type MAlertMessage struct {
	Event string     `json:"event"`
	Data  MAlertData `json:"data"`
}

type MAlertData struct {
	UserID string       `json:"user_id"`
	Coords MAlertCoords `json:"coords"`
}

type MAlertCoords struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

// -----------------------------------------------------------------------------

// NewMAlertMessage builds the frame for a fix with a caller-supplied opaque id.
// The id is generated fresh per alert and never reused.
func NewMAlertMessage(userID string, loc MLocation) MAlertMessage {
	return MAlertMessage{
		Event: "alert",
		Data: MAlertData{
			UserID: userID,
			Coords: MAlertCoords{
				Latitude:  FormatCoordinate(loc.Latitude),
				Longitude: FormatCoordinate(loc.Longitude),
			},
		},
	}
}

// -----------------------------------------------------------------------------

// FormatCoordinate renders a coordinate as a plain decimal string
// (shortest form that parses back to the same float, never exponent notation).
func FormatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
