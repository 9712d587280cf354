package model

import (
	"encoding/json"
	"errors"
)

type Store struct {
	BaseModel
	Name      string   `json:"name"`
	Address   string   `json:"address"`
	Location  GeoPoint `json:"location"`
	ManagerID string   `json:"manager"`
	IsActive  bool     `json:"isActive"`
}

// GeoPoint is transmitted as a GeoJSON point, coordinates ordered [longitude, latitude].
type GeoPoint struct {
	Longitude float64
	Latitude  float64
}

// LatLng returns the pair reversed for map widgets that expect [latitude, longitude].
func (p GeoPoint) LatLng() [2]float64 {
	return [2]float64{p.Latitude, p.Longitude}
}

type geoJSONPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

func (p GeoPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(geoJSONPoint{
		Type:        "Point",
		Coordinates: [2]float64{p.Longitude, p.Latitude},
	})
}

func (p *GeoPoint) UnmarshalJSON(data []byte) error {
	var raw geoJSONPoint
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Type != "" && raw.Type != "Point" {
		return errors.New("location must be a Point")
	}
	pt, err := PointFromCoordinates(raw.Coordinates[:])
	if err != nil {
		return err
	}
	*p = pt
	return nil
}

// PointFromCoordinates validates a [longitude, latitude] pair.
func PointFromCoordinates(c []float64) (GeoPoint, error) {
	if len(c) != 2 {
		return GeoPoint{}, errors.New("coordinates must be an array with [longitude, latitude]")
	}
	lng, lat := c[0], c[1]
	if lng < -180 || lng > 180 || lat < -90 || lat > 90 {
		return GeoPoint{}, errors.New("coordinates out of range, expected [longitude, latitude]")
	}
	return GeoPoint{Longitude: lng, Latitude: lat}, nil
}
