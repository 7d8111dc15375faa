package elevation

import (
	"math"

	"github.com/UnknownOlympus/groundhog/internal/models"
)

const (
	equatorialRadius = 6378137.0 // meters
	polarRadius      = 6356752.0 // meters
)

// EarthRadius returns the geocentric radius of the WGS84 ellipsoid at the given latitude, in meters.
func EarthRadius(latitude float64) float64 {
	lat := radians(latitude)
	a2cos := equatorialRadius * equatorialRadius * math.Cos(lat)
	b2sin := polarRadius * polarRadius * math.Sin(lat)
	acos := equatorialRadius * math.Cos(lat)
	bsin := polarRadius * math.Sin(lat)

	return math.Sqrt((a2cos*a2cos + b2sin*b2sin) / (acos*acos + bsin*bsin))
}

// InitialBearing returns the forward azimuth from one point to another in
// compass degrees within [0, 360).
func InitialBearing(from, to models.Coordinates) float64 {
	lat1, lat2 := radians(from.Latitude), radians(to.Latitude)
	deltaLon := radians(to.Longitude - from.Longitude)

	x := math.Cos(lat2) * math.Sin(deltaLon)
	y := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(deltaLon)
	bearing := degrees(math.Atan2(x, y))
	if bearing < 0 {
		bearing += 360
	}

	return bearing
}

// Destination returns the point reached after travelling distance meters from
// origin along bearing. A negative distance travels backwards.
func Destination(origin models.Coordinates, distance, bearing float64) models.Coordinates {
	lat := radians(origin.Latitude)
	lon := radians(origin.Longitude)
	brg := radians(bearing)
	angular := distance / EarthRadius(origin.Latitude)

	newLat := math.Asin(math.Sin(lat)*math.Cos(angular) + math.Cos(lat)*math.Sin(angular)*math.Cos(brg))
	newLon := lon + math.Atan2(
		math.Sin(brg)*math.Sin(angular)*math.Cos(lat),
		math.Cos(angular)-math.Sin(lat)*math.Sin(newLat),
	)

	return models.Coordinates{
		Latitude:  degrees(newLat),
		Longitude: NormalizeLongitude(degrees(newLon)),
	}
}

// NormalizeLongitude maps a longitude into (-180, 180].
func NormalizeLongitude(lon float64) float64 {
	lon = math.Remainder(lon, 360)
	if lon <= -180 {
		lon += 360
	}

	return lon
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
