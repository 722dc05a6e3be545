package units

// Challenge terms are stored in the contract's smallest integer units:
// centimeters for distance and centimeters/second for pace. Conversions to
// display units happen only at presentation boundaries.

const (
	cmPerMeter    = 100.0
	metersPerMile = 1609.34
)

// Pace is a human-readable minutes:seconds per mile pace
type Pace struct {
	Minutes int
	Seconds int
}

// CmToMeters converts an on-chain distance to meters
func CmToMeters(distance int64) float64 {
	return float64(distance) / cmPerMeter
}

// CmPerSecToMetersPerSec converts an on-chain pace to meters/second
func CmPerSecToMetersPerSec(pace int64) float64 {
	return float64(pace) / cmPerMeter
}

// CmToMiles converts an on-chain distance to miles
func CmToMiles(distance int64) float64 {
	return float64(distance) / cmPerMeter / metersPerMile
}

// MetersToMiles converts a distance reported by the activity provider to miles
func MetersToMiles(distance float64) float64 {
	return distance / metersPerMile
}

// CmPerSecToMinutesPerMile converts an on-chain pace to minutes:seconds per mile
func CmPerSecToMinutesPerMile(pace int64) Pace {
	return MetersPerSecToMinutesPerMile(float64(pace) / cmPerMeter)
}

// MetersPerSecToMinutesPerMile converts a speed in meters/second to a
// minutes:seconds per mile pace. A non-positive speed yields a zero pace.
func MetersPerSecToMinutesPerMile(speed float64) Pace {
	if speed <= 0 {
		return Pace{}
	}

	milesPerMinute := speed / metersPerMile * 60
	minutesPerMile := 1 / milesPerMinute

	minutes := int(minutesPerMile)
	seconds := int((minutesPerMile - float64(minutes)) * 60)

	return Pace{Minutes: minutes, Seconds: seconds}
}
