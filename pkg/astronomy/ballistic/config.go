package ballistic

// LaunchConfig holds the launch parameters of a single run, in SI base units.
//
// Angles are radians, distances meters, speeds meters/second, times seconds.
// Values are assumed to be validated by the caller; the engine performs no checks.
type LaunchConfig struct {
	Lat    float64 `json:"lat" yaml:"lat" mapstructure:"lat"`          // geographic latitude
	Lon    float64 `json:"lon" yaml:"lon" mapstructure:"lon"`          // signed longitude from the reference meridian
	Height float64 `json:"height" yaml:"height" mapstructure:"height"` // launch altitude above surface
	Azm    float64 `json:"azm" yaml:"azm" mapstructure:"azm"`          // compass bearing, 0 = north, π/2 = east
	Alt    float64 `json:"alt" yaml:"alt" mapstructure:"alt"`          // elevation above local horizontal
	Speed  float64 `json:"speed" yaml:"speed" mapstructure:"speed"`    // launch speed relative to the surface

	Radius         float64 `json:"radius" yaml:"radius" mapstructure:"radius"`
	RotationPeriod float64 `json:"rotation_period" yaml:"rotation_period" mapstructure:"rotation_period"`
	DeltaTime      float64 `json:"delta_time" yaml:"delta_time" mapstructure:"delta_time"`
	LogInterval    float64 `json:"log_interval" yaml:"log_interval" mapstructure:"log_interval"`
	GSurfaceAcc    float64 `json:"g_surface_acc" yaml:"g_surface_acc" mapstructure:"g_surface_acc"`
}

// GravitationalParameter returns surface gravity × radius², the only
// gravitational constant the engine uses.
func (c LaunchConfig) GravitationalParameter() float64 {
	return c.GSurfaceAcc * c.Radius * c.Radius
}
