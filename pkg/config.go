package evb

type Configuration struct {
	MaxEvents        int               `json:"max_events" yaml:"max_events"`
	Verbosity        int               `json:"verbosity" yaml:"verbosity"`
	FileIn           string            `json:"file_in" yaml:"file_in"`
	FileOut          string            `json:"file_out" yaml:"file_out"`
	Skip             int               `json:"skip" yaml:"skip"`
	RunNumber        int               `json:"run_number" yaml:"run_number"`
	FastSort         bool              `json:"fast_sort" yaml:"fast_sort"`
	CebraWindow      float64           `json:"cebra_window" yaml:"cebra_window"`
	IonWindow        float64           `json:"ion_window" yaml:"ion_window"`
	FrontDelayScale  float64           `json:"front_delay_scale" yaml:"front_delay_scale"`
	BackDelayScale   float64           `json:"back_delay_scale" yaml:"back_delay_scale"`
	WireDistance     float64           `json:"wire_distance" yaml:"wire_distance"`
	AngleBaseline    float64           `json:"angle_baseline" yaml:"angle_baseline"`
	FocalPlaneOffset float64           `json:"zfp" yaml:"zfp"`
	GainFile         string            `json:"gain_file" yaml:"gain_file"`
	GainsFromDB      bool              `json:"gains_from_db" yaml:"gains_from_db"`
	GainTimeScale    float64           `json:"gain_time_scale" yaml:"gain_time_scale"`
	Dither           bool              `json:"dither" yaml:"dither"`
	DitherSeed       int64             `json:"dither_seed" yaml:"dither_seed"`
	CebraTimeShift   [NumCebra]float64 `json:"cebra_time_shift" yaml:"cebra_time_shift"`
	Host             string            `json:"host" yaml:"host"`
	User             string            `json:"user" yaml:"user"`
	Passwd           string            `json:"pass" yaml:"pass"`
	DBName           string            `json:"dbname" yaml:"dbname"`
	WriteData        bool              `json:"write_data" yaml:"write_data"`
	CompressionLevel int               `json:"compression_level" yaml:"compression_level"`
	BufferSize       int               `json:"buffer_size" yaml:"buffer_size"`
	ProgressFraction float64           `json:"progress_fraction" yaml:"progress_fraction"`
}

var configuration Configuration

func GetConfiguration() Configuration {
	return configuration
}

func SetConfiguration(config Configuration) {
	configuration = config
}

// Positions returns the delay-line constants of the configuration.
func (c Configuration) Positions() PositionConfig {
	return PositionConfig{
		FrontDelayScale: c.FrontDelayScale,
		BackDelayScale:  c.BackDelayScale,
		WireDistance:    c.WireDistance,
		AngleBaseline:   c.AngleBaseline,
	}
}

func (c Configuration) Timing() TimingConfig {
	return TimingConfig{
		GainTimeScale:  c.GainTimeScale,
		CebraTimeShift: c.CebraTimeShift,
	}
}
