package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/spf13/viper"

	"gridmap/internal/geom"
)

const placeholderToken = "your_mapbox_token_here"

var (
	ErrMissingToken = errors.New("map access token is not set")
	ErrInvalidToken = errors.New("map access token is invalid")
)

// Config is the resolved runtime configuration.
type Config struct {
	Token      string
	APIBaseURL string
	DataFile   string
	Offline    bool

	Region geom.Region
	Center orb.Point
	Zoom   float64

	InitTimeout        time.Duration
	ReadyCheckInterval time.Duration
	LoadDelay          time.Duration
	FetchTimeout       time.Duration

	LogFile  string
	LogLevel string
}

// SetDefaults registers default values. Safe to call more than once.
func SetDefaults() {
	viper.SetDefault("map.token", "")
	viper.SetDefault("map.lon", -94.67)
	viper.SetDefault("map.lat", 38.98)
	viper.SetDefault("map.zoom", 10.5)

	viper.SetDefault("api.url", "http://localhost:8000")
	viper.SetDefault("api.timeout", "60s")

	viper.SetDefault("data.region", geom.OverlandPark.String())
	viper.SetDefault("data.file", "")
	viper.SetDefault("data.offline", false)
	viper.SetDefault("data.loadDelay", "1s")

	viper.SetDefault("session.initTimeout", "20s")
	viper.SetDefault("session.readyCheckInterval", "1s")

	viper.SetDefault("log.file", "gridmap.log")
	viper.SetDefault("log.level", "info")

	viper.SetEnvPrefix("GRIDMAP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("map.token", "GRIDMAP_MAP_TOKEN", "MAPBOX_TOKEN")
	_ = viper.BindEnv("api.url", "GRIDMAP_API_URL", "API_URL")
}

// Load applies defaults, reads configFile when set and resolves the result.
func Load(configFile string) (Config, error) {
	SetDefaults()
	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("error reading config file: %v", err)
		}
	}
	return Resolve()
}

// Resolve builds a Config from the current viper state.
func Resolve() (Config, error) {
	region, err := geom.ParseRegion(viper.GetString("data.region"))
	if err != nil {
		return Config{}, fmt.Errorf("data.region: %w", err)
	}
	return Config{
		Token:              strings.TrimSpace(viper.GetString("map.token")),
		APIBaseURL:         viper.GetString("api.url"),
		DataFile:           viper.GetString("data.file"),
		Offline:            viper.GetBool("data.offline"),
		Region:             region,
		Center:             orb.Point{viper.GetFloat64("map.lon"), viper.GetFloat64("map.lat")},
		Zoom:               viper.GetFloat64("map.zoom"),
		InitTimeout:        viper.GetDuration("session.initTimeout"),
		ReadyCheckInterval: viper.GetDuration("session.readyCheckInterval"),
		LoadDelay:          viper.GetDuration("data.loadDelay"),
		FetchTimeout:       viper.GetDuration("api.timeout"),
		LogFile:            viper.GetString("log.file"),
		LogLevel:           viper.GetString("log.level"),
	}, nil
}

// ValidateToken reports whether the map access token is usable. A missing or
// placeholder token is ErrMissingToken, a token that is not a public
// ("pk.") token is ErrInvalidToken.
func (c Config) ValidateToken() error {
	switch {
	case c.Token == "" || c.Token == placeholderToken:
		return ErrMissingToken
	case !strings.HasPrefix(c.Token, "pk."):
		return fmt.Errorf("%w: must be a public token starting with \"pk.\"", ErrInvalidToken)
	}
	return nil
}
