package powermap

import (
	"errors"
	"fmt"

	"gridmap/internal/api"
	"gridmap/internal/config"
)

var ErrInitTimeout = errors.New("map initialization timed out")

type BannerKind int

const (
	ConfigBanner BannerKind = iota
	TimeoutBanner
	FetchBanner
	RenderBanner
)

func (k BannerKind) String() string {
	switch k {
	case ConfigBanner:
		return "config"
	case TimeoutBanner:
		return "timeout"
	case FetchBanner:
		return "fetch"
	case RenderBanner:
		return "render"
	}
	return "unknown"
}

// Banner is a user facing error. Config and timeout banners are static;
// fetch and render banners can be dismissed.
type Banner struct {
	Kind        BannerKind
	Message     string
	Dismissible bool
	Err         error
}

func configBanner(err error) Banner {
	msg := fmt.Sprintf("Failed to create map: %v", err)
	switch {
	case errors.Is(err, config.ErrMissingToken):
		msg = "Map access token not found. Set GRIDMAP_MAP_TOKEN (or MAPBOX_TOKEN) or map.token in the config file."
	case errors.Is(err, config.ErrInvalidToken):
		msg = `Invalid map access token format. Token should start with "pk."`
	}
	return Banner{Kind: ConfigBanner, Message: msg, Err: err}
}

func timeoutBanner() Banner {
	return Banner{
		Kind:    TimeoutBanner,
		Message: "Map is taking too long to load. This might be a network issue or an invalid access token. Check the log file for details.",
		Err:     ErrInitTimeout,
	}
}

// fetchBanner prefers the backend's own explanation, as sent with a 400.
func fetchBanner(what string, err error) Banner {
	msg := fmt.Sprintf("Failed to load %s: %v", what, err)
	var se *api.StatusError
	if errors.As(err, &se) && se.Detail != "" {
		msg = se.Detail
	}
	return Banner{Kind: FetchBanner, Message: msg, Dismissible: true, Err: err}
}

func renderBanner(err error) Banner {
	return Banner{Kind: RenderBanner, Message: fmt.Sprintf("Map error: %v", err), Dismissible: true, Err: err}
}
