// Package server is a small HTTP backend serving the same endpoints as the
// geospatial API, backed by a local dataset. Used for offline development and
// end-to-end tests of the map client.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog"

	"gridmap/internal/api"
	"gridmap/internal/dataset"
	"gridmap/internal/geom"
)

// Source provides the data the server exposes.
type Source interface {
	Boundary(ctx context.Context) (*geojson.FeatureCollection, error)
	Power(ctx context.Context, r geom.Region) (*api.PowerResult, error)
}

type Config struct {
	Addr    string
	Version string
}

type Server struct {
	config  Config
	mux     *http.ServeMux
	humaAPI huma.API
	src     Source
	log     zerolog.Logger
}

func New(cfg Config, src Source, log zerolog.Logger) *Server {
	if cfg.Version == "" {
		cfg.Version = "1.0.0"
	}
	mux := http.NewServeMux()

	humaConfig := huma.DefaultConfig("gridmap fixture API", cfg.Version)
	humaConfig.Info.Description = "Overland Park boundary and power infrastructure."
	if cfg.Addr != "" {
		humaConfig.Servers = []*huma.Server{{URL: "http://" + cfg.Addr, Description: "Local server"}}
	}
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}

	s := &Server{
		config:  cfg,
		mux:     mux,
		humaAPI: humago.New(mux, humaConfig),
		src:     src,
		log:     log,
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// OpenAPI returns the generated API description.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

func (s *Server) ListenAndServe() error {
	s.log.Info().Str("addr", s.config.Addr).Msg("fixture backend listening")
	return http.ListenAndServe(s.config.Addr, s)
}

type HealthBody struct {
	Status string `json:"status" doc:"Health status" example:"ok"`
}

type PowerInput struct {
	BBox string `query:"bbox" required:"true" doc:"Bounding box as south,west,north,east" example:"38.85,-94.80,39.10,-94.55"`
}

// GeoJSONOutput is written verbatim; orb owns the encoding.
type GeoJSONOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

func (s *Server) routes() {
	huma.Get(s.humaAPI, api.HealthPath, s.health, huma.OperationTags("health"))
	huma.Get(s.humaAPI, "/api/op/health", s.health, huma.OperationTags("health"))
	huma.Get(s.humaAPI, api.BoundaryPath, s.boundary, huma.OperationTags("overland-park"))
	huma.Get(s.humaAPI, api.PowerPath, s.power, huma.OperationTags("overland-park"))
}

func (s *Server) health(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok"}}, nil
}

func (s *Server) boundary(ctx context.Context, input *struct{}) (*GeoJSONOutput, error) {
	fc, err := s.src.Boundary(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("boundary")
		return nil, huma.Error502BadGateway("Failed to fetch Overland Park boundary: " + err.Error())
	}
	b, err := fc.MarshalJSON()
	if err != nil {
		return nil, huma.Error500InternalServerError("encode boundary", err)
	}
	return &GeoJSONOutput{ContentType: "application/geo+json", Body: b}, nil
}

func (s *Server) power(ctx context.Context, input *PowerInput) (*GeoJSONOutput, error) {
	r, err := geom.ParseRegion(input.BBox)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	if r.DiagonalKm() > dataset.MaxDiagonalKm {
		return nil, huma.Error400BadRequest(dataset.ErrRegionTooLarge.Error())
	}
	res, err := s.src.Power(ctx, r)
	switch {
	case errors.Is(err, dataset.ErrRegionTooLarge):
		return nil, huma.Error400BadRequest(err.Error())
	case err != nil:
		s.log.Error().Err(err).Str("bbox", input.BBox).Msg("power")
		return nil, huma.Error502BadGateway("Failed to fetch power infrastructure: " + err.Error())
	}
	b, err := json.Marshal(res)
	if err != nil {
		return nil, huma.Error500InternalServerError("encode power", err)
	}
	return &GeoJSONOutput{ContentType: "application/json", Body: b}, nil
}
