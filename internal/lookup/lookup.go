// Package lookup serves encode and decode requests on top of the codec,
// with result caching, area hotness, optional H3 interop and lookup events.
package lookup

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/mohammed-shakir/digipin/internal/cache"
	"github.com/mohammed-shakir/digipin/internal/cache/keys"
	"github.com/mohammed-shakir/digipin/internal/core/model"
	"github.com/mohammed-shakir/digipin/internal/core/observability"
	"github.com/mohammed-shakir/digipin/internal/hitevents"
	"github.com/mohammed-shakir/digipin/internal/hotness"
	"github.com/mohammed-shakir/digipin/internal/mapper"
	"github.com/mohammed-shakir/digipin/pkg/digipin"
)

type Config struct {
	TTL          time.Duration
	TTLHot       time.Duration
	HotThreshold float64
	OpTimeout    time.Duration
	H3Res        int // used when a request asks for model.H3Default
}

// Tracker is the hotness view the service needs.
type Tracker interface {
	hotness.Interface
	Top(n int) []hotness.Scored
	Size() int
}

type Service struct {
	cfg    Config
	logger *slog.Logger
	store  cache.Interface
	hot    Tracker
	h3     mapper.Interface
	events hitevents.Sink
	now    func() time.Time
}

type Option func(*Service)

func WithCache(c cache.Interface) Option   { return func(s *Service) { s.store = c } }
func WithHotness(t Tracker) Option         { return func(s *Service) { s.hot = t } }
func WithMapper(m mapper.Interface) Option { return func(s *Service) { s.h3 = m } }
func WithEvents(e hitevents.Sink) Option   { return func(s *Service) { s.events = e } }
func WithLogger(l *slog.Logger) Option     { return func(s *Service) { s.logger = l } }

func New(cfg Config, opts ...Option) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	if cfg.TTLHot < cfg.TTL {
		cfg.TTLHot = cfg.TTL
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 250 * time.Millisecond
	}
	if cfg.H3Res < 0 || cfg.H3Res > 15 {
		cfg.H3Res = 9
	}
	s := &Service{
		cfg:    cfg,
		logger: slog.Default(),
		store:  cache.Nop{},
		events: hitevents.Discard{},
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Encode validates and encodes lat, lon. Input errors are returned as the
// codec's typed errors; cache failures only cost a recomputation.
func (s *Service) Encode(ctx context.Context, lat, lon float64, opts model.LookupOptions) (model.EncodeResult, error) {
	start := time.Now()
	code, err := digipin.Encode(lat, lon)
	observability.ObserveCodec("encode", digipin.Kind(err), time.Since(start).Seconds())
	if err != nil {
		s.logger.DebugContext(ctx, "encode rejected", "lat", lat, "lon", lon, "kind", digipin.Kind(err))
		return model.EncodeResult{}, err
	}

	opts = s.resolve(opts)
	key := keys.EncodeKey(lat, lon, opts.H3Res)
	var out model.EncodeResult
	if s.load(ctx, key, &out) {
		s.record(ctx, "encode", code, lat, lon, true)
		return out, nil
	}

	out = model.EncodeResult{Digipin: code, Lat: lat, Lon: lon}
	if opts.H3Res >= 0 && s.h3 != nil {
		h, err := s.h3View(digipin.Coordinate{Lat: lat, Lon: lon}, nil, opts.H3Res)
		if err != nil {
			return model.EncodeResult{}, err
		}
		out.H3 = h
	}

	hot := s.record(ctx, "encode", code, lat, lon, false)
	s.save(ctx, key, out, hot)
	return out, nil
}

func (s *Service) Decode(ctx context.Context, code string, opts model.LookupOptions) (model.DecodeResult, error) {
	start := time.Now()
	area, err := digipin.Decode(code)
	observability.ObserveCodec("decode", digipin.Kind(err), time.Since(start).Seconds())
	if err != nil {
		s.logger.DebugContext(ctx, "decode rejected", "code", code, "kind", digipin.Kind(err))
		return model.DecodeResult{}, err
	}
	// Decode succeeded, so the code is well formed.
	formatted, _ := digipin.Format(code)
	bare := strings.ReplaceAll(formatted, string(digipin.Separator), "")

	opts = s.resolve(opts)
	key := keys.DecodeKey(bare, opts.H3Res)
	var out model.DecodeResult
	if s.load(ctx, key, &out) {
		s.record(ctx, "decode", formatted, area.Center.Lat, area.Center.Lon, true)
		return out, nil
	}

	out = model.DecodeResult{Digipin: formatted, BoundingBox: area.Box, Center: area.Center}
	if opts.H3Res >= 0 && s.h3 != nil {
		h, err := s.h3View(area.Center, &area.Box, opts.H3Res)
		if err != nil {
			return model.DecodeResult{}, err
		}
		out.H3 = h
	}

	hot := s.record(ctx, "decode", formatted, area.Center.Lat, area.Center.Lon, false)
	s.save(ctx, key, out, hot)
	return out, nil
}

func (s *Service) resolve(opts model.LookupOptions) model.LookupOptions {
	if opts.H3Res == model.H3Default {
		opts.H3Res = s.cfg.H3Res
	}
	return opts
}

// HotAreas returns the most requested areas.
func (s *Service) HotAreas(n int) []hotness.Scored {
	if s.hot == nil {
		return nil
	}
	return s.hot.Top(n)
}

func (s *Service) h3View(center digipin.Coordinate, box *digipin.BBox, res int) (*model.H3, error) {
	c, err := s.h3.CellForPoint(center, res)
	if err != nil {
		return nil, err
	}
	h := &model.H3{Res: res, Center: c}
	if box != nil {
		cover, err := s.h3.CellsForBBox(*box, res)
		if err != nil {
			return nil, err
		}
		h.Cover = cover
	}
	return h, nil
}

// record counts the lookup toward its area, publishes the event, and
// reports whether the area is hot.
func (s *Service) record(ctx context.Context, op, code string, lat, lon float64, cached bool) bool {
	s.events.Publish(hitevents.Event{
		Op: op, Digipin: code, Lat: lat, Lon: lon, Cached: cached, TS: s.now().UTC(),
	})
	if s.hot == nil {
		return false
	}
	norm, err := digipin.Normalize(code)
	if err != nil {
		return false
	}
	score := s.hot.Inc(keys.AreaKey(norm))
	observability.SetHotKeysGauge("area", s.hot.Size())
	hot := s.cfg.HotThreshold > 0 && score >= s.cfg.HotThreshold
	if hot {
		s.logger.DebugContext(ctx, "hot area", "area", keys.AreaKey(norm), "score", score)
	}
	return hot
}

func (s *Service) load(ctx context.Context, key string, v any) bool {
	cctx, cancel := context.WithTimeout(ctx, s.cfg.OpTimeout)
	defer cancel()

	raw, ok, err := s.store.Get(cctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "cache get failed", "key", key, "err", err)
		observability.IncCacheMiss()
		return false
	}
	if !ok {
		observability.IncCacheMiss()
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		s.logger.WarnContext(ctx, "cache entry undecodable", "key", key, "err", err)
		observability.IncCacheMiss()
		return false
	}
	observability.IncCacheHit()
	return true
}

func (s *Service) save(ctx context.Context, key string, v any, hot bool) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger.WarnContext(ctx, "cache encode failed", "key", key, "err", err)
		return
	}
	ttl := s.cfg.TTL
	if hot {
		ttl = s.cfg.TTLHot
	}
	cctx, cancel := context.WithTimeout(ctx, s.cfg.OpTimeout)
	defer cancel()
	if err := s.store.Set(cctx, key, raw, ttl); err != nil {
		s.logger.WarnContext(ctx, "cache set failed", "key", key, "err", err)
	}
}
