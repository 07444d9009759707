package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mohammed-shakir/digipin/internal/core/model"
	"github.com/mohammed-shakir/digipin/internal/core/observability"
	"github.com/mohammed-shakir/digipin/internal/hotness"
	mylog "github.com/mohammed-shakir/digipin/internal/logger"
	"github.com/mohammed-shakir/digipin/pkg/digipin"
)

// HotSource ranks the most requested areas.
type HotSource interface {
	HotAreas(n int) []hotness.Scored
}

// Lookup serves validated requests.
type Lookup interface {
	HotSource
	Encode(ctx context.Context, lat, lon float64, opts model.LookupOptions) (model.EncodeResult, error)
	Decode(ctx context.Context, code string, opts model.LookupOptions) (model.DecodeResult, error)
}

// errBadRequest marks request parsing failures.
var errBadRequest = errors.New("bad request")

const maxHotAreas = 100

func HandleEncode(logger *slog.Logger, svc Lookup) http.HandlerFunc {
	return instrument("/encode", func(w http.ResponseWriter, r *http.Request) {
		ctx := mylog.WithOp(r.Context(), "encode")
		lat, lon, opts, err := ParseEncodeRequest(r)
		if err != nil {
			writeError(ctx, logger, w, err)
			return
		}
		res, err := svc.Encode(ctx, lat, lon, opts)
		if err != nil {
			writeError(ctx, logger, w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	})
}

func HandleDecode(logger *slog.Logger, svc Lookup) http.HandlerFunc {
	return instrument("/decode", func(w http.ResponseWriter, r *http.Request) {
		ctx := mylog.WithOp(r.Context(), "decode")
		code, opts, err := ParseDecodeRequest(r)
		if err != nil {
			writeError(ctx, logger, w, err)
			return
		}
		res, err := svc.Decode(ctx, code, opts)
		if err != nil {
			writeError(ctx, logger, w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	})
}

func HandleHotAreas(logger *slog.Logger, svc HotSource) http.HandlerFunc {
	return instrument("/areas/hot", func(w http.ResponseWriter, r *http.Request) {
		n := 10
		if raw := strings.TrimSpace(r.URL.Query().Get("n")); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil || v <= 0 {
				writeError(r.Context(), logger, w, fmt.Errorf("%w: n must be a positive integer", errBadRequest))
				return
			}
			n = min(v, maxHotAreas)
		}
		areas := svc.HotAreas(n)
		if areas == nil {
			areas = []hotness.Scored{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"areas": areas})
	})
}

// ParseEncodeRequest reads lat, lon and the optional h3 resolution. Range
// checks against the DIGIPIN region are left to the codec.
func ParseEncodeRequest(r *http.Request) (float64, float64, model.LookupOptions, error) {
	q := r.URL.Query()
	lat, err := parseCoord(q.Get("lat"), "lat")
	if err != nil {
		return 0, 0, model.LookupOptions{}, err
	}
	lon, err := parseCoord(q.Get("lon"), "lon")
	if err != nil {
		return 0, 0, model.LookupOptions{}, err
	}
	opts, err := parseOptions(r)
	if err != nil {
		return 0, 0, model.LookupOptions{}, err
	}
	return lat, lon, opts, nil
}

func ParseDecodeRequest(r *http.Request) (string, model.LookupOptions, error) {
	code := strings.TrimSpace(r.URL.Query().Get("code"))
	if code == "" {
		code = strings.TrimSpace(r.URL.Query().Get("digipin"))
	}
	if code == "" {
		return "", model.LookupOptions{}, fmt.Errorf("%w: missing required parameter: code", errBadRequest)
	}
	opts, err := parseOptions(r)
	if err != nil {
		return "", model.LookupOptions{}, err
	}
	return code, opts, nil
}

func parseCoord(raw, name string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: missing required parameter: %s", errBadRequest, name)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %s must be a finite number", errBadRequest, name)
	}
	return f, nil
}

// parseOptions reads h3res=<0..15> or h3=true, the latter using the
// service's default resolution.
func parseOptions(r *http.Request) (model.LookupOptions, error) {
	q := r.URL.Query()
	opts := model.NoExtras()
	if raw := strings.TrimSpace(q.Get("h3res")); raw != "" {
		res, err := strconv.Atoi(raw)
		if err != nil || res < 0 || res > 15 {
			return opts, fmt.Errorf("%w: h3res must be an integer in 0..15", errBadRequest)
		}
		opts.H3Res = res
		return opts, nil
	}
	if raw := strings.TrimSpace(q.Get("h3")); raw != "" {
		on, err := strconv.ParseBool(raw)
		if err != nil {
			return opts, fmt.Errorf("%w: h3 must be a boolean", errBadRequest)
		}
		if on {
			opts.H3Res = model.H3Default
		}
	}
	return opts, nil
}

func writeError(ctx context.Context, logger *slog.Logger, w http.ResponseWriter, err error) {
	switch {
	case digipin.IsInputError(err):
		writeJSON(w, http.StatusBadRequest, model.ErrorBody{Error: digipin.Kind(err), Message: err.Error()})
	case errors.Is(err, errBadRequest):
		writeJSON(w, http.StatusBadRequest, model.ErrorBody{Error: "bad_request", Message: err.Error()})
	default:
		logger.ErrorContext(ctx, "lookup failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, model.ErrorBody{Error: "internal", Message: "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next(sw, r)
		observability.ObserveHTTP(r.Method, route, sw.code, time.Since(start).Seconds())
	}
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
