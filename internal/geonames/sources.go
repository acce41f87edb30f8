package geonames

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-resty/resty/v2"

	"liheapcli/internal/config"
	apperrors "liheapcli/internal/errors"
)

// Source names reported in logs and metrics
const (
	SourceRemote = "remote"
	SourceLocal  = "local_file"
	SourceNone   = "none"
)

// Remote downloads the GeoNames archive over HTTP
type Remote struct {
	client *resty.Client
	url    string
	member string
}

// NewRemote creates a remote lookup bounded by timeout
func NewRemote(url, member string, timeout time.Duration) *Remote {
	return &Remote{
		client: resty.New().SetTimeout(timeout),
		url:    url,
		member: member,
	}
}

// Source implements Lookup
func (r *Remote) Source() string { return SourceRemote }

// Load implements Lookup
func (r *Remote) Load(ctx context.Context) (Places, error) {
	resp, err := r.client.R().SetContext(ctx).Get(r.url)
	if err != nil {
		return Places{}, apperrors.NewNetworkError("geonames download failed", err).WithContext("url", r.url)
	}
	if resp.IsError() {
		return Places{}, apperrors.NewNetworkError(fmt.Sprintf("geonames download returned %s", resp.Status()), nil).
			WithContext("url", r.url)
	}
	return ParseArchive(resp.Body(), r.member, SourceRemote)
}

// LocalFile reads a previously downloaded US.txt
type LocalFile struct {
	Path string
}

// Source implements Lookup
func (l LocalFile) Source() string { return SourceLocal }

// Load implements Lookup
func (l LocalFile) Load(_ context.Context) (Places, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return Places{}, apperrors.NewNotFoundError(l.Path)
		}
		return Places{}, apperrors.NewStorageError("failed to open geonames file", err).WithContext("path", l.Path)
	}
	defer f.Close()
	return ParseTSV(f, SourceLocal)
}

// Fallback tries each lookup in order and returns the first that loads.
// When every lookup fails the result is an empty mapping, never an error.
type Fallback struct {
	lookups []Lookup
	logger  *slog.Logger
}

// NewFallback composes lookups in priority order
func NewFallback(logger *slog.Logger, lookups ...Lookup) *Fallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fallback{lookups: lookups, logger: logger}
}

// Source implements Lookup
func (f *Fallback) Source() string { return "fallback" }

// Load implements Lookup
func (f *Fallback) Load(ctx context.Context) (Places, error) {
	for _, lookup := range f.lookups {
		places, err := lookup.Load(ctx)
		if err == nil {
			f.logger.InfoContext(ctx, "geonames_loaded",
				slog.String("source", places.Source),
				slog.Int("zip_codes", places.Len()))
			return places, nil
		}
		f.logger.WarnContext(ctx, "geonames_source_failed",
			slog.String("source", lookup.Source()),
			slog.String("error", err.Error()))
	}

	f.logger.WarnContext(ctx, "geonames_unavailable",
		slog.Int("sources_tried", len(f.lookups)))
	return Places{Source: SourceNone, Names: map[string]string{}}, nil
}

// NewFromConfig builds the remote then local-file chain described by cfg
func NewFromConfig(cfg config.GeoNamesConfig, logger *slog.Logger) *Fallback {
	var lookups []Lookup
	if cfg.UseHTTP && cfg.URL != "" {
		lookups = append(lookups, NewRemote(cfg.URL, config.GeoNamesArchiveMember, cfg.Timeout))
	}
	if cfg.LocalFile != "" {
		lookups = append(lookups, LocalFile{Path: cfg.LocalFile})
	}
	return NewFallback(logger, lookups...)
}
