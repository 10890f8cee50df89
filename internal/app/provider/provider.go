// Package provider selects and builds the configured search backend.
package provider

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/swipebox/internal/domain/track"
	"github.com/osa030/swipebox/internal/infra/config"
	"github.com/osa030/swipebox/internal/infra/itunes"
	"github.com/osa030/swipebox/internal/infra/spotify"
)

// Searcher is the keyword search surface every backend implements.
type Searcher interface {
	Search(ctx context.Context, term string, limit int) ([]track.Track, error)
}

type itunesSettings struct {
	BaseURL   string `mapstructure:"base_url" default:"https://itunes.apple.com"`
	Country   string `mapstructure:"country" default:"US" validate:"len=2"`
	TimeoutMs int    `mapstructure:"timeout_ms" default:"10000" validate:"gte=100,lte=60000"`
}

type spotifySettings struct {
	ClientID     string `mapstructure:"client_id" validate:"required"`
	ClientSecret string `mapstructure:"client_secret" validate:"required"`
	RefreshToken string `mapstructure:"refresh_token" validate:"required"`
	Market       string `mapstructure:"market" default:"US" validate:"len=2"`
}

// New builds the search backend named by the configuration.
func New(ctx context.Context, cfg config.SearchConfig) (Searcher, error) {
	zlog.Debug().Str("type", cfg.Type).Msg("provider: creating search backend")

	switch cfg.Type {
	case "itunes", "":
		var settings itunesSettings
		if err := decodeSettings(cfg.Settings, &settings); err != nil {
			return nil, errors.Wrap(err, "itunes settings")
		}
		return itunes.New(itunes.Config{
			BaseURL: settings.BaseURL,
			Country: settings.Country,
			Timeout: time.Duration(settings.TimeoutMs) * time.Millisecond,
		}), nil

	case "spotify":
		var settings spotifySettings
		if err := decodeSettings(cfg.Settings, &settings); err != nil {
			return nil, errors.Wrap(err, "spotify settings")
		}
		client, err := spotify.New(ctx, spotify.Config{
			ClientID:     settings.ClientID,
			ClientSecret: settings.ClientSecret,
			RefreshToken: settings.RefreshToken,
			Market:       settings.Market,
		})
		if err != nil {
			return nil, errors.Wrap(err, "spotify client")
		}
		return client, nil

	default:
		return nil, errors.Newf("unsupported search provider: %s", cfg.Type)
	}
}

func decodeSettings(settings map[string]any, out any) error {
	if err := mapstructure.Decode(settings, out); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(out); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}
