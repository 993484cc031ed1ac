// Package app assembles the shifting services shared by the server and the CLI.
package app

import (
	"github.com/phambaophuc/meta-shift/internal/config"
	"github.com/phambaophuc/meta-shift/internal/services/batch"
	"github.com/phambaophuc/meta-shift/internal/services/processor"
	"github.com/phambaophuc/meta-shift/internal/services/randomizer"
	"github.com/phambaophuc/meta-shift/internal/services/templates"
	"github.com/phambaophuc/meta-shift/internal/services/toolkit"
	"github.com/phambaophuc/meta-shift/internal/services/video"
	"go.uber.org/zap"
)

type Services struct {
	Templates *templates.Registry
	Toolkit   *toolkit.Loader
	Images    *processor.ImageProcessor
	Videos    *video.Transformer

	rng     randomizer.Source
	workers int
	logger  *zap.Logger
}

// NewServices builds one shared toolkit and transformer pair. The toolkit is
// loaded lazily, on the first video.
func NewServices(cfg *config.Config, logger *zap.Logger) *Services {
	rng := randomizer.Synchronized(randomizer.Default())

	loader := toolkit.NewLoader(toolkit.FFmpegLoader(toolkit.FFmpegOptions{
		Binary:  cfg.Toolkit.FFmpegPath,
		WorkDir: cfg.Toolkit.WorkDir,
		Logger:  logger,
	}), logger)

	videos := video.NewTransformer(loader, randomizer.NewGenerator(rng, nil), video.Options{
		MaxDaysBack: cfg.Shift.MaxDaysBack,
		Encoding: video.Encoding{
			CRF:          cfg.Toolkit.VideoCRF,
			Preset:       cfg.Toolkit.VideoPreset,
			AudioBitrate: cfg.Toolkit.AudioBitrate,
		},
		Logger: logger,
	})

	return &Services{
		Templates: templates.Default(),
		Toolkit:   loader,
		Images:    processor.NewImageProcessor(rng),
		Videos:    videos,
		rng:       rng,
		workers:   cfg.Shift.ImageWorkers,
		logger:    logger,
	}
}

// NewOrchestrator returns an empty batch over the shared services.
func (s *Services) NewOrchestrator() *batch.Orchestrator {
	return batch.NewOrchestrator(s.Images, s.Videos, s.Templates, batch.Options{
		ImageWorkers: s.workers,
		Rand:         s.rng,
		Logger:       s.logger,
	})
}
