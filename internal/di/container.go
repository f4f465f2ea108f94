package di

import (
	"github.com/samber/do/v2"
	"github.com/samber/oops"

	archiveService "github.com/reshetovitsme/telegram-channel-archiver/internal/modules/archive/service"
	sessionRepo "github.com/reshetovitsme/telegram-channel-archiver/internal/modules/session/repository"
	"github.com/reshetovitsme/telegram-channel-archiver/internal/shared/config"
)

// Setup initializes the dependency injection container
func Setup() (do.Injector, error) {
	injector := do.New()

	// Register Config
	do.Provide(injector, func(i do.Injector) (*config.Config, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, oops.With("context", "failed to load config").Wrap(err)
		}
		return cfg, nil
	})

	// Register Session Repository
	do.Provide(injector, func(i do.Injector) (sessionRepo.Repository, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo, err := sessionRepo.NewFileStorage(cfg.OutputRoot)
		if err != nil {
			return nil, oops.With("output_root", cfg.OutputRoot, "context", "failed to initialize session repository").Wrap(err)
		}
		return repo, nil
	})

	// Register Archive Service
	do.Provide(injector, func(i do.Injector) (*archiveService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		checkpoints := do.MustInvoke[sessionRepo.Repository](i)
		return archiveService.New(cfg, checkpoints), nil
	})

	return injector, nil
}
