package bootstrap

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/artpar/adminkit/adapters/hasher"
	"github.com/artpar/adminkit/adapters/memory"
	"github.com/artpar/adminkit/adapters/remote"
	"github.com/artpar/adminkit/adapters/sqlite"
	"github.com/artpar/adminkit/config"
	"github.com/artpar/adminkit/core/resource"
	"github.com/artpar/adminkit/modules"
)

// Storage holds the resource services bound by the built-in modules.
type Storage struct {
	Services map[string]resource.Service

	db *sqlite.DB
}

// Close releases the backing database, if any.
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Register adds every service to reg under its name.
func (s *Storage) Register(reg *resource.Registry) error {
	for _, name := range modules.Services() {
		if err := reg.Register(name, s.Services[name]); err != nil {
			return fmt.Errorf("register service %s: %w", name, err)
		}
	}
	return nil
}

// OpenStorage creates one service per built-in service name on the
// configured driver, declares their relations and wraps the users service
// so passwords are stored hashed. With seed set, empty collections receive
// the demo records.
func OpenStorage(ctx context.Context, cfg config.StorageConfig, h hasher.Hasher, logger zerolog.Logger) (*Storage, error) {
	st := &Storage{Services: make(map[string]resource.Service)}

	raw := make(map[string]resource.Service)
	switch cfg.Driver {
	case config.DriverMemory, "":
		for _, name := range modules.Services() {
			raw[name] = memory.New(name)
		}
	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.DSN)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		st.db = db
		for _, name := range modules.Services() {
			raw[name] = sqlite.NewService(db, name)
		}
		logger.Info().Str("dsn", cfg.DSN).Msg("sqlite storage opened")
	case config.DriverRemote:
		client := remote.NewClient(remote.ClientConfig{
			BaseURL:    cfg.Remote.URL,
			APIKey:     cfg.Remote.APIKey,
			Timeout:    cfg.Remote.Timeout,
			RetryCount: cfg.Remote.Retries,
			Headers:    cfg.Remote.Headers,
		})
		for _, name := range modules.Services() {
			raw[name] = remote.NewService(client, name, "/"+name)
		}
		logger.Info().Str("url", cfg.Remote.URL).Msg("remote storage configured")
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}

	for name, svc := range raw {
		st.Services[name] = svc
	}
	if h != nil {
		st.Services[modules.UsersService] = hasher.Wrap(raw[modules.UsersService], h)
	}

	// Owners relate on the raw service; targets are the wrapped ones so
	// eager-loaded users never carry password hashes.
	modules.Relate(st.Services, func(owner, name string, rel resource.Relation) {
		switch svc := raw[owner].(type) {
		case *memory.Service:
			svc.Relate(name, rel)
		case *sqlite.Service:
			svc.Relate(name, rel)
		default:
			logger.Debug().Str("service", owner).Str("relation", name).Msg("relation resolved by backend")
		}
	})

	if cfg.Seed {
		if err := seed(ctx, st.Services, logger); err != nil {
			st.Close()
			return nil, err
		}
	}
	return st, nil
}

// seed saves the demo records of every empty collection.
func seed(ctx context.Context, services map[string]resource.Service, logger zerolog.Logger) error {
	records := modules.Seed()
	for _, name := range modules.Services() {
		svc := services[name]
		page, err := svc.GetAll(ctx, resource.Filters{resource.KeyPerPage: 1})
		if err != nil {
			return fmt.Errorf("count %s: %w", name, err)
		}
		if page.Total > 0 {
			continue
		}
		for _, item := range records[name] {
			if _, err := svc.Save(ctx, item); err != nil {
				return fmt.Errorf("seed %s: %w", name, err)
			}
		}
		logger.Debug().Str("service", name).Int("records", len(records[name])).Msg("seeded")
	}
	return nil
}
