package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cfoust/snake/pkg/server"

	"github.com/go-redis/redis/v9"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Settings struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
	// Prefix for the per-instance key
	Key        string
	TTLSeconds int
}

func (s Settings) TTL() time.Duration {
	return time.Duration(s.TTLSeconds) * time.Second
}

// Store is the subset of the Redis client the announcer needs.
type Store interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type StatusSource interface {
	Status() server.Status
}

// Info is what other processes see about a running server.
type Info struct {
	ID      string        `json:"id"`
	Address string        `json:"address"`
	Web     string        `json:"web,omitempty"`
	Status  server.Status `json:"status"`
}

// Announcer keeps a short-lived key describing this server in Redis so
// that server lists can find it. The key disappears on its own if the
// process dies.
type Announcer struct {
	settings Settings
	store    Store
	source   StatusSource
	id       uuid.UUID
	address  string
	web      string
	log      zerolog.Logger
}

func New(settings Settings, source StatusSource, address string, web string) *Announcer {
	client := redis.NewClient(&redis.Options{
		Addr:     settings.Address,
		Password: settings.Password,
		DB:       settings.DB,
	})
	return NewWithStore(settings, client, source, address, web)
}

func NewWithStore(settings Settings, store Store, source StatusSource, address string, web string) *Announcer {
	id := uuid.New()
	return &Announcer{
		settings: settings,
		store:    store,
		source:   source,
		id:       id,
		address:  address,
		web:      web,
		log:      log.With().Str("component", "registry").Str("id", id.String()).Logger(),
	}
}

func (a *Announcer) Key() string {
	return fmt.Sprintf("%s:%s", a.settings.Key, a.id)
}

func (a *Announcer) Info() Info {
	return Info{
		ID:      a.id.String(),
		Address: a.address,
		Web:     a.web,
		Status:  a.source.Status(),
	}
}

func (a *Announcer) Announce(ctx context.Context) error {
	data, err := json.Marshal(a.Info())
	if err != nil {
		return err
	}
	return a.store.Set(ctx, a.Key(), data, a.settings.TTL()).Err()
}

func (a *Announcer) Withdraw(ctx context.Context) error {
	return a.store.Del(ctx, a.Key()).Err()
}

// Poll refreshes the key at half the TTL until ctx ends, then removes it.
func (a *Announcer) Poll(ctx context.Context) {
	interval := a.settings.TTL() / 2
	if interval <= 0 {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	failing := false
	announce := func() {
		err := a.Announce(ctx)
		if err != nil && !failing {
			a.log.Warn().Err(err).Msg("failed to announce server")
		} else if err == nil && failing {
			a.log.Info().Msg("announcing server again")
		}
		failing = err != nil
	}

	announce()
	for {
		select {
		case <-ctx.Done():
			withdraw, cancel := context.WithTimeout(context.Background(), time.Second)
			err := a.Withdraw(withdraw)
			cancel()
			if err != nil {
				a.log.Warn().Err(err).Msg("failed to withdraw server")
			}
			return
		case <-ticker.C:
			announce()
		}
	}
}
