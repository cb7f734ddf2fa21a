package slackclient

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/slack-go/slack"

	"react-analytics/internal/domain"
)

// Directory caches the workspace's user and channel names. Snapshots are
// immutable once published, so callers may keep and share them.
type Directory struct {
	api    API
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	snapshot domain.Directory
	loadedAt time.Time
}

func NewDirectory(api API, ttl time.Duration, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{
		api:    api,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Snapshot returns the cached directory, reloading it first when it is older
// than the TTL. A failed reload is logged and the previous snapshot is kept.
func (d *Directory) Snapshot(ctx context.Context) domain.Directory {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.loadedAt.IsZero() || d.now().Sub(d.loadedAt) >= d.ttl {
		if err := d.refreshLocked(ctx); err != nil {
			d.logger.Warn("failed to refresh directory, keeping previous snapshot", "error", err)
		}
	}
	return d.snapshot
}

// Refresh reloads the directory now.
func (d *Directory) Refresh(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.refreshLocked(ctx)
}

func (d *Directory) refreshLocked(ctx context.Context) error {
	var members []slack.User
	err := withRetry(ctx, func() error {
		var err error
		members, err = d.api.GetUsersContext(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	convs, err := channels(ctx, d.api, []string{"public_channel", "private_channel"})
	if err != nil {
		return err
	}

	users := make(map[string]string, len(members))
	for _, u := range members {
		users[u.ID] = DisplayName(u)
	}
	chans := make(map[string]string, len(convs))
	for _, c := range convs {
		chans[c.ID] = c.Name
	}

	d.snapshot = domain.Directory{Users: users, Channels: chans}
	d.loadedAt = d.now()
	d.logger.Debug("directory refreshed", "users", len(users), "channels", len(chans))
	return nil
}

// DisplayName picks the name shown for a user.
// Priority: DisplayName > RealName > Name > ID
func DisplayName(u slack.User) string {
	if u.Profile.DisplayName != "" {
		return u.Profile.DisplayName
	}
	if u.RealName != "" {
		return u.RealName
	}
	if u.Name != "" {
		return u.Name
	}
	return u.ID
}
