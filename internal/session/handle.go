package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/semaphore"

	"github.com/masmgr/jjlog-go/config"
)

// Handle is a session shared between callers. Every operation holds the
// handle for its whole duration, so a query never sees a snapshot replaced
// halfway through.
type Handle struct {
	path    string
	opts    []Option
	log     *slog.Logger
	sem     *semaphore.Weighted
	cache   *cache.Cache
	timeout time.Duration // fixed at Open

	// Guarded by sem.
	sess   *Session
	closed bool
}

// Open resolves configuration for path and loads the workspace.
func Open(ctx context.Context, path string, opts ...Option) (*Handle, error) {
	o := buildOptions(opts)
	h := &Handle{
		path:  path,
		opts:  opts,
		log:   o.logger.With("component", "handle"),
		sem:   semaphore.NewWeighted(1),
		cache: newProjectionCache(),
	}
	sess, err := h.load(ctx, o, o.generation)
	if err != nil {
		return nil, err
	}
	h.sess = sess
	h.timeout = sess.Settings.LockTimeout()
	return h, nil
}

func (h *Handle) load(ctx context.Context, o options, gen uint64) (*Session, error) {
	settings, err := config.ResolveWithOptions(h.path, o.configOpts)
	if err != nil {
		return nil, err
	}
	opts := append(append([]Option(nil), h.opts...), withGeneration(gen), withCache(h.cache))
	return Load(ctx, h.path, settings, opts...)
}

// acquire takes the handle, waiting at most the lock timeout. A zero
// timeout fails at once when the handle is busy.
func (h *Handle) acquire(ctx context.Context) error {
	if h.timeout <= 0 {
		if !h.sem.TryAcquire(1) {
			return ErrBusy
		}
	} else {
		waitCtx, cancel := context.WithTimeout(ctx, h.timeout)
		err := h.sem.Acquire(waitCtx, 1)
		cancel()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return ErrBusy
		}
	}
	if h.closed {
		h.release()
		return ErrClosed
	}
	return nil
}

func (h *Handle) release() {
	h.sem.Release(1)
}

// with runs fn on the current session while holding the handle.
func (h *Handle) with(ctx context.Context, fn func(*Session) error) error {
	if err := h.acquire(ctx); err != nil {
		return err
	}
	defer h.release()
	return fn(h.sess)
}

// Run evaluates expr and projects at most limit commits; limit <= 0 means
// all. The result carries the generation and working copy of the snapshot
// the commits came from.
func (h *Handle) Run(ctx context.Context, expr string, limit int) (*Result, error) {
	var res *Result
	err := h.with(ctx, func(s *Session) error {
		var err error
		res, err = s.Run(ctx, expr, limit)
		return err
	})
	return res, err
}

// Chain returns the first-parent chain from the working-copy commit, at
// most limit commits long. limit <= 0 uses the jjlog.chain-limit setting,
// which defaults to 10.
func (h *Handle) Chain(ctx context.Context, limit int) (*Result, error) {
	var res *Result
	err := h.with(ctx, func(s *Session) error {
		if limit <= 0 {
			limit = s.Settings.ChainLimit()
		}
		var err error
		res, err = s.Chain(limit)
		return err
	})
	return res, err
}

// Query evaluates expr and projects every matching commit.
func (h *Handle) Query(ctx context.Context, expr string) ([]CommitProjection, error) {
	return h.QueryN(ctx, expr, 0)
}

// QueryN is Query returning at most limit commits; limit <= 0 means all.
func (h *Handle) QueryN(ctx context.Context, expr string, limit int) ([]CommitProjection, error) {
	res, err := h.Run(ctx, expr, limit)
	if err != nil {
		return nil, err
	}
	return res.Commits, nil
}

// HeadChain returns the commits of Chain. limit <= 0 uses the
// jjlog.chain-limit setting, which defaults to 10.
func (h *Handle) HeadChain(ctx context.Context, limit int) ([]CommitProjection, error) {
	res, err := h.Chain(ctx, limit)
	if err != nil {
		return nil, err
	}
	return res.Commits, nil
}

// Settings returns the configuration of the current snapshot.
func (h *Handle) Settings(ctx context.Context) (*config.Settings, error) {
	var settings *config.Settings
	err := h.with(ctx, func(s *Session) error {
		settings = s.Settings
		return nil
	})
	return settings, err
}

// Generation returns the generation of the current snapshot.
func (h *Handle) Generation(ctx context.Context) (uint64, error) {
	var gen uint64
	err := h.with(ctx, func(s *Session) error {
		gen = s.Generation()
		return nil
	})
	return gen, err
}

// WorkspaceRoot returns the root directory of the loaded workspace.
func (h *Handle) WorkspaceRoot(ctx context.Context) (string, error) {
	var root string
	err := h.with(ctx, func(s *Session) error {
		root = s.Workspace.Root
		return nil
	})
	return root, err
}

// WorkingCopyID returns the working-copy commit id of the current
// snapshot, or "" for an empty repository.
func (h *Handle) WorkingCopyID(ctx context.Context) (string, error) {
	var id string
	err := h.with(ctx, func(s *Session) error {
		id = s.WorkingCopyID()
		return nil
	})
	return id, err
}

// Reload reads the workspace again. The new snapshot gets the next
// generation and cached projections are dropped. On failure the previous
// snapshot stays in use.
func (h *Handle) Reload(ctx context.Context) error {
	if err := h.acquire(ctx); err != nil {
		return err
	}
	defer h.release()

	next, err := h.load(ctx, buildOptions(h.opts), h.sess.Generation()+1)
	if err != nil {
		return err
	}
	h.cache.Flush()
	h.sess = next
	h.log.Debug("reloaded", "generation", next.Generation(), "commits", next.Snapshot.Len())
	return nil
}

// Close releases the snapshot. It waits for a running operation at most the
// lock timeout.
func (h *Handle) Close() error {
	if err := h.acquire(context.Background()); err != nil {
		return err
	}
	defer h.release()
	h.closed = true
	h.sess = nil
	h.cache.Flush()
	return nil
}

// ResolveConfig returns the effective values for the workspace at path that
// differ from the built-in defaults, rendered as inline TOML.
func ResolveConfig(path string) (map[string]string, error) {
	return ResolveConfigWithOptions(path, config.Options{})
}

// ResolveConfigWithOptions is ResolveConfig with explicit config options.
func ResolveConfigWithOptions(path string, opts config.Options) (map[string]string, error) {
	settings, err := config.ResolveWithOptions(path, opts)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	for _, v := range config.ListNonDefault(settings) {
		out[v.Key()] = v.Rendered()
	}
	return out, nil
}
