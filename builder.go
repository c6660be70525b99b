package authgate

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	internalaudit "github.com/MrEthical07/authgate/internal/audit"
	"github.com/MrEthical07/authgate/session"
)

// Builder assembles a Client.
//
// Builder instances are intended to be configured during initialization and
// then discarded; Build may be called once.
type Builder struct {
	config Config

	httpClient *http.Client
	surface    session.Surface
	redis      redis.UniversalClient
	logger     *slog.Logger
	auditSink  AuditSink
	navigator  Navigator

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration tree.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithHTTPClient sets the client used for backend calls. By default a client
// with Backend.Timeout is created.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithSurface sets the script-readable persistence surface for sessions
// created by the client. It takes priority over WithRedis.
func (b *Builder) WithSurface(surface session.Surface) *Builder {
	b.surface = surface
	return b
}

// WithRedis stores sessions in Redis under Session.RedisPrefix.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the sink audit events are delivered to. Audit must also
// be enabled in the configuration.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithNavigator sets where session-expired redirects are sent.
func (b *Builder) WithNavigator(n Navigator) *Builder {
	b.navigator = n
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready Client.
//
// Surface selection: WithSurface, then WithRedis, then an in-process
// MemorySurface.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	// -------- SURFACE --------
	surface := b.surface
	switch {
	case surface != nil:
	case b.redis != nil:
		surface = session.NewRedisSurface(b.redis, cfg.Session.RedisPrefix)
	default:
		surface = session.NewMemorySurface()
	}

	// -------- TRANSPORT --------
	api, err := newAuthAPI(cfg.Backend, b.httpClient)
	if err != nil {
		return nil, err
	}

	client := &Client{
		config:    cfg,
		api:       api,
		surface:   surface,
		cookies:   cfg.Cookie.policy(),
		logger:    logger,
		metrics:   NewMetrics(cfg.Metrics),
		navigator: b.navigator,
	}

	sink := b.auditSink
	if sink == nil {
		sink = NoOpSink{}
	}
	client.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:     cfg.Audit.Enabled,
		BufferSize:  cfg.Audit.BufferSize,
		DropIfFull:  cfg.Audit.DropIfFull,
		MustDeliver: cfg.Audit.MustDeliver,
	}, sink)

	b.built = true

	return client, nil
}
