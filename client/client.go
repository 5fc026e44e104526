package client

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/graphdash/sparqlkit/cache"
	"github.com/graphdash/sparqlkit/flight"
	"github.com/graphdash/sparqlkit/instance"
	"github.com/graphdash/sparqlkit/metrics"
	"github.com/graphdash/sparqlkit/sparql"
)

const tracerName = "github.com/graphdash/sparqlkit/client"

// UnavailableError is returned for instances marked out of service in
// configuration. The note is the operator's message for the user.
type UnavailableError struct {
	Instance string
	Note     string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("client: instance %s is unavailable: %s", e.Instance, e.Note)
}

// Config configures a Client.
type Config struct {
	// Instance is the endpoint this client queries.
	Instance instance.Instance

	// Cache is the shared result store. If nil, a private memory-only
	// store with default bounds is created.
	Cache *cache.Store

	// Flights is the shared in-flight registry. If nil, a private one
	// is created; sharing it across clients is what makes deduplication
	// process-wide.
	Flights *flight.Registry

	// Transport overrides the SPARQL client, mainly for tests. If nil,
	// one is built from the instance.
	Transport *sparql.Client

	// TracerProvider supplies the tracer for query spans. Default: noop.
	TracerProvider trace.TracerProvider

	// Recorder publishes Prometheus metrics. Nil disables recording.
	Recorder *metrics.Recorder

	// Logger. Default: zap.NewNop()
	Logger *zap.Logger
}

// Client is the cache-checked, deduplicated query path for one instance.
type Client struct {
	inst      instance.Instance
	transport *sparql.Client
	cache     *cache.Store
	flights   *flight.Registry
	tracer    trace.Tracer
	recorder  *metrics.Recorder
	logger    *zap.Logger
}

// New creates a client for the configured instance.
func New(cfg Config) *Client {
	inst := cfg.Instance.Normalize()
	store := cfg.Cache
	if store == nil {
		store = cache.NewStore(cache.Config{})
	}
	flights := cfg.Flights
	if flights == nil {
		flights = &flight.Registry{}
	}
	transport := cfg.Transport
	if transport == nil {
		transport = sparql.New(sparql.Config{Instance: inst, Logger: cfg.Logger})
	}
	tp := cfg.TracerProvider
	if tp == nil {
		tp = noop.NewTracerProvider()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		inst:      inst,
		transport: transport,
		cache:     store,
		flights:   flights,
		tracer:    tp.Tracer(tracerName),
		recorder:  cfg.Recorder,
		logger:    logger,
	}
}

// Query resolves queryText against the instance: cached result if live,
// otherwise one shared network fetch whose result is written through
// the cache before every waiting caller receives it.
func (c *Client) Query(ctx context.Context, queryText string) (*sparql.Results, error) {
	return c.query(ctx, queryText, false)
}

// QueryFresh bypasses the cache read and the in-flight registry and
// always fetches, still writing the result through the cache.
func (c *Client) QueryFresh(ctx context.Context, queryText string) (*sparql.Results, error) {
	return c.query(ctx, queryText, true)
}

func (c *Client) query(ctx context.Context, queryText string, fresh bool) (*sparql.Results, error) {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "sparqlkit.query", trace.WithAttributes(
		attribute.String("sparql.instance", c.inst.ID),
		attribute.Bool("sparql.fresh", fresh),
	))
	defer span.End()

	if c.inst.UnavailableNote != "" {
		err := &UnavailableError{Instance: c.inst.ID, Note: c.inst.UnavailableNote}
		return nil, c.fail(span, start, err)
	}

	key := cache.Key(c.inst.ID, queryText)

	if fresh {
		payload, err := c.fetch(ctx, queryText, key)
		if err != nil {
			return nil, c.fail(span, start, err)
		}
		return c.finish(span, start, payload, metrics.OutcomeFresh)
	}

	if payload, ok := c.cache.Get(key); ok {
		span.SetAttributes(attribute.Bool("sparql.cache_hit", true))
		return c.finish(span, start, payload, metrics.OutcomeHit)
	}
	span.SetAttributes(attribute.Bool("sparql.cache_hit", false))

	// The fetch runs detached from this caller's cancellation: other
	// callers may be sharing the in-flight handle, and the write-through
	// must complete even if the first caller walks away.
	fetchCtx := context.WithoutCancel(ctx)
	payload, shared, err := c.flights.Do(key, func() ([]byte, error) {
		return c.fetch(fetchCtx, queryText, key)
	})
	if err != nil {
		return nil, c.fail(span, start, err)
	}

	outcome := metrics.OutcomeMiss
	if shared {
		outcome = metrics.OutcomeShared
		span.SetAttributes(attribute.Bool("sparql.deduplicated", true))
	}
	return c.finish(span, start, payload, outcome)
}

// fetch performs the gated, retried network call and writes the result
// through the cache before returning it.
func (c *Client) fetch(ctx context.Context, queryText, key string) ([]byte, error) {
	payload, err := c.transport.Execute(ctx, queryText)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, payload, c.inst.ID)
	return payload, nil
}

func (c *Client) finish(span trace.Span, start time.Time, payload []byte, outcome metrics.QueryOutcome) (*sparql.Results, error) {
	results, err := sparql.ParseResults(payload)
	if err != nil {
		return nil, c.fail(span, start, err)
	}
	c.recorder.ObserveQuery(c.inst.ID, outcome, time.Since(start))
	span.SetAttributes(attribute.Int("sparql.rows", results.Len()))
	return results, nil
}

func (c *Client) fail(span trace.Span, start time.Time, err error) error {
	c.recorder.ObserveQuery(c.inst.ID, metrics.OutcomeError, time.Since(start))
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	c.logger.Debug("client: query failed",
		zap.String("instance", c.inst.ID),
		zap.Error(err))
	return err
}

// Stats reports the shape of the result store this client writes to.
func (c *Client) Stats() cache.Stats { return c.cache.Stats() }

// Invalidate removes every cached entry for this client's instance and
// returns the number removed.
func (c *Client) Invalidate() int {
	removed := c.cache.InvalidateInstance(c.inst.ID)
	c.recorder.ObserveInvalidation(c.inst.ID, removed)
	return removed
}

// Clear empties the result store this client writes to, including its
// persisted snapshot. The store is typically shared: entries of other
// instances go with it.
func (c *Client) Clear() { c.cache.Clear() }

// Instance returns the configuration this client serves.
func (c *Client) Instance() instance.Instance { return c.inst }
