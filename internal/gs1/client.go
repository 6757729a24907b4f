// Package gs1 implements the product registry of GS1 Brasil: resource owner
// password authentication and one product registration call per row.
package gs1

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/ratelimit"
	"resty.dev/v3"

	"github.com/xenking/gtin-catalog/internal/domain/barcode"
)

// DefaultBaseURL is the production registry address.
const DefaultBaseURL = "https://api.gs1br.org"

const (
	tokenPath    = "/oauth/access-token"
	productsPath = "/gs1/v0/products"

	instrumentationName = "github.com/xenking/gtin-catalog/internal/gs1"
)

var _ barcode.Registry = (*Client)(nil)

// Config configures a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// RequestsPerSecond throttles registry calls. Zero disables throttling.
	RequestsPerSecond int
	Product           Product
}

// Option customizes a Client.
type Option func(*options)

type options struct {
	transport      http.RoundTripper
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
}

// WithTransport sets the base HTTP transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithMeterProvider sets the meter provider for client metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = mp }
}

// WithTracerProvider sets the tracer provider for client spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

// Client is the HTTP implementation of barcode.Registry.
type Client struct {
	http    *resty.Client
	limiter ratelimit.Limiter
	product Product
	tracer  trace.Tracer

	registrations metric.Int64Counter
	duration      metric.Float64Histogram
}

// New creates a registry client.
func New(cfg Config, opts ...Option) (*Client, error) {
	o := options{
		transport:      http.DefaultTransport,
		meterProvider:  otel.GetMeterProvider(),
		tracerProvider: otel.GetTracerProvider(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	limiter := ratelimit.NewUnlimited()
	if cfg.RequestsPerSecond > 0 {
		limiter = ratelimit.New(cfg.RequestsPerSecond)
	}

	meter := o.meterProvider.Meter(instrumentationName)
	registrations, err := meter.Int64Counter("gs1.registrations",
		metric.WithDescription("Product registrations by outcome"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create registrations counter")
	}
	duration, err := meter.Float64Histogram("gs1.register.duration",
		metric.WithDescription("Product registration call duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create duration histogram")
	}

	// The registry is called without retries: a repeated registration may
	// allocate a second GTIN.
	httpClient := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetTransport(otelhttp.NewTransport(o.transport,
			otelhttp.WithMeterProvider(o.meterProvider),
			otelhttp.WithTracerProvider(o.tracerProvider),
		))

	return &Client{
		http:          httpClient,
		limiter:       limiter,
		product:       cfg.Product.withDefaults(),
		tracer:        o.tracerProvider.Tracer(instrumentationName),
		registrations: registrations,
		duration:      duration,
	}, nil
}

// Authenticate obtains an access token with the password grant. Every
// failure is reported as *barcode.AuthenticationError.
func (c *Client) Authenticate(ctx context.Context, creds barcode.Credentials) (barcode.Session, error) {
	ctx, span := c.tracer.Start(ctx, "gs1.Authenticate")
	defer span.End()

	if err := c.limit(ctx); err != nil {
		return barcode.Session{}, authError(span, err)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("client_id", creds.ClientID).
		SetBasicAuth(creds.ClientID, creds.ClientSecret).
		SetBody(tokenRequest{
			GrantType: "password",
			Username:  creds.Username,
			Password:  creds.Password,
		}).
		Post(tokenPath)
	if err != nil {
		return barcode.Session{}, authError(span, errors.Wrap(err, "token request"))
	}
	if !resp.IsSuccess() {
		return barcode.Session{}, authError(span, errors.Errorf("token request: %s", resp.Status()))
	}

	var token tokenResponse
	if err := json.Unmarshal([]byte(resp.String()), &token); err != nil {
		return barcode.Session{}, authError(span, errors.Wrap(err, "decode token"))
	}
	if token.AccessToken == "" {
		return barcode.Session{}, authError(span, errors.New("empty access token"))
	}

	return barcode.Session{AccessToken: token.AccessToken, ClientID: creds.ClientID}, nil
}

func authError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, "authentication failed")
	return &barcode.AuthenticationError{Err: err}
}

// Register registers a single product. It never fails: transport problems
// and rejections are encoded in the returned outcome.
func (c *Client) Register(ctx context.Context, row barcode.InputRow, session barcode.Session) (out barcode.Outcome) {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "gs1.Register",
		trace.WithAttributes(attribute.String("gs1.reference", row.Reference)),
	)
	defer func() {
		attrs := metric.WithAttributes(attribute.String("outcome", out.Kind.String()))
		c.registrations.Add(ctx, 1, attrs)
		c.duration.Record(ctx, time.Since(start).Seconds(), attrs)

		span.SetAttributes(attribute.String("gs1.outcome", out.Kind.String()))
		if out.Kind != barcode.OutcomeSuccess {
			span.SetStatus(codes.Error, out.Kind.String())
		}
		span.End()
	}()

	if err := c.limit(ctx); err != nil {
		return barcode.TransportFailure(err)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("client_id", session.ClientID).
		SetHeader("access_token", session.AccessToken).
		SetBody(newProductRequest(c.product, row)).
		Post(productsPath)
	if err != nil {
		return barcode.TransportFailure(errors.Wrap(err, "register product"))
	}

	return outcomeOf(resp.StatusCode(), []byte(resp.String()))
}

// limit waits for the throttle and reports a context that ended meanwhile.
func (c *Client) limit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.limiter.Take()
	return ctx.Err()
}

// outcomeOf maps a registration response to an outcome.
func outcomeOf(status int, body []byte) barcode.Outcome {
	if status >= 200 && status < 300 {
		var ok productResponse
		if err := json.Unmarshal(body, &ok); err != nil {
			return barcode.TransportFailure(errors.Wrap(err, "decode product response"))
		}
		if ok.Product == nil || ok.Product.Key.GTIN == "" {
			return barcode.TransportFailure(errors.New("response without product"))
		}
		return barcode.Success(ok.Product.Key.GTIN, ok.Product.GTINStatusCode)
	}

	var rejection errorResponse
	if err := json.Unmarshal(body, &rejection); err == nil {
		if msg := rejection.message(); msg != "" {
			return barcode.Rejected(msg)
		}
	}
	return barcode.TransportFailure(errors.Errorf("unexpected status %d", status))
}

// message returns the rejection message. The registry sends either a single
// string or a list of validation messages.
func (e errorResponse) message() string {
	if len(e.Message) == 0 {
		return ""
	}
	var single string
	if err := json.Unmarshal(e.Message, &single); err == nil {
		return single
	}
	var list []string
	if err := json.Unmarshal(e.Message, &list); err == nil {
		return strings.Join(list, "; ")
	}
	return ""
}
