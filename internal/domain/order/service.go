package order

import (
	"context"
	"math"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/rpstreef/screencloud-challenge/internal/domain/allocation"
	"github.com/rpstreef/screencloud-challenge/internal/domain/geo"
	"github.com/rpstreef/screencloud-challenge/internal/domain/money"
	"github.com/rpstreef/screencloud-challenge/internal/domain/product"
	"github.com/rpstreef/screencloud-challenge/internal/domain/warehouse"
)

// MaxQuantity is the largest quantity a single order may request. It matches
// the range of the storage column.
const MaxQuantity = math.MaxInt32

const instrumentationName = "github.com/rpstreef/screencloud-challenge/internal/domain/order"

// QuoteRequest holds the input for pricing an order without committing it.
type QuoteRequest struct {
	Quantity  int
	Latitude  float64
	Longitude float64
}

// CommitRequest holds the input for placing an order.
type CommitRequest struct {
	Quantity  int
	Latitude  float64
	Longitude float64
}

// Quote is the outcome of pricing an order against the current stock.
type Quote struct {
	ProductID          string
	Quantity           int
	Destination        geo.Coordinates
	TotalPrice         money.Money
	DiscountPercentage int
	ShippingCost       money.Money
	// IsValid is true only when the order can be fully sourced and shipping
	// stays within the price ratio.
	IsValid   bool
	Fulfilled bool
	Available int
	Legs      []allocation.Leg
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the source of order timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithNumberGenerator overrides how order numbers are generated.
func WithNumberGenerator(next func() string) Option {
	return func(s *Service) { s.nextNumber = next }
}

// WithTracerProvider sets the tracer provider used for operation spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracer = tp.Tracer(instrumentationName) }
}

// WithMeterProvider sets the meter provider used for outcome counters.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) { s.meter = mp.Meter(instrumentationName) }
}

// Service quotes and commits orders for a single product.
type Service struct {
	product    *product.Product
	allocator  *allocation.Allocator
	validator  *Validator
	warehouses warehouse.Repository
	orders     Repository
	tx         Transactor

	now        func() time.Time
	nextNumber func() string
	tracer     trace.Tracer
	meter      metric.Meter
	quotes     metric.Int64Counter
	commits    metric.Int64Counter
}

// NewService creates an order Service from its collaborators.
func NewService(
	p *product.Product,
	allocator *allocation.Allocator,
	validator *Validator,
	warehouses warehouse.Repository,
	orders Repository,
	tx Transactor,
	opts ...Option,
) *Service {
	s := &Service{
		product:    p,
		allocator:  allocator,
		validator:  validator,
		warehouses: warehouses,
		orders:     orders,
		tx:         tx,
		now:        time.Now,
		nextNumber: uuid.NewString,
		tracer:     otel.GetTracerProvider().Tracer(instrumentationName),
		meter:      otel.GetMeterProvider().Meter(instrumentationName),
	}
	for _, o := range opts {
		o(s)
	}
	s.quotes = newCounter(s.meter, "fulfillment.quotes", "Order quotes by outcome")
	s.commits = newCounter(s.meter, "fulfillment.commits", "Order commits by outcome")
	return s
}

func newCounter(m metric.Meter, name, desc string) metric.Int64Counter {
	c, err := m.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		return noop.Int64Counter{}
	}
	return c
}

// Product returns the product being sold.
func (s *Service) Product() *product.Product { return s.product }

// Quote prices an order against the current warehouse snapshot. It has no
// side effects.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	ctx, span := s.tracer.Start(ctx, "order.Quote", trace.WithAttributes(
		attribute.Int("order.quantity", req.Quantity),
	))
	defer span.End()

	dest, err := validateInput(req.Quantity, req.Latitude, req.Longitude)
	if err != nil {
		s.reject(ctx, span, s.quotes, err)
		return nil, err
	}

	ws, err := s.warehouses.List(ctx)
	if err != nil {
		s.fail(ctx, span, s.quotes, err)
		return nil, err
	}

	price := s.product.TotalPrice(req.Quantity)
	plan := s.allocator.Allocate(req.Quantity, s.product.UnitWeight(), dest, ws)

	q := &Quote{
		ProductID:          s.product.ID(),
		Quantity:           req.Quantity,
		Destination:        dest,
		TotalPrice:         price,
		DiscountPercentage: s.product.DiscountPercentage(req.Quantity),
		ShippingCost:       plan.TotalCost,
		IsValid:            plan.Fulfilled && s.validator.IsValid(price, plan.TotalCost),
		Fulfilled:          plan.Fulfilled,
		Available:          plan.Allocated(),
		Legs:               plan.Legs,
	}

	outcome := "valid"
	if !q.IsValid {
		outcome = "invalid"
	}
	span.SetAttributes(attribute.Bool("order.valid", q.IsValid))
	s.quotes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	return q, nil
}

// Commit places an order. Stock is re-read, allocated and reserved inside a
// single unit of work; on any failure nothing is persisted. Storage errors are
// returned unchanged.
func (s *Service) Commit(ctx context.Context, req CommitRequest) (*Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.Commit", trace.WithAttributes(
		attribute.Int("order.quantity", req.Quantity),
	))
	defer span.End()

	dest, err := validateInput(req.Quantity, req.Latitude, req.Longitude)
	if err != nil {
		s.reject(ctx, span, s.commits, err)
		return nil, err
	}

	var committed *Order
	err = s.tx.InTx(ctx, func(ctx context.Context, tx Tx) error {
		ws, err := tx.Warehouses(ctx)
		if err != nil {
			return err
		}

		price := s.product.TotalPrice(req.Quantity)
		plan := s.allocator.Allocate(req.Quantity, s.product.UnitWeight(), dest, ws)

		// Sourcing is checked before the price ratio.
		if !plan.Fulfilled {
			return &InsufficientStockError{
				Requested: req.Quantity,
				Available: plan.Allocated(),
			}
		}
		if !s.validator.IsValid(price, plan.TotalCost) {
			return &ShippingCostExceededError{
				ShippingCost: plan.TotalCost,
				Limit:        s.validator.Limit(price),
				Price:        price,
			}
		}

		lines := make([]Line, 0, len(plan.Legs))
		for _, l := range plan.Legs {
			lines = append(lines, Line{
				WarehouseID: l.WarehouseID,
				Quantity:    l.Quantity,
				Distance:    l.Distance,
				Weight:      l.Weight,
				Cost:        l.Cost,
			})
		}
		o, err := New(
			s.nextNumber(),
			s.product.ID(),
			req.Quantity,
			dest,
			price,
			s.product.DiscountPercentage(req.Quantity),
			plan.TotalCost,
			s.now(),
			lines,
		)
		if err != nil {
			return errors.Wrap(err, "build order")
		}

		if err := tx.Apply(ctx, o, plan.StockDeltas()); err != nil {
			return err
		}
		committed = o
		return nil
	})
	if err != nil {
		if isBusinessError(err) {
			s.reject(ctx, span, s.commits, err)
		} else {
			s.fail(ctx, span, s.commits, err)
		}
		return nil, err
	}

	span.SetAttributes(attribute.String("order.number", committed.Number))
	s.commits.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "committed")))
	zctx.From(ctx).Info("Order committed",
		zap.String("order_number", committed.Number),
		zap.Int("quantity", committed.Quantity),
		zap.Stringer("total_price", committed.TotalPrice),
		zap.Stringer("shipping_cost", committed.ShippingCost),
	)
	return committed, nil
}

// Order returns a committed order by its number.
func (s *Service) Order(ctx context.Context, number string) (*Order, error) {
	if number == "" {
		return nil, &InvalidInputError{Field: "orderNumber", Reason: "must not be empty"}
	}
	o, err := s.orders.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func validateInput(quantity int, lat, lon float64) (geo.Coordinates, error) {
	if quantity <= 0 {
		return geo.Coordinates{}, &InvalidInputError{Field: "quantity", Reason: "must be a positive integer"}
	}
	if quantity > MaxQuantity {
		return geo.Coordinates{}, &InvalidInputError{Field: "quantity", Reason: "too large"}
	}
	dest, err := geo.NewCoordinates(lat, lon)
	switch {
	case errors.Is(err, geo.ErrInvalidLatitude):
		return geo.Coordinates{}, &InvalidInputError{Field: "latitude", Reason: "must be between -90 and 90"}
	case errors.Is(err, geo.ErrInvalidLongitude):
		return geo.Coordinates{}, &InvalidInputError{Field: "longitude", Reason: "must be between -180 and 180"}
	case err != nil:
		return geo.Coordinates{}, &InvalidInputError{Field: "destination", Reason: err.Error()}
	}
	return dest, nil
}

func isBusinessError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrShippingCostExceeded)
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrShippingCostExceeded):
		return "shipping_cost_exceeded"
	case errors.Is(err, ErrStockConflict):
		return "stock_conflict"
	case errors.Is(err, ErrDuplicateOrder):
		return "duplicate_order"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

// reject records an expected business outcome.
func (s *Service) reject(ctx context.Context, span trace.Span, c metric.Int64Counter, err error) {
	outcome := outcomeOf(err)
	span.SetAttributes(attribute.String("order.outcome", outcome))
	c.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	zctx.From(ctx).Info("Order rejected", zap.String("outcome", outcome), zap.String("reason", err.Error()))
}

// fail records a collaborator fault.
func (s *Service) fail(ctx context.Context, span trace.Span, c metric.Int64Counter, err error) {
	outcome := outcomeOf(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, outcome)
	c.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	zctx.From(ctx).Error("Order operation failed", zap.String("outcome", outcome), zap.Error(err))
}
