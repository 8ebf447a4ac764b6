package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/wealthflow-planner/internal/domain"
	"github.com/simaogato/wealthflow-planner/internal/usecase/measurement"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "wealthflow.planner.v1.ProjectionService"

// Projector runs stored portfolios and scenarios
type Projector interface {
	Run(ctx context.Context, req domain.ProjectionRequest) (*domain.ProjectionResult, error)
	RunScenario(ctx context.Context, scenarioID uuid.UUID, req domain.ProjectionRequest) (*domain.ProjectionResult, error)
}

// Summarizer builds point-in-time portfolio snapshots
type Summarizer interface {
	GetSummary(ctx context.Context, portfolioID uuid.UUID) (*domain.PortfolioSummary, error)
}

// Recorder stores observed values
type Recorder interface {
	Record(ctx context.Context, in measurement.RecordInput) (*domain.Measurement, error)
}

// ProjectionServiceServer is the server API of the projection service.
// Requests and responses are JSON-shaped Struct messages.
type ProjectionServiceServer interface {
	RunProjection(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	RunScenario(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetPortfolioSummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	RecordMeasurement(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the projection service for grpc.Server.RegisterService
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ProjectionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("RunProjection", ProjectionServiceServer.RunProjection),
		unary("RunScenario", ProjectionServiceServer.RunScenario),
		unary("GetPortfolioSummary", ProjectionServiceServer.GetPortfolioSummary),
		unary("RecordMeasurement", ProjectionServiceServer.RecordMeasurement),
	},
	Metadata: "wealthflow/planner/v1/projection.proto",
}

type structMethod func(ProjectionServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call structMethod) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ProjectionServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(ProjectionServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// RegisterProjectionServiceServer registers srv with s
func RegisterProjectionServiceServer(s grpc.ServiceRegistrar, srv ProjectionServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Server implements the ProjectionService gRPC server
type Server struct {
	Projections  Projector
	Summaries    Summarizer
	Measurements Recorder
}

// NewServer creates a new gRPC server instance
func NewServer(projections Projector, summaries Summarizer, measurements Recorder) *Server {
	return &Server{
		Projections:  projections,
		Summaries:    summaries,
		Measurements: measurements,
	}
}

// RunProjection handles the RunProjection RPC
func (s *Server) RunProjection(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in := fields(req)

	projection, err := in.projectionRequest()
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%v", err)
	}

	result, err := s.Projections.Run(ctx, projection)
	if err != nil {
		return nil, mapError(err)
	}
	return resultToStruct(result)
}

// RunScenario handles the RunScenario RPC
func (s *Server) RunScenario(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in := fields(req)

	scenarioID, err := in.uuid("scenario_id")
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%v", err)
	}
	projection, err := in.projectionRequest()
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%v", err)
	}

	result, err := s.Projections.RunScenario(ctx, scenarioID, projection)
	if err != nil {
		return nil, mapError(err)
	}
	return resultToStruct(result)
}

// GetPortfolioSummary handles the GetPortfolioSummary RPC
func (s *Server) GetPortfolioSummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	portfolioID, err := fields(req).uuid("portfolio_id")
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%v", err)
	}

	summary, err := s.Summaries.GetSummary(ctx, portfolioID)
	if err != nil {
		return nil, mapError(err)
	}

	return structpb.NewStruct(map[string]interface{}{
		"portfolio_id":          summary.PortfolioID.String(),
		"total_assets":          summary.TotalAssets.String(),
		"total_liabilities":     summary.TotalLiabilities.String(),
		"net_worth":             summary.NetWorth.String(),
		"monthly_revenue":       summary.MonthlyRevenue.String(),
		"monthly_loan_payments": summary.MonthlyLoanPayments.String(),
		"monthly_net_cash_flow": summary.MonthlyNetCashFlow.String(),
		"asset_count":           summary.AssetCount,
		"loan_count":            summary.LoanCount,
		"revenue_stream_count":  summary.RevenueStreamCount,
		"as_of":                 summary.AsOf.Format(time.RFC3339),
	})
}

// RecordMeasurement handles the RecordMeasurement RPC
func (s *Server) RecordMeasurement(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in := fields(req)

	portfolioID, err := in.uuid("portfolio_id")
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%v", err)
	}
	entityID, err := in.uuid("entity_id")
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%v", err)
	}
	value, err := decimal.NewFromString(in.str("value"))
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid value format: %v", err)
	}
	date, err := in.optionalDate("date")
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%v", err)
	}

	input := measurement.RecordInput{
		PortfolioID: portfolioID,
		EntityType:  domain.EntityType(in.str("entity_type")),
		EntityID:    entityID,
		ActualValue: value,
		Notes:       in.str("notes"),
	}
	if date != nil {
		input.Date = *date
	}

	m, err := s.Measurements.Record(ctx, input)
	if err != nil {
		return nil, mapError(err)
	}

	return structpb.NewStruct(map[string]interface{}{
		"measurement_id": m.ID.String(),
		"date":           m.Date.Format(time.DateOnly),
	})
}

// requestFields reads typed values out of a request Struct
type requestFields map[string]*structpb.Value

func fields(req *structpb.Struct) requestFields {
	return requestFields(req.GetFields())
}

func (f requestFields) str(name string) string {
	return strings.TrimSpace(f[name].GetStringValue())
}

func (f requestFields) uuid(name string) (uuid.UUID, error) {
	id, err := uuid.Parse(f.str(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s format: %w", name, err)
	}
	return id, nil
}

func (f requestFields) date(name string) (time.Time, error) {
	t, err := domain.ParseDate(f.str(name))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", name, err)
	}
	return t, nil
}

func (f requestFields) optionalDate(name string) (*time.Time, error) {
	if f.str(name) == "" {
		return nil, nil
	}
	t, err := f.date(name)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (f requestFields) projectionRequest() (domain.ProjectionRequest, error) {
	var req domain.ProjectionRequest
	var err error
	if req.PortfolioID, err = f.uuid("portfolio_id"); err != nil {
		return req, err
	}
	if req.StartDate, err = f.date("start_date"); err != nil {
		return req, err
	}
	if req.EndDate, err = f.date("end_date"); err != nil {
		return req, err
	}
	if req.AsOfDate, err = f.optionalDate("as_of_date"); err != nil {
		return req, err
	}
	return req, nil
}

// resultToStruct renders the result through its JSON form and appends the
// run's diagnostics
func resultToStruct(result *domain.ProjectionResult) (*structpb.Struct, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode result: %v", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode result: %v", err)
	}

	diagnostics := make([]interface{}, 0, len(result.Diagnostics))
	for _, d := range result.Diagnostics {
		entry := map[string]interface{}{
			"level":   string(d.Level),
			"code":    d.Code,
			"message": d.Message,
		}
		if d.EntityID != uuid.Nil {
			entry["entity_id"] = d.EntityID.String()
		}
		diagnostics = append(diagnostics, entry)
	}
	list, err := structpb.NewList(diagnostics)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode diagnostics: %v", err)
	}
	if out.Fields == nil {
		out.Fields = map[string]*structpb.Value{}
	}
	out.Fields["diagnostics"] = structpb.NewListValue(list)
	return out, nil
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	errorMsg := err.Error()

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return status.Errorf(codes.NotFound, "%s", errorMsg)
	case errors.Is(err, domain.ErrInvalidDateRange), errors.Is(err, domain.ErrUnknownField):
		return status.Errorf(codes.InvalidArgument, "%s", errorMsg)
	case errors.Is(err, domain.ErrUnsupported), errors.Is(err, domain.ErrIndexDataUnavailable):
		return status.Errorf(codes.FailedPrecondition, "%s", errorMsg)
	}

	// Map common validation errors to InvalidArgument
	if strings.Contains(errorMsg, "must be positive") ||
		strings.Contains(errorMsg, "invalid") ||
		strings.Contains(errorMsg, "must reference") ||
		strings.Contains(errorMsg, "must have") {
		return status.Errorf(codes.InvalidArgument, "%s", errorMsg)
	}

	// Default to Internal error for unknown errors
	return status.Errorf(codes.Internal, "%s", errorMsg)
}
