package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vibast-solutions/ms-go-donations/app/mapper"
	"github.com/vibast-solutions/ms-go-donations/app/provider"
	"github.com/vibast-solutions/ms-go-donations/app/service"
	"github.com/vibast-solutions/ms-go-donations/app/types"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "donations.DonationsService"

// DonationsServer is the internal gRPC surface of the ledger. Payloads are
// google.protobuf.Struct values carrying the same JSON documents the HTTP
// API uses.
type DonationsServer interface {
	Initiate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetDonation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListDonations(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ApproveDonation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	RejectDonation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DonationsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Initiate", Handler: unaryHandler("Initiate", DonationsServer.Initiate)},
		{MethodName: "GetDonation", Handler: unaryHandler("GetDonation", DonationsServer.GetDonation)},
		{MethodName: "ListDonations", Handler: unaryHandler("ListDonations", DonationsServer.ListDonations)},
		{MethodName: "ApproveDonation", Handler: unaryHandler("ApproveDonation", DonationsServer.ApproveDonation)},
		{MethodName: "RejectDonation", Handler: unaryHandler("RejectDonation", DonationsServer.RejectDonation)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "donations.proto",
}

func RegisterDonationsServer(s grpc.ServiceRegistrar, srv DonationsServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func unaryHandler(method string, call func(DonationsServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(DonationsServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + ServiceName + "/" + method,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(DonationsServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

type Server struct {
	donationService *service.DonationService
}

var _ DonationsServer = (*Server)(nil)

func NewServer(donationService *service.DonationService) *Server {
	return &Server{donationService: donationService}
}

type donationIDPayload struct {
	ID   string `json:"id"`
	Note string `json:"note"`
}

func (s *Server) Initiate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	l := loggerWithContext(ctx)

	var req types.CreateDonationRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		l.WithError(err).Debug("Initiate validation failed")
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	checkout, err := s.donationService.Initiate(ctx, mapper.CreateDonationRequestToIntent(&req))
	if err != nil {
		return nil, toStatus(ctx, "Initiate donation", err)
	}

	return encodeStruct(mapper.CheckoutToResponse(checkout))
}

func (s *Server) GetDonation(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req donationIDPayload
	if err := decodeStruct(in, &req); err != nil || req.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "invalid donation id")
	}

	item, err := s.donationService.GetDonation(ctx, req.ID)
	if err != nil {
		return nil, toStatus(ctx, "Get donation", err)
	}
	events, err := s.donationService.GetDonationEvents(ctx, req.ID)
	if err != nil {
		return nil, toStatus(ctx, "List donation events", err)
	}

	return encodeStruct(&types.DonationDetailResponse{
		Donation: mapper.DonationToResponse(item),
		Events:   mapper.EventsToResponse(events),
	})
}

func (s *Server) ListDonations(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req types.ListDonationsRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	items, err := s.donationService.ListDonations(ctx, mapper.ListDonationsRequestToFilter(&req))
	if err != nil {
		return nil, toStatus(ctx, "List donations", err)
	}

	return encodeStruct(&types.ListDonationsResponse{Donations: mapper.DonationsToResponse(items)})
}

func (s *Server) ApproveDonation(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req donationIDPayload
	if err := decodeStruct(in, &req); err != nil || req.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "invalid donation id")
	}

	item, err := s.donationService.ApproveDonation(ctx, req.ID, req.Note)
	if err != nil {
		return nil, toStatus(ctx, "Approve donation", err)
	}

	return encodeStruct(&types.DonationEnvelopeResponse{Donation: mapper.DonationToResponse(item)})
}

func (s *Server) RejectDonation(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req donationIDPayload
	if err := decodeStruct(in, &req); err != nil || req.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "invalid donation id")
	}

	item, err := s.donationService.RejectDonation(ctx, req.ID, req.Note)
	if err != nil {
		return nil, toStatus(ctx, "Reject donation", err)
	}

	return encodeStruct(&types.DonationEnvelopeResponse{Donation: mapper.DonationToResponse(item)})
}

func toStatus(ctx context.Context, action string, err error) error {
	var providerErr *provider.Error

	switch {
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrProviderUnsupported),
		errors.Is(err, provider.ErrInvalidAmount),
		errors.Is(err, provider.ErrInvalidInput),
		errors.Is(err, provider.ErrMethodNotSupported):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrDonationNotFound):
		return status.Error(codes.NotFound, "donation not found")
	case errors.Is(err, service.ErrInvalidStatus):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, provider.ErrNotConfigured):
		loggerWithContext(ctx).WithError(err).Error(action + " failed: provider not configured")
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.As(err, &providerErr):
		loggerWithContext(ctx).WithError(err).Warn(action + " failed: provider error")
		if providerErr.StatusCode >= http.StatusBadRequest && providerErr.StatusCode < http.StatusInternalServerError {
			return status.Error(codes.InvalidArgument, providerErr.Error())
		}
		return status.Error(codes.Unavailable, providerErr.Error())
	default:
		loggerWithContext(ctx).WithError(err).Error(action + " failed")
		return status.Error(codes.Internal, "internal server error")
	}
}

func decodeStruct(in *structpb.Struct, out any) error {
	if in == nil {
		in = &structpb.Struct{}
	}
	raw, err := protojson.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func encodeStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal server error")
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, status.Error(codes.Internal, "internal server error")
	}
	return out, nil
}
