package handler

import (
	"context"
	"log/slog"
	"net/http"

	"google.golang.org/grpc"

	"github.com/rl1809/order-refund/internal/core/domain"
	"github.com/rl1809/order-refund/internal/core/service"
)

const refundUnitsMethod = "/refund.v1.RefundService/RefundUnits"

type RefundUnitsRequest struct {
	OrderNumber string  `json:"order_number"`
	UnitIDs     []int64 `json:"unit_ids"`
	ShipmentIDs []int64 `json:"shipment_ids"`
}

type RefundUnitsResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type RefundServiceServer interface {
	RefundUnits(ctx context.Context, req *RefundUnitsRequest) (*RefundUnitsResponse, error)
}

type GRPCHandler struct {
	log     *slog.Logger
	refunds service.CommandHandler
}

func NewGRPCHandler(log *slog.Logger, refunds service.CommandHandler) *GRPCHandler {
	return &GRPCHandler{log: log, refunds: refunds}
}

func RegisterRefundServiceServer(s grpc.ServiceRegistrar, srv RefundServiceServer) {
	s.RegisterService(&refundServiceDesc, srv)
}

func (h *GRPCHandler) RefundUnits(ctx context.Context, req *RefundUnitsRequest) (*RefundUnitsResponse, error) {
	if req.OrderNumber == "" {
		return &RefundUnitsResponse{
			Success: false,
			Message: "missing required fields",
		}, nil
	}

	err := h.refunds.Handle(ctx, domain.NewRefundUnits(req.OrderNumber, req.UnitIDs, req.ShipmentIDs))
	if err != nil {
		status, message := classify(err)
		if status == http.StatusInternalServerError {
			h.log.Error("refund units failed", "order_number", req.OrderNumber, "err", err)
		}
		return &RefundUnitsResponse{
			Success: false,
			Message: message,
		}, nil
	}

	return &RefundUnitsResponse{
		Success: true,
		Message: "units refunded",
	}, nil
}

var refundServiceDesc = grpc.ServiceDesc{
	ServiceName: "refund.v1.RefundService",
	HandlerType: (*RefundServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "RefundUnits",
			Handler:    refundUnitsHandler,
		},
	},
	Streams: []grpc.StreamDesc{},
}

func refundUnitsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(RefundUnitsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RefundServiceServer).RefundUnits(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: refundUnitsMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RefundServiceServer).RefundUnits(ctx, req.(*RefundUnitsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// RefundServiceClient calls the refund service over a connection using the json codec.
type RefundServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewRefundServiceClient(cc grpc.ClientConnInterface) *RefundServiceClient {
	return &RefundServiceClient{cc: cc}
}

func (c *RefundServiceClient) RefundUnits(ctx context.Context, req *RefundUnitsRequest, opts ...grpc.CallOption) (*RefundUnitsResponse, error) {
	out := new(RefundUnitsResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(jsonCodecName)}, opts...)
	if err := c.cc.Invoke(ctx, refundUnitsMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
