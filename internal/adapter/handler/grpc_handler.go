package handler

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/port"
)

const serviceName = "marketplace.v1.Marketplace"

// Metadata keys carrying the caller identity on gRPC calls.
const (
	MetadataUserID   = "x-user-id"
	MetadataUserType = "x-user-type"
)

// JSONCodec lets the service run without generated protobuf types. Clients
// select it with grpc.CallContentSubtype(JSONCodecName).
type JSONCodec struct{}

const JSONCodecName = "json"

func (JSONCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (JSONCodec) Name() string                       { return JSONCodecName }

func init() {
	encoding.RegisterCodec(JSONCodec{})
}

type RegisterRequest struct {
	Username string `json:"username"`
	Type     string `json:"type"`
}

type RegisterResponse struct {
	ID string `json:"id"`
}

type ListSellersRequest struct{}

type SellerCatalogRequest struct {
	SellerID string `json:"seller_id"`
}

type CreateOrderRequest struct {
	SellerID string   `json:"seller_id"`
	Items    []string `json:"items"`
}

type CreateOrderResponse struct {
	OrderID string   `json:"order_id"`
	Items   []string `json:"items"`
}

type SellerOrdersRequest struct{}

type CreateCatalogRequest struct {
	Items []string `json:"items"`
}

type CreateCatalogResponse struct{}

// MarketplaceServer is the gRPC surface of the marketplace.
type MarketplaceServer interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	ListSellers(context.Context, *ListSellersRequest) (*domain.SellerList, error)
	SellerCatalog(context.Context, *SellerCatalogRequest) (*domain.SellerCatalog, error)
	CreateOrder(context.Context, *CreateOrderRequest) (*CreateOrderResponse, error)
	SellerOrders(context.Context, *SellerOrdersRequest) (*domain.SellerOrders, error)
	CreateCatalog(context.Context, *CreateCatalogRequest) (*CreateCatalogResponse, error)
}

type GRPCHandler struct {
	svc port.MarketplaceService
	log *zap.Logger
}

func NewGRPCHandler(svc port.MarketplaceService, log *zap.Logger) *GRPCHandler {
	return &GRPCHandler{svc: svc, log: log}
}

// RegisterMarketplaceServer attaches srv to s.
func RegisterMarketplaceServer(s grpc.ServiceRegistrar, srv MarketplaceServer) {
	s.RegisterService(&marketplaceServiceDesc, srv)
}

func (h *GRPCHandler) Register(ctx context.Context, req *RegisterRequest) (*RegisterResponse, error) {
	user, err := h.svc.RegisterUser(ctx, req.Username, domain.Role(req.Type))
	if err != nil {
		return nil, h.toStatus("Register", err)
	}
	return &RegisterResponse{ID: user.ID}, nil
}

func (h *GRPCHandler) ListSellers(ctx context.Context, _ *ListSellersRequest) (*domain.SellerList, error) {
	if _, err := callerFromContext(ctx, domain.RoleBuyer); err != nil {
		return nil, h.toStatus("ListSellers", err)
	}

	sellers, err := h.svc.ListSellers(ctx)
	if err != nil {
		return nil, h.toStatus("ListSellers", err)
	}
	return &sellers, nil
}

func (h *GRPCHandler) SellerCatalog(ctx context.Context, req *SellerCatalogRequest) (*domain.SellerCatalog, error) {
	if _, err := callerFromContext(ctx, domain.RoleBuyer); err != nil {
		return nil, h.toStatus("SellerCatalog", err)
	}
	sellerID, err := canonicalSellerID(req.SellerID)
	if err != nil {
		return nil, h.toStatus("SellerCatalog", err)
	}

	catalog, err := h.svc.SellerCatalog(ctx, sellerID)
	if err != nil {
		return nil, h.toStatus("SellerCatalog", err)
	}
	return &catalog, nil
}

func (h *GRPCHandler) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	caller, err := callerFromContext(ctx, domain.RoleBuyer)
	if err != nil {
		return nil, h.toStatus("CreateOrder", err)
	}
	sellerID, err := canonicalSellerID(req.SellerID)
	if err != nil {
		return nil, h.toStatus("CreateOrder", err)
	}

	order, err := h.svc.CreateOrder(ctx, caller.userID, sellerID, req.Items)
	if err != nil {
		return nil, h.toStatus("CreateOrder", err)
	}
	return &CreateOrderResponse{OrderID: order.ID, Items: order.ItemIDs}, nil
}

func (h *GRPCHandler) SellerOrders(ctx context.Context, _ *SellerOrdersRequest) (*domain.SellerOrders, error) {
	caller, err := callerFromContext(ctx, domain.RoleSeller)
	if err != nil {
		return nil, h.toStatus("SellerOrders", err)
	}

	orders, err := h.svc.SellerOrders(ctx, caller.userID)
	if err != nil {
		return nil, h.toStatus("SellerOrders", err)
	}
	return &orders, nil
}

func (h *GRPCHandler) CreateCatalog(ctx context.Context, req *CreateCatalogRequest) (*CreateCatalogResponse, error) {
	caller, err := callerFromContext(ctx, domain.RoleSeller)
	if err != nil {
		return nil, h.toStatus("CreateCatalog", err)
	}

	if err := h.svc.CreateCatalog(ctx, caller.userID, req.Items); err != nil {
		return nil, h.toStatus("CreateCatalog", err)
	}
	return &CreateCatalogResponse{}, nil
}

func (h *GRPCHandler) toStatus(method string, err error) error {
	kind := classify(err)
	if kind.code == kindInternal.code || kind.code == kindUnavailable.code {
		h.log.Error("rpc failed", zap.String("method", method), zap.Error(err))
	}
	return status.Error(kind.code, kind.message)
}

func callerFromContext(ctx context.Context, role domain.Role) (identity, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	caller, err := parseIdentity(first(md.Get(MetadataUserID)), first(md.Get(MetadataUserType)))
	if err != nil {
		return identity{}, err
	}
	if err := caller.require(role); err != nil {
		return identity{}, err
	}
	return caller, nil
}

func first(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

var marketplaceServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*MarketplaceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Register", MarketplaceServer.Register),
		unary("ListSellers", MarketplaceServer.ListSellers),
		unary("SellerCatalog", MarketplaceServer.SellerCatalog),
		unary("CreateOrder", MarketplaceServer.CreateOrder),
		unary("SellerOrders", MarketplaceServer.SellerOrders),
		unary("CreateCatalog", MarketplaceServer.CreateCatalog),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "marketplace/v1/marketplace",
}

func unary[Req, Resp any](name string, call func(MarketplaceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(MarketplaceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + serviceName + "/" + name,
			}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(MarketplaceServer), ctx, req.(*Req))
			})
		},
	}
}

// MarketplaceClient calls a remote MarketplaceServer over the JSON codec.
type MarketplaceClient struct {
	cc grpc.ClientConnInterface
}

func NewMarketplaceClient(cc grpc.ClientConnInterface) *MarketplaceClient {
	return &MarketplaceClient{cc: cc}
}

// WithIdentity attaches the caller identity to outgoing calls made with ctx.
func WithIdentity(ctx context.Context, userID string, role domain.Role) context.Context {
	return metadata.AppendToOutgoingContext(ctx, MetadataUserID, userID, MetadataUserType, string(role))
}

func invoke[Resp any](ctx context.Context, c *MarketplaceClient, method string, req any, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(JSONCodecName)}, opts...)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/"+method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MarketplaceClient) Register(ctx context.Context, req *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error) {
	return invoke[RegisterResponse](ctx, c, "Register", req, opts...)
}

func (c *MarketplaceClient) ListSellers(ctx context.Context, req *ListSellersRequest, opts ...grpc.CallOption) (*domain.SellerList, error) {
	return invoke[domain.SellerList](ctx, c, "ListSellers", req, opts...)
}

func (c *MarketplaceClient) SellerCatalog(ctx context.Context, req *SellerCatalogRequest, opts ...grpc.CallOption) (*domain.SellerCatalog, error) {
	return invoke[domain.SellerCatalog](ctx, c, "SellerCatalog", req, opts...)
}

func (c *MarketplaceClient) CreateOrder(ctx context.Context, req *CreateOrderRequest, opts ...grpc.CallOption) (*CreateOrderResponse, error) {
	return invoke[CreateOrderResponse](ctx, c, "CreateOrder", req, opts...)
}

func (c *MarketplaceClient) SellerOrders(ctx context.Context, req *SellerOrdersRequest, opts ...grpc.CallOption) (*domain.SellerOrders, error) {
	return invoke[domain.SellerOrders](ctx, c, "SellerOrders", req, opts...)
}

func (c *MarketplaceClient) CreateCatalog(ctx context.Context, req *CreateCatalogRequest, opts ...grpc.CallOption) (*CreateCatalogResponse, error) {
	return invoke[CreateCatalogResponse](ctx, c, "CreateCatalog", req, opts...)
}
