package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "inventory.v1.InventoryService"

type InventoryServiceServer interface {
	Add(context.Context, *AddRequest) (*MovementResponse, error)
	Remove(context.Context, *RemoveRequest) (*MovementResponse, error)
	Adjust(context.Context, *AdjustRequest) (*MovementResponse, error)
	Lookup(context.Context, *ItemRequest) (*LookupResponse, error)
	LotsFor(context.Context, *ItemRequest) (*LotsResponse, error)
	LotInfo(context.Context, *LotRequest) (*LotInfoResponse, error)
	Inventory(context.Context, *InventoryRequest) (*InventoryResponse, error)
	History(context.Context, *HistoryRequest) (*HistoryResponse, error)
}

var InventoryService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InventoryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Add", InventoryServiceServer.Add),
		unary("Remove", InventoryServiceServer.Remove),
		unary("Adjust", InventoryServiceServer.Adjust),
		unary("Lookup", InventoryServiceServer.Lookup),
		unary("LotsFor", InventoryServiceServer.LotsFor),
		unary("LotInfo", InventoryServiceServer.LotInfo),
		unary("Inventory", InventoryServiceServer.Inventory),
		unary("History", InventoryServiceServer.History),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "inventory/v1/inventory.json",
}

func RegisterInventoryServiceServer(s grpc.ServiceRegistrar, srv InventoryServiceServer) {
	s.RegisterService(&InventoryService_ServiceDesc, srv)
}

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func unary[Req, Resp any](method string, call func(InventoryServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(InventoryServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod(method),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(InventoryServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Client calls InventoryService over a connection using the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Add(ctx context.Context, in *AddRequest, opts ...grpc.CallOption) (*MovementResponse, error) {
	return invoke[MovementResponse](ctx, c.cc, "Add", in, opts)
}

func (c *Client) Remove(ctx context.Context, in *RemoveRequest, opts ...grpc.CallOption) (*MovementResponse, error) {
	return invoke[MovementResponse](ctx, c.cc, "Remove", in, opts)
}

func (c *Client) Adjust(ctx context.Context, in *AdjustRequest, opts ...grpc.CallOption) (*MovementResponse, error) {
	return invoke[MovementResponse](ctx, c.cc, "Adjust", in, opts)
}

func (c *Client) Lookup(ctx context.Context, in *ItemRequest, opts ...grpc.CallOption) (*LookupResponse, error) {
	return invoke[LookupResponse](ctx, c.cc, "Lookup", in, opts)
}

func (c *Client) LotsFor(ctx context.Context, in *ItemRequest, opts ...grpc.CallOption) (*LotsResponse, error) {
	return invoke[LotsResponse](ctx, c.cc, "LotsFor", in, opts)
}

func (c *Client) LotInfo(ctx context.Context, in *LotRequest, opts ...grpc.CallOption) (*LotInfoResponse, error) {
	return invoke[LotInfoResponse](ctx, c.cc, "LotInfo", in, opts)
}

func (c *Client) Inventory(ctx context.Context, in *InventoryRequest, opts ...grpc.CallOption) (*InventoryResponse, error) {
	return invoke[InventoryResponse](ctx, c.cc, "Inventory", in, opts)
}

func (c *Client) History(ctx context.Context, in *HistoryRequest, opts ...grpc.CallOption) (*HistoryResponse, error) {
	return invoke[HistoryResponse](ctx, c.cc, "History", in, opts)
}
