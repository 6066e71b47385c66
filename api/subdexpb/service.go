package subdexpb

import (
	"context"

	"google.golang.org/grpc"
)

const (
	Node_SubmitExtrinsic_FullMethodName = "/subdex.v1.Node/SubmitExtrinsic"
	Node_AuthorBlock_FullMethodName     = "/subdex.v1.Node/AuthorBlock"
	Node_InjectInbound_FullMethodName   = "/subdex.v1.Node/InjectInbound"
	Node_GetBook_FullMethodName         = "/subdex.v1.Node/GetBook"
	Node_GetBalance_FullMethodName      = "/subdex.v1.Node/GetBalance"
	Node_GetChannel_FullMethodName      = "/subdex.v1.Node/GetChannel"
	Node_GetHead_FullMethodName         = "/subdex.v1.Node/GetHead"
)

// NodeServer is the server API for the subdex.v1.Node service.
type NodeServer interface {
	SubmitExtrinsic(context.Context, *SubmitExtrinsicRequest) (*SubmitExtrinsicResponse, error)
	AuthorBlock(context.Context, *AuthorBlockRequest) (*AuthorBlockResponse, error)
	InjectInbound(context.Context, *InjectInboundRequest) (*InjectInboundResponse, error)
	GetBook(context.Context, *GetBookRequest) (*GetBookResponse, error)
	GetBalance(context.Context, *GetBalanceRequest) (*GetBalanceResponse, error)
	GetChannel(context.Context, *GetChannelRequest) (*GetChannelResponse, error)
	GetHead(context.Context, *GetHeadRequest) (*GetHeadResponse, error)
}

func RegisterNodeServer(s grpc.ServiceRegistrar, srv NodeServer) {
	s.RegisterService(&Node_ServiceDesc, srv)
}

func _Node_SubmitExtrinsic_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SubmitExtrinsicRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NodeServer).SubmitExtrinsic(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Node_SubmitExtrinsic_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(NodeServer).SubmitExtrinsic(ctx, req.(*SubmitExtrinsicRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Node_AuthorBlock_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(AuthorBlockRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NodeServer).AuthorBlock(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Node_AuthorBlock_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(NodeServer).AuthorBlock(ctx, req.(*AuthorBlockRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Node_InjectInbound_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(InjectInboundRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NodeServer).InjectInbound(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Node_InjectInbound_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(NodeServer).InjectInbound(ctx, req.(*InjectInboundRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Node_GetBook_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetBookRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NodeServer).GetBook(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Node_GetBook_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(NodeServer).GetBook(ctx, req.(*GetBookRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Node_GetBalance_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetBalanceRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NodeServer).GetBalance(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Node_GetBalance_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(NodeServer).GetBalance(ctx, req.(*GetBalanceRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Node_GetChannel_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetChannelRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NodeServer).GetChannel(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Node_GetChannel_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(NodeServer).GetChannel(ctx, req.(*GetChannelRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Node_GetHead_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetHeadRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NodeServer).GetHead(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Node_GetHead_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(NodeServer).GetHead(ctx, req.(*GetHeadRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var Node_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "subdex.v1.Node",
	HandlerType: (*NodeServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SubmitExtrinsic", Handler: _Node_SubmitExtrinsic_Handler},
		{MethodName: "AuthorBlock", Handler: _Node_AuthorBlock_Handler},
		{MethodName: "InjectInbound", Handler: _Node_InjectInbound_Handler},
		{MethodName: "GetBook", Handler: _Node_GetBook_Handler},
		{MethodName: "GetBalance", Handler: _Node_GetBalance_Handler},
		{MethodName: "GetChannel", Handler: _Node_GetChannel_Handler},
		{MethodName: "GetHead", Handler: _Node_GetHead_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/subdexpb/subdex.proto",
}

// NodeClient is the client API for the subdex.v1.Node service. Every
// call forces Codec so callers need no codec registration of their own.
type NodeClient interface {
	SubmitExtrinsic(ctx context.Context, in *SubmitExtrinsicRequest, opts ...grpc.CallOption) (*SubmitExtrinsicResponse, error)
	AuthorBlock(ctx context.Context, in *AuthorBlockRequest, opts ...grpc.CallOption) (*AuthorBlockResponse, error)
	InjectInbound(ctx context.Context, in *InjectInboundRequest, opts ...grpc.CallOption) (*InjectInboundResponse, error)
	GetBook(ctx context.Context, in *GetBookRequest, opts ...grpc.CallOption) (*GetBookResponse, error)
	GetBalance(ctx context.Context, in *GetBalanceRequest, opts ...grpc.CallOption) (*GetBalanceResponse, error)
	GetChannel(ctx context.Context, in *GetChannelRequest, opts ...grpc.CallOption) (*GetChannelResponse, error)
	GetHead(ctx context.Context, in *GetHeadRequest, opts ...grpc.CallOption) (*GetHeadResponse, error)
}

type nodeClient struct {
	cc grpc.ClientConnInterface
}

func NewNodeClient(cc grpc.ClientConnInterface) NodeClient {
	return &nodeClient{cc}
}

func (c *nodeClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.ForceCodec(Codec{})}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *nodeClient) SubmitExtrinsic(ctx context.Context, in *SubmitExtrinsicRequest, opts ...grpc.CallOption) (*SubmitExtrinsicResponse, error) {
	out := new(SubmitExtrinsicResponse)
	if err := c.invoke(ctx, Node_SubmitExtrinsic_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *nodeClient) AuthorBlock(ctx context.Context, in *AuthorBlockRequest, opts ...grpc.CallOption) (*AuthorBlockResponse, error) {
	out := new(AuthorBlockResponse)
	if err := c.invoke(ctx, Node_AuthorBlock_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *nodeClient) InjectInbound(ctx context.Context, in *InjectInboundRequest, opts ...grpc.CallOption) (*InjectInboundResponse, error) {
	out := new(InjectInboundResponse)
	if err := c.invoke(ctx, Node_InjectInbound_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *nodeClient) GetBook(ctx context.Context, in *GetBookRequest, opts ...grpc.CallOption) (*GetBookResponse, error) {
	out := new(GetBookResponse)
	if err := c.invoke(ctx, Node_GetBook_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *nodeClient) GetBalance(ctx context.Context, in *GetBalanceRequest, opts ...grpc.CallOption) (*GetBalanceResponse, error) {
	out := new(GetBalanceResponse)
	if err := c.invoke(ctx, Node_GetBalance_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *nodeClient) GetChannel(ctx context.Context, in *GetChannelRequest, opts ...grpc.CallOption) (*GetChannelResponse, error) {
	out := new(GetChannelResponse)
	if err := c.invoke(ctx, Node_GetChannel_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *nodeClient) GetHead(ctx context.Context, in *GetHeadRequest, opts ...grpc.CallOption) (*GetHeadResponse, error) {
	out := new(GetHeadResponse)
	if err := c.invoke(ctx, Node_GetHead_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
