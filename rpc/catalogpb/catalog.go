// Package catalogpb exposes a Catalog over gRPC, letting a host introspect
// the action catalog from outside the process (spec §3, Action Catalog:
// "read-only outside registration"). It is handwritten rather than
// protoc-generated: requests and responses use the already-compiled
// well-known protobuf types (structpb, wrapperspb, emptypb) as their wire
// shape, and the service is registered with grpc via a manually built
// grpc.ServiceDesc, the same low-level mechanism generated code uses.
package catalogpb

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"goa.design/convo/runtime/catalog"
)

// serviceName is the fully qualified gRPC service name clients dial.
const serviceName = "goa.design.convo.catalog.v1.CatalogService"

// CatalogServiceServer is implemented by a type that can answer catalog
// introspection requests. Server adapts a *catalog.Catalog to this
// interface.
type CatalogServiceServer interface {
	// Describe returns every registered action as a structpb.Struct.
	Describe(ctx context.Context, req *emptypb.Empty) (*structpb.ListValue, error)
	// ByID returns one action by id, or a NotFound status if unregistered.
	ByID(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
}

// Server adapts a *catalog.Catalog to CatalogServiceServer.
type Server struct {
	cat *catalog.Catalog
}

// NewServer returns a Server backed by cat.
func NewServer(cat *catalog.Catalog) *Server {
	return &Server{cat: cat}
}

// Describe implements CatalogServiceServer.
func (s *Server) Describe(_ context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	descs := s.cat.All()
	values := make([]*structpb.Value, 0, len(descs))
	for _, d := range descs {
		v, err := structpb.NewValue(actionToMap(d))
		if err != nil {
			return nil, status.Errorf(codes.Internal, "encode action %q: %v", d.ID, err)
		}
		values = append(values, v)
	}
	return &structpb.ListValue{Values: values}, nil
}

// ByID implements CatalogServiceServer.
func (s *Server) ByID(_ context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req == nil || req.Value == "" {
		return nil, status.Error(codes.InvalidArgument, "action id is required")
	}
	desc, ok := s.cat.ByID(catalog.Ident(req.Value))
	if !ok {
		return nil, status.Errorf(codes.NotFound, "action %q is not registered", req.Value)
	}
	st, err := structpb.NewStruct(actionToMap(desc))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode action %q: %v", desc.ID, err)
	}
	return st, nil
}

func actionToMap(d *catalog.ActionDescriptor) map[string]any {
	params := make([]any, 0, len(d.Params))
	for _, p := range d.Params {
		params = append(params, map[string]any{
			"name":            p.Name,
			"type":            string(p.Type),
			"nested_schema":   p.NestedSchemaTag,
			"description":     p.Description,
			"allowed_pattern": p.AllowedPattern,
			"examples":        stringsToAny(p.Examples),
		})
	}
	return map[string]any{
		"id":          string(d.ID),
		"description": d.Description,
		"params":      params,
		"context_key": d.ContextKey,
	}
}

func stringsToAny(in []string) []any {
	out := make([]any, 0, len(in))
	for _, s := range in {
		out = append(out, s)
	}
	return out
}

// RegisterCatalogServiceServer registers srv on s using a handwritten
// grpc.ServiceDesc.
func RegisterCatalogServiceServer(s grpc.ServiceRegistrar, srv CatalogServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*CatalogServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Describe",
			Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
				in := new(emptypb.Empty)
				if err := dec(in); err != nil {
					return nil, err
				}
				if interceptor == nil {
					return srv.(CatalogServiceServer).Describe(ctx, in)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/Describe"}
				handler := func(ctx context.Context, req any) (any, error) {
					return srv.(CatalogServiceServer).Describe(ctx, req.(*emptypb.Empty))
				}
				return interceptor(ctx, in, info, handler)
			},
		},
		{
			MethodName: "ByID",
			Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
				in := new(wrapperspb.StringValue)
				if err := dec(in); err != nil {
					return nil, err
				}
				if interceptor == nil {
					return srv.(CatalogServiceServer).ByID(ctx, in)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/ByID"}
				handler := func(ctx context.Context, req any) (any, error) {
					return srv.(CatalogServiceServer).ByID(ctx, req.(*wrapperspb.StringValue))
				}
				return interceptor(ctx, in, info, handler)
			},
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "catalogpb/catalog.go",
}

// Client calls a remote CatalogServiceServer.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient returns a Client using cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Describe calls the remote Describe method.
func (c *Client) Describe(ctx context.Context, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/Describe", new(emptypb.Empty), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ByID calls the remote ByID method.
func (c *Client) ByID(ctx context.Context, id string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if id == "" {
		return nil, errors.New("action id is required")
	}
	out := new(structpb.Struct)
	in := wrapperspb.String(id)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/ByID", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
