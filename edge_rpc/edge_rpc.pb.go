/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

// Package edge_rpc holds the gRPC bindings for the edge-local services.
// Hand-maintained; keep in sync with edge_rpc.proto.
package edge_rpc

import (
	context "context"

	proto "github.com/golang/protobuf/proto"
	grpc "google.golang.org/grpc"
)

// ScanRequest asks the scan facade for one discovery pass.
type ScanRequest struct {
}

func (m *ScanRequest) Reset()         { *m = ScanRequest{} }
func (m *ScanRequest) String() string { return proto.CompactTextString(m) }
func (*ScanRequest) ProtoMessage()    {}

// ScanResponse carries the serialized scan result.
type ScanResponse struct {
	Result string `protobuf:"bytes,1,opt,name=result,proto3" json:"result,omitempty"`
}

func (m *ScanResponse) Reset()         { *m = ScanResponse{} }
func (m *ScanResponse) String() string { return proto.CompactTextString(m) }
func (*ScanResponse) ProtoMessage()    {}

func (m *ScanResponse) GetResult() string {
	if m != nil {
		return m.Result
	}
	return ""
}

// GetNetworkConfigRequest names the interface to inspect; empty selects
// the default-route interface.
type GetNetworkConfigRequest struct {
	InterfaceName string `protobuf:"bytes,1,opt,name=interface_name,json=interfaceName,proto3" json:"interface_name,omitempty"`
}

func (m *GetNetworkConfigRequest) Reset()         { *m = GetNetworkConfigRequest{} }
func (m *GetNetworkConfigRequest) String() string { return proto.CompactTextString(m) }
func (*GetNetworkConfigRequest) ProtoMessage()    {}

func (m *GetNetworkConfigRequest) GetInterfaceName() string {
	if m != nil {
		return m.InterfaceName
	}
	return ""
}

// NetworkConfig is the effective configuration of one interface.
type NetworkConfig struct {
	InterfaceName string   `protobuf:"bytes,1,opt,name=interface_name,json=interfaceName,proto3" json:"interface_name,omitempty"`
	Ip            string   `protobuf:"bytes,2,opt,name=ip,proto3" json:"ip,omitempty"`
	Mac           string   `protobuf:"bytes,3,opt,name=mac,proto3" json:"mac,omitempty"`
	Gateway       string   `protobuf:"bytes,4,opt,name=gateway,proto3" json:"gateway,omitempty"`
	Subnet        string   `protobuf:"bytes,5,opt,name=subnet,proto3" json:"subnet,omitempty"`
	Dns           []string `protobuf:"bytes,6,rep,name=dns,proto3" json:"dns,omitempty"`
	Mode          string   `protobuf:"bytes,7,opt,name=mode,proto3" json:"mode,omitempty"`
}

func (m *NetworkConfig) Reset()         { *m = NetworkConfig{} }
func (m *NetworkConfig) String() string { return proto.CompactTextString(m) }
func (*NetworkConfig) ProtoMessage()    {}

func (m *NetworkConfig) GetInterfaceName() string {
	if m != nil {
		return m.InterfaceName
	}
	return ""
}

func (m *NetworkConfig) GetIp() string {
	if m != nil {
		return m.Ip
	}
	return ""
}

func (m *NetworkConfig) GetMac() string {
	if m != nil {
		return m.Mac
	}
	return ""
}

func (m *NetworkConfig) GetGateway() string {
	if m != nil {
		return m.Gateway
	}
	return ""
}

func (m *NetworkConfig) GetSubnet() string {
	if m != nil {
		return m.Subnet
	}
	return ""
}

func (m *NetworkConfig) GetDns() []string {
	if m != nil {
		return m.Dns
	}
	return nil
}

func (m *NetworkConfig) GetMode() string {
	if m != nil {
		return m.Mode
	}
	return ""
}

// UpdateNetworkConfigResponse reports the outcome of a mutation.
type UpdateNetworkConfigResponse struct {
	Success bool   `protobuf:"varint,1,opt,name=success,proto3" json:"success,omitempty"`
	Message string `protobuf:"bytes,2,opt,name=message,proto3" json:"message,omitempty"`
}

func (m *UpdateNetworkConfigResponse) Reset()         { *m = UpdateNetworkConfigResponse{} }
func (m *UpdateNetworkConfigResponse) String() string { return proto.CompactTextString(m) }
func (*UpdateNetworkConfigResponse) ProtoMessage()    {}

func (m *UpdateNetworkConfigResponse) GetSuccess() bool {
	if m != nil {
		return m.Success
	}
	return false
}

func (m *UpdateNetworkConfigResponse) GetMessage() string {
	if m != nil {
		return m.Message
	}
	return ""
}

func init() {
	proto.RegisterType((*ScanRequest)(nil), "edge_rpc.ScanRequest")
	proto.RegisterType((*ScanResponse)(nil), "edge_rpc.ScanResponse")
	proto.RegisterType((*GetNetworkConfigRequest)(nil), "edge_rpc.GetNetworkConfigRequest")
	proto.RegisterType((*NetworkConfig)(nil), "edge_rpc.NetworkConfig")
	proto.RegisterType((*UpdateNetworkConfigResponse)(nil), "edge_rpc.UpdateNetworkConfigResponse")
}

// IPCScanServiceClient is the client API for IPCScanService.
type IPCScanServiceClient interface {
	Scan(ctx context.Context, in *ScanRequest, opts ...grpc.CallOption) (*ScanResponse, error)
}

type iPCScanServiceClient struct {
	cc *grpc.ClientConn
}

// NewIPCScanServiceClient wraps cc as an IPCScanService client.
func NewIPCScanServiceClient(cc *grpc.ClientConn) IPCScanServiceClient {
	return &iPCScanServiceClient{cc}
}

func (c *iPCScanServiceClient) Scan(ctx context.Context, in *ScanRequest, opts ...grpc.CallOption) (*ScanResponse, error) {
	out := new(ScanResponse)
	err := c.cc.Invoke(ctx, "/edge_rpc.IPCScanService/Scan", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// IPCScanServiceServer is the server API for IPCScanService.
type IPCScanServiceServer interface {
	Scan(context.Context, *ScanRequest) (*ScanResponse, error)
}

// RegisterIPCScanServiceServer attaches srv to s.
func RegisterIPCScanServiceServer(s *grpc.Server, srv IPCScanServiceServer) {
	s.RegisterService(&_IPCScanService_serviceDesc, srv)
}

func _IPCScanService_Scan_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ScanRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IPCScanServiceServer).Scan(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/edge_rpc.IPCScanService/Scan",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(IPCScanServiceServer).Scan(ctx, req.(*ScanRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var _IPCScanService_serviceDesc = grpc.ServiceDesc{
	ServiceName: "edge_rpc.IPCScanService",
	HandlerType: (*IPCScanServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Scan",
			Handler:    _IPCScanService_Scan_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "edge_rpc.proto",
}

// NetworkServiceClient is the client API for NetworkService.
type NetworkServiceClient interface {
	GetNetworkConfig(ctx context.Context, in *GetNetworkConfigRequest, opts ...grpc.CallOption) (*NetworkConfig, error)
	UpdateNetworkConfig(ctx context.Context, in *NetworkConfig, opts ...grpc.CallOption) (*UpdateNetworkConfigResponse, error)
}

type networkServiceClient struct {
	cc *grpc.ClientConn
}

// NewNetworkServiceClient wraps cc as a NetworkService client.
func NewNetworkServiceClient(cc *grpc.ClientConn) NetworkServiceClient {
	return &networkServiceClient{cc}
}

func (c *networkServiceClient) GetNetworkConfig(ctx context.Context, in *GetNetworkConfigRequest, opts ...grpc.CallOption) (*NetworkConfig, error) {
	out := new(NetworkConfig)
	err := c.cc.Invoke(ctx, "/edge_rpc.NetworkService/GetNetworkConfig", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *networkServiceClient) UpdateNetworkConfig(ctx context.Context, in *NetworkConfig, opts ...grpc.CallOption) (*UpdateNetworkConfigResponse, error) {
	out := new(UpdateNetworkConfigResponse)
	err := c.cc.Invoke(ctx, "/edge_rpc.NetworkService/UpdateNetworkConfig", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// NetworkServiceServer is the server API for NetworkService.
type NetworkServiceServer interface {
	GetNetworkConfig(context.Context, *GetNetworkConfigRequest) (*NetworkConfig, error)
	UpdateNetworkConfig(context.Context, *NetworkConfig) (*UpdateNetworkConfigResponse, error)
}

// RegisterNetworkServiceServer attaches srv to s.
func RegisterNetworkServiceServer(s *grpc.Server, srv NetworkServiceServer) {
	s.RegisterService(&_NetworkService_serviceDesc, srv)
}

func _NetworkService_GetNetworkConfig_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetNetworkConfigRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NetworkServiceServer).GetNetworkConfig(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/edge_rpc.NetworkService/GetNetworkConfig",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(NetworkServiceServer).GetNetworkConfig(ctx, req.(*GetNetworkConfigRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _NetworkService_UpdateNetworkConfig_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(NetworkConfig)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NetworkServiceServer).UpdateNetworkConfig(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/edge_rpc.NetworkService/UpdateNetworkConfig",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(NetworkServiceServer).UpdateNetworkConfig(ctx, req.(*NetworkConfig))
	}
	return interceptor(ctx, in, info, handler)
}

var _NetworkService_serviceDesc = grpc.ServiceDesc{
	ServiceName: "edge_rpc.NetworkService",
	HandlerType: (*NetworkServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetNetworkConfig",
			Handler:    _NetworkService_GetNetworkConfig_Handler,
		},
		{
			MethodName: "UpdateNetworkConfig",
			Handler:    _NetworkService_UpdateNetworkConfig_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "edge_rpc.proto",
}
