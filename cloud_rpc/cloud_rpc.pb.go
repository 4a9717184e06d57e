/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

// Package cloud_rpc holds the gRPC bindings for the cloud-side services.
// Hand-maintained; keep in sync with cloud_rpc.proto.
package cloud_rpc

import (
	context "context"

	proto "github.com/golang/protobuf/proto"
	grpc "google.golang.org/grpc"
)

// Access-token decode result codes.
const (
	DecodeOK           = 0
	DecodeExpired      = 1
	DecodeInvalid      = 2
	DecodeBadSignature = 3
	DecodeMalformed    = 4
	DecodeInternal     = 5
)

// DecodeAccessTokenRequest carries the raw bearer token.
type DecodeAccessTokenRequest struct {
	AccessToken string `protobuf:"bytes,1,opt,name=access_token,json=accessToken,proto3" json:"access_token,omitempty"`
}

func (m *DecodeAccessTokenRequest) Reset()         { *m = DecodeAccessTokenRequest{} }
func (m *DecodeAccessTokenRequest) String() string { return proto.CompactTextString(m) }
func (*DecodeAccessTokenRequest) ProtoMessage()    {}

func (m *DecodeAccessTokenRequest) GetAccessToken() string {
	if m != nil {
		return m.AccessToken
	}
	return ""
}

// DecodeAccessTokenResponse reports the decode outcome.
type DecodeAccessTokenResponse struct {
	Code         int32  `protobuf:"varint,1,opt,name=code,proto3" json:"code,omitempty"`
	UserId       string `protobuf:"bytes,2,opt,name=user_id,json=userId,proto3" json:"user_id,omitempty"`
	ErrorMessage string `protobuf:"bytes,3,opt,name=error_message,json=errorMessage,proto3" json:"error_message,omitempty"`
}

func (m *DecodeAccessTokenResponse) Reset()         { *m = DecodeAccessTokenResponse{} }
func (m *DecodeAccessTokenResponse) String() string { return proto.CompactTextString(m) }
func (*DecodeAccessTokenResponse) ProtoMessage()    {}

func (m *DecodeAccessTokenResponse) GetCode() int32 {
	if m != nil {
		return m.Code
	}
	return 0
}

func (m *DecodeAccessTokenResponse) GetUserId() string {
	if m != nil {
		return m.UserId
	}
	return ""
}

func (m *DecodeAccessTokenResponse) GetErrorMessage() string {
	if m != nil {
		return m.ErrorMessage
	}
	return ""
}

// InferFallRequest carries the nine-element feature vector.
type InferFallRequest struct {
	Features []float64 `protobuf:"fixed64,1,rep,packed,name=features,proto3" json:"features,omitempty"`
}

func (m *InferFallRequest) Reset()         { *m = InferFallRequest{} }
func (m *InferFallRequest) String() string { return proto.CompactTextString(m) }
func (*InferFallRequest) ProtoMessage()    {}

func (m *InferFallRequest) GetFeatures() []float64 {
	if m != nil {
		return m.Features
	}
	return nil
}

// InferFallResponse carries the fall probability percentage.
type InferFallResponse struct {
	Probability float64 `protobuf:"fixed64,1,opt,name=probability,proto3" json:"probability,omitempty"`
}

func (m *InferFallResponse) Reset()         { *m = InferFallResponse{} }
func (m *InferFallResponse) String() string { return proto.CompactTextString(m) }
func (*InferFallResponse) ProtoMessage()    {}

func (m *InferFallResponse) GetProbability() float64 {
	if m != nil {
		return m.Probability
	}
	return 0
}

func init() {
	proto.RegisterType((*DecodeAccessTokenRequest)(nil), "cloud_rpc.DecodeAccessTokenRequest")
	proto.RegisterType((*DecodeAccessTokenResponse)(nil), "cloud_rpc.DecodeAccessTokenResponse")
	proto.RegisterType((*InferFallRequest)(nil), "cloud_rpc.InferFallRequest")
	proto.RegisterType((*InferFallResponse)(nil), "cloud_rpc.InferFallResponse")
}

// UserAuthServiceClient is the client API for UserAuthService.
type UserAuthServiceClient interface {
	DecodeAccessToken(ctx context.Context, in *DecodeAccessTokenRequest, opts ...grpc.CallOption) (*DecodeAccessTokenResponse, error)
}

type userAuthServiceClient struct {
	cc *grpc.ClientConn
}

// NewUserAuthServiceClient wraps cc as a UserAuthService client.
func NewUserAuthServiceClient(cc *grpc.ClientConn) UserAuthServiceClient {
	return &userAuthServiceClient{cc}
}

func (c *userAuthServiceClient) DecodeAccessToken(ctx context.Context, in *DecodeAccessTokenRequest, opts ...grpc.CallOption) (*DecodeAccessTokenResponse, error) {
	out := new(DecodeAccessTokenResponse)
	err := c.cc.Invoke(ctx, "/cloud_rpc.UserAuthService/DecodeAccessToken", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UserAuthServiceServer is the server API for UserAuthService.
type UserAuthServiceServer interface {
	DecodeAccessToken(context.Context, *DecodeAccessTokenRequest) (*DecodeAccessTokenResponse, error)
}

// RegisterUserAuthServiceServer attaches srv to s.
func RegisterUserAuthServiceServer(s *grpc.Server, srv UserAuthServiceServer) {
	s.RegisterService(&_UserAuthService_serviceDesc, srv)
}

func _UserAuthService_DecodeAccessToken_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(DecodeAccessTokenRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(UserAuthServiceServer).DecodeAccessToken(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/cloud_rpc.UserAuthService/DecodeAccessToken",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(UserAuthServiceServer).DecodeAccessToken(ctx, req.(*DecodeAccessTokenRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var _UserAuthService_serviceDesc = grpc.ServiceDesc{
	ServiceName: "cloud_rpc.UserAuthService",
	HandlerType: (*UserAuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "DecodeAccessToken",
			Handler:    _UserAuthService_DecodeAccessToken_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cloud_rpc.proto",
}

// FallInferenceServiceClient is the client API for FallInferenceService.
type FallInferenceServiceClient interface {
	InferFallProbability(ctx context.Context, in *InferFallRequest, opts ...grpc.CallOption) (*InferFallResponse, error)
}

type fallInferenceServiceClient struct {
	cc *grpc.ClientConn
}

// NewFallInferenceServiceClient wraps cc as a FallInferenceService client.
func NewFallInferenceServiceClient(cc *grpc.ClientConn) FallInferenceServiceClient {
	return &fallInferenceServiceClient{cc}
}

func (c *fallInferenceServiceClient) InferFallProbability(ctx context.Context, in *InferFallRequest, opts ...grpc.CallOption) (*InferFallResponse, error) {
	out := new(InferFallResponse)
	err := c.cc.Invoke(ctx, "/cloud_rpc.FallInferenceService/InferFallProbability", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FallInferenceServiceServer is the server API for FallInferenceService.
type FallInferenceServiceServer interface {
	InferFallProbability(context.Context, *InferFallRequest) (*InferFallResponse, error)
}

// RegisterFallInferenceServiceServer attaches srv to s.
func RegisterFallInferenceServiceServer(s *grpc.Server, srv FallInferenceServiceServer) {
	s.RegisterService(&_FallInferenceService_serviceDesc, srv)
}

func _FallInferenceService_InferFallProbability_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(InferFallRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FallInferenceServiceServer).InferFallProbability(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/cloud_rpc.FallInferenceService/InferFallProbability",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FallInferenceServiceServer).InferFallProbability(ctx, req.(*InferFallRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var _FallInferenceService_serviceDesc = grpc.ServiceDesc{
	ServiceName: "cloud_rpc.FallInferenceService",
	HandlerType: (*FallInferenceServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "InferFallProbability",
			Handler:    _FallInferenceService_InferFallProbability_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cloud_rpc.proto",
}
