/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

package main

import (
	"context"
	"testing"

	"redsafe/ap_common/iptool"
	"redsafe/edge_rpc"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func init() {
	slog = zap.NewNop().Sugar()
}

func TestGetNetworkConfig(t *testing.T) {
	srv := &networkServer{
		get: func(name string) (*iptool.Config, error) {
			assert.Equal(t, "eth0", name)
			return &iptool.Config{
				Interface: "eth0",
				IP:        "192.168.1.10",
				Mac:       "AA:BB:CC:DD:EE:FF",
				Gateway:   "192.168.1.1",
				Subnet:    "255.255.255.0",
				DNS:       []string{"1.1.1.1", "8.8.8.8"},
				Mode:      "dhcp",
			}, nil
		},
	}

	resp, err := srv.GetNetworkConfig(context.Background(),
		&edge_rpc.GetNetworkConfigRequest{InterfaceName: "eth0"})
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.10", resp.Ip)
	assert.Equal(t, []string{"1.1.1.1", "8.8.8.8"}, resp.Dns)
	assert.Equal(t, "dhcp", resp.Mode)
}

func TestGetNetworkConfigErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code codes.Code
	}{
		{"not found", iptool.ErrNotFound, codes.NotFound},
		{"wrapped not found", errors.Wrap(iptool.ErrNotFound, "get eth9"),
			codes.NotFound},
		{"unsupported", iptool.ErrUnsupported, codes.Unimplemented},
		{"other", errors.New("netlink broke"), codes.Internal},
	}
	for _, tc := range cases {
		srv := &networkServer{
			get: func(string) (*iptool.Config, error) { return nil, tc.err },
		}
		_, err := srv.GetNetworkConfig(context.Background(),
			&edge_rpc.GetNetworkConfigRequest{})
		require.Error(t, err, tc.name)
		assert.Equal(t, tc.code, status.Code(err), tc.name)
	}
}

func TestUpdateNetworkConfig(t *testing.T) {
	var got *iptool.Config
	srv := &networkServer{
		update: func(cfg *iptool.Config) error {
			got = cfg
			return nil
		},
	}

	resp, err := srv.UpdateNetworkConfig(context.Background(),
		&edge_rpc.NetworkConfig{
			InterfaceName: "eth0",
			Ip:            "192.168.1.20",
			Dns:           []string{"1.1.1.1"},
			Mode:          "static",
		})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.NotNil(t, got)
	assert.Equal(t, "192.168.1.20", got.IP)
	assert.Equal(t, "static", got.Mode)
}

func TestUpdateNetworkConfigFailure(t *testing.T) {
	srv := &networkServer{
		update: func(*iptool.Config) error {
			return errors.New("interface name is required")
		},
	}

	resp, err := srv.UpdateNetworkConfig(context.Background(),
		&edge_rpc.NetworkConfig{})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "required")

	srv.update = func(*iptool.Config) error { return iptool.ErrUnsupported }
	_, err = srv.UpdateNetworkConfig(context.Background(),
		&edge_rpc.NetworkConfig{InterfaceName: "eth0"})
	require.Error(t, err)
	assert.Equal(t, codes.Unimplemented, status.Code(err))
}
