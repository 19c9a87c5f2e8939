package chain

import (
	"crypto/tls"
	"errors"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

var (
	ErrGRPCConnectionInvalid = errors.New("gRPC connection is invalid")
)

// DialNode opens a gRPC connection to the chain node. Endpoints with a
// ":443" suffix get TLS transport credentials, everything else is dialed
// insecurely (local nodes).
func DialNode(endpoint string) (*grpc.ClientConn, error) {
	if endpoint == "" {
		return nil, errors.New("node gRPC endpoint cannot be empty")
	}

	var creds credentials.TransportCredentials
	if strings.HasSuffix(endpoint, ":443") {
		creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	} else {
		creds = insecure.NewCredentials()
	}

	conn, err := grpc.NewClient(endpoint, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// ValidateGRPCConnection validates the gRPC connection state.
func ValidateGRPCConnection(conn *grpc.ClientConn) error {
	if conn == nil {
		return errors.Join(ErrGRPCConnectionInvalid, errors.New("gRPC connection is nil"))
	}

	state := conn.GetState()
	if state == connectivity.Shutdown {
		return errors.Join(ErrGRPCConnectionInvalid, errors.New("gRPC connection is shutdown"))
	}
	if state == connectivity.TransientFailure {
		return errors.Join(ErrGRPCConnectionInvalid, errors.New("gRPC connection is in transient failure state"))
	}

	return nil
}
