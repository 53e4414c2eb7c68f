package operators

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	const op = "operators.GetCredential"

	dial := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	if err := classify(context.Background(), op, dial); !IsStoreUnavailable(err) {
		t.Fatalf("dial failure: err=%v want store unavailable", err)
	}

	cause := errors.New("relation does not exist")
	err := classify(context.Background(), op, cause)
	if IsStoreUnavailable(err) || !errors.Is(err, cause) || !strings.HasPrefix(err.Error(), op) {
		t.Fatalf("query failure: err=%v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := classify(ctx, op, dial); !errors.Is(err, context.Canceled) || IsStoreUnavailable(err) {
		t.Fatalf("canceled: err=%v want context.Canceled", err)
	}
}

func TestWithConn_NilPoolIsUnavailable(t *testing.T) {
	t.Parallel()

	var s *PostgresStore
	err := s.withConn(context.Background(), "operators.GetCredential", nil)
	if !IsStoreUnavailable(err) {
		t.Fatalf("err=%v want store unavailable", err)
	}
}
