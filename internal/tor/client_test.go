package tor

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"
)

// TestNewClient tests the Client constructor.
func TestNewClient(t *testing.T) {
	t.Parallel()

	t.Run("valid proxy address creates client", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient("127.0.0.1:9050")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client == nil {
			t.Fatal("expected non-nil client")
		}
		if client.ProxyAddress() != "127.0.0.1:9050" {
			t.Errorf("ProxyAddress() = %q, expected %q", client.ProxyAddress(), "127.0.0.1:9050")
		}
	})

	t.Run("localhost:port is valid", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient("localhost:9050")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client == nil {
			t.Fatal("expected non-nil client")
		}
	})

	t.Run("empty address returns error", func(t *testing.T) {
		t.Parallel()

		_, err := NewClient("")
		if !errors.Is(err, ErrInvalidProxyAddress) {
			t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
		}
	})

	t.Run("address without port returns error", func(t *testing.T) {
		t.Parallel()

		_, err := NewClient("127.0.0.1")
		if !errors.Is(err, ErrInvalidProxyAddress) {
			t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
		}
	})

	t.Run("address with empty host returns error", func(t *testing.T) {
		t.Parallel()

		_, err := NewClient(":9050")
		if !errors.Is(err, ErrInvalidProxyAddress) {
			t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
		}
	})

	t.Run("address with multiple colons returns error", func(t *testing.T) {
		t.Parallel()

		_, err := NewClient("127.0.0.1:9050:extra")
		if !errors.Is(err, ErrInvalidProxyAddress) {
			t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
		}
	})
}

// TestIsValidProxyAddress tests the proxy address validation function.
func TestIsValidProxyAddress(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		address  string
		expected bool
	}{
		{"valid IPv4 with port", "127.0.0.1:9050", true},
		{"valid localhost with port", "localhost:9050", true},
		{"valid hostname with port", "tor.example.com:9050", true},
		{"empty string", "", false},
		{"no port", "127.0.0.1", false},
		{"empty host", ":9050", false},
		{"empty port", "127.0.0.1:", false},
		{"multiple colons", "127.0.0.1:9050:extra", false},
		{"only colon", ":", false},
		{"non-numeric port", "127.0.0.1:abc", false},
		{"port out of range", "127.0.0.1:70000", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			result := isValidProxyAddress(tc.address)
			if result != tc.expected {
				t.Errorf("isValidProxyAddress(%q) = %v, expected %v", tc.address, result, tc.expected)
			}
		})
	}
}

// TestProxyURL tests the proxy URL format used by the browser renderer.
func TestProxyURL(t *testing.T) {
	t.Parallel()

	client, err := NewClient("127.0.0.1:9050")
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	if got := client.ProxyURL(); got != "socks5://127.0.0.1:9050" {
		t.Errorf("ProxyURL() = %q, expected %q", got, "socks5://127.0.0.1:9050")
	}
}

// TestProxyStatus tests ProxyStatus String and Error methods.
func TestProxyStatus(t *testing.T) {
	t.Parallel()

	t.Run("String method returns correct values", func(t *testing.T) {
		t.Parallel()

		testCases := []struct {
			status   ProxyStatus
			expected string
		}{
			{ProxyStatusOK, "OK"},
			{ProxyStatusWrongType, "wrong type (not Tor)"},
			{ProxyStatusCannotConnect, "cannot connect"},
			{ProxyStatusTimeout, "timeout"},
			{ProxyStatus(99), "unknown"},
		}

		for _, tc := range testCases {
			if tc.status.String() != tc.expected {
				t.Errorf("ProxyStatus(%d).String() = %q, expected %q", tc.status, tc.status.String(), tc.expected)
			}
		}
	})

	t.Run("Error method returns correct errors", func(t *testing.T) {
		t.Parallel()

		testCases := []struct {
			status      ProxyStatus
			expectedErr error
		}{
			{ProxyStatusOK, nil},
			{ProxyStatusWrongType, ErrProxyNotTor},
			{ProxyStatusCannotConnect, ErrProxyCannotConnect},
			{ProxyStatusTimeout, ErrProxyTimeout},
		}

		for _, tc := range testCases {
			err := tc.status.Error()
			if !errors.Is(err, tc.expectedErr) {
				t.Errorf("ProxyStatus(%d).Error() = %v, expected %v", tc.status, err, tc.expectedErr)
			}
		}
	})

	t.Run("Unknown status returns error", func(t *testing.T) {
		t.Parallel()

		unknown := ProxyStatus(99)
		if unknown.Error() == nil {
			t.Error("expected error for unknown status")
		}
	})
}

// TestCheckConnection tests the SOCKS5 proxy verification.
func TestCheckConnection(t *testing.T) {
	t.Parallel()

	t.Run("returns CannotConnect for non-existent proxy", func(t *testing.T) {
		t.Parallel()

		// Use a port that's unlikely to be in use
		client, err := NewClient("127.0.0.1:59999")
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		status := client.CheckConnection(context.Background())
		if status != ProxyStatusCannotConnect {
			t.Errorf("expected ProxyStatusCannotConnect, got %v", status)
		}
	})

	t.Run("returns WrongType for non-SOCKS5 server", func(t *testing.T) {
		t.Parallel()

		// Mock server that answers the SOCKS5 greeting with HTTP
		listener, err := net.Listen("tcp", "127.0.0.1:0") //nolint:noctx // test code
		if err != nil {
			t.Fatalf("failed to start mock server: %v", err)
		}
		defer listener.Close()

		go func() {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
			buf := make([]byte, 3)
			_, _ = conn.Read(buf)
			_, _ = conn.Write([]byte("HTTP/1.1 200 OK\r\n\r\n"))
		}()

		client, err := NewClient(listener.Addr().String())
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		status := client.CheckConnection(context.Background())
		if status != ProxyStatusWrongType {
			t.Errorf("expected ProxyStatusWrongType, got %v", status)
		}
	})

	t.Run("returns WrongType for SOCKS5 requiring auth", func(t *testing.T) {
		t.Parallel()

		listener, err := net.Listen("tcp", "127.0.0.1:0") //nolint:noctx // test code
		if err != nil {
			t.Fatalf("failed to start mock server: %v", err)
		}
		defer listener.Close()

		go func() {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
			buf := make([]byte, 3)
			_, _ = conn.Read(buf)
			// 0xFF: no acceptable auth methods
			_, _ = conn.Write([]byte{0x05, 0xFF})
		}()

		client, err := NewClient(listener.Addr().String())
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		status := client.CheckConnection(context.Background())
		if status != ProxyStatusWrongType {
			t.Errorf("expected ProxyStatusWrongType, got %v", status)
		}
	})

	t.Run("returns OK for valid SOCKS5 proxy", func(t *testing.T) {
		t.Parallel()

		listener, err := net.Listen("tcp", "127.0.0.1:0") //nolint:noctx // test code
		if err != nil {
			t.Fatalf("failed to start mock server: %v", err)
		}
		defer listener.Close()

		go func() {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			defer conn.Close()

			// Greeting: version + num methods + methods
			buf := make([]byte, 3)
			_, _ = conn.Read(buf)
			_, _ = conn.Write([]byte{0x05, 0x00})

			connectBuf := make([]byte, 256)
			_, _ = conn.Read(connectBuf)

			// Host unreachable is what Tor returns for the synthetic
			// probe name; any SOCKS5 reply counts as OK.
			_, _ = conn.Write([]byte{0x05, 0x04, 0x00, 0x01, 0, 0, 0, 0, 0, 0})
		}()

		client, err := NewClient(listener.Addr().String())
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		status := client.CheckConnection(context.Background())
		if status != ProxyStatusOK {
			t.Errorf("expected ProxyStatusOK, got %v", status)
		}
	})

	t.Run("returns WrongType for wrong version in CONNECT response", func(t *testing.T) {
		t.Parallel()

		listener, err := net.Listen("tcp", "127.0.0.1:0") //nolint:noctx // test code
		if err != nil {
			t.Fatalf("failed to start mock server: %v", err)
		}
		defer listener.Close()

		go func() {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			defer conn.Close()

			buf := make([]byte, 3)
			_, _ = conn.Read(buf)
			_, _ = conn.Write([]byte{0x05, 0x00})

			connectBuf := make([]byte, 256)
			_, _ = conn.Read(connectBuf)

			// SOCKS4 version byte in the reply
			_, _ = conn.Write([]byte{0x04, 0x00, 0x00, 0x01})
		}()

		client, err := NewClient(listener.Addr().String())
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		status := client.CheckConnection(context.Background())
		if status != ProxyStatusWrongType {
			t.Errorf("expected ProxyStatusWrongType, got %v", status)
		}
	})

	t.Run("handles context cancellation", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient("127.0.0.1:59998")
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		status := client.CheckConnection(ctx)
		if status != ProxyStatusCannotConnect && status != ProxyStatusTimeout {
			t.Errorf("expected ProxyStatusCannotConnect or ProxyStatusTimeout, got %v", status)
		}
	})
}

// TestDialContext tests the DialContext method.
func TestDialContext(t *testing.T) {
	t.Parallel()

	client, err := NewClient("127.0.0.1:9050")
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	t.Run("returns error for cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := client.DialContext(ctx, "tcp", "example.onion:80")
		if err == nil {
			t.Log("DialContext succeeded unexpectedly")
		}
	})

	t.Run("returns error for unreachable proxy", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		_, err := client.DialContext(ctx, "tcp", "example.onion:80")
		if err == nil {
			t.Log("DialContext succeeded (Tor proxy may be running)")
		}
	})
}
