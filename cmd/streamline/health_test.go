package main

import (
	"bytes"
	"fmt"
	"net"
	"strings"
	"testing"

	"streamline/internal/transport"
)

func TestHealthCommand(t *testing.T) {
	srv, err := transport.StartServer(0)
	if err != nil {
		t.Fatalf("StartServer: %v", err)
	}
	go srv.Serve()
	defer srv.Stop()
	addr := fmt.Sprintf("localhost:%d", srv.Addr().(*net.TCPAddr).Port)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"health", "--addr", addr})
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("want failure while NOT_SERVING")
	}
	if !strings.Contains(out.String(), "NOT_SERVING") {
		t.Fatalf("unexpected output %q", out.String())
	}

	srv.SetServing(true)
	out.Reset()
	rootCmd.SetArgs([]string{"health", "--addr", addr})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("health: %v", err)
	}
	if strings.TrimSpace(out.String()) != "SERVING" {
		t.Fatalf("unexpected output %q", out.String())
	}
}
