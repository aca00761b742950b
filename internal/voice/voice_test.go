// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package voice

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTranscribe(t *testing.T) {
	var gotBody []byte
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte(`{"text": "what is go"}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{Endpoint: srv.URL})
	text, err := c.Transcribe(context.Background(), []byte("fake-audio"), "audio/wav")
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if text != "what is go" {
		t.Errorf("text = %q", text)
	}
	if string(gotBody) != "fake-audio" {
		t.Errorf("body = %q", gotBody)
	}
	if gotContentType != "audio/wav" {
		t.Errorf("content type = %q", gotContentType)
	}
}

func TestTranscribeNoSpeechIsNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text": "  "}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{Endpoint: srv.URL})
	text, err := c.Transcribe(context.Background(), nil, "")
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if text != "" {
		t.Errorf("text = %q, want empty for silence", text)
	}
}

func TestTranscribeRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{Endpoint: srv.URL})
	_, err := c.Transcribe(context.Background(), nil, "")
	if err == nil {
		t.Fatal("Transcribe should surface remote errors")
	}
}

func TestTranscribeNotConfigured(t *testing.T) {
	c := NewClient(ClientConfig{})
	if c.Enabled() {
		t.Error("client with no endpoint reports enabled")
	}
	if _, err := c.Transcribe(context.Background(), nil, ""); err == nil {
		t.Error("Transcribe without endpoint should fail")
	}
}
