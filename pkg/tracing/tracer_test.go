// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tracing

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestInitInstallsRecordingProvider(t *testing.T) {
	ctx := context.Background()

	shutdown, err := Init(ctx, "test-service")
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer shutdown(ctx)

	// With the provider installed, spans must record and carry valid
	// IDs; the no-op provider yields invalid span contexts.
	_, span := otel.Tracer("tracing-test").Start(ctx, "startup-check")
	defer span.End()
	if !span.SpanContext().IsValid() {
		t.Error("span context invalid; global tracer provider not installed")
	}
	if !span.IsRecording() {
		t.Error("span not recording; exporter pipeline not wired")
	}
}
