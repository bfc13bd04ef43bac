// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/comsol-agent/pkg/tracing"
	"github.com/AleutianAI/comsol-agent/services/agent"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive modeling session",
	Run:   runChat,
}

func runChat(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := tracing.Init(ctx, "cli")
	if err != nil {
		log.Fatalf("Error setting up the tracer: %v", err)
	}
	defer shutdownTracer(context.Background())

	loop, err := buildLoop(ctx, cfg)
	if err != nil {
		log.Fatalf("Error starting the agent: %v", err)
	}

	fmt.Println("COMSOL agent ready. Type your request, or 'quit' to exit.")
	if err := runREPL(ctx, loop, os.Stdin, os.Stdout); err != nil {
		log.Fatalf("Chat session failed: %v", err)
	}
}

// runREPL reads user lines and runs each through the loop until EOF, a
// quit token, or context cancellation.
func runREPL(ctx context.Context, loop *agent.Loop, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(out, "\nYou: ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			fmt.Fprintln(out)
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			fmt.Fprintln(out, "Goodbye.")
			return nil
		}
		if err := ctx.Err(); err != nil {
			return nil
		}

		reply, err := loop.RunTurn(ctx, line)
		if err != nil {
			if errors.Is(err, agent.ErrModelCall) {
				// The turn is preserved; resending the same line retries.
				fmt.Fprintf(out, "\n[model call failed: %v]\n[send the same message again to retry]\n", err)
				continue
			}
			return err
		}
		fmt.Fprintf(out, "\nAgent: %s\n", reply)
	}
}
