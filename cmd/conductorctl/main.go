// Copyright (C) 2025 Bakutransit Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command conductorctl is a terminal client for the Conductor API.
//
// Usage:
//
//	conductorctl ask "28 Maydan Nizamiyə necə gedim?"
//	conductorctl chat
//	conductorctl chat --server http://localhost:9090
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var serverURL string

func main() {
	rootCmd := &cobra.Command{
		Use:   "conductorctl",
		Short: "Terminal client for the Conductor transit assistant",
	}
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Conductor API base URL")

	askCmd := &cobra.Command{
		Use:   "ask [message]",
		Short: "Ask a single question",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAsk,
	}

	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		RunE:  runChat,
	}

	rootCmd.AddCommand(askCmd, chatCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type sessionStartResponse struct {
	SessionID string `json:"session_id"`
	Greeting  string `json:"greeting"`
}

type chatResponse struct {
	Reply  string `json:"reply"`
	Intent string `json:"intent"`
}

func runAsk(_ *cobra.Command, args []string) error {
	client := newClient()

	sess, err := startSession(client)
	if err != nil {
		return err
	}

	reply, err := sendChat(client, sess.SessionID, strings.Join(args, " "))
	if err != nil {
		return err
	}

	fmt.Println(reply.Reply)
	return nil
}

func runChat(_ *cobra.Command, _ []string) error {
	client := newClient()

	sess, err := startSession(client)
	if err != nil {
		return err
	}
	fmt.Println(sess.Greeting)
	fmt.Println("(çıxmaq üçün 'exit' yazın)")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		reply, err := sendChat(client, sess.SessionID, line)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			continue
		}
		fmt.Println(reply.Reply)
	}
	return scanner.Err()
}

func newClient() *http.Client {
	return &http.Client{Timeout: 2 * time.Minute}
}

func startSession(client *http.Client) (*sessionStartResponse, error) {
	var resp sessionStartResponse
	if err := postJSON(client, serverURL+"/api/session/start", map[string]any{}, &resp); err != nil {
		return nil, fmt.Errorf("starting session: %w", err)
	}
	return &resp, nil
}

func sendChat(client *http.Client, sessionID, message string) (*chatResponse, error) {
	var resp chatResponse
	payload := map[string]any{"session_id": sessionID, "message": message}
	if err := postJSON(client, serverURL+"/api/chat", payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func postJSON(client *http.Client, url string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return json.Unmarshal(respBody, out)
}
