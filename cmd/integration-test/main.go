// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
// Command integration-test exercises a running hive-rag-server end to
// end: ingest a document with a known phrase, then query for it and
// confirm the answer is grounded in a matching source, after first
// connecting to the live event stream (GET /events).
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const baseURL = "http://localhost:8081"

func main() {
	fmt.Println("Starting integration test...")

	fmt.Println("Step 1: connecting to the event stream...")
	conn, _, err := (&websocket.Dialer{HandshakeTimeout: 10 * time.Second}).Dial(wsURL(), nil)
	if err != nil {
		fail("failed to connect to event stream: %v", err)
	}
	defer conn.Close()
	fmt.Println("connected")

	fmt.Println("Step 2: ingesting a test document...")
	phrase := fmt.Sprintf("integration test marker %d confidential pricing information", time.Now().Unix())
	ingestPayload := map[string]any{
		"text": phrase,
		"metadata": map[string]string{
			"doc_path": "integration-test.txt",
		},
	}
	if err := postJSON("/ingest", ingestPayload, nil); err != nil {
		fail("ingest failed: %v", err)
	}
	fmt.Println("document ingested")

	fmt.Println("Step 3: querying for the ingested phrase...")
	var queryResp struct {
		Response string `json:"response"`
		Sources  []struct {
			TextPreview string `json:"text_preview"`
		} `json:"sources"`
	}
	deadline := time.Now().Add(10 * time.Second)
	found := false
	for time.Now().Before(deadline) {
		if err := postJSON("/query", map[string]any{"query": "confidential pricing information", "top_k": 3}, &queryResp); err != nil {
			fail("query failed: %v", err)
		}
		for _, s := range queryResp.Sources {
			if strings.Contains(s.TextPreview, "confidential pricing") {
				found = true
				break
			}
		}
		if found {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}

	if !found {
		fail("query did not return the ingested document as a source within the deadline")
	}
	fmt.Println("query returned the ingested document as a source")
	fmt.Println("Integration test PASSED")
}

func wsURL() string {
	return "ws://localhost:8081/events"
}

func postJSON(path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}
	if out != nil {
		return json.Unmarshal(respBody, out)
	}
	return nil
}

func fail(format string, args ...any) {
	fmt.Printf("FAILED: "+format+"\n", args...)
	os.Exit(1)
}
