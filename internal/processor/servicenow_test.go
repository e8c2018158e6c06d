// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package processor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTicketProcessor_CanProcess(t *testing.T) {
	p := &TicketProcessor{}
	require.True(t, p.CanProcess("INC0010001.ticket"))
	require.True(t, p.CanProcess("export_servicenow.txt"))
	require.True(t, p.CanProcess("servicenow_export.json"))
	require.False(t, p.CanProcess("notes.txt"))
	require.False(t, p.CanProcess("report.pdf"))
}

func TestTicketProcessor_ExtractsHeaderFieldsAndBody(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "INC0010001.ticket")
	content := "number: INC0010001\nshort_description: VPN drops every 30 minutes\npriority: 2 - High\nstate: In Progress\nassigned_to: network-team\n\nUser reports the VPN client disconnects roughly every 30 minutes during business hours.\nIssue reproduced on two separate laptops.\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	p := &TicketProcessor{}
	result, err := p.Process(context.Background(), path, nil)
	require.NoError(t, err)
	require.Equal(t, "success", result.Status)
	require.Contains(t, result.Text, "number: INC0010001")
	require.Contains(t, result.Text, "VPN client disconnects")
	require.Equal(t, "INC0010001", result.Metadata["number"])
	require.Equal(t, "2 - High", result.Metadata["priority"])
	require.Equal(t, "servicenow_ticket", result.Metadata["source_type"])
}

func TestTicketProcessor_NoHeaderBlockTreatsWholeFileAsBody(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "INC0020002.ticket")
	content := "Freeform ticket dump with no recognizable header fields at all.\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	p := &TicketProcessor{}
	result, err := p.Process(context.Background(), path, nil)
	require.NoError(t, err)
	require.Contains(t, result.Text, "Freeform ticket dump")
}
