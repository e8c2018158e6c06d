// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package heartbeat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckNow_AllHealthyYieldsOverallHealthy(t *testing.T) {
	m := New(0)
	m.Register("vectorstore", func(ctx context.Context) error { return nil })
	m.Register("llm", func(ctx context.Context) error { return nil })

	status := m.CheckNow(context.Background())
	require.Equal(t, HealthHealthy, status.Overall)
	require.Equal(t, HealthHealthy, status.Components["vectorstore"])
}

func TestCheckNow_OneFailureYieldsDegraded(t *testing.T) {
	m := New(0)
	m.Register("vectorstore", func(ctx context.Context) error { return nil })
	m.Register("llm", func(ctx context.Context) error { return errors.New("timeout") })

	status := m.CheckNow(context.Background())
	require.Equal(t, HealthDegraded, status.Overall)
}

func TestCheckNow_AllFailingYieldsUnhealthy(t *testing.T) {
	m := New(0)
	m.Register("llm", func(ctx context.Context) error { return errors.New("down") })

	status := m.CheckNow(context.Background())
	require.Equal(t, HealthUnhealthy, status.Overall)
}

func TestHistory_IsBoundedAndOrdered(t *testing.T) {
	m := New(0)
	calls := 0
	m.Register("flaky", func(ctx context.Context) error {
		calls++
		if calls%2 == 0 {
			return errors.New("blip")
		}
		return nil
	})

	for i := 0; i < historyLimit+5; i++ {
		m.CheckNow(context.Background())
	}

	hist := m.History("flaky", 0)
	require.Len(t, hist, historyLimit)
}

func TestStartStop_IsIdempotent(t *testing.T) {
	m := New(0)
	m.Register("noop", func(ctx context.Context) error { return nil })

	ctx := context.Background()
	m.Start(ctx)
	m.Start(ctx)
	m.Stop()
	m.Stop()
}
