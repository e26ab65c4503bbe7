package fiberz

import "testing"

// TestSignalsInitialized verifies the runtime lifecycle signals (every
// signal except the resilience helper ones) are properly initialized.
// This file tests declaration-only code in signals.go.
func TestSignalsInitialized(t *testing.T) {
	signals := []struct {
		name   string
		signal any
	}{
		{"RuntimeStarting", SignalRuntimeStarting},
		{"RuntimeStarted", SignalRuntimeStarted},
		{"RuntimeStopping", SignalRuntimeStopping},
		{"RuntimeStopped", SignalRuntimeStopped},
		{"GroupStarted", SignalGroupStarted},
		{"GroupStopped", SignalGroupStopped},
		{"WorkerSpinning", SignalWorkerSpinning},
		{"WorkerSleeping", SignalWorkerSleeping},
		{"WorkerWoke", SignalWorkerWoke},
		{"WorkerStealing", SignalWorkerStealing},
		{"WorkerStole", SignalWorkerStole},
		{"RunQueueOverflow", SignalRunQueueOverflow},
		{"FiberStarted", SignalFiberStarted},
		{"FiberExited", SignalFiberExited},
		{"FiberPanicked", SignalFiberPanicked},
		{"TimerArmed", SignalTimerArmed},
		{"TimerFired", SignalTimerFired},
		{"TimerCanceled", SignalTimerCanceled},
	}

	for _, s := range signals {
		if s.signal == nil {
			t.Errorf("signal %s is nil", s.name)
		}
	}
}

// TestFieldKeysInitialized verifies the runtime field keys (every key
// except the resilience helper ones) are properly initialized.
func TestFieldKeysInitialized(t *testing.T) {
	fields := []struct {
		name string
		key  any
	}{
		{"Error", FieldError},
		{"Timestamp", FieldTimestamp},
		{"GroupIndex", FieldGroupIndex},
		{"GroupSize", FieldGroupSize},
		{"WorkerIndex", FieldWorkerIndex},
		{"VictimGroup", FieldVictimGroup},
		{"FiberID", FieldFiberID},
		{"FiberName", FieldFiberName},
		{"ScopeLocal", FieldScopeLocal},
		{"SystemFiber", FieldSystemFiber},
		{"QueueDepth", FieldQueueDepth},
		{"QueueCapacity", FieldQueueCapacity},
		{"TimerID", FieldTimerID},
		{"TimerPeriodic", FieldTimerPeriodic},
	}

	for _, f := range fields {
		if f.key == nil {
			t.Errorf("field key %s is nil", f.name)
		}
	}
}
