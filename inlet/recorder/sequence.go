// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package recorder

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"rflow/common/netflowv5"
)

// exporterKey identifies a flow sequence: an exporter may run several
// engines, each with its own sequence.
type exporterKey struct {
	Exporter   string
	EngineType uint8
	EngineID   uint8
}

// ExporterState is the state of one exporter engine.
type ExporterState struct {
	Exporter       string    `json:"exporter"`
	EngineType     uint8     `json:"engine-type"`
	EngineID       uint8     `json:"engine-id"`
	LastSequence   uint32    `json:"last-sequence"`
	LastExport     time.Time `json:"last-export"`
	Packets        uint64    `json:"packets"`
	Flows          uint64    `json:"flows"`
	LostFlows      uint64    `json:"lost-flows"`
	SequenceResets uint64    `json:"sequence-resets"`
}

type trackedState struct {
	ExporterState
	nextSequence uint32
}

// sequenceTracker follows flow sequences per exporter engine.
type sequenceTracker struct {
	lock   sync.Mutex
	states map[exporterKey]*trackedState
}

func newSequenceTracker() *sequenceTracker {
	return &sequenceTracker{states: map[exporterKey]*trackedState{}}
}

// observe records a packet and returns the number of flows lost since
// the previous packet of the same engine and whether the sequence went
// backward.
func (st *sequenceTracker) observe(exporter string, h netflowv5.Header) (lost uint32, reset bool) {
	key := exporterKey{exporter, h.EngineType, h.EngineID}
	st.lock.Lock()
	defer st.lock.Unlock()

	state, ok := st.states[key]
	if !ok {
		state = &trackedState{ExporterState: ExporterState{
			Exporter:   exporter,
			EngineType: h.EngineType,
			EngineID:   h.EngineID,
		}}
		st.states[key] = state
	} else {
		// Signed difference to handle wrap-around.
		gap := int32(h.FlowSequence - state.nextSequence)
		switch {
		case gap > 0:
			lost = uint32(gap)
			state.LostFlows += uint64(lost)
		case gap < 0:
			reset = true
			state.SequenceResets++
		}
	}
	state.LastSequence = h.FlowSequence
	state.nextSequence = h.FlowSequence + uint32(h.Count)
	state.LastExport = h.Timestamp
	state.Packets++
	state.Flows += uint64(h.Count)
	return lost, reset
}

// snapshot returns a copy of all states, sorted by exporter and engine.
func (st *sequenceTracker) snapshot() []ExporterState {
	st.lock.Lock()
	result := make([]ExporterState, 0, len(st.states))
	for _, state := range st.states {
		result = append(result, state.ExporterState)
	}
	st.lock.Unlock()
	slices.SortFunc(result, func(a, b ExporterState) int {
		if c := cmp.Compare(a.Exporter, b.Exporter); c != 0 {
			return c
		}
		if c := cmp.Compare(a.EngineType, b.EngineType); c != 0 {
			return c
		}
		return cmp.Compare(a.EngineID, b.EngineID)
	})
	return result
}
