// Package test provides in-process drivers for multi-party protocol tests.
package test

import (
	"fmt"

	"github.com/keypuzzlewallet/tss/engine"
)

// RunLocalParties drives a set of state machines against each other without
// any transport: outbound messages are delivered synchronously, broadcasts
// to every other party and p2p messages to their receiver. It returns each
// party's terminal output, keyed by party index.
func RunLocalParties(machines map[uint16]engine.StateMachine) (map[uint16]interface{}, error) {
	outputs := make(map[uint16]interface{}, len(machines))
	for len(outputs) < len(machines) {
		progressed := false
		for id, m := range machines {
			if _, done := outputs[id]; done {
				continue
			}
			if m.WantsToProceed() {
				if err := m.Proceed(); err != nil {
					return nil, fmt.Errorf("party %d: %w", id, err)
				}
				progressed = true
			}
			for _, msg := range m.PopMessages() {
				if err := deliver(machines, outputs, msg); err != nil {
					return nil, err
				}
				progressed = true
			}
			if m.IsFinished() {
				out, err := m.PickOutput()
				if err != nil {
					return nil, fmt.Errorf("party %d: %w", id, err)
				}
				outputs[id] = out
				progressed = true
			}
		}
		if !progressed {
			return nil, fmt.Errorf("parties are deadlocked: %d of %d finished", len(outputs), len(machines))
		}
	}
	return outputs, nil
}

func deliver(machines map[uint16]engine.StateMachine, outputs map[uint16]interface{}, msg engine.Msg) error {
	for id, m := range machines {
		if id == msg.Sender {
			continue
		}
		if msg.Receiver != nil && *msg.Receiver != id {
			continue
		}
		if _, done := outputs[id]; done {
			continue
		}
		if err := m.HandleIncoming(msg); err != nil {
			return fmt.Errorf("party %d: handle message from %d: %w", id, msg.Sender, err)
		}
	}
	return nil
}
