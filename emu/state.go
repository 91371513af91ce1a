package emu

import (
	"fmt"
	"os"

	"gekko/emu/log"
	"gekko/hw/mmu"
	"gekko/hw/snapshot"
)

// SaveState writes the MMU registers to path.
func (s *System) SaveState(path string) error {
	var data []byte
	s.Exec(func(m *mmu.MMU) {
		data = m.SaveState().Encode()
	})
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	log.ModEmu.InfoZ("state saved").String("path", path).End()
	return nil
}

// LoadState restores the MMU registers from the file at path.
func (s *System) LoadState(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	var state snapshot.MMU
	if err := state.Decode(data); err != nil {
		return fmt.Errorf("load state %s: %w", path, err)
	}

	s.Exec(func(m *mmu.MMU) {
		m.LoadState(&state)
	})
	log.ModEmu.InfoZ("state loaded").String("path", path).End()
	return nil
}

// LoadMemory copies the content of the file at path into physical memory,
// starting at addr.
func (s *System) LoadMemory(path string, addr uint32) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load memory: %w", err)
	}

	s.Exec(func(m *mmu.MMU) {
		err = m.Memory().Load(addr, data)
	})
	if err != nil {
		return fmt.Errorf("load memory %s: %w", path, err)
	}
	log.ModEmu.InfoZ("memory loaded").
		String("path", path).
		Addr("addr", addr).
		Int("size", len(data)).
		End()
	return nil
}
