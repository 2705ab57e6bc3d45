package scheduler

import (
	"fmt"
	"sync"
)

var (
	registry   = map[Type]func() Commands{}
	registryMu sync.RWMutex
)

func init() {
	Register(TypeSLURM, func() Commands { return NewSlurm() })
	Register(TypeGENT, func() Commands { return NewGent() })
	Register(TypeSGE, func() Commands { return NewSGE() })
	Register(TypeTorque, func() Commands { return NewTorque() })
	Register(TypeLSF, func() Commands { return NewLsf() })
	Register(TypeMOAB, func() Commands { return NewMoab() })
	Register(TypeFlux, func() Commands { return NewFlux() })
}

// Register installs the command table constructor for a scheduler type.
// Registering a type twice replaces the earlier constructor.
func Register(t Type, newCommands func() Commands) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[t] = newCommands
}

// ForType returns the command table for t.
// TypeRemote and unknown types have no table.
func ForType(t Type) (Commands, error) {
	registryMu.RLock()
	newCommands, ok := registry[t]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no command table for %q", ErrUnknownType, t)
	}
	return newCommands(), nil
}
