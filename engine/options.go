package engine

import "github.com/dominoengine/simcore/engine/emit"

// Option configures an Engine at construction time. Functional options
// keep RunDescriptor assembly composable without a constructor explosion
// as the core grows new knobs (§6).
type Option func(*engineConfig) error

// engineConfig collects options before they're applied to an Engine.
type engineConfig struct {
	descriptor RunDescriptor
	emitter    emit.Emitter
}

// WithSchemaVersions sets the schema versions carried on the RunDescriptor.
func WithSchemaVersions(versions map[string]uint32) Option {
	return func(cfg *engineConfig) error {
		cfg.descriptor.SchemaVersions = versions
		return nil
	}
}

// WithSeed sets the initial seed subsystems may use for their own
// deterministic randomness; the core itself never consults it.
func WithSeed(seed uint64) Option {
	return func(cfg *engineConfig) error {
		cfg.descriptor.Seed = seed
		return nil
	}
}

// WithPhaseBudget sets the soft per-tick cap for phase.
func WithPhaseBudget(phase Phase, units uint32) Option {
	return func(cfg *engineConfig) error {
		if cfg.descriptor.PhaseBudgets == nil {
			cfg.descriptor.PhaseBudgets = make(map[Phase]uint32)
		}
		cfg.descriptor.PhaseBudgets[phase] = units
		return nil
	}
}

// WithDomainBudget sets the per-tick cap for domain.
func WithDomainBudget(domain DomainID, units uint32) Option {
	return func(cfg *engineConfig) error {
		if cfg.descriptor.DomainBudgets == nil {
			cfg.descriptor.DomainBudgets = make(map[DomainID]uint32)
		}
		cfg.descriptor.DomainBudgets[domain] = units
		return nil
	}
}

// WithAllowedOpsMask sets the default gating mask passed to every
// producer's EmitTasks call, unless overridden per-producer.
func WithAllowedOpsMask(mask uint64) Option {
	return func(cfg *engineConfig) error {
		cfg.descriptor.AllowedOpsMask = mask
		return nil
	}
}

// WithBudgetHint sets the default per-producer item budget passed to
// EmitTasks each tick.
func WithBudgetHint(hint uint32) Option {
	return func(cfg *engineConfig) error {
		cfg.descriptor.BudgetHint = hint
		return nil
	}
}

// WithEmitter installs the Emitter the engine's tick_begin/tick_end
// events are routed through. Defaults to emit.NewNullEmitter().
func WithEmitter(e emit.Emitter) Option {
	return func(cfg *engineConfig) error {
		if e == nil {
			return ErrInvalidArgument
		}
		cfg.emitter = e
		return nil
	}
}
