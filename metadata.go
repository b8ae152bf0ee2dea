// Copyright 2025 The Go AgentSvc Authors
// SPDX-License-Identifier: Apache-2.0

package agentsvc

// AgentInfo describes a single agent hosted by the service.
type AgentInfo struct {
	// Key uniquely identifies the agent within the service.
	Key string `json:"key" validate:"required"`

	// Description is a human-readable summary of what the agent does.
	Description string `json:"description,omitzero"`
}

// ServiceMetadata describes the remote agent service: the set of available
// agents, the service's default agent, and optionally the models the service
// can run them against.
type ServiceMetadata struct {
	Agents       []AgentInfo `json:"agents" validate:"required,min=1,dive"`
	DefaultAgent string      `json:"default_agent" validate:"required"`
	Models       []string    `json:"models,omitzero"`
}

// Validate ensures the ServiceMetadata is structurally valid.
func (m *ServiceMetadata) Validate() error {
	return validateStruct(m)
}

// AgentKeys returns the keys of all available agents in declaration order.
func (m *ServiceMetadata) AgentKeys() []string {
	keys := make([]string, len(m.Agents))
	for i, a := range m.Agents {
		keys[i] = a.Key
	}
	return keys
}

// HasAgent reports whether the service hosts an agent with the given key.
func (m *ServiceMetadata) HasAgent(key string) bool {
	for _, a := range m.Agents {
		if a.Key == key {
			return true
		}
	}
	return false
}
