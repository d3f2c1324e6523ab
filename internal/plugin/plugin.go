// Package plugin defines the lifecycle hook contract between the
// deployment host and its plugins.
package plugin

// BeforeDeploy is the lifecycle point fired immediately before the
// compiled template is handed to the deployment provider.
const BeforeDeploy = "before:deploy:deploy"

// Hook binds a handler to a named lifecycle point.
type Hook struct {
	Name    string
	Handler func() error
}

// Plugin is implemented by components that participate in the deployment
// lifecycle. A plugin declares its hooks once at registration; the host
// owns the lifecycle points and fires them.
type Plugin interface {
	Name() string
	Hooks() []Hook
}

// Manager holds registered plugins and fires their hooks.
type Manager struct {
	plugins []Plugin
}

// Register appends p to the run order. Plugins run in registration order.
func (m *Manager) Register(p Plugin) {
	m.plugins = append(m.plugins, p)
}

// Run fires every hook registered for the given lifecycle point. The
// first handler error stops the run and is returned unwrapped, so callers
// see the hook's own error.
func (m *Manager) Run(point string) error {
	for _, p := range m.plugins {
		for _, h := range p.Hooks() {
			if h.Name != point {
				continue
			}
			if h.Handler == nil {
				continue
			}
			if err := h.Handler(); err != nil {
				return err
			}
		}
	}
	return nil
}
