package wm

import "github.com/1broseidon/biscuitwm/internal/platform"

// Reconcile drops managed windows the server no longer knows about, which
// happens when a destroy notification is missed. A failed enumeration drops
// nothing. It returns the number of windows dropped.
func (m *Manager) Reconcile() int {
	children, err := m.backend.Children()
	if err != nil {
		m.logger.Warn("reconcile: failed to list windows", "error", err)
		return 0
	}
	alive := make(map[platform.WindowID]struct{}, len(children))
	for _, id := range children {
		alive[id] = struct{}{}
	}

	dropped := 0
	for _, id := range m.registry.Windows() {
		if _, ok := alive[id]; ok {
			continue
		}
		m.logger.Info("dropping stale window", "window", hexID(id))
		m.forget(id)
		dropped++
	}
	return dropped
}
