package headless

import (
	zone "github.com/lrstanley/bubblezone"

	headlessview "printwatch/internal/ui/headless/view"
)

// runtimeView projects mutable runtime state into the render DTO consumed by the view package.
func (m *headlessModel) runtimeView() headlessview.Runtime {
	return headlessview.Runtime{
		BuildVersion: m.buildVersion,
		Running:      m.running,
		Starting:     m.starting,
		Stopping:     m.stopping,
		Status:       m.status,
		StatusKind:   int(m.kind),
		Rules:        m.ruleHealth,
		HealthDetail: m.healthDetail,
		Archive:      m.archive,
		RecordDir:    m.recordDir,
		Printed:      m.printed,
		Partial:      m.partial,
		Failed:       m.failed,
	}
}

// View is the Bubble Tea render entrypoint; rendering is delegated to the pure view package.
func (m *headlessModel) View() string {
	return zone.Scan(headlessview.RenderApp(&m.ui, m.runtimeView()))
}
