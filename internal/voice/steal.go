package voice

import "slices"

// steal removes one voice to make room for a request at priority.
func (m *Manager) steal(priority uint8) {
	if len(m.voices) == 0 {
		return
	}
	var idx int
	switch m.strategy {
	case LowestPriority:
		idx = m.lowestPriority()
		if m.voices[idx].Priority >= priority {
			// Nothing ranks strictly below the newcomer; the ceiling still
			// holds, so the lowest-ranked voice goes anyway.
			m.logger.Debug("forced steal", "victim", m.voices[idx].ID,
				"victim_priority", m.voices[idx].Priority, "priority", priority)
		}
	case LowestVolume:
		idx = m.quietest()
	default:
		idx = m.oldest()
	}
	victim := m.voices[idx]
	m.logger.Debug("voice stolen", "strategy", m.strategy, "victim", victim.ID,
		"state", victim.State, "envelope", victim.Envelope)
	m.voices = slices.Delete(m.voices, idx, idx+1)
	m.steals++
	if m.onEnd != nil {
		m.onEnd(victim.info())
	}
}

// older orders voices by start time, then by id.
func older(a, b *Voice) bool {
	if a.StartTime != b.StartTime {
		return a.StartTime < b.StartTime
	}
	return a.ID < b.ID
}

func (m *Manager) oldest() int {
	best := 0
	for i, v := range m.voices {
		if older(v, m.voices[best]) {
			best = i
		}
	}
	return best
}

func (m *Manager) lowestPriority() int {
	best := 0
	for i, v := range m.voices {
		b := m.voices[best]
		if v.Priority < b.Priority || (v.Priority == b.Priority && older(v, b)) {
			best = i
		}
	}
	return best
}

func (m *Manager) quietest() int {
	best := 0
	for i, v := range m.voices {
		b := m.voices[best]
		if v.Envelope < b.Envelope || (v.Envelope == b.Envelope && older(v, b)) {
			best = i
		}
	}
	return best
}
