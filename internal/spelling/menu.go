package spelling

import (
	"github.com/JackWReid/prosecheck/internal/spell"
)

// CorrectionMenu returns the corrections to offer for info, best first. A
// capitalization or replacement verdict offers only the speller's
// replacement.
func (m *Manager) CorrectionMenu(info *MisspelledWordInfo) ([]spell.Suggestion, error) {
	if info == nil {
		return nil, nil
	}
	switch info.Status {
	case spell.Capitalization, spell.ConditionalReplace, spell.AutoReplace:
		if info.Replacement == "" {
			return nil, nil
		}
		return []spell.Suggestion{{Word: info.Replacement, Score: 100}}, nil
	}
	s, err := m.speller.Suggest(info.Word, m.opts.MaxSuggestions, m.opts.SuggestionDepth)
	if err != nil {
		return nil, err
	}
	return Truncate(s, m.opts.ScoreGap, m.opts.MaxSuggestions), nil
}

// Truncate cuts suggestions, sorted best first, at the first score drop of
// gap or more and keeps at most limit of them.
func Truncate(s []spell.Suggestion, gap, limit int) []spell.Suggestion {
	for i := 1; i < len(s); i++ {
		if s[i-1].Score-s[i].Score >= gap {
			s = s[:i]
			break
		}
	}
	if limit > 0 && len(s) > limit {
		s = s[:limit]
	}
	return s
}
