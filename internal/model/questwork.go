package model

// CompletionFlagSlots is the number of progress variables tracked per quest.
const CompletionFlagSlots = 6

// QuestWork is the live progress of a quest as reported by the environment.
type QuestWork struct {
	Sequence  uint8
	Variables [CompletionFlagSlots]uint8
}

// QuestWorkValue is an expected progress variable. Each nibble is optional,
// a nil nibble matches anything.
type QuestWorkValue struct {
	High *uint8
	Low  *uint8
}

// NewQuestWorkValue returns a value matching the full byte.
func NewQuestWorkValue(v uint8) *QuestWorkValue {
	high, low := v>>4, v&0x0F
	return &QuestWorkValue{High: &high, Low: &low}
}

// IsSet returns true if any nibble expects a non zero value.
func (v QuestWorkValue) IsSet() bool {
	return (v.High != nil && *v.High > 0) || (v.Low != nil && *v.Low > 0)
}

// Matches returns true if the live variable satisfies the expected nibbles.
func (v QuestWorkValue) Matches(actual uint8) bool {
	if v.High != nil && *v.High != actual>>4 {
		return false
	}
	if v.Low != nil && *v.Low != actual&0x0F {
		return false
	}
	return true
}

// HasCompletionFlags returns true when flags describe a usable completion check:
// all slots present and at least one expecting progress.
func HasCompletionFlags(flags []*QuestWorkValue) bool {
	if len(flags) != CompletionFlagSlots {
		return false
	}
	for _, f := range flags {
		if f != nil && f.IsSet() {
			return true
		}
	}
	return false
}

// MatchesQuestWork checks the expected flags against live progress.
func MatchesQuestWork(flags []*QuestWorkValue, work QuestWork) bool {
	if len(flags) != CompletionFlagSlots {
		return false
	}
	for i, f := range flags {
		if f == nil {
			continue
		}
		if !f.Matches(work.Variables[i]) {
			return false
		}
	}
	return true
}
