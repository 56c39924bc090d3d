package model

// IssueSeverity is the severity of a validation issue.
type IssueSeverity string

const (
	// IssueSeverityInfo is an informative issue, the definition is usable.
	IssueSeverityInfo IssueSeverity = "info"
	// IssueSeverityError means the definition will likely fault at runtime.
	IssueSeverityError IssueSeverity = "error"
)

// ValidationIssue is a problem found on a definition.
type ValidationIssue struct {
	QuestID     QuestID
	Sequence    *uint8
	Step        *int
	Severity    IssueSeverity
	Description string
}

// HasErrors returns true if any issue has an error severity.
func HasErrors(issues []ValidationIssue) bool {
	for _, i := range issues {
		if i.Severity == IssueSeverityError {
			return true
		}
	}
	return false
}

// CountBySeverity counts issues by severity.
func CountBySeverity(issues []ValidationIssue) (infos, errors int) {
	for _, i := range issues {
		switch i.Severity {
		case IssueSeverityInfo:
			infos++
		case IssueSeverityError:
			errors++
		}
	}
	return
}
