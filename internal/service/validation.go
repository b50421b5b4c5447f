package service

// ValidationResult carries hard errors alongside advisory warnings. Warnings
// never block the operation that produced them.
type ValidationResult struct {
	Errors   []string
	Warnings []string
}

func (r *ValidationResult) Valid() bool { return len(r.Errors) == 0 }

func (r *ValidationResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

func (r *ValidationResult) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

func (r *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}
